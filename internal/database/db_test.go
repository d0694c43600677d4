package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestOptionsDSN(t *testing.T) {
	o := Options{User: "bot", Pass: "secret", Host: "db", Port: "3306", Name: "chat"}
	assert.Equal(t, "bot:secret@tcp(db:3306)/chat?charset=utf8mb4&parseTime=true&loc=UTC", o.DSN())

	o.Pass = ""
	assert.Equal(t, "bot@tcp(db:3306)/chat?charset=utf8mb4&parseTime=true&loc=UTC", o.DSN())
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, SQLite))
	require.NoError(t, Migrate(ctx, db, SQLite))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('sessions', 'orders')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMigrateRejectsUnknownDialect(t *testing.T) {
	assert.Error(t, Migrate(context.Background(), nil, Dialect("oracle")))
}
