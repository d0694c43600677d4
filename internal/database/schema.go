package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect selects the DDL flavour used by Migrate.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// sessions holds one row per device with its in-progress order serialized
// as a JSON array of lines.  orders is append-only: one row per checkout.
var schema = map[Dialect][]string{
	MySQL: {
		`CREATE TABLE IF NOT EXISTS sessions (
            device_id     VARCHAR(64)  NOT NULL PRIMARY KEY,
            current_order TEXT         NOT NULL,
            created_at    DATETIME(3)  NOT NULL,
            INDEX idx_sessions_created_at (created_at)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS orders (
            id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
            device_id  VARCHAR(64)     NOT NULL,
            items      TEXT            NOT NULL,
            status     VARCHAR(16)     NOT NULL,
            created_at DATETIME(3)     NOT NULL,
            INDEX idx_orders_device (device_id, id)
        ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS sessions (
            device_id     TEXT     NOT NULL PRIMARY KEY,
            current_order TEXT     NOT NULL,
            created_at    DATETIME NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions (created_at)`,
		`CREATE TABLE IF NOT EXISTS orders (
            id         INTEGER  PRIMARY KEY AUTOINCREMENT,
            device_id  TEXT     NOT NULL,
            items      TEXT     NOT NULL,
            status     TEXT     NOT NULL,
            created_at DATETIME NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_device ON orders (device_id, id)`,
	},
}

// Migrate creates the order store tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	stmts, ok := schema[dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
