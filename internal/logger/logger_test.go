package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFieldsAreCarried(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{ServiceName: "chat", Output: &buf})

	ctx := l.WithDeviceID(context.Background(), "dev-1")
	ctx = l.WithConnID(ctx, "conn-9")
	l.Error(ctx, "store failed", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "chat", line["service"])
	assert.Equal(t, "dev-1", line["device_id"])
	assert.Equal(t, "conn-9", line["conn_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "error", line["level"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: "info"})
	l.Debug(context.Background(), "hidden")
	assert.Zero(t, buf.Len())
}

func TestZeroOptionsLogAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{ServiceName: "chat", Output: &buf})
	l.Debug(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	l.Info(context.Background(), "shown")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestDebugLevelByName(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: "debug"})
	l.Debug(context.Background(), "visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}
