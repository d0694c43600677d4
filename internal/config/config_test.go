package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 500*time.Millisecond, cfg.ChatDebounce)
	assert.Equal(t, 10000, cfg.ChatMaxSessions)
	assert.Equal(t, 24*time.Hour, cfg.SessionRetention)
	assert.Equal(t, 720*time.Hour, cfg.DeviceTokenTTL)
	assert.False(t, cfg.OrderEventsEnabled)
}

func TestLoadReportsEveryMissingVar(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_PORT", "STORE_DRIVER", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		t.Setenv(k, "")
	}
	_, err := Load()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.ErrorContains(t, err, "mongo")
}

func TestOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CHAT_DEBOUNCE", "250ms")
	t.Setenv("ORDER_EVENTS_ENABLED", "yes")
	t.Setenv("RABBITMQ_URL", "amqp://broker:5672/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.ChatDebounce)
	assert.True(t, cfg.OrderEventsEnabled)
	assert.Equal(t, "amqp://broker:5672/", cfg.AMQPURL)
}

func TestRateLimitNormalized(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillInterval: 2 * time.Second}.normalized()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestRedisOptionsUnset(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_HOST", "")
	_, ok := RedisOptions()
	assert.False(t, ok)

	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	opts, ok := RedisOptions()
	require.True(t, ok)
	assert.Equal(t, "cache:6380", opts.Addr)
}
