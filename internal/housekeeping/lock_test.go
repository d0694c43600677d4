package housekeeping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps string keys in a map and ignores TTLs.
type fakeRedis struct {
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisLockExclusive(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	a, err := NewRedisLock(store, "housekeeping:lock", time.Minute)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "housekeeping:lock", time.Minute)
	require.NoError(t, err)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b never owned it and must not delete a's key
	require.NoError(t, b.Release(ctx))
	assert.Contains(t, store.data, "housekeeping:lock")

	require.NoError(t, a.Release(ctx))
	assert.NotContains(t, store.data, "housekeeping:lock")

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockDoesNotDeleteForeignOwner(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	l, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)
	_, err = l.Acquire(ctx)
	require.NoError(t, err)

	store.data["k"] = "someone-else"
	require.NoError(t, l.Release(ctx))
	assert.Equal(t, "someone-else", store.data["k"])
}

func TestRedisLockAcquireError(t *testing.T) {
	store := newFakeRedis()
	store.err = errors.New("conn refused")
	l, err := NewRedisLock(store, "k", 0)
	require.NoError(t, err)
	_, err = l.Acquire(context.Background())
	assert.ErrorContains(t, err, "conn refused")
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(newFakeRedis(), "", time.Minute)
	assert.Error(t, err)
}

func TestLocalLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	var l LocalLock
	ok, _ := l.Acquire(ctx)
	assert.True(t, ok)
	ok, _ = l.Acquire(ctx)
	assert.False(t, ok)
	require.NoError(t, l.Release(ctx))
	ok, _ = l.Acquire(ctx)
	assert.True(t, ok)
}
