package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-inventory/pkg/config"
)

func TestSetNXAndCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.LockKey("cron-worker", "test")

	ok, err := client.SetNX(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = client.SetNX(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	deleted, err := client.CompareAndDelete(ctx, key, "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted, "wrong owner keeps the key")
	owner, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "owner-a", owner)

	deleted, err = client.CompareAndDelete(ctx, key, "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestCompareAndExpire(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	_, err := client.SetNX(ctx, "k", "owner-a", time.Minute)
	require.NoError(t, err)

	extended, err := client.CompareAndExpire(ctx, "k", "owner-a", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, extended)
	assert.Equal(t, 5*time.Minute, mock.ttl["k"])

	extended, err = client.CompareAndExpire(ctx, "k", "owner-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, extended)
	assert.Equal(t, 5*time.Minute, mock.ttl["k"])
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	require.ErrorIs(t, client.Ping(ctx), errNotInitialized)
	_, err := client.SetNX(ctx, "k", "v", 0)
	require.ErrorIs(t, err, errNotInitialized)
	_, err = client.CompareAndDelete(ctx, "k", "v")
	require.ErrorIs(t, err, errNotInitialized)
	require.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "pos:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "pos:lock:cron-worker:prod", client.LockKey("cron-worker", "prod"))
	assert.Equal(t, "pos:alert:low-stock", client.AlertKey("low-stock", ""), "blank parts are skipped")
	assert.Equal(t, "pos:alert:low-stock:abc", client.AlertKey(" low-stock ", "abc"))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://localhost:6379/2",
		PoolSize:    7,
		DialTimeout: 3 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 4, opts.DB)
}

// mockCmdable keeps values in memory and interprets the two owner scripts.
type mockCmdable struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	if m.data[key] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	switch script {
	case compareAndDeleteScript:
		delete(m.data, key)
	case compareAndExpireScript:
		m.ttl[key] = time.Duration(args[1].(int64)) * time.Millisecond
	}
	return redis.NewCmdResult(int64(1), nil)
}
