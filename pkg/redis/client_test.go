package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) *Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := New(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestClient_SetGetDelete(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "participant:1", "registered", time.Minute))

	value, err := client.Get(ctx, "participant:1")
	require.NoError(t, err)
	assert.Equal(t, "registered", value)

	require.NoError(t, client.Delete(ctx, "participant:1"))

	_, err = client.Get(ctx, "participant:1")
	assert.ErrorIs(t, err, goredis.Nil)
}

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := New(ctx, Config{Addr: "127.0.0.1:1", MaxRetries: -1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestMetricsClient_ForwardsOperations(t *testing.T) {
	client := setupClient(t)
	instrumented := NewMetricsClient(client)
	ctx := context.Background()

	require.NoError(t, instrumented.Set(ctx, "counter", 7, 0))

	value, err := instrumented.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "7", value)

	_, err = instrumented.Get(ctx, "missing")
	assert.ErrorIs(t, err, goredis.Nil)

	require.NoError(t, instrumented.Delete(ctx, "counter"))

	pipe := instrumented.TxPipeline()
	pipe.SAdd(ctx, "segment", "1")
	_, err = pipe.Exec(ctx)
	require.NoError(t, err)
}

func TestConfig_AsynqOpt(t *testing.T) {
	cfg := Config{Addr: "redis.internal:6379", Password: "pw", DB: 2, PoolSize: 20}

	opt := cfg.AsynqOpt()

	assert.Equal(t, cfg.Addr, opt.Addr)
	assert.Equal(t, cfg.Password, opt.Password)
	assert.Equal(t, cfg.DB, opt.DB)
	assert.Equal(t, cfg.PoolSize, opt.PoolSize)
}
