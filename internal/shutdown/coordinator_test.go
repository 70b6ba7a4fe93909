package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCoordinator_ExecuteRunsEveryHook(t *testing.T) {
	coordinator := NewCoordinator(testLogger())

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		coordinator.Register("hook", func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}

	require.NoError(t, coordinator.Execute(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestCoordinator_FailingHookDoesNotStopOthers(t *testing.T) {
	coordinator := NewCoordinator(testLogger())

	var redisClosed atomic.Bool
	coordinator.Register("postgres", func(context.Context) error {
		return errors.New("connection busy")
	})
	coordinator.Register("redis", func(context.Context) error {
		redisClosed.Store(true)
		return nil
	})

	err := coordinator.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
	assert.True(t, redisClosed.Load())
}

func TestCoordinator_NilHookIgnored(t *testing.T) {
	coordinator := NewCoordinator(testLogger())
	coordinator.Register("noop", nil)

	assert.NoError(t, coordinator.Execute(context.Background()))
}

func TestCoordinator_NoHooks(t *testing.T) {
	coordinator := NewCoordinator(nil)

	assert.NoError(t, coordinator.Execute(context.Background()))
}
