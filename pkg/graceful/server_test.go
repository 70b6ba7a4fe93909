package graceful

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_CleanShutdownReturnsNil(t *testing.T) {
	srv := NewServer(testLogger(), &http.Server{Addr: "127.0.0.1:0"}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx)
	}()

	// Give the listener a moment to come up before asking it to stop.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_BindFailureReturnsImmediately(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	srv := NewServer(testLogger(), &http.Server{Addr: listener.Addr().String()}, time.Second)

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(context.Background())
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not report the bind failure")
	}
}

func TestServer_NilHTTPServer(t *testing.T) {
	srv := NewServer(testLogger(), nil, 0)

	assert.NoError(t, srv.ListenAndServe(context.Background()))
}

func TestNewServer_DefaultsShutdownTimeout(t *testing.T) {
	srv := NewServer(nil, &http.Server{}, 0)

	assert.Equal(t, DefaultShutdownTimeout, srv.shutdownTimeout)
}
