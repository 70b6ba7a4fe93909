// Package graceful runs an http.Server tied to a context: cancellation
// drains in-flight requests before the process exits.
package graceful

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds the drain period when none is configured.
const DefaultShutdownTimeout = 10 * time.Second

// Server ties an http.Server's lifetime to a context.
type Server struct {
	srv             *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration
}

func NewServer(log *slog.Logger, srv *http.Server, shutdownTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	return &Server{srv: srv, log: log, shutdownTimeout: shutdownTimeout}
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled or
// the listener fails. A clean shutdown returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", slog.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		// The listener died on its own, e.g. the port was taken.
		return serveError(err)
	case <-ctx.Done():
	}

	return s.drain(errCh)
}

// drain stops accepting connections and waits out in-flight requests, bounded
// by the shutdown timeout.
func (s *Server) drain(errCh <-chan error) error {
	s.log.Info("shutting down http server", slog.Duration("timeout", s.shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return serveError(<-errCh)
}

// serveError filters the http.ErrServerClosed a stopped listener reports.
func serveError(err error) error {
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}
