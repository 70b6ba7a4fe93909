// Package shutdown runs named teardown hooks in parallel when the process is
// asked to stop.
package shutdown

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Coordinator collects teardown hooks and executes them concurrently. Hooks
// must not depend on each other's completion order.
type Coordinator struct {
	mu    sync.Mutex
	hooks []hook
	log   *slog.Logger
}

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCoordinator constructs a new Coordinator.
func NewCoordinator(log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}

	return &Coordinator{log: log}
}

// Register adds a named teardown hook.
func (c *Coordinator) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hooks = append(c.hooks, hook{name: name, fn: fn})
}

// Execute runs every registered hook concurrently and waits for all of them.
// One failing hook never stops the others; every failure is logged and the
// first one is returned.
func (c *Coordinator) Execute(ctx context.Context) error {
	c.mu.Lock()
	hooks := append([]hook(nil), c.hooks...)
	c.mu.Unlock()

	start := time.Now()
	c.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var group errgroup.Group
	for _, h := range hooks {
		h := h
		group.Go(func() error {
			hookStart := time.Now()

			if err := h.fn(ctx); err != nil {
				c.log.Error("shutdown hook failed",
					slog.String("hook", h.name),
					slog.Duration("elapsed", time.Since(hookStart)),
					slog.Any("error", err))
				return fmt.Errorf("%s: %w", h.name, err)
			}

			c.log.Info("shutdown hook completed",
				slog.String("hook", h.name),
				slog.Duration("elapsed", time.Since(hookStart)))

			return nil
		})
	}

	err := group.Wait()
	c.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return err
}
