// Package health aggregates readiness checks for the service's backing
// stores and serves them over HTTP.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// statusHealthy is the per-component result reported when a check passes.
const statusHealthy = "OK"

// Checkable is a component that can report its health.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs the registered component checks and aggregates the results.
type Checker struct {
	log    *slog.Logger
	checks map[string]Checkable
}

func NewChecker(log *slog.Logger) *Checker {
	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a component check under name. Unnamed or nil checks are
// ignored. Registration happens during startup; the map is read-only after.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.checks[name] = check
}

// Check reports one line per component: "OK" or the failure text.
func (c *Checker) Check(ctx context.Context) map[string]string {
	results := make(map[string]string, len(c.checks))
	for name, check := range c.checks {
		results[name] = c.run(ctx, name, check)
	}

	return results
}

func (c *Checker) run(ctx context.Context, name string, check Checkable) string {
	err := check.HealthCheck(ctx)
	if err == nil {
		return statusHealthy
	}

	if c.log != nil {
		c.log.Error("health check failed",
			slog.String("component", name),
			slog.Any("error", err),
		)
	}

	return err.Error()
}

// Handler serves the aggregated report as JSON. Any failing component turns
// the response into a 503.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := c.Check(r.Context())

		status, overall := http.StatusOK, "ok"
		for _, result := range results {
			if result != statusHealthy {
				status, overall = http.StatusServiceUnavailable, "degraded"
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": overall,
			"checks": results,
		})
	})
}

// DBChecker reports whether the PostgreSQL connection pool is reachable.
type DBChecker struct {
	db *sql.DB
}

func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return sql.ErrConnDone
	}

	return c.db.PingContext(ctx)
}

// Pinger is the subset of the Redis client health checks need.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker reports whether Redis answers a PING.
type RedisChecker struct {
	pinger Pinger
}

func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}

	return c.pinger.Ping(ctx).Err()
}
