package redis

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	goredis "github.com/redis/go-redis/v9"
)

var (
	redisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_requests_total",
			Help: "Total number of Redis requests by method.",
		},
		[]string{"method"},
	)
	redisErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_errors_total",
			Help: "Total number of Redis errors by method.",
		},
		[]string{"method"},
	)
	redisRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_request_duration_seconds",
			Help:    "Redis request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// MetricsClient decorates Client with per-method request, error, and latency
// metrics. A cache miss counts as a request, not an error.
type MetricsClient struct {
	next *Client
}

func NewMetricsClient(next *Client) *MetricsClient {
	return &MetricsClient{next: next}
}

// instrument times call and feeds the per-method counters. redis.Nil is a
// miss, never an error.
func instrument(method string, call func() error) error {
	timer := prometheus.NewTimer(redisRequestDuration.WithLabelValues(method))
	err := call()
	timer.ObserveDuration()

	redisRequestsTotal.WithLabelValues(method).Inc()
	if err != nil && !errors.Is(err, goredis.Nil) {
		redisErrorsTotal.WithLabelValues(method).Inc()
	}

	return err
}

func (m *MetricsClient) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := instrument("get", func() error {
		var getErr error
		value, getErr = m.next.Get(ctx, key)
		return getErr
	})

	return value, err
}

func (m *MetricsClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return instrument("set", func() error {
		return m.next.Set(ctx, key, value, ttl)
	})
}

func (m *MetricsClient) Delete(ctx context.Context, key string) error {
	return instrument("delete", func() error {
		return m.next.Delete(ctx, key)
	})
}

// TxPipeline forwards to the underlying client. Pipelined commands are not
// instrumented individually.
func (m *MetricsClient) TxPipeline() goredis.Pipeliner {
	return m.next.TxPipeline()
}

func (m *MetricsClient) Close() error {
	return m.next.Close()
}
