// Package metrics exposes the Prometheus instruments of the participant
// lifecycle. Counters and histograms are fed by the service as it works;
// the state gauges are refreshed from storage by the Collector.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/contribfest/participation/internal/domain"
	"github.com/contribfest/participation/internal/lifecycle"
)

var (
	participantOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participant_operations_total",
			Help: "Total number of participant operations labeled by operation and status",
		},
		[]string{"operation", "status"},
	)
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participant_transitions_total",
			Help: "Total number of applied participant state transitions",
		},
		[]string{"action", "from", "to"},
	)
	transitionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "participant_transition_failures_total",
			Help: "Total number of refused transitions split by action and failed check",
		},
		[]string{"action", "key"},
	)
	transitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transition_duration_seconds",
			Help:    "End-to-end duration of transition attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	collaboratorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_failures_total",
			Help: "Total number of collaborator calls that failed after retries",
		},
		[]string{"collaborator"},
	)
	activeParticipants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_participants",
			Help: "Current number of participants in non-terminal states",
		},
	)
	participantsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "participants_by_state",
			Help: "Number of participants per state, from the durable store",
		},
		[]string{"state"},
	)
	segmentParticipants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "segment_participants",
			Help: "Number of participants per state according to the Redis activity segments",
		},
		[]string{"state"},
	)
)

func init() {
	lifecycle.RegisterTransitionRecorder(RecordTransition)
}

// RecordOperation increments the operation counter for the given outcome.
func RecordOperation(operation, status string) {
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	participantOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordTransition tracks an applied lifecycle transition.
func RecordTransition(action, from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	transitionsTotal.WithLabelValues(action, from, to).Inc()
}

// RecordTransitionFailure counts a refused transition per failing check key.
func RecordTransitionFailure(action, key string) {
	if key == "" {
		key = "unknown"
	}

	transitionFailuresTotal.WithLabelValues(action, key).Inc()
}

// RecordTransitionDuration observes how long a transition attempt took,
// whether it was applied or refused.
func RecordTransitionDuration(action string, duration time.Duration) {
	transitionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordCollaboratorFailure counts a collaborator call that still failed
// after its retries were exhausted.
func RecordCollaboratorFailure(collaborator string) {
	if collaborator == "" {
		collaborator = "unknown"
	}

	collaboratorFailuresTotal.WithLabelValues(collaborator).Inc()
}

// SetParticipantsByState updates the durable-store gauge for the given state.
func SetParticipantsByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	participantsByState.WithLabelValues(state).Set(float64(count))
}

// StateCounter reports how many participants sit in each state.
type StateCounter interface {
	CountByState(ctx context.Context) (map[domain.State]int, error)
}

// SegmentCounter reports the cardinality of each activity segment.
type SegmentCounter interface {
	Counts(ctx context.Context) (map[domain.State]int64, error)
}

// Collector periodically gathers participant counts from the durable store
// and the Redis segments and publishes them as gauges. A divergence between
// participants_by_state and segment_participants means the segment updater
// fell behind.
type Collector struct {
	counts   StateCounter
	segments SegmentCounter
	interval time.Duration
}

// NewCollector builds a metrics collector bound to the provided sources.
// segments may be nil when the deployment runs without Redis segments.
func NewCollector(counts StateCounter, segments SegmentCounter) *Collector {
	return &Collector{
		counts:   counts,
		segments: segments,
		interval: 10 * time.Second,
	}
}

// Run refreshes the gauges on the collector's interval until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	if c == nil || c.counts == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *Collector) collect(ctx context.Context) error {
	counts, err := c.counts.CountByState(ctx)
	if err != nil {
		return err
	}

	participantsByState.Reset()

	var active int
	for _, state := range domain.States() {
		count := counts[state]
		SetParticipantsByState(string(state), count)
		if !state.Terminal() {
			active += count
		}
		delete(counts, state)
	}

	// States the store reports but the lifecycle no longer knows, e.g. rows
	// written by an older release, still show up rather than vanish.
	for state, count := range counts {
		SetParticipantsByState(string(state), count)
	}

	activeParticipants.Set(float64(active))

	if c.segments == nil {
		return nil
	}

	segments, err := c.segments.Counts(ctx)
	if err != nil {
		return err
	}

	segmentParticipants.Reset()
	for state, count := range segments {
		segmentParticipants.WithLabelValues(string(state)).Set(float64(count))
	}

	return nil
}
