// Package segment implements the activity-segment collaborator: per-state
// participant sets kept in Redis for the external marketing and notification
// tooling to consume.
package segment

import (
	"context"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/contribfest/participation/internal/domain"
)

// Updater is the segment collaborator invoked on every successful transition.
// Implementations must treat the call as best effort; the transition outcome
// never depends on the returned error.
type Updater interface {
	Sync(ctx context.Context, participantID int64, from, to domain.State) error
}

// RedisUpdater maintains one Redis set per lifecycle state.
type RedisUpdater struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisUpdater constructs a RedisUpdater.
func NewRedisUpdater(client *redis.Client, log *slog.Logger) *RedisUpdater {
	if log == nil {
		log = slog.Default()
	}

	return &RedisUpdater{client: client, log: log}
}

// Sync moves the participant from one state segment to another atomically.
func (u *RedisUpdater) Sync(ctx context.Context, participantID int64, from, to domain.State) error {
	pipe := u.client.TxPipeline()
	if from != "" {
		pipe.SRem(ctx, segmentKey(from), participantID)
	}
	pipe.SAdd(ctx, segmentKey(to), participantID)

	if _, err := pipe.Exec(ctx); err != nil {
		u.log.Error("failed to sync participant segment",
			slog.Int64("participant_id", participantID),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
			slog.Any("error", err),
		)
		return fmt.Errorf("sync participant segment: %w", err)
	}

	return nil
}

// Counts reports the cardinality of every state segment in one round trip.
func (u *RedisUpdater) Counts(ctx context.Context) (map[domain.State]int64, error) {
	states := domain.States()

	pipe := u.client.Pipeline()
	cards := make([]*redis.IntCmd, len(states))
	for i, state := range states {
		cards[i] = pipe.SCard(ctx, segmentKey(state))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("count participant segments: %w", err)
	}

	counts := make(map[domain.State]int64, len(states))
	for i, state := range states {
		counts[state] = cards[i].Val()
	}

	return counts, nil
}

// NopUpdater discards every sync request. Used when segments are disabled and
// as the test-harness stand-in.
type NopUpdater struct{}

// Sync implements Updater and always succeeds.
func (NopUpdater) Sync(context.Context, int64, domain.State, domain.State) error {
	return nil
}

func segmentKey(state domain.State) string {
	return fmt.Sprintf("participant:segment:%s", state)
}
