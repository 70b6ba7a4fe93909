// Package notify publishes participant state changes to the notification
// pipeline. Delivery is fire-and-forget from the caller's point of view: the
// queue retries consumption on its own and failures never roll back the
// transition that produced the event.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Notifier announces a participant state change.
type Notifier interface {
	NotifyStateChange(ctx context.Context, event StateChangeEvent) error
}

// Queue describes the minimal enqueue operations needed by the notifier.
type Queue interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type queue struct {
	client *asynq.Client
}

// NewQueue builds a Queue backed by an asynq client.
func NewQueue(redisOpt asynq.RedisConnOpt) Queue {
	return &queue{client: asynq.NewClient(redisOpt)}
}

func (q *queue) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return q.client.EnqueueContext(ctx, task, opts...)
}

func (q *queue) Close() error {
	return q.client.Close()
}

// TaskNotifier enqueues state-change events as background tasks.
type TaskNotifier struct {
	queue  Queue
	logger *slog.Logger
}

func NewTaskNotifier(q Queue, logger *slog.Logger) *TaskNotifier {
	return &TaskNotifier{
		queue:  q,
		logger: logger,
	}
}

func (n *TaskNotifier) NotifyStateChange(ctx context.Context, event StateChangeEvent) error {
	task, err := NewStateChangeTask(event)
	if err != nil {
		return fmt.Errorf("build state change task: %w", err)
	}

	info, err := n.queue.Enqueue(ctx, task)
	if err != nil {
		n.logger.Error("failed to enqueue state change",
			"event_id", event.EventID,
			"participant_id", event.ParticipantID,
			"error", err)

		return fmt.Errorf("enqueue state change: %w", err)
	}

	n.logger.Debug("state change enqueued",
		"event_id", event.EventID,
		"participant_id", event.ParticipantID,
		"task_id", info.ID,
		"queue", info.Queue)

	return nil
}

// NopNotifier swallows every event. Used when notifications are disabled and
// as the test-harness stand-in.
type NopNotifier struct{}

func (NopNotifier) NotifyStateChange(context.Context, StateChangeEvent) error { return nil }
