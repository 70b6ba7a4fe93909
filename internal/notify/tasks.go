package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/contribfest/participation/internal/domain"
	"github.com/contribfest/participation/internal/lifecycle"
)

const TaskTypeStateChange = "participant:state_change"

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// StateChangeEvent is the payload handed to the notification pipeline after a
// participant moves between states. EventID lets downstream consumers
// deduplicate redeliveries.
type StateChangeEvent struct {
	EventID       string           `json:"event_id"`
	ParticipantID int64            `json:"participant_id"`
	Action        lifecycle.Action `json:"action"`
	From          domain.State     `json:"from"`
	To            domain.State     `json:"to"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// NewStateChangeEvent stamps a fresh event for a completed transition.
func NewStateChangeEvent(participantID int64, action lifecycle.Action, from, to domain.State, occurredAt time.Time) StateChangeEvent {
	return StateChangeEvent{
		EventID:       uuid.NewString(),
		ParticipantID: participantID,
		Action:        action,
		From:          from,
		To:            to,
		OccurredAt:    occurredAt.UTC(),
	}
}

func NewStateChangeTask(event StateChangeEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeStateChange, payload, asynq.Queue(QueueDefault)), nil
}
