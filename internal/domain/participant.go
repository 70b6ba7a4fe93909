package domain

import "time"

// State enumerates the lifecycle states of a campaign participant.
type State string

const (
	// StateNew indicates a freshly created participant that has not registered yet.
	StateNew State = "new"
	// StateRegistered indicates the participant accepted the terms and provided contact info.
	StateRegistered State = "registered"
	// StateWaiting indicates the participant reached the qualifying activity count
	// and is sitting out the review period.
	StateWaiting State = "waiting"
	// StateCompleted is terminal: the participant met every winning condition.
	StateCompleted State = "completed"
	// StateIncompleted is terminal: the campaign ended before the participant qualified.
	StateIncompleted State = "incompleted"
)

// States lists every lifecycle state in progression order.
func States() []State {
	return []State{StateNew, StateRegistered, StateWaiting, StateCompleted, StateIncompleted}
}

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateIncompleted
}

// Valid reports whether s is one of the known lifecycle states.
func (s State) Valid() bool {
	switch s {
	case StateNew, StateRegistered, StateWaiting, StateCompleted, StateIncompleted:
		return true
	}
	return false
}

// Participant represents a campaign participant stored in the database.
type Participant struct {
	ID            int64
	Email         string
	TermsAccepted bool
	State         State
	WaitingSince  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
