package lifecycle

import "github.com/contribfest/participation/internal/domain"

// Action names a transition-triggering event of the participant lifecycle.
type Action string

const (
	// ActionRegister moves a new participant to registered.
	ActionRegister Action = "register"
	// ActionWait moves a registered participant with enough eligible activity to waiting.
	ActionWait Action = "wait"
	// ActionComplete finishes the lifecycle for a participant that held waiting long enough.
	ActionComplete Action = "complete"
	// ActionIneligible drops a waiting participant back to registered when qualification is lost.
	ActionIneligible Action = "ineligible"
	// ActionIncomplete closes out a registered participant once the campaign has ended.
	ActionIncomplete Action = "incomplete"
)

// transition describes one permitted edge of the lifecycle.
type transition struct {
	from   domain.State
	to     domain.State
	guards []guard
}

// transitions maps every action to its single permitted edge. Guards run in
// order and every failure is collected before the attempt is rejected.
var transitions = map[Action]transition{
	ActionRegister: {
		from:   domain.StateNew,
		to:     domain.StateRegistered,
		guards: []guard{termsAccepted, emailPresent},
	},
	ActionWait: {
		from:   domain.StateRegistered,
		to:     domain.StateWaiting,
		guards: []guard{sufficientEligiblePRs},
	},
	ActionComplete: {
		from:   domain.StateWaiting,
		to:     domain.StateCompleted,
		guards: []guard{wonCampaign},
	},
	ActionIneligible: {
		from:   domain.StateWaiting,
		to:     domain.StateRegistered,
		guards: []guard{insufficientEligiblePRs},
	},
	ActionIncomplete: {
		from:   domain.StateRegistered,
		to:     domain.StateIncompleted,
		guards: []guard{campaignEnded},
	},
}

// Allows reports whether action is defined for participants currently in from.
// Guard conditions are not consulted; this answers only whether the edge exists.
func Allows(from domain.State, action Action) bool {
	t, ok := transitions[action]
	return ok && t.from == from
}

// Actions returns every action defined for participants currently in from.
func Actions(from domain.State) []Action {
	var actions []Action
	for action, t := range transitions {
		if t.from == from {
			actions = append(actions, action)
		}
	}
	return actions
}
