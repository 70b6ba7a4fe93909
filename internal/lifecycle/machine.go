// Package lifecycle implements the participant state machine: the permitted
// transitions, the guard predicates gating them, and the executor that applies
// an action to a participant record.
package lifecycle

import (
	"fmt"

	"github.com/contribfest/participation/internal/domain"
)

var transitionRecorder = func(action, from, to string) {}

// RegisterTransitionRecorder allows external packages to observe successful
// transitions.
func RegisterTransitionRecorder(recorder func(action, from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Apply attempts action against p using the supplied facts.
//
// When the action is not defined for p's current state the attempt fails with
// a single error keyed "state". Otherwise every guard of the transition is
// evaluated and every failure is reported together. Only a clean run mutates
// the participant: the state advances and, when the destination is waiting,
// WaitingSince is stamped from facts. A failed attempt leaves p untouched.
func Apply(p *domain.Participant, action Action, facts Facts) Errors {
	errs := make(Errors)

	t, ok := transitions[action]
	if !ok || t.from != p.State {
		errs.Add(KeyState, fmt.Sprintf("cannot transition via %q", string(action)))
		return errs
	}

	for _, g := range t.guards {
		if passed, msg := g.check(p, facts); !passed {
			errs.Add(g.key, msg)
		}
	}
	if errs.Any() {
		return errs
	}

	from := p.State
	p.State = t.to
	if t.to == domain.StateWaiting {
		since := facts.Now.UTC()
		p.WaitingSince = &since
	}

	transitionRecorder(string(action), string(from), string(t.to))

	return errs
}
