// Package campaign describes the yearly contribution drive window. The window
// comes from configuration and may be replaced at runtime when the config
// file changes, so readers always go through a Calendar.
package campaign

import (
	"sync/atomic"
	"time"
)

// Campaign is a named window during which contributions count.
type Campaign struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Started reports whether the campaign has begun at the given instant.
func (c Campaign) Started(now time.Time) bool {
	return !now.Before(c.Start)
}

// Ended reports whether the campaign is over at the given instant. The end
// instant itself counts as ended.
func (c Campaign) Ended(now time.Time) bool {
	return !now.Before(c.End)
}

// Active reports whether the campaign is accepting contributions.
func (c Campaign) Active(now time.Time) bool {
	return c.Started(now) && !c.Ended(now)
}

// Calendar holds the currently configured campaign and supports atomic
// replacement on configuration reload.
type Calendar struct {
	current atomic.Value
}

func NewCalendar(c Campaign) *Calendar {
	cal := &Calendar{}
	cal.current.Store(c)

	return cal
}

// Current returns the campaign in effect.
func (cal *Calendar) Current() Campaign {
	return cal.current.Load().(Campaign)
}

// Replace swaps in a new campaign window. Safe to call concurrently with
// readers.
func (cal *Calendar) Replace(c Campaign) {
	cal.current.Store(c)
}
