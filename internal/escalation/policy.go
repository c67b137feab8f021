// Package escalation decides which intervention levels fire for a session.
//
// Levels fire at most once per session: State.Level records the highest level
// already fired and only a session reset returns it to zero.
package escalation

import (
	"time"

	"github.com/vburojevic/dwell/internal/domain"
)

// State is the escalation progress of the current session.
type State struct {
	Level       int       // highest level fired this session, 0 = none
	LastFiredAt time.Time // informational; zero until something fires
}

// Initial returns the state of a fresh session.
func Initial() State {
	return State{}
}

// Maxed reports whether every level of ladder has already fired.
func (s State) Maxed(ladder domain.Ladder) bool {
	return s.Level >= ladder.Top()
}

// Decide walks the ladder in threshold order and returns every level that has
// become eligible at elapsedSeconds and has not fired yet, in ascending order,
// together with the advanced state. Missed ticks therefore catch up on all
// intermediate levels instead of skipping them.
func Decide(elapsedSeconds int64, st State, ladder domain.Ladder, now time.Time) (State, []int) {
	var fire []int
	next := st
	for _, rung := range ladder.Ordered() {
		if rung.Seconds() > elapsedSeconds {
			break
		}
		if rung.Level <= next.Level {
			continue
		}
		fire = append(fire, rung.Level)
		next.Level = rung.Level
		next.LastFiredAt = now
	}
	return next, fire
}
