package domain

import (
	"fmt"
	"sort"
	"time"
)

// Kind is the flavour of intervention a rung asks for.
type Kind string

const (
	KindReminder Kind = "reminder" // ambient, dismissible notice
	KindWarning  Kind = "warning"  // intrusive full-screen warning
	KindConfirm  Kind = "confirm"  // blocking, requires the confirm phrase
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindReminder, KindWarning, KindConfirm:
		return true
	}
	return false
}

// Rung is one step of the escalation ladder.
type Rung struct {
	Level   int
	After   time.Duration // dwell time required before the level is eligible
	Kind    Kind
	Title   string
	Message string
}

// Seconds returns the threshold in whole seconds.
func (r Rung) Seconds() int64 {
	return int64(r.After / time.Second)
}

// Ladder is an ordered sequence of rungs, strictly increasing in both level
// and threshold once validated.
type Ladder []Rung

// Validate checks the ladder is non-empty and strictly increasing.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: ladder has no rungs", ErrInvalidConfig)
	}
	for i, r := range l {
		if r.Level < 1 {
			return fmt.Errorf("%w: rung %d: level must be >= 1, got %d", ErrInvalidConfig, i, r.Level)
		}
		if r.After < 0 {
			return fmt.Errorf("%w: rung %d: negative threshold %s", ErrInvalidConfig, i, r.After)
		}
		if r.Kind != "" && !r.Kind.Valid() {
			return fmt.Errorf("%w: rung %d: unknown kind %q", ErrInvalidConfig, i, r.Kind)
		}
		if i == 0 {
			continue
		}
		prev := l[i-1]
		if r.Level <= prev.Level {
			return fmt.Errorf("%w: rung %d: level %d not greater than %d", ErrInvalidConfig, i, r.Level, prev.Level)
		}
		if r.Seconds() <= prev.Seconds() {
			return fmt.Errorf("%w: rung %d: threshold %s not greater than %s", ErrInvalidConfig, i, r.After, prev.After)
		}
	}
	return nil
}

// Ordered returns a copy sorted by threshold, lower level first on ties.
func (l Ladder) Ordered() Ladder {
	out := make(Ladder, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Seconds() != out[j].Seconds() {
			return out[i].Seconds() < out[j].Seconds()
		}
		return out[i].Level < out[j].Level
	})
	return out
}

// Rung looks up the rung for level.
func (l Ladder) Rung(level int) (Rung, bool) {
	for _, r := range l {
		if r.Level == level {
			return r, true
		}
	}
	return Rung{}, false
}

// Top returns the highest level defined, 0 for an empty ladder.
func (l Ladder) Top() int {
	top := 0
	for _, r := range l {
		top = max(top, r.Level)
	}
	return top
}

// WithDefaultKinds fills empty kinds: the first rung reminds, the last one
// asks for confirmation, everything in between warns.
func (l Ladder) WithDefaultKinds() Ladder {
	out := l.Ordered()
	for i := range out {
		if out[i].Kind != "" {
			continue
		}
		switch {
		case i == 0:
			out[i].Kind = KindReminder
		case i == len(out)-1:
			out[i].Kind = KindConfirm
		default:
			out[i].Kind = KindWarning
		}
	}
	return out
}

// DefaultLadder is the stock 15/30/45 minute ladder.
func DefaultLadder() Ladder {
	return Ladder{
		{Level: 1, After: 15 * time.Minute, Kind: KindReminder},
		{Level: 2, After: 30 * time.Minute, Kind: KindWarning},
		{Level: 3, After: 45 * time.Minute, Kind: KindConfirm},
	}
}
