package session

import (
	"time"

	"github.com/vburojevic/dwell/internal/domain"
)

// Observe folds one foreground sample into the previous session. It is a pure
// function of its inputs; the caller owns the returned session.
func Observe(prev domain.Session, sample domain.AppID, now time.Time, watch domain.WatchList) (domain.Session, domain.SessionEvent) {
	if !watch.Contains(sample) {
		if prev.Active() {
			return domain.Session{}, domain.SessionEvent{Kind: domain.Ended, App: prev.App}
		}
		return domain.Session{}, domain.SessionEvent{Kind: domain.NoChange}
	}

	if prev.Active() && prev.App == sample {
		elapsed := now.Sub(prev.StartedAt)
		if elapsed < 0 {
			// wall clock stepped backwards
			elapsed = 0
		}
		return prev, domain.SessionEvent{Kind: domain.Continued, App: sample, Elapsed: elapsed}
	}

	next := domain.Session{App: sample, StartedAt: now}
	return next, domain.SessionEvent{Kind: domain.Started, App: sample, Previous: prev.App}
}

// Tracker numbers sessions and keeps per-session counters around Observe.
// It is not safe for concurrent use; the monitor loop is its only owner.
type Tracker struct {
	watch   domain.WatchList
	runID   string
	current domain.Session
	number  int

	highestLevel     int
	interventions    int
	dispatchFailures int
}

// SessionChange contains events emitted when a session changes
type SessionChange struct {
	EndSession   *domain.SessionEnd
	StartSession *domain.SessionStart
}

// NewTracker creates a new session tracker
func NewTracker(watch domain.WatchList, runID string) *Tracker {
	return &Tracker{watch: watch, runID: runID}
}

// Observe processes a sample and returns the session event plus the
// start/end records when the session changed.
func (t *Tracker) Observe(sample domain.AppID, now time.Time) (domain.SessionEvent, *SessionChange) {
	prev := t.current
	next, ev := Observe(prev, sample, now, t.watch)
	t.current = next

	switch ev.Kind {
	case domain.Ended:
		change := &SessionChange{EndSession: t.endRecord(prev, domain.ReasonLeft, now)}
		t.resetCounters()
		return ev, change

	case domain.Started:
		change := &SessionChange{}
		if prev.Active() {
			change.EndSession = t.endRecord(prev, domain.ReasonSwitched, now)
		}
		t.resetCounters()
		t.number++
		change.StartSession = domain.NewSessionStart(t.runID, t.number, next.App, t.watch.Name(next.App), prev.App, now)
		return ev, change
	}

	return ev, nil
}

// RecordDispatch counts an intervention for the current session. Failed
// dispatches still count towards the highest level reached.
func (t *Tracker) RecordDispatch(level int, err error) {
	t.interventions++
	t.highestLevel = max(t.highestLevel, level)
	if err != nil {
		t.dispatchFailures++
	}
}

// Current returns the active session (zero when none).
func (t *Tracker) Current() domain.Session {
	return t.current
}

// CurrentSession returns the current session number
func (t *Tracker) CurrentSession() int {
	return t.number
}

// GetFinalSummary returns the end record for an active session when the
// monitor stops, or nil when nothing is being tracked.
func (t *Tracker) GetFinalSummary(now time.Time) *domain.SessionEnd {
	if !t.current.Active() {
		return nil
	}
	return t.endRecord(t.current, domain.ReasonStopped, now)
}

func (t *Tracker) endRecord(s domain.Session, reason string, now time.Time) *domain.SessionEnd {
	duration := now.Sub(s.StartedAt)
	if duration < 0 {
		duration = 0
	}
	return domain.NewSessionEnd(t.runID, t.number, s.App, t.watch.Name(s.App), reason, domain.SessionSummary{
		DurationSeconds:  int64(duration / time.Second),
		HighestLevel:     t.highestLevel,
		Interventions:    t.interventions,
		DispatchFailures: t.dispatchFailures,
	}, now)
}

func (t *Tracker) resetCounters() {
	t.highestLevel = 0
	t.interventions = 0
	t.dispatchFailures = 0
}
