package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/dwell/internal/domain"
)

var (
	t0    = time.Date(2025, 12, 14, 22, 0, 0, 0, time.UTC)
	watch = domain.NewWatchList(map[domain.AppID]string{"a": "Alpha", "b": "Bravo"})
)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func TestObserveIdempotentStart(t *testing.T) {
	var s domain.Session
	var kinds []domain.EventKind
	for i := range 10 {
		var ev domain.SessionEvent
		s, ev = Observe(s, "a", at(i), watch)
		kinds = append(kinds, ev.Kind)
	}

	require.Equal(t, domain.Started, kinds[0])
	for _, k := range kinds[1:] {
		assert.Equal(t, domain.Continued, k)
	}
	assert.Equal(t, at(0), s.StartedAt)
}

func TestObserveContinuedElapsed(t *testing.T) {
	s, _ := Observe(domain.Session{}, "a", at(0), watch)
	_, ev := Observe(s, "a", at(901), watch)

	assert.Equal(t, domain.Continued, ev.Kind)
	assert.Equal(t, int64(901), ev.ElapsedSeconds())
}

func TestObserveUnmonitored(t *testing.T) {
	s, ev := Observe(domain.Session{}, "y", at(0), watch)
	assert.Equal(t, domain.NoChange, ev.Kind)
	assert.False(t, s.Active())

	s, ev = Observe(domain.Session{}, domain.None, at(1), watch)
	assert.Equal(t, domain.NoChange, ev.Kind)
	assert.False(t, s.Active())
}

func TestObserveEndsOnLeave(t *testing.T) {
	s, _ := Observe(domain.Session{}, "a", at(0), watch)
	s, ev := Observe(s, "y", at(5), watch)

	assert.Equal(t, domain.Ended, ev.Kind)
	assert.Equal(t, domain.AppID("a"), ev.App)
	assert.False(t, s.Active())

	s, ev = Observe(s, domain.None, at(6), watch)
	assert.Equal(t, domain.NoChange, ev.Kind)
	assert.False(t, s.Active())
}

func TestObserveSwitchRestartsClock(t *testing.T) {
	s, _ := Observe(domain.Session{}, "a", at(0), watch)
	s, _ = Observe(s, "a", at(100), watch)
	s, ev := Observe(s, "b", at(200), watch)

	assert.Equal(t, domain.Started, ev.Kind)
	assert.Equal(t, domain.AppID("b"), ev.App)
	assert.Equal(t, domain.AppID("a"), ev.Previous)
	assert.Equal(t, at(200), s.StartedAt)
}

func TestObserveClockStepBack(t *testing.T) {
	s, _ := Observe(domain.Session{}, "a", at(100), watch)
	_, ev := Observe(s, "a", at(50), watch)

	assert.Equal(t, domain.Continued, ev.Kind)
	assert.Zero(t, ev.Elapsed)
}

func TestTrackerNumbersSessions(t *testing.T) {
	tr := NewTracker(watch, "run-1")

	ev, change := tr.Observe("a", at(0))
	require.Equal(t, domain.Started, ev.Kind)
	require.NotNil(t, change)
	require.Nil(t, change.EndSession)
	require.NotNil(t, change.StartSession)
	assert.Equal(t, 1, change.StartSession.Session)
	assert.Equal(t, "Alpha", change.StartSession.AppName)
	assert.Equal(t, "run-1", change.StartSession.RunID)

	_, change = tr.Observe("a", at(10))
	assert.Nil(t, change)

	tr.RecordDispatch(1, nil)
	tr.RecordDispatch(2, errors.New("boom"))

	// switching closes the old session and opens the next one
	ev, change = tr.Observe("b", at(60))
	require.Equal(t, domain.Started, ev.Kind)
	require.NotNil(t, change.EndSession)
	assert.Equal(t, 1, change.EndSession.Session)
	assert.Equal(t, domain.ReasonSwitched, change.EndSession.Reason)
	assert.Equal(t, int64(60), change.EndSession.Summary.DurationSeconds)
	assert.Equal(t, 2, change.EndSession.Summary.HighestLevel)
	assert.Equal(t, 2, change.EndSession.Summary.Interventions)
	assert.Equal(t, 1, change.EndSession.Summary.DispatchFailures)
	assert.Equal(t, 2, change.StartSession.Session)
	assert.Equal(t, domain.AppID("a"), change.StartSession.Previous)

	ev, change = tr.Observe("y", at(70))
	require.Equal(t, domain.Ended, ev.Kind)
	require.NotNil(t, change.EndSession)
	assert.Nil(t, change.StartSession)
	assert.Equal(t, domain.ReasonLeft, change.EndSession.Reason)
	assert.Zero(t, change.EndSession.Summary.Interventions)
	assert.Nil(t, tr.GetFinalSummary(at(71)))
}

func TestTrackerFinalSummary(t *testing.T) {
	tr := NewTracker(watch, "")
	tr.Observe("a", at(0))
	tr.RecordDispatch(1, nil)

	end := tr.GetFinalSummary(at(30))
	require.NotNil(t, end)
	assert.Equal(t, domain.ReasonStopped, end.Reason)
	assert.Equal(t, int64(30), end.Summary.DurationSeconds)
	assert.Equal(t, 1, end.Summary.HighestLevel)
	assert.Equal(t, 1, tr.CurrentSession())
	assert.Equal(t, domain.AppID("a"), tr.Current().App)
}
