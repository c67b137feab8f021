package sampler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/dwell/internal/domain"
)

var base = time.Date(2025, 12, 14, 22, 0, 0, 0, time.UTC)

func sec(n int) time.Time { return base.Add(time.Duration(n) * time.Second) }

func appendEvents(t *testing.T, path string, events ...Event) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, ev := range events {
		require.NoError(t, enc.Encode(ev))
	}
}

func sampleAt(t *testing.T, s *EventLogSampler, n int) domain.AppID {
	t.Helper()
	app, err := s.Sample(context.Background(), sec(n).Add(-DefaultWindow), sec(n))
	require.NoError(t, err)
	return app
}

func TestEventLogSamplerLatestForeground(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendEvents(t, path,
		Event{Timestamp: sec(1), Type: MoveToForeground, App: "com.a"},
		Event{Timestamp: sec(3), Type: MoveToBackground, App: "com.a"},
		Event{Timestamp: sec(3), Type: MoveToForeground, App: "com.b"},
	)
	s := NewEventLogSampler(path, nil)

	assert.Equal(t, domain.AppID("com.b"), sampleAt(t, s, 5))
}

func TestEventLogSamplerSticksWithoutNewEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendEvents(t, path, Event{Timestamp: sec(1), Type: MoveToForeground, App: "com.a"})
	s := NewEventLogSampler(path, nil)

	assert.Equal(t, domain.AppID("com.a"), sampleAt(t, s, 2))
	// well past the window, the user never switched
	assert.Equal(t, domain.AppID("com.a"), sampleAt(t, s, 120))

	appendEvents(t, path, Event{Timestamp: sec(121), Type: MoveToBackground, App: "com.a"})
	assert.Equal(t, domain.None, sampleAt(t, s, 122))
	assert.Equal(t, domain.None, sampleAt(t, s, 200))

	appendEvents(t, path, Event{Timestamp: sec(201), Type: MoveToForeground, App: "com.c"})
	assert.Equal(t, domain.AppID("com.c"), sampleAt(t, s, 202))
}

func TestEventLogSamplerIgnoresFutureAndMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendEvents(t, path, Event{Timestamp: sec(1), Type: MoveToForeground, App: "com.a"})
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	appendEvents(t, path, Event{Timestamp: sec(50), Type: MoveToForeground, App: "com.later"})

	s := NewEventLogSampler(path, nil)
	assert.Equal(t, domain.AppID("com.a"), sampleAt(t, s, 5))
	assert.Equal(t, domain.AppID("com.later"), sampleAt(t, s, 55))
}

func TestEventLogSamplerPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	line, err := json.Marshal(Event{Timestamp: sec(1), Type: MoveToForeground, App: "com.a"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, line[:10], 0o644))

	s := NewEventLogSampler(path, nil)
	assert.Equal(t, domain.None, sampleAt(t, s, 2))

	require.NoError(t, os.WriteFile(path, append(line, '\n'), 0o644))
	assert.Equal(t, domain.AppID("com.a"), sampleAt(t, s, 3))
}

func TestEventLogSamplerRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	appendEvents(t, path,
		Event{Timestamp: sec(1), Type: MoveToForeground, App: "com.a"},
		Event{Timestamp: sec(2), Type: MoveToForeground, App: "com.b"},
	)
	s := NewEventLogSampler(path, nil)
	assert.Equal(t, domain.AppID("com.b"), sampleAt(t, s, 3))

	require.NoError(t, os.Remove(path))
	appendEvents(t, path, Event{Timestamp: sec(4), Type: MoveToForeground, App: "com.c"})
	assert.Equal(t, domain.AppID("com.c"), sampleAt(t, s, 5))
}

func TestEventLogSamplerMissingFile(t *testing.T) {
	s := NewEventLogSampler(filepath.Join(t.TempDir(), "missing.jsonl"), nil)
	_, err := s.Sample(context.Background(), sec(0), sec(10))
	assert.Error(t, err)
}
