package sampler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/vburojevic/dwell/internal/domain"
	"go.uber.org/zap"
)

// EventType is the kind of usage event recorded in the log.
type EventType string

const (
	MoveToForeground EventType = "move_to_foreground"
	MoveToBackground EventType = "move_to_background"
)

// Event is one line of the usage-event log, e.g.
//
//	{"ts":"2025-12-14T22:00:00Z","type":"move_to_foreground","app":"com.instagram.android"}
type Event struct {
	Timestamp time.Time    `json:"ts"`
	Type      EventType    `json:"type"`
	App       domain.AppID `json:"app"`
}

// EventLogSampler reads an append-only JSONL usage-event log and reports the
// app whose foreground event is the latest within the queried window.
//
// A window without events means the user has not switched, so the last known
// foreground app is reported again. A background event for that app clears it.
type EventLogSampler struct {
	path   string
	logger *zap.Logger

	offset int64
	recent []Event
	last   domain.AppID
}

// NewEventLogSampler creates a sampler over the log at path.
func NewEventLogSampler(path string, logger *zap.Logger) *EventLogSampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogSampler{path: path, logger: logger}
}

// Sample queries the events in [windowStart, windowEnd].
func (s *EventLogSampler) Sample(ctx context.Context, windowStart, windowEnd time.Time) (domain.AppID, error) {
	if err := ctx.Err(); err != nil {
		return domain.None, err
	}
	if err := s.readNew(); err != nil {
		return domain.None, err
	}

	// Older events can never fall into a later window.
	s.recent = lo.Filter(s.recent, func(e Event, _ int) bool {
		return !e.Timestamp.Before(windowStart)
	})
	window := lo.Filter(s.recent, func(e Event, _ int) bool {
		return !e.Timestamp.After(windowEnd)
	})

	foreground := lo.Filter(window, func(e Event, _ int) bool {
		return e.Type == MoveToForeground && e.App != domain.None
	})
	var latestFG time.Time
	if len(foreground) > 0 {
		latest := lo.MaxBy(foreground, func(a, b Event) bool {
			return a.Timestamp.After(b.Timestamp)
		})
		s.last = latest.App
		latestFG = latest.Timestamp
	}

	_, backgrounded := lo.Find(window, func(e Event) bool {
		return e.Type == MoveToBackground && e.App == s.last && !e.Timestamp.Before(latestFG)
	})
	if backgrounded {
		s.last = domain.None
	}
	return s.last, nil
}

// readNew consumes lines appended since the previous call. A shrunken file is
// treated as rotated and read from the start.
func (s *EventLogSampler) readNew() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat event log: %w", err)
	}
	if info.Size() < s.offset {
		s.logger.Debug("event log truncated, rereading", zap.String("path", s.path))
		s.offset = 0
		s.recent = nil
	}
	if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek event log: %w", err)
	}

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			s.offset += int64(len(line))
			s.parse(line)
		}
		if err == io.EOF {
			// a trailing partial line is picked up once it is complete
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event log: %w", err)
		}
	}
}

func (s *EventLogSampler) parse(line []byte) {
	if len(line) <= 1 {
		return
	}
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		s.logger.Debug("skipping malformed event", zap.ByteString("line", line), zap.Error(err))
		return
	}
	s.recent = append(s.recent, ev)
}
