package sampler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vburojevic/dwell/internal/domain"
)

// Segment is a stretch of time with one app in the foreground.
type Segment struct {
	App      domain.AppID
	Duration time.Duration
}

// ScriptSampler replays a fixed sequence of segments measured from origin.
// After the last segment it reports domain.None.
type ScriptSampler struct {
	origin   time.Time
	segments []Segment
}

// NewScriptSampler replays segments starting at origin.
func NewScriptSampler(origin time.Time, segments []Segment) *ScriptSampler {
	return &ScriptSampler{origin: origin, segments: segments}
}

// Total returns the combined length of all segments.
func (s *ScriptSampler) Total() time.Duration {
	var total time.Duration
	for _, seg := range s.segments {
		total += seg.Duration
	}
	return total
}

// Sample returns the app scripted at windowEnd.
func (s *ScriptSampler) Sample(_ context.Context, _, windowEnd time.Time) (domain.AppID, error) {
	offset := windowEnd.Sub(s.origin)
	if offset < 0 {
		return domain.None, nil
	}
	for _, seg := range s.segments {
		if offset < seg.Duration {
			return seg.App, nil
		}
		offset -= seg.Duration
	}
	return domain.None, nil
}

// ParseScript reads one segment per line as "<duration> <app>", where app "-"
// means nothing monitored is in front. Blank lines and # comments are ignored.
//
//	15m com.instagram.android
//	30s -
//	46m com.google.android.youtube
func ParseScript(r io.Reader) ([]Segment, error) {
	var segments []Segment
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want \"<duration> <app>\", got %q", lineNo, line)
		}
		d, err := time.ParseDuration(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("line %d: duration must be positive", lineNo)
		}
		app := domain.AppID(fields[1])
		if app == "-" {
			app = domain.None
		}
		segments = append(segments, Segment{App: app, Duration: d})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return segments, nil
}
