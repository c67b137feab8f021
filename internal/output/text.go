package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/vburojevic/dwell/internal/domain"
)

var (
	startStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	endStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	levelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// TextWriter renders records as single human-readable lines.
type TextWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextWriter creates a text writer on w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// Write renders record. Unknown records are printed with %+v.
func (t *TextWriter) Write(record any) error {
	line := t.format(record)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, line)
	return err
}

// WriteError writes an error line.
func (t *TextWriter) WriteError(code, message string, hint ...string) error {
	return t.Write(NewErrorOutput(code, message, hint...))
}

func (t *TextWriter) format(record any) string {
	switch r := record.(type) {
	case *domain.SessionStart:
		s := fmt.Sprintf("▶ session %d: %s (%s)", r.Session, r.AppName, r.App)
		if r.Previous != domain.None {
			s += fmt.Sprintf(" replacing %s", r.Previous)
		}
		return startStyle.Render(s)
	case *domain.SessionEnd:
		return endStyle.Render(fmt.Sprintf("■ session %d ended (%s): %s after %s, highest level %d",
			r.Session, r.Reason, r.AppName, dwell(r.Summary.DurationSeconds), r.Summary.HighestLevel))
	case *domain.Intervention:
		return fmt.Sprintf("%s %s after %s: %s",
			levelStyle.Render(fmt.Sprintf("[L%d %s]", r.Level, r.Kind)), r.AppName, dwell(r.ElapsedSeconds), r.Title)
	case *Ready:
		return fmt.Sprintf("Monitoring %d apps every %s (sampler %s, dispatch %s). Press Ctrl+C to stop",
			len(r.Apps), r.Interval, r.Sampler, strings.Join(r.Dispatchers, ","))
	case *Heartbeat:
		if r.App == "" {
			return fmt.Sprintf("♥ up %s, idle", dwell(r.UptimeSeconds))
		}
		return fmt.Sprintf("♥ up %s, %s for %s (level %d)", dwell(r.UptimeSeconds), r.App, dwell(r.DwellSeconds), r.Level)
	case *ErrorOutput:
		s := errorStyle.Render(fmt.Sprintf("Error [%s]:", r.Code)) + " " + r.Message
		if r.Hint != "" {
			s += fmt.Sprintf(" (hint: %s)", r.Hint)
		}
		return s
	default:
		return fmt.Sprintf("%+v", record)
	}
}

func dwell(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}
