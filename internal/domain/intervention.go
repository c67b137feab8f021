package domain

import (
	"fmt"
	"strings"
	"time"
)

// ConfirmPhrase must be typed exactly to dismiss a confirm-kind intervention.
const ConfirmPhrase = "I choose to keep scrolling"

// Confirmed reports whether input is the exact confirm phrase.
func Confirmed(input string) bool {
	return input == ConfirmPhrase
}

// Intervention instructs a dispatcher to present one escalation level.
type Intervention struct {
	Type           string `json:"type"`          // "intervention"
	SchemaVersion  int    `json:"schemaVersion"` // 1
	RunID          string `json:"run_id,omitempty"`
	Session        int    `json:"session"`
	Level          int    `json:"level"`
	Kind           Kind   `json:"kind"`
	App            AppID  `json:"app"`
	AppName        string `json:"app_name"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	ConfirmPhrase  string `json:"confirm_phrase,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// NewIntervention builds the intervention for rung. Title and message
// templates may use {app}, {elapsed} and {level} placeholders.
func NewIntervention(runID string, session int, rung Rung, app AppID, name string, elapsed time.Duration, at time.Time) *Intervention {
	title, message := rung.Title, rung.Message
	if title == "" {
		title = defaultTitle(rung)
	}
	if message == "" {
		message = defaultMessage(rung.Kind)
	}
	r := strings.NewReplacer(
		"{app}", name,
		"{elapsed}", FormatDwell(elapsed),
		"{level}", fmt.Sprint(rung.Level),
	)
	iv := &Intervention{
		Type:           "intervention",
		SchemaVersion:  1,
		RunID:          runID,
		Session:        session,
		Level:          rung.Level,
		Kind:           rung.Kind,
		App:            app,
		AppName:        name,
		ElapsedSeconds: int64(elapsed / time.Second),
		Title:          r.Replace(title),
		Message:        r.Replace(message),
		Timestamp:      at.UTC().Format(time.RFC3339),
	}
	if rung.Kind == KindConfirm {
		iv.ConfirmPhrase = ConfirmPhrase
	}
	return iv
}

func defaultTitle(rung Rung) string {
	switch rung.Kind {
	case KindReminder:
		return "Remember your goal!"
	case KindConfirm:
		return "FINAL WARNING"
	default:
		return fmt.Sprintf("WARNING %d", rung.Level)
	}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindReminder:
		return "You have spent {elapsed} in {app}. Time to stop!"
	case KindConfirm:
		return "You have spent {elapsed} in {app}. This is the last warning, close it now!"
	default:
		return "You have spent {elapsed} in {app}! Time to stop and get back to your goal."
	}
}

// FormatDwell renders a dwell duration as "45m" or "1h5m" or "30s".
func FormatDwell(d time.Duration) string {
	d = d.Truncate(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		h := int(d / time.Hour)
		m := int((d % time.Hour) / time.Minute)
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
}
