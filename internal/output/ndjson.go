// Package output renders monitor records as NDJSON or human-readable text.
package output

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// SchemaVersion is stamped on every record this package creates.
const SchemaVersion = 1

// Writer is what commands and the monitor write records through.
type Writer interface {
	Write(record any) error
	WriteError(code, message string, hint ...string) error
}

// New returns an NDJSON writer for "ndjson" and a text writer otherwise.
func New(format string, w io.Writer) Writer {
	if format == "ndjson" {
		return NewNDJSONWriter(w)
	}
	return NewTextWriter(w)
}

// Ready is emitted once the monitor has started.
type Ready struct {
	Type          string     `json:"type"` // "ready"
	SchemaVersion int        `json:"schemaVersion"`
	RunID         string     `json:"run_id"`
	Timestamp     string     `json:"timestamp"`
	Interval      string     `json:"interval"`
	Window        string     `json:"window"`
	Sampler       string     `json:"sampler"`
	Dispatchers   []string   `json:"dispatchers"`
	Apps          []string   `json:"apps"`
	Ladder        []RungInfo `json:"ladder"`
}

// RungInfo describes one ladder rung.
type RungInfo struct {
	Level        int    `json:"level"`
	AfterSeconds int64  `json:"after_seconds"`
	Kind         string `json:"kind"`
}

// Heartbeat reports monitor liveness and the current session.
type Heartbeat struct {
	Type          string `json:"type"` // "heartbeat"
	SchemaVersion int    `json:"schemaVersion"`
	RunID         string `json:"run_id"`
	Timestamp     string `json:"timestamp"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Session       int    `json:"session"`
	App           string `json:"app,omitempty"`
	DwellSeconds  int64  `json:"dwell_seconds"`
	Level         int    `json:"level"`
}

// ErrorOutput is the machine-readable form of a failure.
type ErrorOutput struct {
	Type          string `json:"type"` // "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// NewErrorOutput builds an error record.
func NewErrorOutput(code, message string, hint ...string) *ErrorOutput {
	e := &ErrorOutput{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if len(hint) > 0 {
		e.Hint = hint[0]
	}
	return e
}

// NDJSONWriter writes one JSON object per line. Safe for concurrent use.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates a writer on w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

// Write encodes record as a single line.
func (w *NDJSONWriter) Write(record any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(record)
}

// WriteError writes an error record.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	return w.Write(NewErrorOutput(code, message, hint...))
}
