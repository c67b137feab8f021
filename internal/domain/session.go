package domain

import "time"

// Session is continuous occupancy of one monitored app. The zero value means
// no session is active.
type Session struct {
	App       AppID
	StartedAt time.Time
}

// Active reports whether a monitored app currently holds the session.
func (s Session) Active() bool {
	return s.App != None
}

// EventKind classifies what a foreground sample did to the session.
type EventKind int

const (
	NoChange EventKind = iota
	Started
	Continued
	Ended
)

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Continued:
		return "continued"
	case Ended:
		return "ended"
	default:
		return "no_change"
	}
}

// SessionEvent is the outcome of observing one sample.
type SessionEvent struct {
	Kind     EventKind
	App      AppID         // app the event is about (the new app for Started)
	Previous AppID         // superseded app when Started replaces a session
	Elapsed  time.Duration // dwell so far, only set for Continued
}

// ElapsedSeconds returns dwell time at second resolution.
func (e SessionEvent) ElapsedSeconds() int64 {
	return int64(e.Elapsed / time.Second)
}

// SessionStart is emitted when a monitored app takes the foreground
type SessionStart struct {
	Type          string `json:"type"`               // "session_start"
	SchemaVersion int    `json:"schemaVersion"`      // 1
	RunID         string `json:"run_id,omitempty"`   // Monitor run identifier
	Session       int    `json:"session"`            // Session number (1, 2, 3...)
	App           AppID  `json:"app"`                // Package identifier
	AppName       string `json:"app_name"`           // Display name
	Previous      AppID  `json:"previous,omitempty"` // Monitored app this session replaced
	Timestamp     string `json:"timestamp"`          // ISO8601 timestamp
}

// SessionEnd is emitted when a session ends (app switch or monitor stop)
type SessionEnd struct {
	Type          string         `json:"type"`          // "session_end"
	SchemaVersion int            `json:"schemaVersion"` // 1
	RunID         string         `json:"run_id,omitempty"`
	Session       int            `json:"session"`   // Session number that ended
	App           AppID          `json:"app"`       // App that lost the foreground
	AppName       string         `json:"app_name"`  // Display name
	Reason        string         `json:"reason"`    // left, switched, stopped
	Summary       SessionSummary `json:"summary"`   // Summary of the session
	Timestamp     string         `json:"timestamp"` // ISO8601 timestamp
}

// SessionSummary contains statistics about a completed session
type SessionSummary struct {
	DurationSeconds  int64 `json:"duration_seconds"`
	HighestLevel     int   `json:"highest_level"`
	Interventions    int   `json:"interventions"`
	DispatchFailures int   `json:"dispatch_failures"`
}

// End reasons.
const (
	ReasonLeft     = "left"     // foreground moved to an unmonitored app or nothing
	ReasonSwitched = "switched" // foreground moved to another monitored app
	ReasonStopped  = "stopped"  // monitor shut down mid-session
)

// NewSessionStart creates a new SessionStart event
func NewSessionStart(runID string, session int, app AppID, name string, previous AppID, at time.Time) *SessionStart {
	return &SessionStart{
		Type:          "session_start",
		SchemaVersion: 1,
		RunID:         runID,
		Session:       session,
		App:           app,
		AppName:       name,
		Previous:      previous,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}

// NewSessionEnd creates a new SessionEnd event
func NewSessionEnd(runID string, session int, app AppID, name, reason string, summary SessionSummary, at time.Time) *SessionEnd {
	return &SessionEnd{
		Type:          "session_end",
		SchemaVersion: 1,
		RunID:         runID,
		Session:       session,
		App:           app,
		AppName:       name,
		Reason:        reason,
		Summary:       summary,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}
