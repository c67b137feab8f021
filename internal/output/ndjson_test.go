package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/dwell/internal/domain"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(buf)
	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))
	return m
}

var at = time.Date(2025, 12, 14, 22, 0, 0, 0, time.UTC)

func TestWriteError(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteError("INVALID_CONFIG", "ladder has no rungs", "add a rung"))

	m := decodeLine(t, buf)
	require.Equal(t, "error", m["type"])
	require.EqualValues(t, 1, m["schemaVersion"])
	require.Equal(t, "INVALID_CONFIG", m["code"])
	require.Equal(t, "add a rung", m["hint"])
}

func TestWriteSessionRecords(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.Write(domain.NewSessionStart("run-1", 2, "com.x", "X", "com.y", at)))
	require.NoError(t, w.Write(domain.NewSessionEnd("run-1", 2, "com.x", "X", domain.ReasonLeft, domain.SessionSummary{DurationSeconds: 61, HighestLevel: 1}, at)))

	start := decodeLine(t, buf)
	require.Equal(t, "session_start", start["type"])
	require.Equal(t, "run-1", start["run_id"])
	require.EqualValues(t, 2, start["session"])
	require.Equal(t, "com.y", start["previous"])
	require.Equal(t, "2025-12-14T22:00:00Z", start["timestamp"])

	end := decodeLine(t, buf)
	require.Equal(t, "session_end", end["type"])
	require.Equal(t, "left", end["reason"])
	summary, ok := end["summary"].(map[string]interface{})
	require.True(t, ok)
	require.EqualValues(t, 61, summary["duration_seconds"])
	require.EqualValues(t, 1, summary["highest_level"])
}

func TestHeartbeatFields(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	hb := &Heartbeat{Type: "heartbeat", SchemaVersion: SchemaVersion, RunID: "run-1", UptimeSeconds: 5, Session: 4, App: "com.x", DwellSeconds: 3, Level: 1}
	require.NoError(t, w.Write(hb))

	m := decodeLine(t, buf)
	require.Equal(t, "heartbeat", m["type"])
	require.EqualValues(t, 4, m["session"])
	require.EqualValues(t, 1, m["level"])
	require.Equal(t, "run-1", m["run_id"])
}

func TestTextWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New("text", buf)

	require.NoError(t, w.Write(domain.NewSessionStart("", 1, "com.x", "X", domain.None, at)))
	rung := domain.Rung{Level: 2, After: 30 * time.Minute, Kind: domain.KindWarning}
	require.NoError(t, w.Write(domain.NewIntervention("", 1, rung, "com.x", "X", 30*time.Minute, at)))
	require.NoError(t, w.Write(domain.NewSessionEnd("", 1, "com.x", "X", domain.ReasonSwitched, domain.SessionSummary{DurationSeconds: 1900, HighestLevel: 2}, at)))
	require.NoError(t, w.WriteError("SAMPLER_FAILED", "boom", "check the log path"))

	out := buf.String()
	assert.Contains(t, out, "session 1: X (com.x)")
	assert.Contains(t, out, "[L2 warning]")
	assert.Contains(t, out, "X after 30m0s: WARNING 2")
	assert.Contains(t, out, "session 1 ended (switched)")
	assert.Contains(t, out, "highest level 2")
	assert.Contains(t, out, "Error [SAMPLER_FAILED]:")
	assert.Contains(t, out, "(hint: check the log path)")
}

func TestNewPicksFormat(t *testing.T) {
	_, ok := New("ndjson", &bytes.Buffer{}).(*NDJSONWriter)
	assert.True(t, ok)
	_, ok = New("text", &bytes.Buffer{}).(*TextWriter)
	assert.True(t, ok)
}
