package cli

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"
)

// schemaTypes lists every NDJSON record type in output order.
var schemaTypes = []string{"ready", "session_start", "session_end", "intervention", "heartbeat", "error", "check", "ladder", "simulation_summary"}

// SchemaCmd outputs JSON Schema for dwell output types
type SchemaCmd struct {
	Type []string `short:"t" help:"Output types to include (ready,session_start,session_end,intervention,heartbeat,error,check,ladder,simulation_summary). Default: all"`
}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]map[string]interface{}{
		"ready":              readySchema(),
		"session_start":      sessionStartSchema(),
		"session_end":        sessionEndSchema(),
		"intervention":       interventionSchema(),
		"heartbeat":          heartbeatSchema(),
		"error":              errorSchema(),
		"check":              checkSchema(),
		"ladder":             ladderSchema(),
		"simulation_summary": simulationSummarySchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = schemaTypes
	}

	defs := map[string]interface{}{}
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	output := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "dwell Output Schemas",
		"description": "JSON Schema definitions for all dwell NDJSON output types",
		"definitions": defs,
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func constProp(value string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "const": value}
}

func timestampProp() map[string]interface{} {
	return map[string]interface{}{"type": "string", "format": "date-time", "description": "RFC3339 timestamp"}
}

// record builds an object schema with the shared type/schemaVersion header.
func record(typ, title, description string, props map[string]interface{}, required ...string) map[string]interface{} {
	all := map[string]interface{}{
		"type":          constProp(typ),
		"schemaVersion": prop("integer", "Record schema version"),
	}
	for k, v := range props {
		all[k] = v
	}
	return map[string]interface{}{
		"type":        "object",
		"title":       title,
		"description": description,
		"properties":  all,
		"required":    lo.Uniq(append([]string{"type", "schemaVersion"}, required...)),
	}
}

func rungSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"level":         prop("integer", "Escalation level"),
			"after_seconds": prop("integer", "Dwell threshold in seconds"),
			"kind": map[string]interface{}{
				"type": "string",
				"enum": []string{"reminder", "warning", "confirm"},
			},
		},
	}
}

func readySchema() map[string]interface{} {
	return record("ready", "Monitor Ready", "Emitted once when monitoring starts", map[string]interface{}{
		"run_id":      prop("string", "Identifier of this monitor run"),
		"timestamp":   timestampProp(),
		"interval":    prop("string", "Sampling interval"),
		"window":      prop("string", "Trailing usage-event window"),
		"sampler":     prop("string", "Foreground source kind"),
		"dispatchers": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"apps":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"ladder":      map[string]interface{}{"type": "array", "items": rungSchema()},
	}, "run_id", "timestamp", "apps", "ladder")
}

func sessionStartSchema() map[string]interface{} {
	return record("session_start", "Session Start", "A monitored app came to the foreground", map[string]interface{}{
		"run_id":    prop("string", "Identifier of this monitor run"),
		"session":   prop("integer", "Session number (1, 2, 3...)"),
		"app":       prop("string", "App identifier"),
		"app_name":  prop("string", "Display name"),
		"previous":  prop("string", "App of the session this one replaced"),
		"timestamp": timestampProp(),
	}, "session", "app", "timestamp")
}

func sessionEndSchema() map[string]interface{} {
	return record("session_end", "Session End", "A session ended", map[string]interface{}{
		"run_id":   prop("string", "Identifier of this monitor run"),
		"session":  prop("integer", "Session number that ended"),
		"app":      prop("string", "App identifier"),
		"app_name": prop("string", "Display name"),
		"reason": map[string]interface{}{
			"type": "string",
			"enum": []string{"left", "switched", "stopped"},
		},
		"summary": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"duration_seconds":  prop("integer", "Dwell time of the session"),
				"highest_level":     prop("integer", "Highest level fired"),
				"interventions":     prop("integer", "Interventions fired"),
				"dispatch_failures": prop("integer", "Interventions the dispatcher rejected"),
			},
		},
		"timestamp": timestampProp(),
	}, "session", "app", "reason", "summary", "timestamp")
}

func interventionSchema() map[string]interface{} {
	return record("intervention", "Intervention", "An escalation level fired", map[string]interface{}{
		"run_id":  prop("string", "Identifier of this monitor run"),
		"session": prop("integer", "Session number"),
		"level":   prop("integer", "Escalation level"),
		"kind": map[string]interface{}{
			"type": "string",
			"enum": []string{"reminder", "warning", "confirm"},
		},
		"app":             prop("string", "App identifier"),
		"app_name":        prop("string", "Display name"),
		"elapsed_seconds": prop("integer", "Dwell time when the level fired"),
		"title":           prop("string", "Short headline"),
		"message":         prop("string", "Body text"),
		"confirm_phrase":  prop("string", "Phrase to type before dismissal (confirm only)"),
		"timestamp":       timestampProp(),
	}, "level", "kind", "app", "elapsed_seconds", "timestamp")
}

func heartbeatSchema() map[string]interface{} {
	return record("heartbeat", "Heartbeat", "Periodic liveness and current session", map[string]interface{}{
		"run_id":         prop("string", "Identifier of this monitor run"),
		"timestamp":      timestampProp(),
		"uptime_seconds": prop("integer", "Seconds since the monitor started"),
		"session":        prop("integer", "Latest session number"),
		"app":            prop("string", "App in the active session, absent when none"),
		"dwell_seconds":  prop("integer", "Dwell time of the active session"),
		"level":          prop("integer", "Highest level fired in the active session"),
	}, "timestamp", "uptime_seconds")
}

func errorSchema() map[string]interface{} {
	return record("error", "Error", "A command failed", map[string]interface{}{
		"code":      prop("string", "Machine-readable error code"),
		"message":   prop("string", "Human-readable message"),
		"hint":      prop("string", "Suggested fix"),
		"timestamp": timestampProp(),
	}, "code", "message")
}

func checkSchema() map[string]interface{} {
	return record("check", "Check Report", "Configuration and environment checks", map[string]interface{}{
		"config_file": prop("string", "Config file in use"),
		"checks": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name":   prop("string", "Check name"),
					"status": map[string]interface{}{"type": "string", "enum": []string{"ok", "warn", "error"}},
					"detail": prop("string", "Result detail"),
				},
			},
		},
		"all_passed":    prop("boolean", "True when no check failed"),
		"error_count":   prop("integer", "Failed checks"),
		"warning_count": prop("integer", "Checks with warnings"),
	}, "checks", "all_passed", "error_count")
}

func ladderSchema() map[string]interface{} {
	return record("ladder", "Ladder", "Watch list and escalation ladder", map[string]interface{}{
		"apps": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":   prop("string", "App identifier"),
					"name": prop("string", "Display name"),
				},
			},
		},
		"ladder": map[string]interface{}{"type": "array", "items": rungSchema()},
	}, "apps", "ladder")
}

func simulationSummarySchema() map[string]interface{} {
	return record("simulation_summary", "Simulation Summary", "Totals after replaying a script", map[string]interface{}{
		"run_id":           prop("string", "Identifier of this simulation"),
		"duration_seconds": prop("integer", "Length of the script"),
		"ticks":            prop("integer", "Ticks simulated"),
		"sessions":         prop("integer", "Sessions started"),
		"interventions":    prop("integer", "Interventions fired"),
		"highest_level":    prop("integer", "Highest level fired"),
	}, "ticks", "interventions")
}
