package cli

// validateFlags centralizes common flag combinations to keep behavior consistent.
func validateFlags(globals *Globals, useTmux bool, tmuxTarget string, insideTmux bool) error {
	// quiet + text is confusing; steer to ndjson
	if globals != nil && globals.Format == "text" && globals.Quiet {
		return outputErrorCommon(globals, "INVALID_FLAGS", "--quiet is only supported with ndjson output", "switch to --format ndjson or drop --quiet")
	}
	// popups need a client to attach to
	if useTmux && tmuxTarget == "" && !insideTmux {
		return outputErrorCommon(globals, "INVALID_FLAGS", "--tmux needs a target outside a tmux session", "run inside tmux or set --tmux-target / dispatch.tmux.target")
	}
	return nil
}
