// Package cli implements the dwell command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/vburojevic/dwell/internal/config"
)

// Build metadata, set with -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// CLI is the root command.
type CLI struct {
	Format     string `short:"f" default:"${config_format}" enum:"auto,text,ndjson" help:"Output format (auto: text on a terminal, ndjson otherwise)"`
	Level      string `short:"l" default:"${config_level}" enum:"debug,info,warn,error" help:"Diagnostic log level on stderr"`
	Quiet      bool   `short:"q" help:"Suppress ready and heartbeat records (ndjson only)"`
	Verbose    bool   `short:"v" help:"Debug diagnostics"`
	ConfigPath string `name:"config" short:"c" type:"path" help:"Config file to use instead of the search path"`

	Run        RunCmd        `cmd:"" help:"Monitor the foreground app and escalate interventions"`
	Simulate   SimulateCmd   `cmd:"" help:"Replay a foreground script on a simulated clock"`
	Check      CheckCmd      `cmd:"" help:"Validate configuration and probe the sampler and dispatchers"`
	Ladder     LadderCmd     `cmd:"" help:"Show the watch list and escalation ladder"`
	Confirm    ConfirmCmd    `cmd:"" help:"Wait until the confirmation phrase is typed (for exec hooks)"`
	Schema     SchemaCmd     `cmd:"" help:"Output JSON Schema for NDJSON records"`
	Config     ConfigCmd     `cmd:"" help:"Inspect configuration"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completions"`
	Version    VersionCmd    `cmd:"" help:"Show version and upgrade instructions"`
}

// Globals carries resolved global flags into every command.
type Globals struct {
	Format  string // "text" or "ndjson" once resolved
	Level   string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
}

// NewGlobalsWithConfig resolves flags against the loaded configuration. An
// explicit --config file replaces the searched one; flags still win.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) (*Globals, error) {
	if c.ConfigPath != "" {
		loaded, err := config.LoadFromFile(c.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", c.ConfigPath, err)
		}
		// flags left at the searched config's values defer to the explicit file
		if c.Format == cfg.Format {
			c.Format = loaded.Format
		}
		if c.Level == cfg.Level {
			c.Level = loaded.Level
		}
		cfg = loaded
	}

	g := &Globals{
		Format:  resolveFormat(c.Format, os.Stdout),
		Level:   c.Level,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	return g, nil
}

// resolveFormat maps "auto" to text on a terminal and ndjson otherwise.
func resolveFormat(format string, out *os.File) string {
	if format != "auto" && format != "" {
		return format
	}
	if out != nil && (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) {
		return "text"
	}
	return "ndjson"
}
