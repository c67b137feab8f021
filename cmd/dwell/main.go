package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/vburojevic/dwell/internal/cli"
	"github.com/vburojevic/dwell/internal/config"
)

const quickStart = `dwell - escalating interventions for time spent in distracting apps

Quick start:
  dwell ladder                          Show watched apps and thresholds
  dwell run                             Start monitoring
  dwell simulate session.txt            Replay a foreground script instantly
  dwell config generate > dwell.yaml    Write a starter config

For help:
  dwell --help                          All commands and flags
  dwell schema                          JSON Schema of every NDJSON record
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from .env, files and environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Config values become flag defaults; explicit flags win
	vars := kong.Vars{
		"config_format": cfg.Format,
		"config_level":  cfg.Level,
	}

	ctx := kong.Parse(&c,
		kong.Name("dwell"),
		kong.Description("dwell: watch how long distracting apps stay in the foreground and escalate interventions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals, err := cli.NewGlobalsWithConfig(&c, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
}
