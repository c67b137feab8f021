package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/vburojevic/dwell/internal/config"
	"github.com/vburojevic/dwell/internal/domain"
	"github.com/vburojevic/dwell/internal/output"
	"github.com/vburojevic/dwell/internal/sampler"
	"github.com/vburojevic/dwell/internal/tmux"
	"go.uber.org/zap"
)

// CheckCmd validates configuration and probes the environment
type CheckCmd struct {
	Probe time.Duration `default:"5s" help:"Timeout for the one-off sampler probe"`
}

// Check statuses.
const (
	statusOK    = "ok"
	statusWarn  = "warn"
	statusError = "error"
)

// CheckResult is one line of the report.
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// CheckOutput is the full report.
type CheckOutput struct {
	Type          string        `json:"type"` // "check"
	SchemaVersion int           `json:"schemaVersion"`
	ConfigFile    string        `json:"config_file,omitempty"`
	Checks        []CheckResult `json:"checks"`
	AllPassed     bool          `json:"all_passed"`
	ErrorCount    int           `json:"error_count"`
	WarningCount  int           `json:"warning_count"`
}

// Run executes the check command
func (c *CheckCmd) Run(globals *Globals) error {
	cfg := globals.Config
	logger := newLogger(globals, "")
	report := &CheckOutput{
		Type:          "check",
		SchemaVersion: output.SchemaVersion,
		ConfigFile:    config.ConfigFile(),
	}
	add := func(name, status, detail string) {
		report.Checks = append(report.Checks, CheckResult{Name: name, Status: status, Detail: detail})
	}

	if err := cfg.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			add("config", statusError, line)
		}
	} else {
		add("config", statusOK, "valid")
		watch := buildWatchList(cfg, logger)
		names := lo.Map(watch.Apps(), func(id domain.AppID, _ int) string {
			return fmt.Sprintf("%s (%s)", watch.Name(id), id)
		})
		add("watchlist", statusOK, strings.Join(names, ", "))
		ladder, _ := cfg.BuildLadder()
		ordered := ladder.Ordered()
		add("ladder", statusOK, fmt.Sprintf("%d levels, top level %d at %s", len(ladder), ladder.Top(), ordered[len(ordered)-1].After))
		c.checkSampler(cfg, logger, add)
	}
	checkDispatch(cfg, add)

	report.ErrorCount = lo.CountBy(report.Checks, func(r CheckResult) bool { return r.Status == statusError })
	report.WarningCount = lo.CountBy(report.Checks, func(r CheckResult) bool { return r.Status == statusWarn })
	report.AllPassed = report.ErrorCount == 0

	if globals.Format == "ndjson" {
		if err := json.NewEncoder(globals.Stdout).Encode(report); err != nil {
			return err
		}
	} else {
		writeCheckText(globals, report)
	}
	if !report.AllPassed {
		return fmt.Errorf("%d check(s) failed", report.ErrorCount)
	}
	return nil
}

func (c *CheckCmd) checkSampler(cfg *config.Config, logger *zap.Logger, add func(string, string, string)) {
	name := "sampler:" + cfg.Sampler.Kind
	switch cfg.Sampler.Kind {
	case "eventlog":
		info, err := os.Stat(cfg.Sampler.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			add(name, statusWarn, cfg.Sampler.Path+" does not exist yet")
		case err != nil:
			add(name, statusError, err.Error())
		default:
			add(name, statusOK, fmt.Sprintf("%s (%d bytes)", cfg.Sampler.Path, info.Size()))
		}
	case "script":
		segments, err := readScript(cfg.Sampler.Path)
		if err != nil {
			add(name, statusError, err.Error())
			return
		}
		add(name, statusOK, fmt.Sprintf("%d segments", len(segments)))
	case "command":
		ctx, cancel := context.WithTimeout(context.Background(), c.Probe)
		defer cancel()
		now := time.Now()
		app, err := sampler.NewCommandSampler(cfg.Sampler.Command, cfg.Sampler.ResolvePID).Sample(ctx, now.Add(-cfg.Window()), now)
		if err != nil {
			add(name, statusError, err.Error())
			return
		}
		if app == "" {
			app = "nothing"
		}
		add(name, statusOK, "foreground: "+string(app))
	}
	logger.Debug("sampler probed", zap.String("kind", cfg.Sampler.Kind))
}

func checkDispatch(cfg *config.Config, add func(string, string, string)) {
	enabled := 0
	if cfg.Dispatch.Console {
		enabled++
		add("dispatch:console", statusOK, "stderr")
	}
	if cfg.Dispatch.Exec.Command != "" {
		enabled++
		add("dispatch:exec", statusOK, cfg.Dispatch.Exec.Command)
	}
	if cfg.Dispatch.Tmux.Enabled {
		enabled++
		switch {
		case !tmux.IsTmuxAvailable():
			add("dispatch:tmux", statusError, "tmux not found on PATH")
		case cfg.Dispatch.Tmux.Target == "" && !tmux.InsideTmux():
			add("dispatch:tmux", statusWarn, "not inside tmux and no target set")
		default:
			add("dispatch:tmux", statusOK, "available")
		}
	}
	if enabled == 0 {
		add("dispatch", statusWarn, "no dispatcher enabled; interventions are only recorded")
	}
}

func writeCheckText(globals *Globals, report *CheckOutput) {
	if report.ConfigFile != "" {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", report.ConfigFile)
	}
	for _, r := range report.Checks {
		mark := "✓"
		switch r.Status {
		case statusWarn:
			mark = "!"
		case statusError:
			mark = "✗"
		}
		fmt.Fprintf(globals.Stdout, "%s %-18s %s\n", mark, r.Name, r.Detail)
	}
	fmt.Fprintf(globals.Stdout, "\n%d error(s), %d warning(s)\n", report.ErrorCount, report.WarningCount)
}
