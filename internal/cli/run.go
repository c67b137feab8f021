package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/vburojevic/dwell/internal/config"
	"github.com/vburojevic/dwell/internal/domain"
	"github.com/vburojevic/dwell/internal/monitor"
	"github.com/vburojevic/dwell/internal/output"
	"github.com/vburojevic/dwell/internal/tmux"
	"go.uber.org/zap"
)

// RunCmd monitors the foreground app until interrupted
type RunCmd struct {
	App        []string      `short:"a" help:"App identifier to monitor (repeatable, replaces the configured watch list)"`
	Interval   time.Duration `help:"Sampling interval (default from config)"`
	Window     time.Duration `help:"Trailing usage-event window (default from config)"`
	Heartbeat  time.Duration `help:"Emit heartbeat records at this interval (0 disables)"`
	Sampler    string        `help:"Foreground source: eventlog, command or script"`
	EventLog   string        `type:"path" help:"Usage event log for the eventlog sampler"`
	Command    string        `help:"Shell command printing the foreground app for the command sampler"`
	Exec       string        `help:"Shell command run for every intervention (DWELL_* environment)"`
	Tmux       bool          `help:"Show interventions as tmux messages and popups"`
	TmuxTarget string        `help:"tmux client to display on (default: current client)"`
	NoConsole  bool          `help:"Do not print interventions to stderr"`
}

// apply overlays flags on a copy of cfg.
func (c *RunCmd) apply(cfg *config.Config) *config.Config {
	out := *cfg
	if len(c.App) > 0 {
		out.WatchList = nil
		for _, id := range c.App {
			out.WatchList = append(out.WatchList, config.AppConfig{ID: id})
		}
	}
	if c.Interval > 0 {
		out.Monitor.Interval = c.Interval.String()
	}
	if c.Window > 0 {
		out.Monitor.Window = c.Window.String()
	}
	if c.Heartbeat > 0 {
		out.Monitor.Heartbeat = c.Heartbeat.String()
	}
	if c.Sampler != "" {
		out.Sampler.Kind = c.Sampler
	}
	if c.EventLog != "" {
		out.Sampler.Path = c.EventLog
	}
	if c.Command != "" {
		out.Sampler.Command = c.Command
		if c.Sampler == "" {
			out.Sampler.Kind = "command"
		}
	}
	if c.Exec != "" {
		out.Dispatch.Exec.Command = c.Exec
	}
	if c.Tmux {
		out.Dispatch.Tmux.Enabled = true
	}
	if c.TmuxTarget != "" {
		out.Dispatch.Tmux.Target = c.TmuxTarget
	}
	if c.NoConsole {
		out.Dispatch.Console = false
	}
	return &out
}

// Run executes the run command
func (c *RunCmd) Run(globals *Globals) error {
	cfg := c.apply(globals.Config)
	if err := validateFlags(globals, cfg.Dispatch.Tmux.Enabled, cfg.Dispatch.Tmux.Target, tmux.InsideTmux()); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := newLogger(globals, runID)
	defer func() { _ = logger.Sync() }()

	p, err := plan(cfg, globals, time.Now(), logger)
	if err != nil {
		return planError(globals, err)
	}

	records := output.New(globals.Format, globals.Stdout)
	loop, err := monitor.New(p.sampler, p.dispatcher, p.watch, p.ladder, monitor.Options{
		Interval: cfg.Interval(),
		Window:   cfg.Window(),
		Logger:   logger,
		Recorder: records,
		RunID:    runID,
	})
	if err != nil {
		return outputErrorCommon(globals, "INVALID_CONFIG", err.Error())
	}

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			loop.Stop()
		}
	}()

	started := time.Now()
	if !globals.Quiet {
		_ = records.Write(&output.Ready{
			Type:          "ready",
			SchemaVersion: output.SchemaVersion,
			RunID:         runID,
			Timestamp:     started.UTC().Format(time.RFC3339),
			Interval:      cfg.Interval().String(),
			Window:        cfg.Window().String(),
			Sampler:       cfg.Sampler.Kind,
			Dispatchers:   p.dispatchers,
			Apps:          appIDs(p.watch),
			Ladder:        rungInfo(p.ladder),
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if hb := cfg.Heartbeat(); hb > 0 && !globals.Quiet {
		go heartbeat(ctx, clock.New(), hb, loop, records, runID, started, logger)
	}

	return loop.Run(ctx)
}

// heartbeat writes liveness records until ctx ends.
func heartbeat(ctx context.Context, clk clock.Clock, every time.Duration, loop *monitor.Loop, records output.Writer, runID string, started time.Time, logger *zap.Logger) {
	ticker := clk.Ticker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := records.Write(newHeartbeat(loop.Snapshot(), runID, started, clk.Now())); err != nil {
				logger.Warn("heartbeat not written", zap.Error(err))
			}
		}
	}
}

func newHeartbeat(snap monitor.Snapshot, runID string, started, now time.Time) *output.Heartbeat {
	hb := &output.Heartbeat{
		Type:          "heartbeat",
		SchemaVersion: output.SchemaVersion,
		RunID:         runID,
		Timestamp:     now.UTC().Format(time.RFC3339),
		UptimeSeconds: int64(now.Sub(started) / time.Second),
		Session:       snap.Session,
		Level:         snap.Level,
	}
	if snap.App != domain.None {
		hb.App = string(snap.App)
		hb.DwellSeconds = int64(max(now.Sub(snap.StartedAt), 0) / time.Second)
	}
	return hb
}

// planError maps setup failures to error codes.
func planError(globals *Globals, err error) error {
	switch {
	case errors.Is(err, config.ErrInvalidConfig):
		return outputErrorCommon(globals, "INVALID_CONFIG", err.Error(), "run 'dwell check' for details")
	case errors.Is(err, tmux.ErrNotAvailable):
		return outputErrorCommon(globals, "TMUX_UNAVAILABLE", err.Error(), "install tmux or drop --tmux")
	case errors.Is(err, os.ErrNotExist):
		return outputErrorCommon(globals, "FILE_NOT_FOUND", err.Error())
	default:
		return outputErrorCommon(globals, "SETUP_FAILED", err.Error())
	}
}
