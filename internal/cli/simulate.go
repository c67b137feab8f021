package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/vburojevic/dwell/internal/dispatch"
	"github.com/vburojevic/dwell/internal/domain"
	"github.com/vburojevic/dwell/internal/monitor"
	"github.com/vburojevic/dwell/internal/output"
	"github.com/vburojevic/dwell/internal/sampler"
)

// SimulateCmd replays a script of foreground segments without waiting in
// real time.
type SimulateCmd struct {
	Script   string        `arg:"" help:"Script file of '<duration> <app|->' lines, '-' for stdin"`
	Step     time.Duration `default:"1s" help:"Simulated sampling interval"`
	App      []string      `short:"a" help:"App identifier to monitor (repeatable, replaces the configured watch list)"`
	Dispatch bool          `help:"Also fire the configured dispatchers"`
}

// SimulationSummary closes a simulation.
type SimulationSummary struct {
	Type            string `json:"type"` // "simulation_summary"
	SchemaVersion   int    `json:"schemaVersion"`
	RunID           string `json:"run_id"`
	DurationSeconds int64  `json:"duration_seconds"`
	Ticks           int64  `json:"ticks"`
	Sessions        int    `json:"sessions"`
	Interventions   int    `json:"interventions"`
	HighestLevel    int    `json:"highest_level"`
}

// stepClock is a clock whose Now only moves when told to. Tick never sleeps
// or waits on timers, so the rest of the interface is the wall clock.
type stepClock struct {
	clock.Clock
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingRecorder forwards records and tallies interventions.
type countingRecorder struct {
	next          output.Writer
	interventions int
	highest       int
}

func (r *countingRecorder) Write(record any) error {
	if iv, ok := record.(*domain.Intervention); ok {
		r.interventions++
		r.highest = max(r.highest, iv.Level)
	}
	return r.next.Write(record)
}

// Run executes the simulate command
func (c *SimulateCmd) Run(globals *Globals) error {
	if c.Step <= 0 {
		return outputErrorCommon(globals, "INVALID_STEP", "--step must be positive")
	}

	var in io.Reader = os.Stdin
	if c.Script != "-" {
		f, err := os.Open(c.Script)
		if err != nil {
			return outputErrorCommon(globals, "FILE_NOT_FOUND", err.Error())
		}
		defer f.Close()
		in = f
	}
	segments, err := sampler.ParseScript(in)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_SCRIPT", err.Error(), "each line is '<duration> <app>' or '<duration> -'")
	}

	runID := uuid.NewString()
	logger := newLogger(globals, runID)
	defer func() { _ = logger.Sync() }()

	cfg := (&RunCmd{App: c.App}).apply(globals.Config)
	if err := cfg.Validate(); err != nil {
		return planError(globals, err)
	}
	ladder, err := cfg.BuildLadder()
	if err != nil {
		return planError(globals, err)
	}

	var d dispatch.Dispatcher = dispatch.Nop{}
	if c.Dispatch {
		if d, _, err = buildDispatcher(cfg, globals, logger); err != nil {
			return planError(globals, err)
		}
	}

	clk := &stepClock{Clock: clock.New(), now: time.Now().Truncate(time.Second)}
	script := sampler.NewScriptSampler(clk.Now(), segments)
	records := &countingRecorder{next: output.New(globals.Format, globals.Stdout)}

	loop, err := monitor.New(script, d, buildWatchList(cfg, logger), ladder, monitor.Options{
		Interval: c.Step,
		Clock:    clk,
		Logger:   logger,
		Recorder: records,
		RunID:    runID,
	})
	if err != nil {
		return planError(globals, err)
	}

	ctx := context.Background()
	total := script.Total()
	for elapsed := time.Duration(0); elapsed < total; elapsed += c.Step {
		loop.Tick(ctx)
		clk.Add(c.Step)
	}
	// one more tick observes the end of the script
	loop.Tick(ctx)
	loop.Close()

	snap := loop.Snapshot()
	summary := &SimulationSummary{
		Type:            "simulation_summary",
		SchemaVersion:   output.SchemaVersion,
		RunID:           runID,
		DurationSeconds: int64(total / time.Second),
		Ticks:           snap.Ticks,
		Sessions:        snap.Session,
		Interventions:   records.interventions,
		HighestLevel:    records.highest,
	}
	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).Write(summary)
	}
	fmt.Fprintf(globals.Stdout, "Simulated %s in %d ticks: %d sessions, %d interventions, highest level %d\n",
		domain.FormatDwell(total), summary.Ticks, summary.Sessions, summary.Interventions, summary.HighestLevel)
	return nil
}
