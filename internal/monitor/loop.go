// Package monitor drives foreground sampling and escalation.
//
// A Loop owns the only mutable session state. Every tick it samples the
// foreground app, folds the sample into the session, asks the escalation
// policy which levels are due and hands each one to the dispatcher.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/dwell/internal/dispatch"
	"github.com/vburojevic/dwell/internal/domain"
	"github.com/vburojevic/dwell/internal/escalation"
	"github.com/vburojevic/dwell/internal/sampler"
	"github.com/vburojevic/dwell/internal/session"
	"go.uber.org/zap"
)

const (
	// DefaultInterval is the sampling cadence.
	DefaultInterval = time.Second

	// progressEvery is how often dwell progress is logged at debug level.
	progressEvery = 5
)

// ErrSamplerUnavailable wraps sampler failures; the tick degrades to "no app".
var ErrSamplerUnavailable = errors.New("sampler unavailable")

// Recorder receives session and intervention records.
type Recorder interface {
	Write(record any) error
}

// Options tune a Loop. Zero values pick defaults.
type Options struct {
	Interval time.Duration // sampling period, default 1s
	Window   time.Duration // trailing usage-event window, default 10s
	Clock    clock.Clock   // default wall clock
	Logger   *zap.Logger
	Recorder Recorder
	RunID    string
}

// Snapshot is a read-only copy of the loop state after the latest tick.
type Snapshot struct {
	Session   int
	App       domain.AppID
	StartedAt time.Time
	Level     int
	Ticks     int64
}

// Loop is the monitor. Create it with New.
type Loop struct {
	sampler    sampler.Sampler
	dispatcher dispatch.Dispatcher
	watch      domain.WatchList
	ladder     domain.Ladder

	interval time.Duration
	window   time.Duration
	clock    clock.Clock
	logger   *zap.Logger
	recorder Recorder
	runID    string

	// owned by the goroutine calling Tick
	tracker *session.Tracker
	state   escalation.State
	ticks   int64

	snapshot   atomic.Pointer[Snapshot]
	stopOnce   sync.Once
	finishOnce sync.Once
	stopCh     chan struct{}
}

// New validates the configuration and builds a Loop. It refuses an empty
// watch list or an invalid ladder with an error wrapping
// domain.ErrInvalidConfig.
func New(s sampler.Sampler, d dispatch.Dispatcher, watch domain.WatchList, ladder domain.Ladder, opts Options) (*Loop, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: no sampler", domain.ErrInvalidConfig)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: no dispatcher", domain.ErrInvalidConfig)
	}
	if watch.Len() == 0 {
		return nil, fmt.Errorf("%w: watch list is empty", domain.ErrInvalidConfig)
	}
	if err := ladder.Validate(); err != nil {
		return nil, err
	}
	if opts.Interval < 0 || opts.Window < 0 {
		return nil, fmt.Errorf("%w: negative interval or window", domain.ErrInvalidConfig)
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Window == 0 {
		opts.Window = sampler.DefaultWindow
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	l := &Loop{
		sampler:    s,
		dispatcher: d,
		watch:      watch,
		ladder:     ladder.WithDefaultKinds(),
		interval:   opts.Interval,
		window:     opts.Window,
		clock:      opts.Clock,
		logger:     opts.Logger,
		recorder:   opts.Recorder,
		runID:      opts.RunID,
		tracker:    session.NewTracker(watch, opts.RunID),
		state:      escalation.Initial(),
		stopCh:     make(chan struct{}),
	}
	l.publish()
	return l, nil
}

// Run ticks every interval until ctx is cancelled or Stop is called. An
// active session is closed with a final session_end record.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	l.logger.Info("monitor started",
		zap.Duration("interval", l.interval),
		zap.Duration("window", l.window),
		zap.Int("apps", l.watch.Len()),
		zap.Int("levels", len(l.ladder)))

	for {
		select {
		case <-ctx.Done():
			l.finish()
			return nil
		case <-l.stopCh:
			l.finish()
			return nil
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Stop requests termination. Safe to call more than once and from any
// goroutine.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Close stops the loop and closes an active session with a session_end
// record. Callers driving Tick directly use it instead of Run.
func (l *Loop) Close() {
	l.Stop()
	l.finish()
}

// Snapshot returns the state published after the latest tick.
func (l *Loop) Snapshot() Snapshot {
	return *l.snapshot.Load()
}

// Tick performs one sampling step. Tests call it directly instead of
// waiting on the ticker; it must not be called concurrently.
func (l *Loop) Tick(ctx context.Context) {
	if l.stopped(ctx) {
		return
	}
	l.ticks++
	defer l.publish()

	now := l.clock.Now()
	app := l.sample(ctx, now)

	ev, change := l.tracker.Observe(app, now)
	switch ev.Kind {
	case domain.Started, domain.Ended:
		// no dispatch on a reset tick
		l.state = escalation.Initial()
		l.recordChange(change)

	case domain.Continued:
		elapsed := ev.ElapsedSeconds()
		if elapsed > 0 && elapsed%progressEvery == 0 {
			l.logger.Debug("dwell",
				zap.String("app", string(ev.App)),
				zap.Int64("seconds", elapsed),
				zap.Int("level", l.state.Level))
		}

		if l.state.Maxed(l.ladder) {
			return
		}
		next, levels := escalation.Decide(elapsed, l.state, l.ladder, now)
		l.state = next
		for _, level := range levels {
			if l.stopped(ctx) {
				return
			}
			l.fire(ctx, level, ev, now)
		}
	}
}

func (l *Loop) sample(ctx context.Context, now time.Time) domain.AppID {
	sctx, cancel := context.WithTimeout(ctx, l.interval)
	defer cancel()

	app, err := l.sampler.Sample(sctx, now.Add(-l.window), now)
	if err != nil {
		l.logger.Warn("sample failed, treating as no app",
			zap.Error(fmt.Errorf("%w: %w", ErrSamplerUnavailable, err)))
		return domain.None
	}
	return app
}

func (l *Loop) fire(ctx context.Context, level int, ev domain.SessionEvent, now time.Time) {
	rung, _ := l.ladder.Rung(level)
	iv := domain.NewIntervention(l.runID, l.tracker.CurrentSession(), rung, ev.App, l.watch.Name(ev.App), ev.Elapsed, now)

	dctx, cancel := context.WithTimeout(ctx, l.interval)
	defer cancel()

	err := l.dispatcher.Fire(dctx, iv)
	if err != nil {
		// the level stays fired so a failing dispatcher cannot cause a storm
		err = fmt.Errorf("%w: %s: %w", dispatch.ErrDispatchFailed, l.dispatcher.Name(), err)
		l.logger.Warn("intervention not delivered",
			zap.Int("level", level),
			zap.String("app", string(ev.App)),
			zap.Error(err))
	} else {
		l.logger.Info("intervention",
			zap.Int("level", level),
			zap.String("kind", string(iv.Kind)),
			zap.String("app", string(ev.App)),
			zap.Int64("elapsed", iv.ElapsedSeconds))
	}
	l.tracker.RecordDispatch(level, err)
	l.record(iv)
}

func (l *Loop) recordChange(change *session.SessionChange) {
	if change == nil {
		return
	}
	if change.EndSession != nil {
		l.logger.Info("session ended",
			zap.Int("session", change.EndSession.Session),
			zap.String("app", string(change.EndSession.App)),
			zap.String("reason", change.EndSession.Reason),
			zap.Int64("seconds", change.EndSession.Summary.DurationSeconds))
		l.record(change.EndSession)
	}
	if change.StartSession != nil {
		l.logger.Info("session started",
			zap.Int("session", change.StartSession.Session),
			zap.String("app", string(change.StartSession.App)))
		l.record(change.StartSession)
	}
}

func (l *Loop) record(v any) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Write(v); err != nil {
		l.logger.Warn("record not written", zap.Error(err))
	}
}

func (l *Loop) finish() {
	l.finishOnce.Do(func() {
		if end := l.tracker.GetFinalSummary(l.clock.Now()); end != nil {
			l.record(end)
		}
		l.logger.Info("monitor stopped", zap.Int64("ticks", l.ticks))
	})
}

func (l *Loop) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

func (l *Loop) publish() {
	cur := l.tracker.Current()
	l.snapshot.Store(&Snapshot{
		Session:   l.tracker.CurrentSession(),
		App:       cur.App,
		StartedAt: cur.StartedAt,
		Level:     l.state.Level,
		Ticks:     l.ticks,
	})
}
