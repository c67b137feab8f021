package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/vburojevic/dwell/internal/appinfo"
	"github.com/vburojevic/dwell/internal/config"
	"github.com/vburojevic/dwell/internal/dispatch"
	"github.com/vburojevic/dwell/internal/domain"
	"github.com/vburojevic/dwell/internal/output"
	"github.com/vburojevic/dwell/internal/sampler"
	"github.com/vburojevic/dwell/internal/tmux"
	"go.uber.org/zap"
)

// monitorPlan is everything a run needs, resolved from configuration.
type monitorPlan struct {
	watch       domain.WatchList
	ladder      domain.Ladder
	sampler     sampler.Sampler
	dispatcher  dispatch.Dispatcher
	dispatchers []string
}

// buildWatchList resolves unnamed apps through installed bundles.
func buildWatchList(cfg *config.Config, logger *zap.Logger) domain.WatchList {
	dirs := cfg.AppDirs
	if len(dirs) == 0 {
		dirs = appinfo.DefaultDirs()
	}
	return cfg.BuildWatchList(appinfo.NewResolver(dirs, logger))
}

// buildSampler creates the configured foreground source. Script samplers
// replay from origin.
func buildSampler(cfg *config.Config, origin time.Time, logger *zap.Logger) (sampler.Sampler, error) {
	switch cfg.Sampler.Kind {
	case "eventlog":
		return sampler.NewEventLogSampler(cfg.Sampler.Path, logger), nil
	case "command":
		return sampler.NewCommandSampler(cfg.Sampler.Command, cfg.Sampler.ResolvePID), nil
	case "script":
		segments, err := readScript(cfg.Sampler.Path)
		if err != nil {
			return nil, err
		}
		return sampler.NewScriptSampler(origin, segments), nil
	default:
		return nil, fmt.Errorf("%w: unknown sampler %q", config.ErrInvalidConfig, cfg.Sampler.Kind)
	}
}

func readScript(path string) ([]sampler.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	segments, err := sampler.ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return segments, nil
}

// buildDispatcher fans out to every enabled surface. Console alerts go to
// stderr so stdout stays a clean record stream.
func buildDispatcher(cfg *config.Config, globals *Globals, logger *zap.Logger) (dispatch.Dispatcher, []string, error) {
	var multi dispatch.Multi
	if cfg.Dispatch.Console {
		multi = append(multi, dispatch.NewConsole(globals.Stderr))
	}
	if cfg.Dispatch.Exec.Command != "" {
		multi = append(multi, dispatch.NewExec(cfg.Dispatch.Exec.Command, cfg.ExecTimeout(), logger))
	}
	if cfg.Dispatch.Tmux.Enabled {
		mgr, err := tmux.NewManager(cfg.Dispatch.Tmux.Target)
		if err != nil {
			return nil, nil, err
		}
		multi = append(multi, dispatch.NewTmux(mgr, cfg.TmuxDuration(), logger))
	}

	names := lo.Map(multi, func(d dispatch.Dispatcher, _ int) string { return d.Name() })
	if len(multi) == 1 {
		return multi[0], names, nil
	}
	return multi, names, nil
}

// plan validates cfg and builds the monitor's collaborators.
func plan(cfg *config.Config, globals *Globals, origin time.Time, logger *zap.Logger) (*monitorPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ladder, err := cfg.BuildLadder()
	if err != nil {
		return nil, err
	}
	s, err := buildSampler(cfg, origin, logger)
	if err != nil {
		return nil, err
	}
	d, names, err := buildDispatcher(cfg, globals, logger)
	if err != nil {
		return nil, err
	}
	return &monitorPlan{
		watch:       buildWatchList(cfg, logger),
		ladder:      ladder,
		sampler:     s,
		dispatcher:  d,
		dispatchers: names,
	}, nil
}

// rungInfo describes the ladder for ready and ladder records.
func rungInfo(ladder domain.Ladder) []output.RungInfo {
	return lo.Map(ladder.WithDefaultKinds(), func(r domain.Rung, _ int) output.RungInfo {
		return output.RungInfo{Level: r.Level, AfterSeconds: r.Seconds(), Kind: string(r.Kind)}
	})
}

func appIDs(watch domain.WatchList) []string {
	return lo.Map(watch.Apps(), func(id domain.AppID, _ int) string { return string(id) })
}
