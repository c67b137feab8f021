package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vburojevic/dwell/internal/domain"
)

// ErrInvalidConfig is returned (wrapped) for any configuration the monitor
// refuses to start with.
var ErrInvalidConfig = domain.ErrInvalidConfig

// Known values for enumerated settings.
var (
	Formats      = []string{"auto", "text", "ndjson"}
	Levels       = []string{"debug", "info", "warn", "error"}
	SamplerKinds = []string{"eventlog", "command", "script"}
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format" yaml:"format"`
	Level   string `mapstructure:"level" yaml:"level"`
	Quiet   bool   `mapstructure:"quiet" yaml:"quiet"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`

	Monitor   MonitorConfig  `mapstructure:"monitor" yaml:"monitor"`
	WatchList []AppConfig    `mapstructure:"watchlist" yaml:"watchlist"`
	Ladder    []RungConfig   `mapstructure:"ladder" yaml:"ladder"`
	Sampler   SamplerConfig  `mapstructure:"sampler" yaml:"sampler"`
	Dispatch  DispatchConfig `mapstructure:"dispatch" yaml:"dispatch"`

	// Folders scanned for app bundles when a watch list entry has no name
	AppDirs []string `mapstructure:"app_dirs" yaml:"app_dirs,omitempty"`
}

// MonitorConfig tunes the sampling loop. Durations are Go duration strings.
type MonitorConfig struct {
	Interval  string `mapstructure:"interval" yaml:"interval"`
	Window    string `mapstructure:"window" yaml:"window"`
	Heartbeat string `mapstructure:"heartbeat" yaml:"heartbeat,omitempty"`
}

// AppConfig is one monitored app. The identifier is kept as a value rather
// than a key because bundle identifiers contain dots.
type AppConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name,omitempty"`
}

// RungConfig is one escalation threshold.
type RungConfig struct {
	Level   int    `mapstructure:"level" yaml:"level"`
	After   string `mapstructure:"after" yaml:"after"`
	Kind    string `mapstructure:"kind" yaml:"kind,omitempty"`
	Title   string `mapstructure:"title" yaml:"title,omitempty"`
	Message string `mapstructure:"message" yaml:"message,omitempty"`
}

// SamplerConfig selects the foreground source.
type SamplerConfig struct {
	Kind       string `mapstructure:"kind" yaml:"kind"`
	Path       string `mapstructure:"path" yaml:"path,omitempty"`
	Command    string `mapstructure:"command" yaml:"command,omitempty"`
	ResolvePID bool   `mapstructure:"resolve_pid" yaml:"resolve_pid,omitempty"`
}

// DispatchConfig enables intervention surfaces.
type DispatchConfig struct {
	Console bool       `mapstructure:"console" yaml:"console"`
	Exec    ExecConfig `mapstructure:"exec" yaml:"exec"`
	Tmux    TmuxConfig `mapstructure:"tmux" yaml:"tmux"`
}

// ExecConfig runs a command per intervention.
type ExecConfig struct {
	Command string `mapstructure:"command" yaml:"command,omitempty"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// TmuxConfig shows interventions inside tmux.
type TmuxConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Target   string `mapstructure:"target" yaml:"target,omitempty"`
	Duration string `mapstructure:"duration" yaml:"duration"`
}

// NameResolver looks up display names for apps configured without one.
type NameResolver interface {
	Name(id domain.AppID) string
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "auto",
		Level:   "info",
		Quiet:   false,
		Verbose: false,
		Monitor: MonitorConfig{
			Interval: "1s",
			Window:   "10s",
		},
		WatchList: defaultWatchList(),
		Ladder:    defaultLadder(),
		Sampler: SamplerConfig{
			Kind: "eventlog",
			Path: DefaultEventLogPath(),
		},
		Dispatch: DispatchConfig{
			Console: true,
			Exec:    ExecConfig{Timeout: "5m"},
			Tmux:    TmuxConfig{Duration: "10s"},
		},
	}
}

// DefaultEventLogPath is where the eventlog sampler reads usage events.
func DefaultEventLogPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dwell", "usage.ndjson")
	}
	return "usage.ndjson"
}

func defaultWatchList() []AppConfig {
	w := domain.NewWatchList(domain.DefaultWatchList())
	return lo.Map(w.Apps(), func(id domain.AppID, _ int) AppConfig {
		return AppConfig{ID: string(id), Name: w.Name(id)}
	})
}

func defaultLadder() []RungConfig {
	return lo.Map(domain.DefaultLadder(), func(r domain.Rung, _ int) RungConfig {
		return RungConfig{Level: r.Level, After: r.After.String(), Kind: string(r.Kind)}
	})
}

// SearchPaths returns the directories searched for dwell.yaml, lowest
// precedence first.
func SearchPaths() []string {
	paths := []string{"/etc/dwell"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "dwell"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	return append(paths, ".")
}

// configNames are tried in order in every search path.
var configNames = []string{"dwell", ".dwell"}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variables
	v.SetEnvPrefix("DWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Short aliases
	_ = v.BindEnv("monitor.interval", "DWELL_INTERVAL", "DWELL_MONITOR_INTERVAL")
	_ = v.BindEnv("monitor.window", "DWELL_WINDOW", "DWELL_MONITOR_WINDOW")
	_ = v.BindEnv("monitor.heartbeat", "DWELL_HEARTBEAT", "DWELL_MONITOR_HEARTBEAT")
	_ = v.BindEnv("sampler.kind", "DWELL_SAMPLER", "DWELL_SAMPLER_KIND")
	_ = v.BindEnv("sampler.path", "DWELL_EVENT_LOG", "DWELL_SAMPLER_PATH")

	// Scalar defaults only: list defaults are applied after decoding, since
	// decoding into a prefilled slice would keep stale elements.
	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("level", cfg.Level)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("monitor.interval", cfg.Monitor.Interval)
	v.SetDefault("monitor.window", cfg.Monitor.Window)
	v.SetDefault("monitor.heartbeat", cfg.Monitor.Heartbeat)
	v.SetDefault("sampler.kind", cfg.Sampler.Kind)
	v.SetDefault("sampler.path", cfg.Sampler.Path)
	v.SetDefault("sampler.command", cfg.Sampler.Command)
	v.SetDefault("sampler.resolve_pid", cfg.Sampler.ResolvePID)
	v.SetDefault("dispatch.console", cfg.Dispatch.Console)
	v.SetDefault("dispatch.exec.command", cfg.Dispatch.Exec.Command)
	v.SetDefault("dispatch.exec.timeout", cfg.Dispatch.Exec.Timeout)
	v.SetDefault("dispatch.tmux.enabled", cfg.Dispatch.Tmux.Enabled)
	v.SetDefault("dispatch.tmux.target", cfg.Dispatch.Tmux.Target)
	v.SetDefault("dispatch.tmux.duration", cfg.Dispatch.Tmux.Duration)
	return v
}

// Load loads configuration from .env, config files and environment
func Load() (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	v := newViper()
	if path := findConfigFile(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return decode(v)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := Default()
	cfg.WatchList = nil
	cfg.Ladder = nil
	cfg.AppDirs = nil

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if len(cfg.WatchList) == 0 {
		cfg.WatchList = defaultWatchList()
	}
	if len(cfg.Ladder) == 0 {
		cfg.Ladder = defaultLadder()
	}
	cfg.Sampler.Path = expandHome(cfg.Sampler.Path)
	cfg.AppDirs = lo.Map(cfg.AppDirs, func(d string, _ int) string { return expandHome(d) })
	return cfg, nil
}

// ConfigFile returns the path to the config file Load would read
func ConfigFile() string {
	return findConfigFile()
}

// findConfigFile returns the highest precedence existing config file.
func findConfigFile() string {
	paths := SearchPaths()
	for i := len(paths) - 1; i >= 0; i-- {
		for _, name := range configNames {
			for _, ext := range []string{".yaml", ".yml"} {
				candidate := filepath.Join(paths[i], name+ext)
				if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
					return candidate
				}
			}
		}
	}
	return ""
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...)))
	}
	oneOf := func(field, value string, allowed []string) {
		if !lo.Contains(allowed, value) {
			bad(field, "unknown value %q%s", value, suggestion(value, allowed))
		}
	}

	oneOf("format", c.Format, Formats)
	oneOf("level", c.Level, Levels)
	if c.Quiet && c.Format != "ndjson" {
		bad("quiet", "requires format ndjson")
	}

	positive := func(field, value string, optional bool) {
		if value == "" && optional {
			return
		}
		d, err := time.ParseDuration(value)
		switch {
		case err != nil:
			bad(field, "invalid duration %q", value)
		case d <= 0:
			bad(field, "must be positive, got %s", value)
		}
	}
	positive("monitor.interval", c.Monitor.Interval, false)
	positive("monitor.window", c.Monitor.Window, false)
	positive("monitor.heartbeat", c.Monitor.Heartbeat, true)
	positive("dispatch.exec.timeout", c.Dispatch.Exec.Timeout, true)
	positive("dispatch.tmux.duration", c.Dispatch.Tmux.Duration, true)

	oneOf("sampler.kind", c.Sampler.Kind, SamplerKinds)
	switch c.Sampler.Kind {
	case "eventlog", "script":
		if c.Sampler.Path == "" {
			bad("sampler.path", "required for the %s sampler", c.Sampler.Kind)
		}
	case "command":
		if c.Sampler.Command == "" {
			bad("sampler.command", "required for the command sampler")
		}
	}

	if len(c.WatchList) == 0 {
		bad("watchlist", "no apps to monitor")
	}
	seen := map[string]bool{}
	for i, app := range c.WatchList {
		id := strings.TrimSpace(app.ID)
		switch {
		case id == "":
			bad(fmt.Sprintf("watchlist[%d].id", i), "empty")
		case seen[id]:
			bad(fmt.Sprintf("watchlist[%d].id", i), "duplicate %q", id)
		}
		seen[id] = true
	}

	kinds := []string{string(domain.KindReminder), string(domain.KindWarning), string(domain.KindConfirm)}
	for i, r := range c.Ladder {
		if r.Kind != "" {
			oneOf(fmt.Sprintf("ladder[%d].kind", i), r.Kind, kinds)
		}
		if _, err := time.ParseDuration(r.After); err != nil {
			bad(fmt.Sprintf("ladder[%d].after", i), "invalid duration %q", r.After)
		}
	}
	if len(errs) == 0 {
		if _, err := c.BuildLadder(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// suggestion returns a "did you mean" hint for the closest allowed value.
func suggestion(value string, allowed []string) string {
	if value == "" || len(allowed) == 0 {
		return ""
	}
	best := lo.MinBy(allowed, func(a, b string) bool {
		return levenshtein.ComputeDistance(value, a) < levenshtein.ComputeDistance(value, b)
	})
	if levenshtein.ComputeDistance(value, best) > max(2, len(best)/2) {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

// BuildWatchList converts the configured apps. Entries without a name are
// resolved through names; a nil resolver keeps the identifier.
func (c *Config) BuildWatchList(names NameResolver) domain.WatchList {
	m := make(map[domain.AppID]string, len(c.WatchList))
	for _, app := range c.WatchList {
		id := domain.AppID(strings.TrimSpace(app.ID))
		name := app.Name
		if name == "" && names != nil {
			name = names.Name(id)
		}
		m[id] = name
	}
	return domain.NewWatchList(m)
}

// BuildLadder converts and validates the configured rungs.
func (c *Config) BuildLadder() (domain.Ladder, error) {
	ladder := make(domain.Ladder, 0, len(c.Ladder))
	for i, r := range c.Ladder {
		after, err := time.ParseDuration(r.After)
		if err != nil {
			return nil, fmt.Errorf("%w: ladder[%d].after: %w", ErrInvalidConfig, i, err)
		}
		ladder = append(ladder, domain.Rung{
			Level:   r.Level,
			After:   after,
			Kind:    domain.Kind(r.Kind),
			Title:   r.Title,
			Message: r.Message,
		})
	}
	if err := ladder.Validate(); err != nil {
		return nil, err
	}
	return ladder, nil
}

// Interval returns the parsed sampling interval, zero if unset or invalid.
func (c *Config) Interval() time.Duration { return parse(c.Monitor.Interval) }

// Window returns the trailing usage-event window.
func (c *Config) Window() time.Duration { return parse(c.Monitor.Window) }

// Heartbeat returns the heartbeat period; zero disables heartbeats.
func (c *Config) Heartbeat() time.Duration { return parse(c.Monitor.Heartbeat) }

// ExecTimeout bounds each exec dispatch.
func (c *Config) ExecTimeout() time.Duration { return parse(c.Dispatch.Exec.Timeout) }

// TmuxDuration is how long tmux messages stay up.
func (c *Config) TmuxDuration() time.Duration { return parse(c.Dispatch.Tmux.Duration) }

func parse(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
