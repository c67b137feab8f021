// Package appinfo resolves display names for app identifiers from installed
// application bundles.
package appinfo

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/vburojevic/dwell/internal/domain"
	"go.uber.org/zap"
	"howett.net/plist"
)

// bundleInfo is the subset of Info.plist we care about.
type bundleInfo struct {
	Identifier  string `plist:"CFBundleIdentifier"`
	DisplayName string `plist:"CFBundleDisplayName"`
	Name        string `plist:"CFBundleName"`
}

// Resolver maps bundle identifiers to human readable names.
type Resolver struct {
	dirs   []string
	logger *zap.Logger

	once  sync.Once
	names map[domain.AppID]string
}

// DefaultDirs returns the standard application folders.
func DefaultDirs() []string {
	dirs := []string{"/Applications"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Applications"))
	}
	return dirs
}

// NewResolver creates a resolver that scans dirs lazily on first use.
func NewResolver(dirs []string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{dirs: dirs, logger: logger}
}

// Name returns the display name for id, or id itself when no bundle matches.
func (r *Resolver) Name(id domain.AppID) string {
	r.once.Do(r.scan)
	if name, ok := r.names[id]; ok {
		return name
	}
	return string(id)
}

// Known lists every resolved identifier.
func (r *Resolver) Known() []domain.AppID {
	r.once.Do(r.scan)
	ids := lo.Keys(r.names)
	slices.Sort(ids)
	return ids
}

func (r *Resolver) scan() {
	r.names = make(map[domain.AppID]string)
	for _, dir := range r.dirs {
		bundles, err := filepath.Glob(filepath.Join(dir, "*.app"))
		if err != nil {
			continue
		}
		for _, bundle := range bundles {
			info, err := readBundle(bundle)
			if err != nil {
				r.logger.Debug("skipping bundle", zap.String("path", bundle), zap.Error(err))
				continue
			}
			if info.Identifier == "" {
				continue
			}
			id := domain.AppID(info.Identifier)
			if _, dup := r.names[id]; dup {
				continue
			}
			r.names[id] = info.label(bundle)
		}
	}
	r.logger.Debug("app bundles resolved", zap.Int("count", len(r.names)))
}

func readBundle(bundle string) (bundleInfo, error) {
	var info bundleInfo
	data, err := os.ReadFile(filepath.Join(bundle, "Contents", "Info.plist"))
	if err != nil {
		return info, err
	}
	_, err = plist.Unmarshal(data, &info)
	return info, err
}

func (b bundleInfo) label(bundle string) string {
	switch {
	case b.DisplayName != "":
		return b.DisplayName
	case b.Name != "":
		return b.Name
	default:
		return strings.TrimSuffix(filepath.Base(bundle), ".app")
	}
}
