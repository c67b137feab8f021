package domain

import (
	"errors"
	"sort"
)

// ErrInvalidConfig marks configuration that must stop the monitor from starting.
var ErrInvalidConfig = errors.New("invalid configuration")

// AppID names an application package. Compared by exact equality.
type AppID string

// None is the sample value for "no known foreground app".
const None AppID = ""

// WatchList is the immutable set of monitored apps with their display names.
// The zero value monitors nothing.
type WatchList struct {
	names map[AppID]string
}

// NewWatchList copies entries into a new WatchList. Entries with an empty
// identifier are skipped; an empty display name falls back to the identifier.
func NewWatchList(entries map[AppID]string) WatchList {
	names := make(map[AppID]string, len(entries))
	for id, name := range entries {
		if id == None {
			continue
		}
		if name == "" {
			name = string(id)
		}
		names[id] = name
	}
	return WatchList{names: names}
}

// Contains reports whether id is monitored.
func (w WatchList) Contains(id AppID) bool {
	if id == None {
		return false
	}
	_, ok := w.names[id]
	return ok
}

// Name returns the display name for id, or the identifier itself when id is
// not monitored.
func (w WatchList) Name(id AppID) string {
	if name, ok := w.names[id]; ok {
		return name
	}
	return string(id)
}

// Len returns the number of monitored apps.
func (w WatchList) Len() int {
	return len(w.names)
}

// Apps returns the monitored identifiers in sorted order.
func (w WatchList) Apps() []AppID {
	apps := make([]AppID, 0, len(w.names))
	for id := range w.names {
		apps = append(apps, id)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i] < apps[j] })
	return apps
}

// DefaultWatchList returns the stock set of scroll-heavy apps.
func DefaultWatchList() map[AppID]string {
	return map[AppID]string{
		"com.instagram.android":      "Instagram",
		"com.google.android.youtube": "YouTube",
		"com.zhiliaoapp.musically":   "TikTok",
		"com.facebook.katana":        "Facebook",
		"com.facebook.orca":          "Messenger",
	}
}
