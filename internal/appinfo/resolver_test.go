package appinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/dwell/internal/domain"
)

func writeBundle(t *testing.T, dir, bundle, body string) {
	t.Helper()
	contents := filepath.Join(dir, bundle, "Contents")
	require.NoError(t, os.MkdirAll(contents, 0o755))
	plist := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0"><dict>` + body + `</dict></plist>`
	require.NoError(t, os.WriteFile(filepath.Join(contents, "Info.plist"), []byte(plist), 0o644))
}

func TestResolverNames(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "Feed.app", `
<key>CFBundleIdentifier</key><string>com.example.feed</string>
<key>CFBundleDisplayName</key><string>Feed Display</string>
<key>CFBundleName</key><string>Feed</string>`)
	writeBundle(t, dir, "Clips.app", `
<key>CFBundleIdentifier</key><string>com.example.clips</string>
<key>CFBundleName</key><string>Clips</string>`)
	writeBundle(t, dir, "Bare.app", `
<key>CFBundleIdentifier</key><string>com.example.bare</string>`)
	writeBundle(t, dir, "NoID.app", `<key>CFBundleName</key><string>Nothing</string>`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Broken.app", "Contents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.app", "Contents", "Info.plist"), []byte("not a plist"), 0o644))

	r := NewResolver([]string{dir, filepath.Join(dir, "missing")}, nil)

	assert.Equal(t, "Feed Display", r.Name("com.example.feed"))
	assert.Equal(t, "Clips", r.Name("com.example.clips"))
	assert.Equal(t, "Bare", r.Name("com.example.bare"))
	assert.Equal(t, "com.example.unknown", r.Name("com.example.unknown"))
	assert.Equal(t, []domain.AppID{"com.example.bare", "com.example.clips", "com.example.feed"}, r.Known())
}

func TestResolverFirstDirWins(t *testing.T) {
	system, user := t.TempDir(), t.TempDir()
	writeBundle(t, system, "Feed.app", `<key>CFBundleIdentifier</key><string>com.example.feed</string><key>CFBundleName</key><string>System Feed</string>`)
	writeBundle(t, user, "Feed.app", `<key>CFBundleIdentifier</key><string>com.example.feed</string><key>CFBundleName</key><string>User Feed</string>`)

	r := NewResolver([]string{system, user}, nil)
	assert.Equal(t, "System Feed", r.Name("com.example.feed"))
}
