package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediatree/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It creates one shared folder under the base directory and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SharedFolders = []string{filepath.Join(base, "media")}
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.ListsDir = filepath.Join(base, "lists")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Optical.MountPoint = ""
	cfgVal.Scan.OnStartup = false
	cfgVal.Transcode.Engines = config.DefaultEngines()
	cfgVal.Transcode.RendererSubtitleFormats = []string{"srt", "vtt"}
	cfgVal.Library.Extensions = []string{"mkv", "mp4", "avi", "mp3", "flac", "jpg"}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	for _, dir := range builder.cfg.Paths.SharedFolders {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir shared folder: %v", err)
		}
	}
	return builder.cfg
}

// WithSharedFolders replaces the shared folders with directories named
// relative to the base directory.
func WithSharedFolders(names ...string) ConfigOption {
	return func(b *configBuilder) {
		folders := make([]string, 0, len(names))
		for _, name := range names {
			folders = append(folders, filepath.Join(b.baseDir, name))
		}
		b.cfg.Paths.SharedFolders = folders
	}
}

// WithChapterInterval enables chapter folders at the given interval.
func WithChapterInterval(minutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcode.ChapterIntervalMinutes = minutes
	}
}

// WithOpticalMount sets the optical mount point to a directory under the base.
func WithOpticalMount(name string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir optical mount: %v", err)
		}
		b.cfg.Optical.MountPoint = dir
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// SharedFolder returns the first shared folder of cfg.
func SharedFolder(cfg *config.Config) string {
	if len(cfg.Paths.SharedFolders) == 0 {
		return ""
	}
	return cfg.Paths.SharedFolders[0]
}
