package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mediatree/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Engine kinds restrict which sources an engine is offered for.
const (
	EngineKindVideo = "video"
	EngineKindAudio = "audio"
	EngineKindAny   = "any"
)

// Paths contains directory and bind address configuration.
type Paths struct {
	SharedFolders []string `toml:"shared_folders"`
	LogDir        string   `toml:"log_dir"`
	CacheDir      string   `toml:"cache_dir"`
	ListsDir      string   `toml:"lists_dir"`
	APIBind       string   `toml:"api_bind"`
	APIToken      string   `toml:"api_token"`
}

// Library controls how filesystem content becomes tree nodes.
type Library struct {
	Extensions        []string `toml:"extensions"`
	HideEmptyFolders  bool     `toml:"hide_empty_folders"`
	BrowseArchives    bool     `toml:"browse_archives"`
	ArchiveSeekMaxMiB int      `toml:"archive_seek_max_mib"`
	TranscodeFolders  bool     `toml:"transcode_folders"`
	Playlists         bool     `toml:"playlists"`
}

// Engine declares one transcoding engine. The order of engines in the config
// is their rank.
type Engine struct {
	ID             string   `toml:"id"`
	Name           string   `toml:"name"`
	Kind           string   `toml:"kind"`
	CanSeek        bool     `toml:"can_seek"`
	BurnsSubtitles bool     `toml:"burns_subtitles"`
	AudioCodecs    []string `toml:"audio_codecs"`
}

// Transcode configures variant generation.
type Transcode struct {
	Engines                  []Engine `toml:"engines"`
	ChapterIntervalMinutes   int      `toml:"chapter_interval_minutes"`
	RendererStreamsSubtitles bool     `toml:"renderer_streams_subtitles"`
	RendererSubtitleFormats  []string `toml:"renderer_subtitle_formats"`
	ProbeTimeoutSeconds      int      `toml:"probe_timeout_seconds"`
}

// Scan configures the background library scanner.
type Scan struct {
	OnStartup       bool `toml:"on_startup"`
	IntervalMinutes int  `toml:"interval_minutes"`
}

// Optical configures the optical drive folder and its media-change watcher.
type Optical struct {
	Device     string `toml:"device"`
	MountPoint string `toml:"mount_point"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediatree.
//
// Configuration sections by subsystem:
//   - Paths: shared folders, state directories, API bind address
//   - Library: extension filter, archive browsing, transcode folders
//   - Transcode: engine list (rank order), chapter interval, renderer caps
//   - Scan: background scan cadence
//   - Optical: disc drive device and mount point
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Library   Library   `toml:"library"`
	Transcode Transcode `toml:"transcode"`
	Scan      Scan      `toml:"scan"`
	Optical   Optical   `toml:"optical"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediatree/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mediatree.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir, c.Paths.ListsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// CacheDBPath returns the SQLite metadata cache location.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.Paths.CacheDir, "metadata.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "mediatree.lock")
}

// ChapterInterval returns the chapter folder interval, or 0 when disabled.
func (c *Config) ChapterInterval() time.Duration {
	if c.Transcode.ChapterIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Transcode.ChapterIntervalMinutes) * time.Minute
}

// ProbeTimeout bounds a single ffprobe invocation.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Transcode.ProbeTimeoutSeconds) * time.Second
}

// ScanInterval returns the periodic scan interval, or 0 when disabled.
func (c *Config) ScanInterval() time.Duration {
	if c.Scan.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Scan.IntervalMinutes) * time.Minute
}

// ArchiveSeekMaxBytes is the largest archive entry treated as seekable.
func (c *Config) ArchiveSeekMaxBytes() int64 {
	return int64(c.Library.ArchiveSeekMaxMiB) << 20
}

// ExtensionSet returns the lower-cased, dot-less extension filter.
func (c *Config) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Library.Extensions))
	for _, ext := range c.Library.Extensions {
		set[ext] = struct{}{}
	}
	return set
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
