package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeTranscode()
	c.normalizeOptical()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	folders := c.Paths.SharedFolders
	if len(folders) == 0 {
		if value, ok := os.LookupEnv("MEDIATREE_FOLDERS"); ok {
			folders = filepath.SplitList(value)
		}
	}
	seen := make(map[string]struct{}, len(folders))
	expanded := make([]string, 0, len(folders))
	for _, folder := range folders {
		folder = strings.TrimSpace(folder)
		if folder == "" {
			continue
		}
		abs, err := expandPath(folder)
		if err != nil {
			return fmt.Errorf("paths.shared_folders: %w", err)
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		expanded = append(expanded, abs)
	}
	c.Paths.SharedFolders = expanded

	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ListsDir) == "" {
		c.Paths.ListsDir = defaultListsDir
	}
	if c.Paths.ListsDir, err = expandPath(c.Paths.ListsDir); err != nil {
		return fmt.Errorf("paths.lists_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = strings.TrimSpace(os.Getenv("MEDIATREE_API_TOKEN"))
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	c.Library.Extensions = normalizeTokens(c.Library.Extensions, true)
	if len(c.Library.Extensions) == 0 {
		c.Library.Extensions = append([]string(nil), defaultExtensions...)
	}
	if c.Library.ArchiveSeekMaxMiB < 0 {
		c.Library.ArchiveSeekMaxMiB = 0
	}
}

func (c *Config) normalizeTranscode() {
	if len(c.Transcode.Engines) == 0 {
		c.Transcode.Engines = DefaultEngines()
	}
	for i := range c.Transcode.Engines {
		engine := &c.Transcode.Engines[i]
		engine.ID = strings.ToLower(strings.TrimSpace(engine.ID))
		engine.Name = strings.TrimSpace(engine.Name)
		if engine.Name == "" {
			engine.Name = engine.ID
		}
		engine.Kind = strings.ToLower(strings.TrimSpace(engine.Kind))
		if engine.Kind == "" {
			engine.Kind = EngineKindAny
		}
		engine.AudioCodecs = normalizeTokens(engine.AudioCodecs, false)
	}
	if c.Transcode.RendererSubtitleFormats == nil {
		c.Transcode.RendererSubtitleFormats = append([]string(nil), defaultRendererSubtitleFormats...)
	}
	c.Transcode.RendererSubtitleFormats = normalizeTokens(c.Transcode.RendererSubtitleFormats, true)
	if c.Transcode.ChapterIntervalMinutes < 0 {
		c.Transcode.ChapterIntervalMinutes = 0
	}
	if c.Transcode.ProbeTimeoutSeconds <= 0 {
		c.Transcode.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
}

func (c *Config) normalizeOptical() {
	c.Optical.Device = strings.TrimSpace(c.Optical.Device)
	c.Optical.MountPoint = strings.TrimSpace(c.Optical.MountPoint)
	if c.Optical.Device != "" && c.Optical.MountPoint == "" {
		c.Optical.MountPoint = defaultOpticalMountPoint
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeTokens(values []string, stripDot bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if stripDot {
			value = strings.TrimPrefix(value, ".")
		}
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
