package config

const (
	defaultLogDir                 = "~/.local/share/mediatree/logs"
	defaultCacheDir               = "~/.cache/mediatree"
	defaultListsDir               = "~/.local/share/mediatree/lists"
	defaultAPIBind                = "127.0.0.1:5001"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultArchiveSeekMaxMiB      = 64
	defaultChapterIntervalMinutes = 0
	defaultScanIntervalMinutes    = 0
	defaultProbeTimeoutSeconds    = 30
	defaultOpticalMountPoint      = "/media/cdrom"
)

// List-valued defaults are applied during normalization so a TOML array
// replaces them instead of merging into them.
var defaultRendererSubtitleFormats = []string{"srt", "vtt"}

var defaultExtensions = []string{
	"mkv", "mp4", "m4v", "avi", "mov", "wmv", "mpg", "mpeg", "ts", "m2ts", "webm", "iso",
	"mp3", "flac", "ogg", "opus", "m4a", "wav", "aac",
	"jpg", "jpeg", "png",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
			ListsDir: defaultListsDir,
			APIBind:  defaultAPIBind,
		},
		Library: Library{
			HideEmptyFolders:  true,
			BrowseArchives:    true,
			ArchiveSeekMaxMiB: defaultArchiveSeekMaxMiB,
			TranscodeFolders:  true,
			Playlists:         true,
		},
		Transcode: Transcode{
			ChapterIntervalMinutes: defaultChapterIntervalMinutes,
			ProbeTimeoutSeconds:    defaultProbeTimeoutSeconds,
		},
		Scan: Scan{
			OnStartup:       true,
			IntervalMinutes: defaultScanIntervalMinutes,
		},
		Optical: Optical{
			MountPoint: defaultOpticalMountPoint,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultEngines returns the engine list used when the config declares none,
// in rank order.
func DefaultEngines() []Engine {
	return []Engine{
		{ID: "ffmpegvideo", Name: "FFmpeg Video", Kind: EngineKindVideo, CanSeek: true, BurnsSubtitles: true},
		{ID: "vlcvideo", Name: "VLC Video", Kind: EngineKindVideo, CanSeek: false, BurnsSubtitles: true},
		{ID: "ffmpegaudio", Name: "FFmpeg Audio", Kind: EngineKindAudio, CanSeek: true},
	}
}
