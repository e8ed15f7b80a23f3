package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Node describes one tree node in a transport-friendly format.
type Node struct {
	ID             int    `json:"id"`
	ParentID       int    `json:"parentId"`
	Kind           string `json:"kind"`
	Name           string `json:"name"`
	Folder         bool   `json:"folder"`
	Discovered     bool   `json:"discovered,omitempty"`
	Invalid        bool   `json:"invalid,omitempty"`
	ChildCount     int    `json:"childCount,omitempty"`
	Seekable       bool   `json:"seekable,omitempty"`
	DurationMillis int64  `json:"durationMillis,omitempty"`
	MimeType       string `json:"mimeType,omitempty"`
	Size           int64  `json:"size,omitempty"`
	LastModified   string `json:"lastModified,omitempty"`
	Engine         string `json:"engine,omitempty"`
	EngineName     string `json:"engineName,omitempty"`
	Audio          *Track `json:"audio,omitempty"`
	Subtitle       *Track `json:"subtitle,omitempty"`
	Split          *Split `json:"split,omitempty"`
}

// Track describes an audio or subtitle stream.
type Track struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Lang     string `json:"lang,omitempty"`
	Codec    string `json:"codec,omitempty"`
	External bool   `json:"external,omitempty"`
}

// Split describes the time window a split node exposes. EndMillis is -1
// while the end is unknown.
type Split struct {
	StartMillis int64 `json:"startMillis"`
	EndMillis   int64 `json:"endMillis"`
}

// NodeDetail extends Node with the full resolved metadata.
type NodeDetail struct {
	Node
	Container      string  `json:"container,omitempty"`
	VideoCodec     string  `json:"videoCodec,omitempty"`
	Resolution     string  `json:"resolution,omitempty"`
	Bitrate        int64   `json:"bitrate,omitempty"`
	Title          string  `json:"title,omitempty"`
	Artist         string  `json:"artist,omitempty"`
	Album          string  `json:"album,omitempty"`
	AudioTracks    []Track `json:"audioTracks,omitempty"`
	SubtitleTracks []Track `json:"subtitleTracks,omitempty"`
}

// BrowseResponse wraps a container and its children.
type BrowseResponse struct {
	Node     Node   `json:"node"`
	Children []Node `json:"children"`
}

// NodeResponse wraps a single node lookup.
type NodeResponse struct {
	Node NodeDetail `json:"node"`
}

// ScanResult summarizes a finished scan.
type ScanResult struct {
	ScanID         string `json:"scanId"`
	StartedAt      string `json:"startedAt,omitempty"`
	FinishedAt     string `json:"finishedAt,omitempty"`
	Containers     int    `json:"containers"`
	Leaves         int    `json:"leaves"`
	Failures       int    `json:"failures"`
	DurationMillis int64  `json:"durationMillis"`
	Canceled       bool   `json:"canceled,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ScanStatus reports the scanner state.
type ScanStatus struct {
	Running   bool        `json:"running"`
	ScanID    string      `json:"scanId,omitempty"`
	StartedAt string      `json:"startedAt,omitempty"`
	Stopping  bool        `json:"stopping,omitempty"`
	Last      *ScanResult `json:"last,omitempty"`
}

// ScanStarted acknowledges a scan request.
type ScanStarted struct {
	ScanID string `json:"scanId"`
}

// ScanStopped acknowledges a stop request.
type ScanStopped struct {
	Stopped bool `json:"stopped"`
}

// CheckResult mirrors one preflight check.
type CheckResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// DiscStatus reports the optical drive content.
type DiscStatus struct {
	Detected bool   `json:"detected"`
	Device   string `json:"device"`
	Label    string `json:"label,omitempty"`
	Type     string `json:"type,omitempty"`
}

// DaemonStatus aggregates runtime information.
type DaemonStatus struct {
	Running        bool          `json:"running"`
	PID            int           `json:"pid"`
	LockFilePath   string        `json:"lockFilePath"`
	CacheDBPath    string        `json:"cacheDbPath"`
	ListsDir       string        `json:"listsDir"`
	Nodes          int           `json:"nodes"`
	Tombstones     int           `json:"tombstones"`
	ActivePlayback int           `json:"activePlayback"`
	Scan           ScanStatus    `json:"scan"`
	Disc           *DiscStatus   `json:"disc,omitempty"`
	Checks         []CheckResult `json:"checks"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
