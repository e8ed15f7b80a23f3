package media

import (
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	"mkv":  "video/x-matroska",
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	"ts":   "video/mp2t",
	"m2ts": "video/mp2t",
	"mpg":  "video/mpeg",
	"mpeg": "video/mpeg",
	"webm": "video/webm",
	"flv":  "video/x-flv",
	"iso":  "application/x-iso9660-image",
	"mp3":  "audio/mpeg",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"opus": "audio/ogg",
	"wav":  "audio/wav",
	"wma":  "audio/x-ms-wma",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// MimeType guesses a MIME type from the file extension.
func MimeType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}
