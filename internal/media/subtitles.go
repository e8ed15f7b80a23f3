package media

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"mediatree/internal/language"
	"mediatree/internal/textutil"
)

var subtitleExtensions = []string{".srt", ".ass", ".ssa", ".vtt", ".sub"}

// IsSubtitleFile reports whether name has a sidecar subtitle extension.
func IsSubtitleFile(name string) bool {
	return slices.Contains(subtitleExtensions, strings.ToLower(filepath.Ext(name)))
}

// FindExternalSubtitles lists sidecar subtitle files named after the video at
// path, such as "movie.srt" or "movie.eng.srt". Track ids start at firstID.
func FindExternalSubtitles(path string, firstID int) []SubtitleTrack {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsSubtitleFile(name) {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem != base && !strings.HasPrefix(stem, base+".") && !strings.HasPrefix(stem, base+"_") {
			continue
		}
		names = append(names, name)
	}
	slices.SortFunc(names, textutil.NaturalCompare)

	tracks := make([]SubtitleTrack, 0, len(names))
	for i, name := range names {
		lower := strings.ToLower(name)
		tracks = append(tracks, SubtitleTrack{
			ID:       firstID + i,
			Lang:     language.FromFilename(name, base),
			Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
			External: true,
			Path:     filepath.Join(dir, name),
			Forced:   strings.Contains(lower, ".forced."),
		})
	}
	return tracks
}

// WithExternalSubtitles returns md with the sidecar subtitles currently next to
// path appended. Sidecars change independently of the video's mtime, so they
// are looked up on every call and never stored with the probed metadata. md
// is returned unchanged when it is not a video or no sidecar exists.
func WithExternalSubtitles(md *Metadata, path string) *Metadata {
	if md == nil || !md.IsVideo() {
		return md
	}
	embedded := slices.DeleteFunc(slices.Clone(md.SubtitleTracks), func(s SubtitleTrack) bool {
		return s.External
	})
	base := *md
	base.SubtitleTracks = embedded
	sidecars := FindExternalSubtitles(path, nextSubtitleID(&base))
	if len(sidecars) == 0 && len(embedded) == len(md.SubtitleTracks) {
		return md
	}
	base.SubtitleTracks = append(embedded, sidecars...)
	return &base
}
