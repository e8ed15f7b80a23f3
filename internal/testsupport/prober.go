package testsupport

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mediatree/internal/media"
	"mediatree/internal/services"
)

// FakeProber answers probes from a table keyed by base name, falling back to
// a one-hour stereo English video for video extensions and a three-minute
// track for audio extensions.
type FakeProber struct {
	mu      sync.Mutex
	entries map[string]*media.Metadata
	failing map[string]bool
	calls   map[string]int
}

// NewFakeProber returns an empty fake.
func NewFakeProber() *FakeProber {
	return &FakeProber{
		entries: make(map[string]*media.Metadata),
		failing: make(map[string]bool),
		calls:   make(map[string]int),
	}
}

// Set registers metadata for files named base.
func (f *FakeProber) Set(base string, md *media.Metadata) {
	f.mu.Lock()
	f.entries[base] = md
	f.mu.Unlock()
}

// Fail makes probes of files named base fail.
func (f *FakeProber) Fail(base string) {
	f.mu.Lock()
	f.failing[base] = true
	f.mu.Unlock()
}

// Calls returns how often files named base were probed.
func (f *FakeProber) Calls(base string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[base]
}

// Probe implements media.Prober.
func (f *FakeProber) Probe(ctx context.Context, path string) (*media.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrCanceled, "fakeprobe", "probe", path, err)
	}
	base := filepath.Base(path)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[base]++
	if f.failing[base] {
		return nil, services.Wrap(services.ErrProbe, "fakeprobe", "probe", path, errors.New("unreadable stream"))
	}
	if md, ok := f.entries[base]; ok {
		return md, nil
	}
	mime := media.MimeType(path)
	switch {
	case strings.HasPrefix(mime, "video/"):
		return &media.Metadata{
			VideoCodec:  "h264",
			Width:       1920,
			Height:      1080,
			Duration:    time.Hour,
			MimeType:    mime,
			AudioTracks: []media.AudioTrack{{ID: 1, Lang: "eng", Codec: "aac", Channels: 2}},
		}, nil
	case strings.HasPrefix(mime, "audio/"):
		return &media.Metadata{
			Duration:    3 * time.Minute,
			MimeType:    mime,
			AudioTracks: []media.AudioTrack{{ID: 0, Codec: "mp3", Channels: 2}},
		}, nil
	default:
		return &media.Metadata{MimeType: mime}, nil
	}
}
