package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"mediatree/internal/language"
	"mediatree/internal/logging"
	"mediatree/internal/media/ffprobe"
	"mediatree/internal/services"
)

// Prober produces metadata for a file on disk.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, path string) (*Metadata, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, path string) (*Metadata, error) {
	return f(ctx, path)
}

// inspectFunc allows tests to replace the ffprobe invocation.
type inspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// FFprobe probes files with the ffprobe executable.
type FFprobe struct {
	binary  string
	timeout time.Duration
	tags    TagReader
	logger  *slog.Logger
	inspect inspectFunc
}

// NewFFprobe constructs an ffprobe-backed prober. A nil tags reader disables
// the audio tag fallback.
func NewFFprobe(binary string, timeout time.Duration, tags TagReader, logger *slog.Logger) *FFprobe {
	return &FFprobe{
		binary:  binary,
		timeout: timeout,
		tags:    tags,
		logger:  logging.NewComponentLogger(logger, "probe"),
		inspect: ffprobe.Inspect,
	}
}

// Probe runs ffprobe against path and converts the result. Sidecar subtitles
// are not included; see WithExternalSubtitles.
func (p *FFprobe) Probe(ctx context.Context, path string) (*Metadata, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, err := p.inspect(ctx, p.binary, path)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, services.Wrap(services.ErrCanceled, "probe", "inspect", path, err)
		}
		return nil, services.Wrap(services.ErrProbe, "probe", "inspect", path, err)
	}
	md := FromProbe(result, path)
	if md.Empty() {
		return nil, services.Wrap(services.ErrProbe, "probe", "inspect", fmt.Sprintf("no playable streams in %s", path), nil)
	}
	if md.IsAudio() && md.Title == "" && p.tags != nil {
		p.applyTags(path, md)
	}
	return md, nil
}

func (p *FFprobe) applyTags(path string, md *Metadata) {
	tags, err := p.tags.ReadTags(path)
	if err != nil {
		p.logger.Debug("audio tags unavailable", logging.Path(path), logging.Error(err))
		return
	}
	md.Title = tags.Title
	if md.Artist == "" {
		md.Artist = tags.Artist
	}
	if md.Album == "" {
		md.Album = tags.Album
	}
}

// FromProbe converts an ffprobe result into metadata.
func FromProbe(result ffprobe.Result, path string) *Metadata {
	md := &Metadata{
		Container: firstFormatName(result.Format.FormatName),
		MimeType:  MimeType(path),
		Bitrate:   result.BitRate(),
		Size:      result.SizeBytes(),
		Title:     ffprobe.Tag(result.Format.Tags, "title"),
		Artist:    ffprobe.Tag(result.Format.Tags, "artist"),
		Album:     ffprobe.Tag(result.Format.Tags, "album"),
	}
	if secs := result.DurationSeconds(); !math.IsNaN(secs) && secs > 0 {
		md.Duration = time.Duration(secs * float64(time.Second))
	}
	if md.Size == 0 {
		if info, err := os.Stat(path); err == nil {
			md.Size = info.Size()
		}
	}

	for _, stream := range result.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if stream.Disposition.AttachedPic != 0 || md.VideoCodec != "" {
				continue
			}
			md.VideoCodec = stream.CodecName
			md.Width = stream.Width
			md.Height = stream.Height
		case "audio":
			md.AudioTracks = append(md.AudioTracks, AudioTrack{
				ID:       stream.Index,
				Lang:     language.FromTags(stream.Tags),
				Title:    ffprobe.Tag(stream.Tags, "title"),
				Codec:    stream.CodecName,
				Channels: stream.Channels,
				Default:  stream.Disposition.Default != 0,
			})
		case "subtitle":
			md.SubtitleTracks = append(md.SubtitleTracks, SubtitleTrack{
				ID:     stream.Index,
				Lang:   language.FromTags(stream.Tags),
				Title:  ffprobe.Tag(stream.Tags, "title"),
				Format: subtitleFormat(stream.CodecName),
				Forced: stream.Disposition.Forced != 0,
			})
		}
	}
	return md
}

func nextSubtitleID(md *Metadata) int {
	next := 0
	for _, s := range md.SubtitleTracks {
		next = max(next, s.ID+1)
	}
	for _, a := range md.AudioTracks {
		next = max(next, a.ID+1)
	}
	return max(next, 1000)
}

func firstFormatName(name string) string {
	if idx := strings.Index(name, ","); idx >= 0 {
		return name[:idx]
	}
	return name
}

func subtitleFormat(codec string) string {
	switch strings.ToLower(codec) {
	case "subrip", "srt":
		return "srt"
	case "ass", "ssa":
		return "ass"
	case "webvtt":
		return "vtt"
	case "hdmv_pgs_subtitle":
		return "pgs"
	case "dvd_subtitle":
		return "vobsub"
	default:
		return strings.ToLower(codec)
	}
}
