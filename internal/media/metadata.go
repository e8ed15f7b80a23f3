package media

import (
	"fmt"
	"strings"
	"time"

	"mediatree/internal/language"
)

// AudioTrack is one selectable audio stream of a source.
type AudioTrack struct {
	ID       int    `json:"id"`
	Lang     string `json:"lang,omitempty"`
	Title    string `json:"title,omitempty"`
	Codec    string `json:"codec,omitempty"`
	Channels int    `json:"channels,omitempty"`
	Default  bool   `json:"default,omitempty"`
}

// Label returns a short human-readable description of the track.
func (a *AudioTrack) Label() string {
	if a == nil {
		return ""
	}
	parts := []string{language.DisplayName(a.Lang)}
	if a.Codec != "" {
		parts = append(parts, strings.ToUpper(a.Codec))
	}
	if a.Channels > 0 {
		parts = append(parts, fmt.Sprintf("%dch", a.Channels))
	}
	if a.Title != "" {
		parts = append(parts, a.Title)
	}
	return strings.Join(parts, " ")
}

// SubtitleTrack is one selectable subtitle stream, embedded or external.
type SubtitleTrack struct {
	ID       int    `json:"id"`
	Lang     string `json:"lang,omitempty"`
	Title    string `json:"title,omitempty"`
	Format   string `json:"format,omitempty"`
	External bool   `json:"external,omitempty"`
	Path     string `json:"path,omitempty"`
	Forced   bool   `json:"forced,omitempty"`
}

// NoSubtitles is the explicit "play without subtitles" choice. It differs from
// a nil subtitle, which means no subtitle was selected because none exist.
var NoSubtitles = &SubtitleTrack{ID: -1, Title: "No subtitles"}

// IsNone reports whether s is the NoSubtitles choice.
func (s *SubtitleTrack) IsNone() bool { return s == NoSubtitles }

// Label returns a short human-readable description of the track.
func (s *SubtitleTrack) Label() string {
	switch {
	case s == nil:
		return ""
	case s.IsNone():
		return s.Title
	}
	parts := []string{language.DisplayName(s.Lang)}
	if s.Format != "" {
		parts = append(parts, strings.ToUpper(s.Format))
	}
	if s.Forced {
		parts = append(parts, "forced")
	}
	if s.External {
		parts = append(parts, "external")
	}
	return strings.Join(parts, " ")
}

// Metadata is the probed description of a media source.
type Metadata struct {
	Duration       time.Duration   `json:"duration,omitempty"`
	Container      string          `json:"container,omitempty"`
	MimeType       string          `json:"mime_type,omitempty"`
	VideoCodec     string          `json:"video_codec,omitempty"`
	Width          int             `json:"width,omitempty"`
	Height         int             `json:"height,omitempty"`
	Bitrate        int64           `json:"bitrate,omitempty"`
	Size           int64           `json:"size,omitempty"`
	Title          string          `json:"title,omitempty"`
	Artist         string          `json:"artist,omitempty"`
	Album          string          `json:"album,omitempty"`
	AudioTracks    []AudioTrack    `json:"audio_tracks,omitempty"`
	SubtitleTracks []SubtitleTrack `json:"subtitle_tracks,omitempty"`
}

// IsVideo reports whether the source carries a playable video stream.
func (m *Metadata) IsVideo() bool {
	return m != nil && m.VideoCodec != ""
}

// IsAudio reports whether the source is audio only.
func (m *Metadata) IsAudio() bool {
	return m != nil && m.VideoCodec == "" && len(m.AudioTracks) > 0
}

// Empty reports whether probing produced nothing usable.
func (m *Metadata) Empty() bool {
	return m == nil || (m.VideoCodec == "" && len(m.AudioTracks) == 0 && m.Duration == 0)
}

// WithDuration returns a shallow copy carrying d. Track slices stay shared.
func (m *Metadata) WithDuration(d time.Duration) *Metadata {
	if m == nil {
		return &Metadata{Duration: d}
	}
	clone := *m
	clone.Duration = d
	return &clone
}

// AudioTrack returns a pointer to the track with the given id.
func (m *Metadata) AudioTrack(id int) *AudioTrack {
	if m == nil {
		return nil
	}
	for i := range m.AudioTracks {
		if m.AudioTracks[i].ID == id {
			return &m.AudioTracks[i]
		}
	}
	return nil
}

// SubtitleTrack returns a pointer to the track with the given id.
func (m *Metadata) SubtitleTrack(id int) *SubtitleTrack {
	if m == nil {
		return nil
	}
	if id == NoSubtitles.ID {
		return NoSubtitles
	}
	for i := range m.SubtitleTracks {
		if m.SubtitleTracks[i].ID == id {
			return &m.SubtitleTracks[i]
		}
	}
	return nil
}

// Resolution renders WIDTHxHEIGHT, or "" for audio sources.
func (m *Metadata) Resolution() string {
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}
