package transcode

import (
	"slices"
	"strings"

	"mediatree/internal/config"
	"mediatree/internal/media"
)

// Engine is one configured transcoding engine. Rank is its position in the
// configuration and the primary sort key for variants.
type Engine struct {
	id             string
	name           string
	kind           string
	rank           int
	canSeek        bool
	burnsSubtitles bool
	audioCodecs    []string
}

func (e *Engine) ID() string           { return e.id }
func (e *Engine) Name() string         { return e.name }
func (e *Engine) Kind() string         { return e.kind }
func (e *Engine) Rank() int            { return e.rank }
func (e *Engine) CanSeek() bool        { return e.canSeek }
func (e *Engine) BurnsSubtitles() bool { return e.burnsSubtitles }

// Accepts reports whether the engine can play the pairing for a source.
func (e *Engine) Accepts(audio *media.AudioTrack, sub *media.SubtitleTrack, md *media.Metadata) bool {
	switch e.kind {
	case config.EngineKindVideo:
		if !md.IsVideo() {
			return false
		}
	case config.EngineKindAudio:
		if md.IsVideo() {
			return false
		}
	}
	if sub != nil && !sub.IsNone() && !e.burnsSubtitles {
		return false
	}
	if audio != nil && len(e.audioCodecs) > 0 && !slices.Contains(e.audioCodecs, strings.ToLower(audio.Codec)) {
		return false
	}
	return true
}

// EnginesFromConfig builds engines in configuration order.
func EnginesFromConfig(cfgs []config.Engine) []*Engine {
	engines := make([]*Engine, 0, len(cfgs))
	for i, c := range cfgs {
		codecs := make([]string, 0, len(c.AudioCodecs))
		for _, codec := range c.AudioCodecs {
			codecs = append(codecs, strings.ToLower(strings.TrimSpace(codec)))
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		engines = append(engines, &Engine{
			id:             c.ID,
			name:           name,
			kind:           c.Kind,
			rank:           i,
			canSeek:        c.CanSeek,
			burnsSubtitles: c.BurnsSubtitles,
			audioCodecs:    codecs,
		})
	}
	return engines
}
