package transcode

import "mediatree/internal/media"

// Oracle answers which engines can play a given (audio, subtitle) pairing of
// a source. Either track may be nil; sub may be media.NoSubtitles.
type Oracle interface {
	CompatibleEngines(audio *media.AudioTrack, sub *media.SubtitleTrack, md *media.Metadata) []*Engine
	Engines() []*Engine
}

// RuleOracle filters configured engines by their declared capabilities.
type RuleOracle struct {
	engines []*Engine
}

// NewRuleOracle returns an oracle over engines, which must be in rank order.
func NewRuleOracle(engines []*Engine) *RuleOracle {
	return &RuleOracle{engines: engines}
}

// Engines returns every registered engine in rank order.
func (o *RuleOracle) Engines() []*Engine { return o.engines }

// CompatibleEngines returns the engines accepting the pairing, in rank order.
func (o *RuleOracle) CompatibleEngines(audio *media.AudioTrack, sub *media.SubtitleTrack, md *media.Metadata) []*Engine {
	var out []*Engine
	for _, e := range o.engines {
		if e.Accepts(audio, sub, md) {
			out = append(out, e)
		}
	}
	return out
}
