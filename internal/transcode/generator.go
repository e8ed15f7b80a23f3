package transcode

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"mediatree/internal/language"
	"mediatree/internal/logging"
	"mediatree/internal/media"
	"mediatree/internal/resource"
)

// DirectName labels the untranscoded variant.
const DirectName = "Original"

// Options tunes variant generation.
type Options struct {
	// ChapterInterval enables chapter folders for longer video variants.
	ChapterInterval time.Duration
	// RendererStreamsSubtitles means the client can overlay subtitles itself.
	RendererStreamsSubtitles bool
	// RendererSubtitleFormats lists the formats such a client accepts.
	RendererSubtitleFormats []string
}

// Generator derives the transcode variants of resolved sources.
type Generator struct {
	tree   *resource.Tree
	oracle Oracle
	opts   Options
	logger *slog.Logger

	noEngines sync.Once
}

// NewGenerator constructs a generator over tree.
func NewGenerator(tree *resource.Tree, oracle Oracle, opts Options, logger *slog.Logger) *Generator {
	return &Generator{
		tree:   tree,
		oracle: oracle,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "transcode"),
	}
}

// Generate resolves src and returns its variants in display order: the
// direct variant, then the ranked engine variants, each followed by its
// chapter folder when one applies.
func (g *Generator) Generate(ctx context.Context, src *resource.Node) ([]*resource.Node, error) {
	if err := src.Resolve(ctx); err != nil {
		return nil, err
	}
	md := src.Metadata()
	if md == nil {
		md = &media.Metadata{}
	}

	var single *media.AudioTrack
	if len(md.AudioTracks) == 1 {
		single = &md.AudioTracks[0]
	}
	direct, err := g.tree.Derive(src, resource.DeriveOptions{Name: DirectName, ClearTranscode: true, Audio: single})
	if err != nil {
		return nil, err
	}
	out := g.appendWithChapters(nil, direct)

	if len(g.oracle.Engines()) == 0 {
		g.noEngines.Do(func() {
			logging.WarnWithContext(g.logger, "no transcoding engines registered", "no_engines",
				logging.String(logging.FieldImpact, "only the original variant is offered"),
				logging.String(logging.FieldErrorHint, "declare [[transcode.engines]] in the config"),
			)
		})
	}

	audios := make([]*media.AudioTrack, 0, len(md.AudioTracks)+1)
	for i := range md.AudioTracks {
		audios = append(audios, &md.AudioTracks[i])
	}
	if len(audios) == 0 {
		audios = append(audios, nil)
	}
	subs := make([]*media.SubtitleTrack, 0, len(md.SubtitleTracks)+1)
	for i := range md.SubtitleTracks {
		subs = append(subs, &md.SubtitleTracks[i])
	}
	if len(subs) == 0 {
		subs = append(subs, nil)
	} else {
		subs = append(subs, media.NoSubtitles)
	}

	var variants []*resource.Node
	for _, audio := range audios {
		for _, sub := range subs {
			for _, engine := range g.oracle.CompatibleEngines(audio, sub, md) {
				v, err := g.tree.Derive(src, resource.DeriveOptions{
					Name:           variantName(engine, audio, sub),
					ClearTranscode: true,
					Engine:         engine,
					Audio:          audio,
					Subtitle:       sub,
				})
				if err != nil {
					releaseNodes(g.tree, out, variants)
					return nil, err
				}
				variants = append(variants, v)
			}
		}
	}

	if g.opts.RendererStreamsSubtitles {
		for i := range md.SubtitleTracks {
			sub := &md.SubtitleTracks[i]
			if !slices.Contains(g.opts.RendererSubtitleFormats, strings.ToLower(sub.Format)) {
				continue
			}
			v, err := g.tree.Derive(src, resource.DeriveOptions{
				Name:           variantName(nil, single, sub),
				ClearTranscode: true,
				Audio:          single,
				Subtitle:       sub,
			})
			if err != nil {
				releaseNodes(g.tree, out, variants)
				return nil, err
			}
			variants = append(variants, v)
		}
	}

	slices.SortStableFunc(variants, compareVariants)
	for _, v := range variants {
		out = g.appendWithChapters(out, v)
	}
	g.logger.Debug("generated variants",
		logging.NodeID(src.ID()),
		logging.Int("variants", len(variants)+1),
		logging.Int("nodes", len(out)),
	)
	return out, nil
}

// appendWithChapters appends v and, when it qualifies, its chapter folder.
func (g *Generator) appendWithChapters(out []*resource.Node, v *resource.Node) []*resource.Node {
	out = append(out, v)
	if g.wantsChapters(v) {
		folder := g.tree.NewNode(&ChapterFolder{variant: v, interval: g.opts.ChapterInterval}, chapterFolderName(v, g.opts.ChapterInterval))
		out = append(out, folder)
	}
	return out
}

// wantsChapters requires playable video, a configured interval, a duration
// strictly longer than one interval and a seekable engine when one is set.
func (g *Generator) wantsChapters(v *resource.Node) bool {
	if g.opts.ChapterInterval <= 0 {
		return false
	}
	md := v.Metadata()
	if !md.IsVideo() || md.Duration <= g.opts.ChapterInterval {
		return false
	}
	if e := v.Engine(); e != nil && !e.CanSeek() {
		return false
	}
	return true
}

func compareVariants(a, b *resource.Node) int {
	if c := cmp.Compare(engineRank(a.Engine()), engineRank(b.Engine())); c != 0 {
		return c
	}
	if c := language.Compare(audioLang(a.AudioTrack()), audioLang(b.AudioTrack())); c != 0 {
		return c
	}
	return language.Compare(subtitleLang(a.SubtitleTrack()), subtitleLang(b.SubtitleTrack()))
}

func engineRank(e resource.Engine) int {
	if e == nil {
		return -1
	}
	return e.Rank()
}

func audioLang(a *media.AudioTrack) string {
	if a == nil {
		return ""
	}
	return a.Lang
}

func subtitleLang(s *media.SubtitleTrack) string {
	if s == nil || s.IsNone() {
		return ""
	}
	return s.Lang
}

func variantName(engine resource.Engine, audio *media.AudioTrack, sub *media.SubtitleTrack) string {
	parts := make([]string, 0, 2)
	if audio != nil {
		parts = append(parts, audio.Label())
	}
	if sub != nil {
		parts = append(parts, sub.Label())
	}
	label := strings.Join(parts, ", ")
	prefix := DirectName
	if engine != nil {
		prefix = "[" + engine.Name() + "]"
	}
	if label == "" {
		return prefix
	}
	return prefix + " " + label
}

func chapterFolderName(v *resource.Node, interval time.Duration) string {
	return fmt.Sprintf("Chapters (%d min) %s", int(interval/time.Minute), v.Name())
}

func releaseNodes(tree *resource.Tree, groups ...[]*resource.Node) {
	for _, group := range groups {
		for _, n := range group {
			tree.Release(n)
		}
	}
}
