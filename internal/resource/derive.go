package resource

import (
	"mediatree/internal/media"
	"mediatree/internal/services"
)

// DeriveOptions describes how a derived node differs from its source. Nil
// fields keep the source's value; Split always applies.
type DeriveOptions struct {
	Name     string
	Provider Provider
	Engine   Engine
	Audio    *media.AudioTrack
	Subtitle *media.SubtitleTrack
	Split    *SplitRange
	// ClearTranscode drops the source's engine and track selection before the
	// fields above are applied.
	ClearTranscode bool
}

// Derive returns a registered copy of src with a fresh identifier. Scalars
// are copied and metadata is shared by reference, unless opts.Split is set,
// in which case the copy carries its own duration for the range. Children
// are never copied; a derived container discovers its own.
func (t *Tree) Derive(src *Node, opts DeriveOptions) (*Node, error) {
	if src == nil {
		return nil, services.Wrap(services.ErrStructural, "tree", "derive", "nil source", nil)
	}
	if opts.Split != nil {
		if err := opts.Split.Validate(); err != nil {
			return nil, services.Wrap(services.ErrStructural, "tree", "derive", src.Name(), err)
		}
	}

	src.mu.RLock()
	provider := src.provider
	d := &Node{
		tree:         t,
		name:         src.name,
		fakeParentID: src.fakeParentID,
		resolved:     src.resolved,
		lastModified: src.lastModified,
		metadata:     src.metadata,
		engine:       src.engine,
		audio:        src.audio,
		subtitle:     src.subtitle,
	}
	if src.split != nil {
		r := *src.split
		d.split = &r
	}
	src.mu.RUnlock()

	if opts.Provider != nil {
		provider = opts.Provider
	}
	d.provider = provider
	d.id.Store(noID)
	if opts.Name != "" {
		d.name = opts.Name
	}
	if opts.ClearTranscode {
		d.engine, d.audio, d.subtitle = nil, nil, nil
	}
	if opts.Engine != nil {
		d.engine = opts.Engine
	}
	if opts.Audio != nil {
		d.audio = opts.Audio
	}
	if opts.Subtitle != nil {
		d.subtitle = opts.Subtitle
	}
	if opts.Split != nil {
		r := *opts.Split
		d.split = &r
		d.metadata = d.fitToSplitLocked(d.metadata)
	}

	t.registry.Add(d)
	return d, nil
}
