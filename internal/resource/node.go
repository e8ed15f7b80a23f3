package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"mediatree/internal/logging"
	"mediatree/internal/media"
	"mediatree/internal/services"
)

const noID = -1

// Node is one element of the media tree.
type Node struct {
	tree     *Tree
	provider Provider
	id       atomic.Int64

	discoverMu sync.Mutex
	resolveMu  sync.Mutex

	mu           sync.RWMutex
	name         string
	parent       weak.Pointer[Node]
	fakeParentID int
	children     []*Node
	discovered   bool
	resolved     bool
	invalid      bool
	epoch        int
	lastModified time.Time
	lastRefresh  time.Time
	metadata     *media.Metadata
	engine       Engine
	audio        *media.AudioTrack
	subtitle     *media.SubtitleTrack
	split        *SplitRange

	invalidated atomic.Bool
}

// ID returns the registry identifier, or -1 before registration.
func (n *Node) ID() int { return int(n.id.Load()) }

// SetID records the identifier assigned by the registry.
func (n *Node) SetID(id int) { n.id.Store(int64(id)) }

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree { return n.tree }

// Provider returns the node's provider.
func (n *Node) Provider() Provider { return n.provider }

// Kind returns the provider kind.
func (n *Node) Kind() string { return n.provider.Kind() }

// IsFolder reports whether the node is a container.
func (n *Node) IsFolder() bool { return n.provider.IsFolder() }

// Name returns the display name.
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// SetName replaces the display name.
func (n *Node) SetName(name string) {
	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
}

// Parent returns the structural parent while it is still alive.
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent.Value()
}

// ParentID returns the identifier clients see as the parent: the logical
// override when set, otherwise the structural parent, or -1 for the root.
func (n *Node) ParentID() int {
	n.mu.RLock()
	fake := n.fakeParentID
	parent := n.parent.Value()
	n.mu.RUnlock()
	if fake != noID {
		return fake
	}
	if parent == nil {
		return noID
	}
	return parent.ID()
}

// SetFakeParentID overrides the parent id reported to clients. Pass -1 to clear.
func (n *Node) SetFakeParentID(id int) {
	n.mu.Lock()
	n.fakeParentID = id
	n.mu.Unlock()
}

// Children returns a snapshot of the current children.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]*Node(nil), n.children...)
}

// Discovered reports whether the child set is complete for this epoch.
func (n *Node) Discovered() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.discovered
}

// Resolved reports whether the node's own metadata has been probed.
func (n *Node) Resolved() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.resolved
}

// Invalid reports whether resolution failed and the node is hidden.
func (n *Node) Invalid() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.invalid
}

// Epoch counts completed discoveries and refreshes.
func (n *Node) Epoch() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.epoch
}

// LastModified returns the source modification time.
func (n *Node) LastModified() time.Time {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastModified
}

// SetLastModified records the source modification time.
func (n *Node) SetLastModified(t time.Time) {
	n.mu.Lock()
	n.lastModified = t
	n.mu.Unlock()
}

// LastRefresh returns when the children were last built.
func (n *Node) LastRefresh() time.Time {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastRefresh
}

// Metadata returns the shared metadata pointer, nil before resolution.
func (n *Node) Metadata() *media.Metadata {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.metadata
}

// SetMetadata publishes metadata and marks the node resolved.
func (n *Node) SetMetadata(md *media.Metadata) {
	n.mu.Lock()
	n.metadata = n.fitToSplitLocked(md)
	n.resolved = true
	n.invalid = false
	n.mu.Unlock()
}

// Engine returns the transcoding engine, nil for direct play.
func (n *Node) Engine() Engine {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine
}

// AudioTrack returns the selected audio track, nil when unset.
func (n *Node) AudioTrack() *media.AudioTrack {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.audio
}

// SubtitleTrack returns the selected subtitle, nil when unset or
// media.NoSubtitles when subtitles were explicitly declined.
func (n *Node) SubtitleTrack() *media.SubtitleTrack {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.subtitle
}

// SplitRange returns the node's split range when it has one.
func (n *Node) SplitRange() (SplitRange, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.split == nil {
		return SplitRange{}, false
	}
	return *n.split, true
}

// Duration returns the playable duration, zero when unknown.
func (n *Node) Duration() time.Duration {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.metadata == nil {
		return 0
	}
	return n.metadata.Duration
}

// Seekable reports whether the leaf supports random access.
func (n *Node) Seekable() bool {
	if sc, ok := n.provider.(SeekChecker); ok {
		return sc.Seekable(n)
	}
	_, ok := n.provider.(Opener)
	return ok
}

// DiscoverChildren populates the children the first time it is needed.
// Later calls are no-ops until a refresh; concurrent callers wait for the
// first and observe its result.
func (n *Node) DiscoverChildren(ctx context.Context) error {
	n.discoverMu.Lock()
	defer n.discoverMu.Unlock()
	if n.Discovered() {
		return nil
	}
	return n.rebuildLocked(ctx)
}

// RefreshChildren throws the children away and discovers them again. The
// node keeps its identifier; descendants are renamed.
func (n *Node) RefreshChildren(ctx context.Context) error {
	n.discoverMu.Lock()
	defer n.discoverMu.Unlock()
	return n.rebuildLocked(ctx)
}

// EnsureFresh discovers an undiscovered node, or refreshes a discovered one
// whose source changed.
func (n *Node) EnsureFresh(ctx context.Context) error {
	if !n.Discovered() {
		return n.DiscoverChildren(ctx)
	}
	if n.IsRefreshNeeded() {
		return n.RefreshChildren(ctx)
	}
	return nil
}

// IsRefreshNeeded reports whether the children may be stale.
func (n *Node) IsRefreshNeeded() bool {
	if n.invalidated.Load() {
		return true
	}
	if !n.Discovered() {
		return false
	}
	if rc, ok := n.provider.(RefreshChecker); ok {
		return rc.RefreshNeeded(n, n.LastRefresh())
	}
	return false
}

// Invalidate forces the next staleness check to report a refresh.
func (n *Node) Invalidate() {
	n.invalidated.Store(true)
}

// Resolve probes the node's own metadata once. Failures other than
// cancellation mark the node invalid.
func (n *Node) Resolve(ctx context.Context) error {
	n.resolveMu.Lock()
	defer n.resolveMu.Unlock()
	if n.Resolved() {
		return nil
	}
	r, ok := n.provider.(Resolver)
	if !ok {
		n.mu.Lock()
		n.resolved = true
		n.mu.Unlock()
		return nil
	}
	md, err := r.Resolve(ctx, n)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, services.ErrCanceled) {
			n.mu.Lock()
			n.invalid = true
			n.mu.Unlock()
		}
		return err
	}
	n.SetMetadata(md)
	return nil
}

// AddChild names child if needed and appends it.
func (n *Node) AddChild(child *Node) {
	if child.ID() <= 0 {
		n.tree.register(child)
	}
	child.mu.Lock()
	child.parent = weak.Make(n)
	child.mu.Unlock()

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
}

// RemoveChild detaches child and releases its subtree.
func (n *Node) RemoveChild(child *Node) bool {
	n.mu.Lock()
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx >= 0 {
		n.children = append(n.children[:idx:idx], n.children[idx+1:]...)
	}
	n.mu.Unlock()
	if idx < 0 {
		return false
	}
	n.tree.Release(child)
	return true
}

// Open returns the leaf's bytes. Push-only leaves are bridged through a pipe
// whose writer the provider's worker closes.
func (n *Node) Open(ctx context.Context) (io.ReadCloser, error) {
	switch p := n.provider.(type) {
	case Opener:
		return p.Open(ctx, n)
	case Pusher:
		pr, pw := io.Pipe()
		p.Push(ctx, n, pw)
		return pr, nil
	default:
		return nil, services.Wrap(services.ErrNotFound, "tree", "open", fmt.Sprintf("%s node has no content", n.Kind()), nil)
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d(%s)", n.Kind(), n.ID(), n.Name())
}

// rebuildLocked runs discovery and the first wave of child resolution into a
// new slice, then swaps it in. The caller holds discoverMu. On failure the
// current children and discovered flag are left untouched.
func (n *Node) rebuildLocked(ctx context.Context) error {
	d, ok := n.provider.(Discoverer)
	if !ok {
		n.mu.Lock()
		n.discovered = true
		n.lastRefresh = time.Now()
		n.mu.Unlock()
		n.invalidated.Store(false)
		return nil
	}

	logger := logging.WithContext(services.WithNodeID(ctx, n.ID()), n.tree.logger)
	built, err := d.Discover(ctx, n)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		n.tree.releaseAll(built)
		if ctx.Err() != nil {
			return services.Wrap(services.ErrCanceled, "tree", "discover", n.Name(), ctx.Err())
		}
		return err
	}

	fresh := make([]*Node, 0, len(built))
	for _, child := range built {
		if child == nil {
			continue
		}
		n.tree.register(child)
		child.mu.Lock()
		child.parent = weak.Make(n)
		child.mu.Unlock()

		if !child.IsFolder() {
			if err := child.Resolve(ctx); err != nil {
				if ctx.Err() != nil {
					n.tree.releaseAll(built)
					return services.Wrap(services.ErrCanceled, "tree", "discover", n.Name(), ctx.Err())
				}
				logging.WarnWithContext(logger, "hiding entry that failed to resolve", "resolve_failed",
					logging.String("child", child.Name()),
					logging.Error(err),
					logging.String(logging.FieldImpact, "entry hidden from listings"),
					logging.String(logging.FieldErrorHint, "check the file is readable and ffprobe can parse it"),
				)
				n.tree.Release(child)
				continue
			}
		}
		fresh = append(fresh, child)
	}

	n.mu.Lock()
	old := n.children
	n.children = fresh
	n.discovered = true
	n.epoch++
	n.lastRefresh = time.Now()
	n.mu.Unlock()
	n.invalidated.Store(false)

	n.tree.releaseAll(old)
	logger.Debug("children discovered",
		logging.String("name", n.Name()),
		logging.Int("children", len(fresh)),
		logging.Int("hidden", len(built)-len(fresh)),
	)
	return nil
}

// closeSplit sets the end of an open split range and refits the metadata.
func (n *Node) closeSplit(end time.Duration) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.split == nil || !n.split.IsOpen() || end < n.split.Start {
		return false
	}
	r := *n.split
	r.End = end
	n.split = &r
	if n.metadata != nil {
		n.metadata = n.metadata.WithDuration(r.End - r.Start)
	}
	return true
}

// fitToSplitLocked derives a copy of md whose duration matches the split
// range. An open range runs to the end of the source.
func (n *Node) fitToSplitLocked(md *media.Metadata) *media.Metadata {
	if n.split == nil || md == nil {
		return md
	}
	r := *n.split
	if r.IsOpen() {
		if md.Duration <= r.Start {
			return md.WithDuration(0)
		}
		return md.WithDuration(md.Duration - r.Start)
	}
	return md.WithDuration(r.End - r.Start)
}
