package resource

import (
	"log/slog"
	"strings"

	"mediatree/internal/logging"
	"mediatree/internal/registry"
	"mediatree/internal/services"
)

// Tree owns the identity registry, the root node and the realtime lock.
type Tree struct {
	registry *registry.Registry
	logger   *slog.Logger
	realtime RealtimeLock

	root *Node
}

// NewTree constructs a tree around reg. A nil reg gets a private registry.
func NewTree(reg *registry.Registry, logger *slog.Logger) *Tree {
	if reg == nil {
		reg = registry.New(logger)
	}
	return &Tree{
		registry: reg,
		logger:   logging.NewComponentLogger(logger, "tree"),
	}
}

// Logger returns the tree's component logger.
func (t *Tree) Logger() *slog.Logger { return t.logger }

// Registry exposes the identity registry.
func (t *Tree) Registry() *registry.Registry { return t.registry }

// Realtime returns the lock playback sessions hold and scans yield to.
func (t *Tree) Realtime() *RealtimeLock { return &t.realtime }

// NewNode creates an unregistered node backed by p.
func (t *Tree) NewNode(p Provider, name string) *Node {
	n := &Node{tree: t, provider: p, name: name, fakeParentID: noID}
	n.id.Store(noID)
	return n
}

// SetRoot installs the root container. The root answers to registry.RootID
// and is never stored in the registry.
func (t *Tree) SetRoot(p Provider, name string) *Node {
	root := t.NewNode(p, name)
	root.id.Store(registry.RootID)
	t.root = root
	return root
}

// Root returns the root container, nil before SetRoot.
func (t *Tree) Root() *Node { return t.root }

// Lookup finds a node by identifier.
func (t *Tree) Lookup(id int) (*Node, bool) {
	if id == registry.RootID {
		return t.root, t.root != nil
	}
	item, ok := t.registry.Get(id)
	if !ok {
		return nil, false
	}
	n, ok := item.(*Node)
	return n, ok
}

// LookupWire resolves an externally supplied identifier. Unknown, malformed
// and out-of-range ids all report services.ErrNotFound.
func (t *Tree) LookupWire(raw string) (*Node, error) {
	id, ok := registry.ParseID(raw)
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "tree", "lookup", "malformed id "+strings.TrimSpace(raw), nil)
	}
	n, ok := t.Lookup(id)
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "tree", "lookup", "unknown id "+registry.FormatID(id, ""), nil)
	}
	return n, nil
}

// Release unregisters n and every descendant. The node itself stays usable
// but is no longer reachable by id.
func (t *Tree) Release(n *Node) {
	if n == nil || n == t.root {
		return
	}
	for _, child := range n.Children() {
		t.Release(child)
	}
	if id := n.ID(); id > 0 {
		t.registry.Remove(id)
	}
}

func (t *Tree) releaseAll(nodes []*Node) {
	for _, n := range nodes {
		t.Release(n)
	}
}

func (t *Tree) register(n *Node) {
	if n.ID() > 0 {
		if existing, ok := t.Lookup(n.ID()); ok && existing == n {
			return
		}
	}
	t.registry.Add(n)
}
