package lists

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"mediatree/internal/logging"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// Factory turns entries of one tag back into nodes, and nodes into entries.
type Factory interface {
	Tag() string
	// NodeFor returns a new, unregistered node for e.
	NodeFor(tree *resource.Tree, e Entry) (*resource.Node, error)
	// EntryFor describes n, reporting false when n is not owned by the
	// factory.
	EntryFor(n *resource.Node) (Entry, bool)
}

// Folder exposes one persisted list as a container. Children are listed
// newest first and are independent of any other node for the same item.
type Folder struct {
	store     *Store
	name      string
	factories []Factory
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[*resource.Node]Entry
}

// NewFolder returns the provider for the named list.
func NewFolder(store *Store, name string, logger *slog.Logger, factories ...Factory) *Folder {
	return &Folder{
		store:     store,
		name:      name,
		factories: factories,
		logger:    logging.NewComponentLogger(logger, "lists"),
	}
}

// NewNode wraps f in an unregistered node called display.
func (f *Folder) NewNode(tree *resource.Tree, display string) *resource.Node {
	n := tree.NewNode(f, display)
	n.SetLastModified(f.store.ModTime(f.name))
	return n
}

func (f *Folder) Kind() string   { return "list" }
func (f *Folder) IsFolder() bool { return true }

// Name returns the list name.
func (f *Folder) Name() string { return f.name }

// Discover rebuilds the children from the list file. Entries without a
// factory or whose item is gone are skipped.
func (f *Folder) Discover(ctx context.Context, n *resource.Node) ([]*resource.Node, error) {
	entries, _, err := f.store.Load(f.name)
	if err != nil {
		return nil, err
	}
	tree := n.Tree()
	byNode := make(map[*resource.Node]Entry, len(entries))
	children := make([]*resource.Node, 0, len(entries))
	for _, e := range slices.Backward(entries) {
		if err := ctx.Err(); err != nil {
			return children, err
		}
		factory := f.factory(e.Tag)
		if factory == nil {
			f.logger.Debug("no factory for list entry",
				logging.String("list", f.name),
				logging.String("tag", e.Tag),
			)
			continue
		}
		child, err := factory.NodeFor(tree, e)
		if err != nil {
			f.logger.Debug("list entry unavailable",
				logging.String("list", f.name),
				logging.String("payload", e.Payload),
				logging.Error(err),
			)
			continue
		}
		byNode[child] = e
		children = append(children, child)
	}

	f.mu.Lock()
	f.entries = byNode
	f.mu.Unlock()
	return children, nil
}

// RefreshNeeded follows the list file's mtime.
func (f *Folder) RefreshNeeded(_ *resource.Node, since time.Time) bool {
	return f.store.ModTime(f.name).After(since)
}

// EntryOf returns the entry a child was built from.
func (f *Folder) EntryOf(child *resource.Node) (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[child]
	return e, ok
}

// Record appends n to the list. Nodes no factory owns are reported as not
// found.
func (f *Folder) Record(n *resource.Node, player string) error {
	for _, factory := range f.factories {
		e, ok := factory.EntryFor(n)
		if !ok {
			continue
		}
		e.Tag = factory.Tag()
		e.Player = player
		return f.store.Append(f.name, e)
	}
	return services.Wrap(services.ErrNotFound, "lists", "record", n.String()+" cannot be listed", nil)
}

func (f *Folder) factory(tag string) Factory {
	for _, factory := range f.factories {
		if factory.Tag() == tag {
			return factory
		}
	}
	return nil
}
