package archive

import (
	"strings"

	"mediatree/internal/lists"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// EntryTag marks list entries whose payload is "<archive>::<entry>".
const EntryTag = "zip"

// ListFactory rebuilds archive entry leaves from list entries.
func ListFactory(opts Options) lists.Factory { return entryFactory{opts: opts} }

type entryFactory struct {
	opts Options
}

func (entryFactory) Tag() string { return EntryTag }

func (f entryFactory) NodeFor(tree *resource.Tree, e lists.Entry) (*resource.Node, error) {
	archivePath, name, ok := strings.Cut(e.Payload, PayloadSeparator)
	if !ok || archivePath == "" || name == "" {
		return nil, services.Wrap(services.ErrNotFound, "archive", "list entry", "malformed payload "+e.Payload, nil)
	}
	return NewEntryNode(tree, archivePath, name, f.opts)
}

func (entryFactory) EntryFor(n *resource.Node) (lists.Entry, bool) {
	entry, ok := n.Provider().(*Entry)
	if !ok {
		return lists.Entry{}, false
	}
	return lists.Entry{Payload: entry.Payload()}, true
}
