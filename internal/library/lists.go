package library

import (
	"os"

	"mediatree/internal/lists"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// FileTag marks list entries whose payload is a file path.
const FileTag = "file"

// ListFactory rebuilds file leaves from list entries.
func (l *Library) ListFactory() lists.Factory { return fileFactory{lib: l} }

type fileFactory struct {
	lib *Library
}

func (fileFactory) Tag() string { return FileTag }

func (f fileFactory) NodeFor(tree *resource.Tree, e lists.Entry) (*resource.Node, error) {
	info, err := os.Stat(e.Payload)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "library", "list entry", e.Payload, err)
	}
	if info.IsDir() {
		return f.lib.NewFolderNode(tree, e.Payload, ""), nil
	}
	return f.lib.NewFileNode(tree, e.Payload), nil
}

// EntryFor describes file leaves, including transcode variants of them, and
// plain directories.
func (fileFactory) EntryFor(n *resource.Node) (lists.Entry, bool) {
	var e lists.Entry
	switch p := n.Provider().(type) {
	case *File:
		e.Payload = p.path
	case *Folder:
		e.Payload = p.path
	default:
		return lists.Entry{}, false
	}
	if sub := n.SubtitleTrack(); sub != nil && !sub.IsNone() && sub.Lang != "" {
		e.SubtitleLang = sub.Lang
		e.SubtitleSource = "embedded"
		if sub.External {
			e.SubtitleSource = "external"
		}
	}
	return e, true
}
