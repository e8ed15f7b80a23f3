package library

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mediatree/internal/logging"
	"mediatree/internal/resource"
)

// RootName is the display name of the virtual root.
const RootName = "Media Library"

// OpticalName is the display name of the optical disc folder.
const OpticalName = "Optical Disc"

// Extra builds an additional top-level container, such as a list folder.
type Extra func(tree *resource.Tree) *resource.Node

// Root is the virtual top-level container.
type Root struct {
	lib     *Library
	folders []string
	optical string
	extras  []Extra

	mu      sync.Mutex
	present map[string]bool
}

// NewRoot lists folders, then the optical mount (when set), then extras.
func NewRoot(lib *Library, folders []string, opticalMount string, extras ...Extra) *Root {
	return &Root{lib: lib, folders: folders, optical: opticalMount, extras: extras}
}

func (r *Root) Kind() string   { return "root" }
func (r *Root) IsFolder() bool { return true }

// Discover builds one container per shared folder that currently exists.
func (r *Root) Discover(ctx context.Context, n *resource.Node) ([]*resource.Node, error) {
	tree := n.Tree()
	present := make(map[string]bool, len(r.folders)+1)
	var children []*resource.Node
	for _, dir := range r.folders {
		if err := ctx.Err(); err != nil {
			return children, err
		}
		info, err := os.Stat(dir)
		present[dir] = err == nil && info.IsDir()
		if !present[dir] {
			logging.WarnWithContext(r.lib.logger, "shared folder unavailable", "shared_folder_missing",
				logging.Path(dir),
				logging.String(logging.FieldImpact, "folder hidden from the library root"),
				logging.String(logging.FieldErrorHint, "check paths.shared_folders and that the volume is mounted"),
			)
			continue
		}
		children = append(children, r.lib.NewFolderNode(tree, dir, filepath.Base(dir)))
	}
	if r.optical != "" {
		disc := tree.NewNode(&Disc{Folder: Folder{lib: r.lib, path: r.optical}}, OpticalName)
		children = append(children, disc)
	}
	for _, extra := range r.extras {
		if node := extra(tree); node != nil {
			children = append(children, node)
		}
	}
	r.mu.Lock()
	r.present = present
	r.mu.Unlock()
	return children, nil
}

// RefreshNeeded reports when a shared folder appeared or disappeared.
func (r *Root) RefreshNeeded(_ *resource.Node, _ time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dir := range r.folders {
		info, err := os.Stat(dir)
		if (err == nil && info.IsDir()) != r.present[dir] {
			return true
		}
	}
	return false
}

// Disc is the optical disc folder. Media changes are signalled through
// resource.Node.Invalidate by the optical watcher.
type Disc struct {
	Folder
}

func (d *Disc) Kind() string { return "optical" }

// Discover lists the mounted disc, or nothing when no disc is mounted.
func (d *Disc) Discover(ctx context.Context, n *resource.Node) ([]*resource.Node, error) {
	if _, err := os.Stat(d.path); err != nil {
		return nil, nil
	}
	return d.Folder.Discover(ctx, n)
}

// FindByPath returns the top-level container of root serving dir.
func FindByPath(root *resource.Node, dir string) *resource.Node {
	if root == nil {
		return nil
	}
	for _, child := range root.Children() {
		switch p := child.Provider().(type) {
		case *Folder:
			if p.path == dir {
				return child
			}
		case *Disc:
			if p.path == dir {
				return child
			}
		}
	}
	return nil
}
