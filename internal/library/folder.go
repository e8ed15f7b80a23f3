package library

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"mediatree/internal/logging"
	"mediatree/internal/resource"
	"mediatree/internal/services"
	"mediatree/internal/textutil"
)

// Folder is a filesystem directory container.
type Folder struct {
	lib  *Library
	path string

	mu      sync.Mutex
	tracked []string
	hidden  []string
}

func (f *Folder) Kind() string   { return "folder" }
func (f *Folder) IsFolder() bool { return true }

// Path returns the directory path.
func (f *Folder) Path() string { return f.path }

// Discover lists the directory. Unreadable entries are skipped; an
// unreadable directory fails the whole discovery.
func (f *Folder) Discover(ctx context.Context, n *resource.Node) ([]*resource.Node, error) {
	entries, err := os.ReadDir(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "library", "read dir", f.path, err)
		}
		return nil, services.Wrap(services.ErrTransient, "library", "read dir", f.path, err)
	}
	slices.SortFunc(entries, func(a, b os.DirEntry) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return textutil.NaturalCompare(a.Name(), b.Name())
	})

	tree := n.Tree()
	tracked := []string{f.path}
	var (
		hidden   []string
		children []*resource.Node
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return children, err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(f.path, name)
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(full)
			if err != nil {
				f.lib.logger.Debug("skipping broken symlink", logging.Path(full), logging.Error(err))
				continue
			}
			isDir = info.IsDir()
		}
		if isDir {
			if f.lib.opts.HideEmptyFolders && !f.lib.hasRelevantContent(full) {
				hidden = append(hidden, full)
				continue
			}
			children = append(children, f.lib.NewFolderNode(tree, full, name))
			continue
		}
		nodes := f.lib.entryNodes(tree, full)
		if len(nodes) > 0 {
			tracked = append(tracked, full)
			children = append(children, nodes...)
		}
	}

	f.mu.Lock()
	f.tracked = tracked
	f.hidden = hidden
	f.mu.Unlock()
	return children, nil
}

// RefreshNeeded reports a change when the directory or any listed file was
// modified after since, or when a hidden directory gained content.
func (f *Folder) RefreshNeeded(_ *resource.Node, since time.Time) bool {
	f.mu.Lock()
	tracked := append([]string(nil), f.tracked...)
	hidden := append([]string(nil), f.hidden...)
	f.mu.Unlock()

	for _, path := range tracked {
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(since) {
			return true
		}
	}
	for _, dir := range hidden {
		if f.lib.hasRelevantContent(dir) {
			return true
		}
	}
	return false
}

// HiddenDirs returns the directories hidden at the last discovery.
func (f *Folder) HiddenDirs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hidden...)
}
