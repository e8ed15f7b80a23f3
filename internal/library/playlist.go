package library

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediatree/internal/logging"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// Playlist is an m3u/m3u8 file exposed as a container of its entries.
type Playlist struct {
	lib  *Library
	path string
}

func (p *Playlist) Kind() string   { return "playlist" }
func (p *Playlist) IsFolder() bool { return true }

// Discover lists the playlist entries that exist on disk. Relative entries
// resolve against the playlist directory; comments, URLs and missing files
// are skipped.
func (p *Playlist) Discover(ctx context.Context, n *resource.Node) ([]*resource.Node, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "library", "open playlist", p.path, err)
	}
	defer f.Close()

	tree := n.Tree()
	dir := filepath.Dir(p.path)
	var children []*resource.Node
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return children, err
		}
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") || strings.Contains(line, "://") {
			continue
		}
		target := filepath.FromSlash(line)
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			p.lib.logger.Debug("skipping playlist entry", logging.Path(target), logging.String("playlist", p.path))
			continue
		}
		children = append(children, p.lib.NewFileNode(tree, target))
	}
	if err := scanner.Err(); err != nil {
		return children, services.Wrap(services.ErrTransient, "library", "read playlist", p.path, err)
	}
	return children, nil
}

// RefreshNeeded follows the playlist file's mtime.
func (p *Playlist) RefreshNeeded(_ *resource.Node, since time.Time) bool {
	info, err := os.Stat(p.path)
	return err != nil || info.ModTime().After(since)
}
