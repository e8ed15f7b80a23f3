package library

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediatree/internal/archive"
	"mediatree/internal/config"
	"mediatree/internal/logging"
	"mediatree/internal/media"
	"mediatree/internal/resource"
	"mediatree/internal/transcode"
)

// relevanceDepth bounds how deep a hidden directory is searched for content.
const relevanceDepth = 4

// Options controls how directory entries become nodes.
type Options struct {
	Extensions       map[string]struct{}
	HideEmptyFolders bool
	BrowseArchives   bool
	ArchiveSeekMax   int64
	TranscodeFolders bool
	Playlists        bool
}

// OptionsFromConfig derives library options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Extensions:       cfg.ExtensionSet(),
		HideEmptyFolders: cfg.Library.HideEmptyFolders,
		BrowseArchives:   cfg.Library.BrowseArchives,
		ArchiveSeekMax:   cfg.ArchiveSeekMaxBytes(),
		TranscodeFolders: cfg.Library.TranscodeFolders,
		Playlists:        cfg.Library.Playlists,
	}
}

// Library builds filesystem nodes that share one prober and generator.
type Library struct {
	opts      Options
	prober    media.Prober
	generator *transcode.Generator
	base      *slog.Logger
	logger    *slog.Logger
}

// New constructs a Library. A nil generator disables transcode folders.
func New(opts Options, prober media.Prober, generator *transcode.Generator, logger *slog.Logger) *Library {
	return &Library{
		opts:      opts,
		prober:    prober,
		generator: generator,
		base:      logger,
		logger:    logging.NewComponentLogger(logger, "library"),
	}
}

// NewFolderNode returns an unregistered container for dir.
func (l *Library) NewFolderNode(tree *resource.Tree, dir, name string) *resource.Node {
	if name == "" {
		name = filepath.Base(dir)
	}
	n := tree.NewNode(&Folder{lib: l, path: dir}, name)
	if info, err := os.Stat(dir); err == nil {
		n.SetLastModified(info.ModTime())
	}
	return n
}

// NewFileNode returns an unregistered leaf for the file at path.
func (l *Library) NewFileNode(tree *resource.Tree, path string) *resource.Node {
	n := tree.NewNode(&File{path: path, prober: l.prober}, filepath.Base(path))
	if info, err := os.Stat(path); err == nil {
		n.SetLastModified(info.ModTime())
	}
	return n
}

type entryKind int

const (
	kindSkip entryKind = iota
	kindMedia
	kindArchive
	kindPlaylist
)

func (l *Library) classify(name string) entryKind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch {
	case ext == "zip" && l.opts.BrowseArchives:
		return kindArchive
	case (ext == "m3u" || ext == "m3u8") && l.opts.Playlists:
		return kindPlaylist
	}
	if _, ok := l.opts.Extensions[ext]; ok {
		return kindMedia
	}
	return kindSkip
}

// entryNodes builds the nodes for one directory entry: the entry itself and,
// for video files, an optional transcode folder sibling.
func (l *Library) entryNodes(tree *resource.Tree, path string) []*resource.Node {
	switch l.classify(filepath.Base(path)) {
	case kindMedia:
		file := l.NewFileNode(tree, path)
		nodes := []*resource.Node{file}
		if l.opts.TranscodeFolders && l.generator != nil && strings.HasPrefix(media.MimeType(path), "video/") {
			nodes = append(nodes, tree.NewNode(transcode.NewFolder(l.generator, file), transcode.FolderName(file.Name())))
		}
		return nodes
	case kindArchive:
		return []*resource.Node{archive.NewFolderNode(tree, path, archive.Options{
			Extensions: l.opts.Extensions,
			SeekMax:    l.opts.ArchiveSeekMax,
			Logger:     l.base,
		})}
	case kindPlaylist:
		n := tree.NewNode(&Playlist{lib: l, path: path}, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if info, err := os.Stat(path); err == nil {
			n.SetLastModified(info.ModTime())
		}
		return []*resource.Node{n}
	default:
		return nil
	}
}

// hasRelevantContent reports whether dir holds, within relevanceDepth
// levels, any entry the library would list.
func (l *Library) hasRelevantContent(dir string) bool {
	found := false
	base := strings.Count(filepath.Clean(dir), string(filepath.Separator))
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.Count(path, string(filepath.Separator))-base > relevanceDepth {
				return fs.SkipDir
			}
			return nil
		}
		if l.classify(d.Name()) != kindSkip {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}
