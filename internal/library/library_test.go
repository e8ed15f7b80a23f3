package library_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediatree/internal/config"
	"mediatree/internal/library"
	"mediatree/internal/resource"
	"mediatree/internal/testsupport"
	"mediatree/internal/transcode"
)

type fixture struct {
	cfg    *config.Config
	tree   *resource.Tree
	prober *testsupport.FakeProber
	lib    *library.Library
}

func newFixture(t *testing.T, mutate func(*library.Options), opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	tree := resource.NewTree(nil, nil)
	prober := testsupport.NewFakeProber()
	libOpts := library.OptionsFromConfig(cfg)
	if mutate != nil {
		mutate(&libOpts)
	}
	gen := transcode.NewGenerator(tree, transcode.NewRuleOracle(transcode.EnginesFromConfig(cfg.Transcode.Engines)), transcode.Options{}, nil)
	return &fixture{
		cfg:    cfg,
		tree:   tree,
		prober: prober,
		lib:    library.New(libOpts, prober, gen, nil),
	}
}

func (f *fixture) folder(t *testing.T, dir string) *resource.Node {
	t.Helper()
	n := f.lib.NewFolderNode(f.tree, dir, "")
	if err := n.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("DiscoverChildren(%s): %v", dir, err)
	}
	return n
}

func names(nodes []*resource.Node) string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return strings.Join(out, ",")
}

func TestFolderListsDirectoriesFirstInNaturalOrder(t *testing.T) {
	f := newFixture(t, func(o *library.Options) { o.TranscodeFolders = false })
	dir := testsupport.SharedFolder(f.cfg)
	testsupport.WriteTree(t, dir,
		"track10.mp3",
		"track2.mp3",
		"notes.txt",
		".hidden.mkv",
		"Season 2/ep1.mkv",
		"Season 10/ep1.mkv",
	)

	n := f.folder(t, dir)
	if got := names(n.Children()); got != "Season 2,Season 10,track2.mp3,track10.mp3" {
		t.Fatalf("unexpected listing %q", got)
	}
	for _, child := range n.Children() {
		if child.ID() <= 0 {
			t.Fatalf("child %s was not registered", child)
		}
	}
}

func TestFolderAddsTranscodeSiblingForVideo(t *testing.T) {
	f := newFixture(t, func(o *library.Options) { o.TranscodeFolders = true })
	dir := testsupport.SharedFolder(f.cfg)
	testsupport.WriteTree(t, dir, "movie.mkv", "song.mp3")

	n := f.folder(t, dir)
	want := "movie.mkv," + transcode.FolderName("movie.mkv") + ",song.mp3"
	if got := names(n.Children()); got != want {
		t.Fatalf("unexpected listing %q want %q", got, want)
	}
	movie := n.Children()[0]
	if !movie.Resolved() || movie.Duration() != time.Hour {
		t.Fatalf("expected first-wave resolution of the movie, got %+v", movie.Metadata())
	}
	sibling := n.Children()[1]
	if _, ok := sibling.Provider().(*transcode.Folder); !ok {
		t.Fatalf("expected transcode folder, got %T", sibling.Provider())
	}
}

func TestFolderHidesFilesThatFailToProbe(t *testing.T) {
	f := newFixture(t, func(o *library.Options) { o.TranscodeFolders = false })
	dir := testsupport.SharedFolder(f.cfg)
	testsupport.WriteTree(t, dir, "good.mp3", "broken.mp3")
	f.prober.Fail("broken.mp3")

	n := f.folder(t, dir)
	if got := names(n.Children()); got != "good.mp3" {
		t.Fatalf("expected broken file hidden, got %q", got)
	}
}

func TestHiddenEmptyFolderReappearsWhenContentArrives(t *testing.T) {
	f := newFixture(t, func(o *library.Options) {
		o.HideEmptyFolders = true
		o.TranscodeFolders = false
	})
	dir := testsupport.SharedFolder(f.cfg)
	testsupport.WriteTree(t, dir, "empty/", "full/a.mp3", "only-text/readme.txt")

	n := f.folder(t, dir)
	if got := names(n.Children()); got != "full" {
		t.Fatalf("unexpected listing %q", got)
	}
	hidden := n.Provider().(*library.Folder).HiddenDirs()
	if len(hidden) != 2 {
		t.Fatalf("expected two hidden dirs, got %v", hidden)
	}
	if n.IsRefreshNeeded() {
		t.Fatal("no change yet, refresh should not be needed")
	}

	testsupport.WriteTree(t, dir, "empty/deep/b.mp3")
	if !n.IsRefreshNeeded() {
		t.Fatal("expected refresh after hidden folder gained content")
	}
	if err := n.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	if got := names(n.Children()); got != "empty,full" {
		t.Fatalf("unexpected listing after refresh %q", got)
	}
}

func TestFolderRefreshFollowsModification(t *testing.T) {
	f := newFixture(t, func(o *library.Options) { o.TranscodeFolders = false })
	dir := testsupport.SharedFolder(f.cfg)
	testsupport.WriteTree(t, dir, "a.mp3")

	n := f.folder(t, dir)
	if n.IsRefreshNeeded() {
		t.Fatal("fresh folder should not need a refresh")
	}
	testsupport.Touch(t, filepath.Join(dir, "a.mp3"), time.Hour)
	if !n.IsRefreshNeeded() {
		t.Fatal("expected modified file to trigger a refresh")
	}
}

func TestPlaylistListsExistingEntries(t *testing.T) {
	f := newFixture(t, func(o *library.Options) {
		o.Playlists = true
		o.TranscodeFolders = false
	})
	dir := testsupport.SharedFolder(f.cfg)
	testsupport.WriteTree(t, dir, "music/one.mp3", "music/two.mp3")
	playlist := "\ufeff#EXTM3U\n#EXTINF:1,One\nmusic/one.mp3\nhttp://example.invalid/stream.mp3\nmusic/missing.mp3\n" +
		filepath.Join(dir, "music", "two.mp3") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "mix.m3u"), []byte(playlist), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	n := f.folder(t, dir)
	var mix *resource.Node
	for _, child := range n.Children() {
		if child.Name() == "mix" {
			mix = child
		}
	}
	if mix == nil {
		t.Fatalf("playlist missing from %q", names(n.Children()))
	}
	if err := mix.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover playlist: %v", err)
	}
	if got := names(mix.Children()); got != "one.mp3,two.mp3" {
		t.Fatalf("unexpected playlist entries %q", got)
	}
}

func TestFileOpenReadsBytes(t *testing.T) {
	f := newFixture(t, nil)
	path := filepath.Join(testsupport.SharedFolder(f.cfg), "clip.mkv")
	testsupport.WriteFile(t, path, 42)

	n := f.lib.NewFileNode(f.tree, path)
	rc, err := n.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	buf := make([]byte, 64)
	total := 0
	for {
		m, err := rc.Read(buf)
		total += m
		if err != nil {
			break
		}
	}
	if total != 42 {
		t.Fatalf("expected 42 bytes, read %d", total)
	}
	if !n.Seekable() {
		t.Fatal("plain files are seekable")
	}
}

func TestRootListsPresentFoldersOpticalAndExtras(t *testing.T) {
	f := newFixture(t, nil,
		testsupport.WithSharedFolders("videos", "music", "missing"),
		testsupport.WithOpticalMount("cdrom"),
	)
	missing := f.cfg.Paths.SharedFolders[2]
	if err := os.Remove(missing); err != nil {
		t.Fatalf("remove missing folder: %v", err)
	}

	extra := func(tree *resource.Tree) *resource.Node {
		return f.lib.NewFolderNode(tree, f.cfg.Paths.SharedFolders[0], "Favourites")
	}
	rootNode := f.tree.SetRoot(library.NewRoot(f.lib, f.cfg.Paths.SharedFolders, f.cfg.Optical.MountPoint, extra), library.RootName)
	if err := rootNode.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover root: %v", err)
	}
	if got := names(rootNode.Children()); got != "videos,music,"+library.OpticalName+",Favourites" {
		t.Fatalf("unexpected root listing %q", got)
	}
	if rootNode.IsRefreshNeeded() {
		t.Fatal("root should be fresh")
	}

	if err := os.MkdirAll(missing, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if !rootNode.IsRefreshNeeded() {
		t.Fatal("expected refresh once the missing folder appears")
	}

	disc := library.FindByPath(rootNode, f.cfg.Optical.MountPoint)
	if disc == nil || disc.Kind() != "optical" {
		t.Fatalf("expected optical node, got %v", disc)
	}
	if got := library.FindByPath(rootNode, f.cfg.Paths.SharedFolders[1]); got == nil || got.Name() != "music" {
		t.Fatalf("FindByPath(music) = %v", got)
	}
}

func TestDiscReportsNothingWithoutMedia(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithOpticalMount("cdrom"))
	mount := f.cfg.Optical.MountPoint
	if err := os.Remove(mount); err != nil {
		t.Fatalf("remove mount: %v", err)
	}
	rootNode := f.tree.SetRoot(library.NewRoot(f.lib, nil, mount), library.RootName)
	if err := rootNode.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover root: %v", err)
	}
	disc := library.FindByPath(rootNode, mount)
	if err := disc.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover disc: %v", err)
	}
	if len(disc.Children()) != 0 {
		t.Fatalf("expected empty disc, got %q", names(disc.Children()))
	}

	testsupport.WriteTree(t, mount, "VIDEO/feature.mkv")
	disc.Invalidate()
	if err := disc.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("refresh disc: %v", err)
	}
	if got := names(disc.Children()); got != "VIDEO" {
		t.Fatalf("unexpected disc listing %q", got)
	}
}
