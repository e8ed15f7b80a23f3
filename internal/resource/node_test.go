package resource

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"mediatree/internal/media"
	"mediatree/internal/registry"
	"mediatree/internal/services"
)

func newTestTree() *Tree {
	return NewTree(registry.New(nil), nil)
}

func TestDiscoverChildrenRunsOnceUnderConcurrency(t *testing.T) {
	tree := newTestTree()
	folder := &testFolder{names: []string{"a", "b", "c"}, delay: 20 * time.Millisecond}
	root := tree.SetRoot(folder, "root")

	const callers = 32
	var wg sync.WaitGroup
	seen := make([][]int, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = root.DiscoverChildren(context.Background())
			for _, c := range root.Children() {
				seen[i] = append(seen[i], c.ID())
			}
		}(i)
	}
	wg.Wait()

	if got := folder.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one enumeration, got %d", got)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if !slices.Equal(seen[i], seen[0]) || len(seen[i]) != 3 {
			t.Fatalf("caller %d observed %v, first observed %v", i, seen[i], seen[0])
		}
	}
	if !root.Discovered() || root.Epoch() != 1 {
		t.Fatalf("unexpected state discovered=%v epoch=%d", root.Discovered(), root.Epoch())
	}
}

func TestDiscoverHidesChildrenThatFailToResolve(t *testing.T) {
	tree := newTestTree()
	folder := &testFolder{names: []string{"good", "bad", "also good"}, failing: map[string]bool{"bad": true}}
	root := tree.SetRoot(folder, "root")

	if err := root.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("DiscoverChildren: %v", err)
	}
	if got := childNames(root.Children()); !slices.Equal(got, []string{"good", "also good"}) {
		t.Fatalf("unexpected children %v", got)
	}
	if tree.Registry().Len() != 2 {
		t.Fatalf("expected hidden child to be unregistered, registry has %d", tree.Registry().Len())
	}
	for _, c := range root.Children() {
		if !c.Resolved() || c.Duration() != time.Minute {
			t.Fatalf("expected first wave resolution for %s", c)
		}
		if c.Parent() != root || c.ParentID() != registry.RootID {
			t.Fatalf("unexpected parent for %s", c)
		}
	}
}

func TestRefreshKeepsOwnIDAndRenamesChildren(t *testing.T) {
	tree := newTestTree()
	root := tree.SetRoot(&testFolder{names: []string{"container"}}, "root")
	if err := root.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover root: %v", err)
	}

	inner := &testFolder{names: []string{"x", "y"}}
	container := tree.NewNode(inner, "shows")
	root.AddChild(container)
	containerID := container.ID()
	if err := container.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover container: %v", err)
	}
	oldIDs := make([]int, 0, 2)
	for _, c := range container.Children() {
		oldIDs = append(oldIDs, c.ID())
	}

	inner.setNames("x", "y", "z")
	if err := container.RefreshChildren(context.Background()); err != nil {
		t.Fatalf("RefreshChildren: %v", err)
	}

	if container.ID() != containerID {
		t.Fatalf("container id changed from %d to %d", containerID, container.ID())
	}
	if got, ok := tree.Lookup(containerID); !ok || got != container {
		t.Fatal("container no longer reachable by its id")
	}
	children := container.Children()
	if len(children) != 3 || container.Epoch() != 2 {
		t.Fatalf("unexpected refresh result: %v epoch=%d", childNames(children), container.Epoch())
	}
	for _, c := range children {
		if slices.Contains(oldIDs, c.ID()) || c.ID() == containerID {
			t.Fatalf("child %s reused an identifier", c)
		}
	}
	for _, id := range oldIDs {
		if tree.Registry().Exists(id) {
			t.Fatalf("old child id %d still registered", id)
		}
	}
}

func TestCanceledDiscoveryLeavesNodeUndiscovered(t *testing.T) {
	tree := newTestTree()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	folder := &testFolder{names: []string{"a", "b", "c", "d"}, cancelAt: 2, cancel: cancel}
	root := tree.SetRoot(folder, "root")

	err := root.DiscoverChildren(ctx)
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if root.Discovered() || len(root.Children()) != 0 {
		t.Fatalf("canceled discovery left discovered=%v children=%d", root.Discovered(), len(root.Children()))
	}
	if tree.Registry().Len() != 0 {
		t.Fatalf("partial children leaked into registry: %d", tree.Registry().Len())
	}

	folder.cancel = nil
	if err := root.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("retry discovery: %v", err)
	}
	if len(root.Children()) != 4 {
		t.Fatalf("expected full child set after retry, got %d", len(root.Children()))
	}
}

func TestCanceledRefreshKeepsPreviousChildren(t *testing.T) {
	tree := newTestTree()
	folder := &testFolder{names: []string{"a", "b"}}
	root := tree.SetRoot(folder, "root")
	if err := root.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}
	before := root.Children()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	folder.setNames("a", "b", "c")
	folder.cancelAt, folder.cancel = 1, cancel
	if err := root.RefreshChildren(ctx); err == nil {
		t.Fatal("expected refresh to fail after cancellation")
	}
	after := root.Children()
	if !root.Discovered() || !slices.Equal(after, before) {
		t.Fatalf("refresh left partial state: %v", childNames(after))
	}
	for _, c := range after {
		if !tree.Registry().Exists(c.ID()) {
			t.Fatalf("surviving child %s lost its registration", c)
		}
	}
}

func TestIsRefreshNeeded(t *testing.T) {
	tree := newTestTree()
	folder := &testFolder{names: []string{"a"}}
	root := tree.SetRoot(folder, "root")

	folder.stale.Store(true)
	if root.IsRefreshNeeded() {
		t.Fatal("undiscovered node should not report a refresh")
	}
	if err := root.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	if !root.IsRefreshNeeded() {
		t.Fatal("expected provider staleness to propagate")
	}
	folder.stale.Store(false)
	if root.IsRefreshNeeded() {
		t.Fatal("expected fresh node")
	}

	root.Invalidate()
	if !root.IsRefreshNeeded() {
		t.Fatal("expected explicit invalidation to force refresh")
	}
	if err := root.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	if root.IsRefreshNeeded() || root.Epoch() != 2 {
		t.Fatalf("expected invalidation cleared by refresh, epoch=%d", root.Epoch())
	}
}

func TestResolveIsOnceAndMarksInvalid(t *testing.T) {
	tree := newTestTree()
	leaf := &testLeaf{md: &media.Metadata{VideoCodec: "h264"}}
	n := tree.NewNode(leaf, "clip")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = n.Resolve(context.Background())
		}()
	}
	wg.Wait()
	if leaf.resolves.Load() != 1 {
		t.Fatalf("expected one resolution, got %d", leaf.resolves.Load())
	}

	broken := tree.NewNode(&testLeaf{err: errors.New("probe crashed")}, "broken")
	if err := broken.Resolve(context.Background()); err == nil {
		t.Fatal("expected resolve error")
	}
	if !broken.Invalid() || broken.Resolved() {
		t.Fatalf("expected invalid unresolved node, invalid=%v resolved=%v", broken.Invalid(), broken.Resolved())
	}
}

func TestLookupWire(t *testing.T) {
	tree := newTestTree()
	root := tree.SetRoot(&testFolder{}, "root")
	child := tree.NewNode(&testLeaf{}, "leaf")
	root.AddChild(child)

	for _, raw := range []string{"0", "0$root"} {
		if n, err := tree.LookupWire(raw); err != nil || n != root {
			t.Fatalf("LookupWire(%q) = %v, %v", raw, n, err)
		}
	}
	if n, err := tree.LookupWire(registry.FormatID(child.ID(), "leaf name")); err != nil || n != child {
		t.Fatalf("expected child lookup with suffix, got %v, %v", n, err)
	}
	for _, raw := range []string{"", "abc", "-4", "99999999999999999999", "4242"} {
		if _, err := tree.LookupWire(raw); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("LookupWire(%q) expected not found, got %v", raw, err)
		}
	}
}

func TestRemoveChildReleasesSubtree(t *testing.T) {
	tree := newTestTree()
	root := tree.SetRoot(&testFolder{}, "root")
	folder := tree.NewNode(&testFolder{names: []string{"a", "b"}}, "folder")
	root.AddChild(folder)
	if err := folder.DiscoverChildren(context.Background()); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if tree.Registry().Len() != 3 {
		t.Fatalf("expected 3 registered nodes, got %d", tree.Registry().Len())
	}
	if !root.RemoveChild(folder) {
		t.Fatal("expected child removal")
	}
	if tree.Registry().Len() != 0 || len(root.Children()) != 0 {
		t.Fatalf("expected empty tree, registry=%d children=%d", tree.Registry().Len(), len(root.Children()))
	}
}

type pushLeaf struct{ payload string }

func (pushLeaf) Kind() string   { return "push" }
func (pushLeaf) IsFolder() bool { return false }

func (p pushLeaf) Push(_ context.Context, _ *Node, sink io.WriteCloser) {
	go func() {
		defer sink.Close()
		_, _ = io.WriteString(sink, p.payload)
	}()
}

func TestOpenBridgesPushLeaves(t *testing.T) {
	tree := newTestTree()
	n := tree.NewNode(pushLeaf{payload: "archived bytes"}, "entry")
	rc, err := n.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "archived bytes" {
		t.Fatalf("unexpected payload %q", data)
	}
	if n.Seekable() {
		t.Fatal("push leaves are forward-only unless they say otherwise")
	}

	if _, err := tree.NewNode(&testFolder{}, "dir").Open(context.Background()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for folder open, got %v", err)
	}
}
