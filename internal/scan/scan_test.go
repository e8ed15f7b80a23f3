package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mediatree/internal/resource"
	"mediatree/internal/services"
)

type item struct {
	name string
	p    resource.Provider
}

type fakeDir struct {
	items []item
	err   error
	hook  func()
	calls atomic.Int32
}

func (d *fakeDir) Kind() string   { return "dir" }
func (d *fakeDir) IsFolder() bool { return true }

func (d *fakeDir) Discover(_ context.Context, n *resource.Node) ([]*resource.Node, error) {
	d.calls.Add(1)
	if d.hook != nil {
		d.hook()
	}
	if d.err != nil {
		return nil, d.err
	}
	out := make([]*resource.Node, 0, len(d.items))
	for _, it := range d.items {
		out = append(out, n.Tree().NewNode(it.p, it.name))
	}
	return out, nil
}

type fakeLeaf struct{}

func (fakeLeaf) Kind() string   { return "leaf" }
func (fakeLeaf) IsFolder() bool { return false }

func dir(items ...item) *fakeDir { return &fakeDir{items: items} }

func sub(name string, d *fakeDir) item { return item{name: name, p: d} }

func leaf(name string) item { return item{name: name, p: fakeLeaf{}} }

func child(t *testing.T, n *resource.Node, name string) *resource.Node {
	t.Helper()
	for _, c := range n.Children() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("%s has no child %q", n, name)
	return nil
}

func TestScannerVisitsWholeTree(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	root := tree.SetRoot(dir(
		sub("a", dir(leaf("a1"), leaf("a2"), sub("deep", dir(leaf("d1"))))),
		sub("b", dir()),
		leaf("top"),
	), "root")

	stats, err := NewScanner(tree, Options{}, nil).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Containers != 4 || stats.Leaves != 4 || stats.Failures != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !child(t, child(t, root, "a"), "deep").Discovered() {
		t.Fatal("expected nested container discovered")
	}
}

func TestScannerContinuesPastFailingContainer(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	broken := dir()
	broken.err = services.Wrap(services.ErrTransient, "test", "read", "boom", nil)
	root := tree.SetRoot(dir(
		sub("broken", broken),
		sub("ok", dir(leaf("x"))),
	), "root")

	stats, err := NewScanner(tree, Options{}, nil).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failures != 1 {
		t.Fatalf("expected one failure, got %+v", stats)
	}
	if child(t, root, "broken").Discovered() {
		t.Fatal("failed container must not be marked discovered")
	}
	if !child(t, root, "ok").Discovered() {
		t.Fatal("sibling after failure must still be scanned")
	}
}

func TestScannerStopLeavesConsistentTree(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	var scanner *Scanner
	second := dir(leaf("s1"), leaf("s2"), leaf("s3"))
	second.hook = func() { scanner.RequestStop() }
	third := dir(leaf("t1"))
	root := tree.SetRoot(dir(
		sub("first", dir(leaf("f1"))),
		sub("second", second),
		sub("third", third),
	), "root")

	scanner = NewScanner(tree, Options{}, nil)
	_, err := scanner.Run(context.Background(), root)
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}

	stopped := child(t, root, "second")
	if !stopped.Discovered() || len(stopped.Children()) != 3 {
		t.Fatalf("container being rebuilt at stop time must be complete, got discovered=%v children=%d",
			stopped.Discovered(), len(stopped.Children()))
	}
	if child(t, root, "third").Discovered() || third.calls.Load() != 0 {
		t.Fatal("siblings after the stop must not be visited")
	}
}

func TestScannerSkipPredicate(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	skipped := dir(leaf("x"))
	root := tree.SetRoot(dir(sub("skip-me", skipped), sub("keep", dir())), "root")

	opts := Options{Skip: func(n *resource.Node) bool { return n.Name() == "skip-me" }}
	if _, err := NewScanner(tree, opts, nil).Run(context.Background(), root); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if skipped.calls.Load() != 0 {
		t.Fatal("skipped container was discovered")
	}
}

func TestScannerDepthLimit(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	deepest := dir()
	root := tree.SetRoot(dir(sub("1", dir(sub("2", dir(sub("3", deepest)))))), "root")

	stats, err := NewScanner(tree, Options{MaxDepth: 2}, nil).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deepest.calls.Load() != 0 || stats.Containers != 3 {
		t.Fatalf("expected walk to stop at depth 2, stats=%+v", stats)
	}
}

func TestScannerYieldsToPlayback(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	inner := dir(leaf("x"))
	root := tree.SetRoot(dir(sub("inner", inner)), "root")

	release := tree.Realtime().Acquire()
	done := make(chan error, 1)
	go func() {
		_, err := NewScanner(tree, Options{}, nil).Run(context.Background(), root)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !root.Discovered() {
		if time.Now().After(deadline) {
			t.Fatal("root never discovered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if inner.calls.Load() != 0 {
		t.Fatal("scanner touched a child while playback was active")
	}

	release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scan did not resume after playback ended")
	}
	if inner.calls.Load() != 1 {
		t.Fatalf("expected inner discovered once, got %d", inner.calls.Load())
	}
}

func TestScannerCanceledWhileYielding(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	root := tree.SetRoot(dir(sub("inner", dir())), "root")
	release := tree.Realtime().Acquire()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewScanner(tree, Options{}, nil).Run(ctx, root)
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestManagerRunsOneScanAtATime(t *testing.T) {
	tree := resource.NewTree(nil, nil)
	gate := make(chan struct{})
	slow := dir(leaf("x"))
	slow.hook = func() { <-gate }
	tree.SetRoot(dir(sub("slow", slow), sub("after", dir())), "root")

	m := NewManager(tree, Options{}, nil)
	id, err := m.Start(context.Background())
	if err != nil || id == "" {
		t.Fatalf("Start: %q %v", id, err)
	}
	if _, err := m.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning, got %v", err)
	}
	st := m.Status()
	if !st.Running || st.ScanID != id {
		t.Fatalf("unexpected status %+v", st)
	}

	if !m.Stop() {
		t.Fatal("Stop should report a running scan")
	}
	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	st = m.Status()
	if st.Running || st.Last == nil || st.Last.ScanID != id || !st.Last.Canceled {
		t.Fatalf("unexpected final status %+v", st)
	}
	if m.Stop() {
		t.Fatal("Stop with no scan should report false")
	}

	id2, err := m.Start(context.Background())
	if err != nil || id2 == id {
		t.Fatalf("second Start: %q %v", id2, err)
	}
	m.Close()
	if last := m.Status().Last; last == nil || last.ScanID != id2 {
		t.Fatalf("expected second result recorded, got %+v", last)
	}
}

func TestManagerWithoutRoot(t *testing.T) {
	m := NewManager(resource.NewTree(nil, nil), Options{}, nil)
	if _, err := m.Start(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
