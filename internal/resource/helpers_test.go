package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"mediatree/internal/media"
	"mediatree/internal/services"
)

type testLeaf struct {
	md       *media.Metadata
	err      error
	resolves atomic.Int32
}

func (l *testLeaf) Kind() string   { return "test-leaf" }
func (l *testLeaf) IsFolder() bool { return false }

func (l *testLeaf) Resolve(context.Context, *Node) (*media.Metadata, error) {
	l.resolves.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return l.md, nil
}

type testFolder struct {
	mu       sync.Mutex
	names    []string
	failing  map[string]bool
	delay    time.Duration
	calls    atomic.Int32
	stale    atomic.Bool
	cancelAt int
	cancel   context.CancelFunc
}

func (f *testFolder) Kind() string   { return "test-folder" }
func (f *testFolder) IsFolder() bool { return true }

func (f *testFolder) Discover(ctx context.Context, n *Node) ([]*Node, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	names := append([]string(nil), f.names...)
	f.mu.Unlock()

	out := make([]*Node, 0, len(names))
	for i, name := range names {
		if f.cancel != nil && i == f.cancelAt {
			f.cancel()
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		leaf := &testLeaf{md: &media.Metadata{VideoCodec: "h264", Duration: time.Minute}}
		if f.failing[name] {
			leaf.err = services.Wrap(services.ErrProbe, "test", "resolve", name, errors.New("boom"))
		}
		out = append(out, n.Tree().NewNode(leaf, name))
	}
	return out, nil
}

func (f *testFolder) RefreshNeeded(*Node, time.Time) bool { return f.stale.Load() }

func (f *testFolder) setNames(names ...string) {
	f.mu.Lock()
	f.names = names
	f.mu.Unlock()
}

type testEngine struct {
	id   string
	rank int
	seek bool
}

func (e testEngine) ID() string    { return e.id }
func (e testEngine) Name() string  { return e.id }
func (e testEngine) Rank() int     { return e.rank }
func (e testEngine) CanSeek() bool { return e.seek }

func childNames(nodes []*Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name()
	}
	return names
}
