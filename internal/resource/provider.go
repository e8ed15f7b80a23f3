package resource

import (
	"context"
	"io"
	"time"

	"mediatree/internal/media"
)

// Provider supplies the concrete behavior of a node. Only Kind and IsFolder
// are mandatory; everything else is discovered through the capability
// interfaces below.
type Provider interface {
	Kind() string
	IsFolder() bool
}

// Discoverer enumerates the children of a container. The tree registers any
// returned node that has no identifier yet and adopts all of them.
type Discoverer interface {
	Discover(ctx context.Context, n *Node) ([]*Node, error)
}

// Resolver probes a node's own metadata.
type Resolver interface {
	Resolve(ctx context.Context, n *Node) (*media.Metadata, error)
}

// Opener returns a byte stream for a leaf that has a direct handle.
type Opener interface {
	Open(ctx context.Context, n *Node) (io.ReadCloser, error)
}

// Pusher streams a leaf into sink from a worker goroutine it starts itself.
// The worker must close sink when done, whatever the outcome.
type Pusher interface {
	Push(ctx context.Context, n *Node, sink io.WriteCloser)
}

// RefreshChecker reports whether the source changed after since.
type RefreshChecker interface {
	RefreshNeeded(n *Node, since time.Time) bool
}

// SeekChecker reports whether a leaf supports random access.
type SeekChecker interface {
	Seekable(n *Node) bool
}

// Engine is the transcoding configuration a variant node carries.
type Engine interface {
	ID() string
	Name() string
	Rank() int
	CanSeek() bool
}
