package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"mediatree/internal/logging"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// DefaultMaxDepth bounds the walk when Options.MaxDepth is unset.
const DefaultMaxDepth = 64

// Options tunes a walk.
type Options struct {
	// Skip reports containers the walk must not descend into.
	Skip func(n *resource.Node) bool
	// MaxDepth bounds recursion below the start node.
	MaxDepth int
}

// Stats counts what one walk visited.
type Stats struct {
	Containers int
	Leaves     int
	Failures   int
	Duration   time.Duration
}

// Scanner performs a single depth-first walk.
type Scanner struct {
	tree   *resource.Tree
	opts   Options
	logger *slog.Logger

	stop  atomic.Bool
	stats Stats
}

// NewScanner returns a scanner over tree.
func NewScanner(tree *resource.Tree, opts Options, logger *slog.Logger) *Scanner {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Scanner{tree: tree, opts: opts, logger: logging.NewComponentLogger(logger, "scanner")}
}

// RequestStop asks the walk to end at the next sibling boundary.
func (s *Scanner) RequestStop() { s.stop.Store(true) }

// StopRequested reports whether RequestStop was called.
func (s *Scanner) StopRequested() bool { return s.stop.Load() }

// Run walks the subtree under start. Individual failures are logged and
// counted; only a stop request or ctx ending aborts the walk, reported as
// services.ErrCanceled.
func (s *Scanner) Run(ctx context.Context, start *resource.Node) (Stats, error) {
	if start == nil {
		return Stats{}, services.Wrap(services.ErrStructural, "scanner", "run", "no start node", nil)
	}
	begin := time.Now()
	err := s.walk(ctx, start, 0)
	s.stats.Duration = time.Since(begin)
	return s.stats, err
}

func (s *Scanner) walk(ctx context.Context, n *resource.Node, depth int) error {
	logger := logging.WithContext(services.WithNodeID(ctx, n.ID()), s.logger)
	if err := n.EnsureFresh(ctx); err != nil {
		if isCancel(ctx, err) {
			return services.Wrap(services.ErrCanceled, "scanner", "refresh", n.Name(), err)
		}
		s.stats.Failures++
		logging.WarnWithContext(logger, "container refresh failed", "scan_container_failed",
			logging.String("name", n.Name()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "container keeps its previous listing"),
			logging.String(logging.FieldErrorHint, "check that the source is readable"),
		)
		return nil
	}
	s.stats.Containers++

	for _, child := range n.Children() {
		if s.stop.Load() {
			return services.Wrap(services.ErrCanceled, "scanner", "walk", "stop requested", nil)
		}
		if err := ctx.Err(); err != nil {
			return services.Wrap(services.ErrCanceled, "scanner", "walk", n.Name(), err)
		}
		if err := s.tree.Realtime().Yield(ctx); err != nil {
			return services.Wrap(services.ErrCanceled, "scanner", "yield", n.Name(), err)
		}

		if !child.IsFolder() {
			s.stats.Leaves++
			if err := child.Resolve(ctx); err != nil {
				if isCancel(ctx, err) {
					return services.Wrap(services.ErrCanceled, "scanner", "resolve", child.Name(), err)
				}
				s.stats.Failures++
				if services.IsPerNode(err) {
					logger.Debug("leaf resolution failed", logging.NodeID(child.ID()), logging.Error(err))
				} else {
					logging.WarnWithContext(logger, "leaf resolution failed", "scan_leaf_failed",
						logging.NodeID(child.ID()),
						logging.Error(err),
						logging.String(logging.FieldImpact, "item is listed without metadata"),
					)
				}
			}
			continue
		}
		if s.opts.Skip != nil && s.opts.Skip(child) {
			continue
		}
		if depth+1 > s.opts.MaxDepth {
			logger.Debug("scan depth limit reached", logging.NodeID(child.ID()), logging.Int("depth", depth+1))
			continue
		}
		if err := s.walk(ctx, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func isCancel(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, services.ErrCanceled) || errors.Is(err, context.Canceled)
}
