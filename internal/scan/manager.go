package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediatree/internal/logging"
	"mediatree/internal/resource"
	"mediatree/internal/services"
)

// ErrRunning is returned by Start while a scan is in progress.
var ErrRunning = errors.New("scan already running")

// Result summarizes a finished scan.
type Result struct {
	ScanID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      Stats
	Canceled   bool
	Error      string
}

// Status reports the manager state.
type Status struct {
	Running   bool
	ScanID    string
	StartedAt time.Time
	Stopping  bool
	Last      *Result
}

// Manager runs at most one scan of the tree root at a time.
type Manager struct {
	tree   *resource.Tree
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	current   *Scanner
	scanID    string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	last      *Result
}

// NewManager returns a manager scanning tree.Root().
func NewManager(tree *resource.Tree, opts Options, logger *slog.Logger) *Manager {
	return &Manager{tree: tree, opts: opts, logger: logging.NewComponentLogger(logger, "scanner")}
}

// Start launches a scan in the background and returns its id.
func (m *Manager) Start(ctx context.Context) (string, error) {
	root := m.tree.Root()
	if root == nil {
		return "", services.Wrap(services.ErrConfiguration, "scanner", "start", "tree has no root", nil)
	}

	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		return "", ErrRunning
	}
	id := uuid.NewString()
	scanner := NewScanner(m.tree, m.opts, m.logger)
	runCtx, cancel := context.WithCancel(services.WithScanID(ctx, id))
	done := make(chan struct{})
	m.current = scanner
	m.scanID = id
	m.startedAt = time.Now()
	m.cancel = cancel
	m.done = done
	started := m.startedAt
	m.mu.Unlock()

	go m.run(runCtx, cancel, scanner, root, id, started, done)
	return id, nil
}

func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, scanner *Scanner, root *resource.Node, id string, started time.Time, done chan struct{}) {
	defer close(done)
	defer cancel()

	logger := logging.WithContext(ctx, m.logger)
	logger.Info("library scan started")
	stats, err := scanner.Run(ctx, root)

	result := &Result{
		ScanID:     id,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Stats:      stats,
		Canceled:   errors.Is(err, services.ErrCanceled),
	}
	switch {
	case err == nil:
		logger.Info("library scan finished",
			logging.Int("containers", stats.Containers),
			logging.Int("leaves", stats.Leaves),
			logging.Int("failures", stats.Failures),
			logging.Duration("elapsed", stats.Duration),
		)
	case result.Canceled:
		logger.Info("library scan stopped",
			logging.Int("containers", stats.Containers),
			logging.Duration("elapsed", stats.Duration),
		)
	default:
		result.Error = err.Error()
		logging.WarnWithContext(logger, "library scan failed", "scan_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "listings refresh lazily on browse"),
		)
	}

	m.mu.Lock()
	m.last = result
	m.current = nil
	m.scanID = ""
	m.cancel = nil
	m.mu.Unlock()
}

// Stop asks the running scan to end at the next sibling boundary. It
// reports whether a scan was running.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return false
	}
	m.current.RequestStop()
	return true
}

// Wait blocks until the running scan, if any, has finished or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the running scan and waits for it.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current state and the last result.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Running: m.current != nil}
	if m.current != nil {
		st.ScanID = m.scanID
		st.StartedAt = m.startedAt
		st.Stopping = m.current.StopRequested()
	}
	if m.last != nil {
		last := *m.last
		st.Last = &last
	}
	return st
}

// RunPeriodic starts a scan every interval until ctx ends. A tick that
// finds a scan still running is skipped.
func (m *Manager) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Start(ctx); err != nil {
				m.logger.Debug("periodic scan skipped", logging.Error(err))
			}
		}
	}
}
