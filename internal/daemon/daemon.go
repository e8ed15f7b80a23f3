package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mediatree/internal/archive"
	"mediatree/internal/config"
	"mediatree/internal/library"
	"mediatree/internal/lists"
	"mediatree/internal/logging"
	"mediatree/internal/media"
	"mediatree/internal/metacache"
	"mediatree/internal/optical"
	"mediatree/internal/preflight"
	"mediatree/internal/registry"
	"mediatree/internal/resource"
	"mediatree/internal/scan"
	"mediatree/internal/services"
	"mediatree/internal/transcode"
)

// HistoryName is the display name of the playback history folder.
const HistoryName = "History"

// Daemon owns the resource tree and its background services and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	cache   *metacache.Store
	prober  media.Prober
	tree    *resource.Tree
	lists   *lists.Store
	history *lists.Folder
	scans   *scan.Manager
	optical *optical.Watcher
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option customizes daemon construction.
type Option func(*Daemon)

// WithProber replaces the ffprobe-backed prober.
func WithProber(p media.Prober) Option {
	return func(d *Daemon) {
		d.prober = p
	}
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	LockFilePath   string
	CacheDBPath    string
	ListsDir       string
	Nodes          int
	Tombstones     int
	ActivePlayback int
	Scan           scan.Status
	Disc           *preflight.DiscProbe
	Checks         []preflight.Result
}

// New constructs a daemon with initialized dependencies. The returned daemon
// owns the metadata cache; Close releases it.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "prepare directories", "", err)
	}
	cache, err := metacache.Open(cfg.CacheDBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		cache:    cache,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.prober == nil {
		ffprobe := media.NewFFprobe(cfg.FFprobeBinary(), cfg.ProbeTimeout(), media.FileTagReader{}, logger)
		d.prober = media.NewCachedProber(cache, ffprobe, logger)
	}
	d.buildTree(logger)
	d.scans = scan.NewManager(d.tree, scan.Options{Skip: skipDuringScan}, logger)
	d.optical = optical.New(cfg, logger, d.handleMediaChange)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

func (d *Daemon) buildTree(logger *slog.Logger) {
	cfg := d.cfg
	d.tree = resource.NewTree(registry.New(logger), logger)

	engines := transcode.EnginesFromConfig(cfg.Transcode.Engines)
	generator := transcode.NewGenerator(d.tree, transcode.NewRuleOracle(engines), transcode.Options{
		ChapterInterval:          cfg.ChapterInterval(),
		RendererStreamsSubtitles: cfg.Transcode.RendererStreamsSubtitles,
		RendererSubtitleFormats:  cfg.Transcode.RendererSubtitleFormats,
	}, logger)
	lib := library.New(library.OptionsFromConfig(cfg), d.prober, generator, logger)

	d.lists = lists.NewStore(cfg.Paths.ListsDir, 0, logger)
	d.history = lists.NewFolder(d.lists, lists.HistoryName, logger,
		lib.ListFactory(),
		archive.ListFactory(archive.Options{
			Extensions: cfg.ExtensionSet(),
			SeekMax:    cfg.ArchiveSeekMaxBytes(),
			Logger:     logger,
		}),
	)
	root := library.NewRoot(lib, cfg.Paths.SharedFolders, cfg.Optical.MountPoint, func(tree *resource.Tree) *resource.Node {
		return d.history.NewNode(tree, HistoryName)
	})
	d.tree.SetRoot(root, library.RootName)
}

// skipDuringScan keeps the scanner out of synthetic containers whose
// discovery derives nodes instead of reading the library.
func skipDuringScan(n *resource.Node) bool {
	switch n.Provider().(type) {
	case *transcode.Folder, *transcode.ChapterFolder, *lists.Folder:
		return true
	}
	return false
}

// Start acquires the daemon lock and launches the API, the optical watcher,
// and scheduled scans.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediatree daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, failed := range preflight.Failed(preflight.RunAll(runCtx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "affected content may be missing from the tree"),
			logging.String(logging.FieldErrorHint, "run mediatree check for details"),
		)
	}

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}
	if err := d.optical.Start(runCtx); err != nil {
		logging.WarnWithContext(d.logger, "optical watcher unavailable", "optical_watcher_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "disc changes are only noticed on refresh"),
		)
	}

	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.mu.Unlock()
	d.running.Store(true)

	if d.cfg.Scan.OnStartup {
		if _, err := d.scans.Start(runCtx); err != nil {
			d.logger.Warn("startup scan not started", logging.Error(err))
		}
	}
	if interval := d.cfg.ScanInterval(); interval > 0 {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.scans.RunPeriodic(runCtx, interval)
		}()
	}

	d.logger.Info("mediatree daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("shared_folders", len(d.cfg.Paths.SharedFolders)),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel := d.cancel
	d.ctx, d.cancel = nil, nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.api.stop()
	d.optical.Stop()
	d.scans.Close()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("mediatree daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.cache != nil {
		return d.cache.Close()
	}
	return nil
}

// Tree returns the resource tree.
func (d *Daemon) Tree() *resource.Tree { return d.tree }

// Scans returns the scan manager.
func (d *Daemon) Scans() *scan.Manager { return d.scans }

// Lists returns the persisted list store.
func (d *Daemon) Lists() *lists.Store { return d.lists }

// APIAddress returns the address the API listens on, empty when it is not
// serving.
func (d *Daemon) APIAddress() string { return d.api.address() }

// StartScan launches a scan that outlives the calling request.
func (d *Daemon) StartScan() (string, error) {
	return d.scans.Start(d.baseContext())
}

// RecordPlayback appends n to the history list.
func (d *Daemon) RecordPlayback(n *resource.Node, player string) error {
	return d.history.Record(n, player)
}

// Status returns the current runtime state and fresh preflight results.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		LockFilePath:   d.lockPath,
		CacheDBPath:    d.cache.Path(),
		ListsDir:       d.lists.Dir(),
		Nodes:          d.tree.Registry().Len(),
		Tombstones:     d.tree.Registry().Tombstones(),
		ActivePlayback: d.tree.Realtime().Active(),
		Scan:           d.scans.Status(),
		Checks:         preflight.RunAll(ctx, d.cfg),
	}
	if device := d.optical.Device(); device != "" {
		probe := preflight.ProbeDisc(ctx, device)
		status.Disc = &probe
	}
	return status
}

func (d *Daemon) handleMediaChange(ctx context.Context, device string, inserted bool) {
	logger := logging.WithContext(ctx, d.logger)
	disc := library.FindByPath(d.tree.Root(), d.cfg.Optical.MountPoint)
	if disc == nil {
		logger.Debug("optical folder not listed yet", logging.String("device", device))
		return
	}
	disc.Invalidate()
	logger.Info("optical media changed",
		logging.String(logging.FieldEventType, "optical_media_changed"),
		logging.String("device", device),
		logging.Bool("inserted", inserted),
		logging.NodeID(disc.ID()),
	)
}

func (d *Daemon) baseContext() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}
