package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"mediatree/internal/config"
	"mediatree/internal/daemon"
	"mediatree/internal/logging"
	"mediatree/internal/preflight"
)

// PIDFileName is written inside the log directory while the daemon runs.
const PIDFileName = "mediatree.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the mediatree daemon and blocks until the context ends or the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(signalCtx, logger, cfg)
	pidPath := filepath.Join(cfg.Paths.LogDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running instance and the api_bind address"),
			logging.String(logging.FieldImpact, "library is not served"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("mediatree daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	attrs := []any{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Int("shared_folders", len(cfg.Paths.SharedFolders)),
		logging.Bool("optical_watch", cfg.Optical.Device != ""),
		logging.Int("engines", len(cfg.Transcode.Engines)),
	}
	for _, status := range preflight.CheckSystemDeps(ctx, cfg) {
		attrs = append(attrs,
			logging.Bool(status.Command+"_available", status.Available),
			logging.String(status.Command+"_binary", status.Path),
		)
	}
	logger.Info("dependency snapshot", attrs...)
}
