package optical

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"mediatree/internal/config"
	"mediatree/internal/logging"
)

// ChangeFunc is called when media in the watched drive changes.
type ChangeFunc func(ctx context.Context, device string, inserted bool)

// Watcher listens for udev netlink events on one optical drive.
type Watcher struct {
	logger   *slog.Logger
	onChange ChangeFunc
	device   string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// New returns a watcher for the configured drive, or nil when no drive is
// configured.
func New(cfg *config.Config, logger *slog.Logger, onChange ChangeFunc) *Watcher {
	if cfg == nil {
		return nil
	}
	device := strings.TrimSpace(cfg.Optical.Device)
	if device == "" {
		return nil
	}
	return &Watcher{
		logger:   logging.NewComponentLogger(logger, "optical"),
		onChange: onChange,
		device:   device,
	}
}

// Device returns the watched device node.
func (w *Watcher) Device() string {
	if w == nil {
		return ""
	}
	return w.device
}

// Start begins listening. A netlink connection failure is logged and
// tolerated; the disc folder then only refreshes through its mtime checks.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(w.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "disc changes are noticed on the next scan only"),
		)
		return nil
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.loop(ctx, conn, quit)

	w.logger.Info("optical watcher started",
		logging.String(logging.FieldEventType, "optical_watcher_started"),
		logging.String("device", w.device),
	)
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false

	w.logger.Info("optical watcher stopped",
		logging.String(logging.FieldEventType, "optical_watcher_stopped"),
	)
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(w.logger, "netlink watcher error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "disc changes may be missed"),
			)
		}
	}
}

// buildMatcher accepts media change and add events of optical block devices,
// with or without media present, so ejects are reported too.
func buildMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"ID_CDROM":  "1",
		},
	})
	return rules
}

func (w *Watcher) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := deviceName(uevent)
	if devname == "" {
		w.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if devname != w.device {
		w.logger.Debug("ignoring event for other device",
			logging.String("device", devname),
			logging.String("configured_device", w.device),
		)
		return
	}

	inserted := uevent.Env["ID_CDROM_MEDIA"] == "1"
	w.logger.Info("optical media changed",
		logging.String(logging.FieldEventType, "optical_media_changed"),
		logging.String("device", devname),
		logging.Bool("media_present", inserted),
	)
	if w.onChange != nil {
		w.onChange(ctx, devname, inserted)
	}
}

func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
