package optical

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"mediatree/internal/config"
)

func watcherFor(device string, onChange ChangeFunc) *Watcher {
	cfg := &config.Config{}
	cfg.Optical.Device = device
	return New(cfg, nil, onChange)
}

func TestNew(t *testing.T) {
	if New(nil, nil, nil) != nil {
		t.Error("expected nil watcher for nil config")
	}
	if watcherFor("  ", nil) != nil {
		t.Error("expected nil watcher without a device")
	}
	w := watcherFor("/dev/sr0", nil)
	if w == nil || w.Device() != "/dev/sr0" {
		t.Fatalf("unexpected watcher %+v", w)
	}
}

func TestNilAndUnstartedWatcherAreSafe(t *testing.T) {
	var nilWatcher *Watcher
	nilWatcher.Stop()
	if nilWatcher.Running() {
		t.Error("nil watcher reports running")
	}
	if err := nilWatcher.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil watcher: %v", err)
	}

	w := watcherFor("/dev/sr0", nil)
	w.Stop()
	w.Stop()
	if w.Running() {
		t.Error("unstarted watcher reports running")
	}
}

func TestBuildMatcher(t *testing.T) {
	matcher := buildMatcher()
	env := func(extra map[string]string) map[string]string {
		out := map[string]string{"SUBSYSTEM": "block", "ID_CDROM": "1"}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}
	cases := []struct {
		name  string
		event netlink.UEvent
		want  bool
	}{
		{"insert", netlink.UEvent{Action: netlink.CHANGE, Env: env(map[string]string{"ID_CDROM_MEDIA": "1"})}, true},
		{"eject", netlink.UEvent{Action: netlink.CHANGE, Env: env(nil)}, true},
		{"add", netlink.UEvent{Action: netlink.ADD, Env: env(nil)}, true},
		{"remove", netlink.UEvent{Action: netlink.REMOVE, Env: env(nil)}, false},
		{"not a cdrom", netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "block"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matcher.Evaluate(tc.event); got != tc.want {
				t.Fatalf("Evaluate = %v want %v", got, tc.want)
			}
		})
	}
}

func TestHandleEvent(t *testing.T) {
	type call struct {
		device   string
		inserted bool
	}
	var calls []call
	w := watcherFor("/dev/sr0", func(_ context.Context, device string, inserted bool) {
		calls = append(calls, call{device, inserted})
	})

	w.handleEvent(context.Background(), netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{}})
	w.handleEvent(context.Background(), netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"DEVNAME": "/dev/sr1"}})
	if len(calls) != 0 {
		t.Fatalf("unexpected calls %v", calls)
	}

	w.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"DEVNAME": "sr0", "ID_CDROM_MEDIA": "1"},
	})
	w.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.CHANGE,
		Env: map[string]string{
			"DEVPATH": "/devices/pci0000:00/0000:00:1f.2/ata1/host0/target0:0:0/0:0:0:0/block/sr0",
		},
	})
	if len(calls) != 2 {
		t.Fatalf("expected two calls, got %v", calls)
	}
	if calls[0] != (call{"/dev/sr0", true}) || calls[1] != (call{"/dev/sr0", false}) {
		t.Fatalf("unexpected calls %v", calls)
	}
}
