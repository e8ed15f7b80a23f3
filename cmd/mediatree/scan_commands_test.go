package main

import (
	"context"
	"testing"
	"time"

	"mediatree/internal/testsupport"
)

func TestScanStartAndStatus(t *testing.T) {
	env := setupCLITestEnv(t, true)
	testsupport.WriteTree(t, testsupport.SharedFolder(env.cfg), "a/one.mkv", "b/two.mp3")

	out, err := env.run(t, "scan", "status")
	if err != nil {
		t.Fatalf("scan status: %v", err)
	}
	requireContains(t, out, "idle")

	out, err = env.run(t, "scan", "start")
	if err != nil {
		t.Fatalf("scan start: %v", err)
	}
	requireContains(t, out, "started")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.daemon.Scans().Wait(ctx); err != nil {
		t.Fatalf("wait for scan: %v", err)
	}

	out, err = env.run(t, "scan", "status")
	if err != nil {
		t.Fatalf("scan status: %v", err)
	}
	requireContains(t, out, "finished")
	requireContains(t, out, "2 leaves")

	out, err = env.run(t, "scan", "stop")
	if err != nil {
		t.Fatalf("scan stop: %v", err)
	}
	requireContains(t, out, "No scan running")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running")
	requireContains(t, out, env.cfg.CacheDBPath())
	requireContains(t, out, "FFprobe")
}
