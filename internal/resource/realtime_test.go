package resource

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRealtimeLockYieldWaitsForPlayback(t *testing.T) {
	var lock RealtimeLock
	if err := lock.Yield(context.Background()); err != nil {
		t.Fatalf("idle yield: %v", err)
	}

	release := lock.Acquire()
	second := lock.Acquire()
	if lock.Active() != 2 {
		t.Fatalf("expected 2 sessions, got %d", lock.Active())
	}

	done := make(chan error, 1)
	go func() { done <- lock.Yield(context.Background()) }()

	release()
	release()
	select {
	case <-done:
		t.Fatal("yield returned while a session is still active")
	case <-time.After(20 * time.Millisecond):
	}

	second()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("yield: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("yield did not return after playback ended")
	}
}

func TestRealtimeLockYieldHonoursContext(t *testing.T) {
	var lock RealtimeLock
	release := lock.Acquire()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := lock.Yield(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
