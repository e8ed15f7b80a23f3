package resource

import (
	"context"
	"sync"
)

// RealtimeLock gives playback priority over background scanning. Playback
// sessions hold it with Acquire; the scanner calls Yield between nodes and
// waits until no session is active. Sessions never wait on the scanner.
type RealtimeLock struct {
	mu     sync.Mutex
	active int
	idle   chan struct{}
}

// Acquire marks a playback session active until the returned release runs.
func (l *RealtimeLock) Acquire() (release func()) {
	l.mu.Lock()
	l.active++
	if l.active == 1 {
		l.idle = make(chan struct{})
	}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.active--
			if l.active == 0 {
				close(l.idle)
			}
			l.mu.Unlock()
		})
	}
}

// Yield blocks until no playback session is active or ctx ends.
func (l *RealtimeLock) Yield(ctx context.Context) error {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		return nil
	}
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of running playback sessions.
func (l *RealtimeLock) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}
