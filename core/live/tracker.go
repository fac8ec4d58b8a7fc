// Package live keeps in-memory snapshots of the stored collections up to date
// and recomputes what depends on them whenever the store reports a change.
package live

import (
	"context"
	"sync"
)

// Tracker follows the first load of a set of feeds. It is loaded once every
// registered feed either delivered a snapshot or failed: a failing feed never
// holds the others back.
type Tracker struct {
	mu       sync.Mutex
	pending  map[string]bool
	failures map[string]error
	done     chan struct{}
	closed   bool
}

func NewTracker() *Tracker {
	return &Tracker{
		pending:  make(map[string]bool),
		failures: make(map[string]error),
		done:     make(chan struct{}),
	}
}

// Register adds a feed to wait for. Feeds must be registered before any settles.
func (t *Tracker) Register(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.pending[name] = true
	}
}

// Settle records the outcome of the first load of name. Later calls are ignored.
func (t *Tracker) Settle(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pending[name] {
		return
	}
	delete(t.pending, name)
	if err != nil {
		t.failures[name] = err
	}
	if len(t.pending) == 0 && !t.closed {
		t.closed = true
		close(t.done)
	}
}

// Loaded reports whether every registered feed settled.
func (t *Tracker) Loaded() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed once loaded.
func (t *Tracker) Done() <-chan struct{} { return t.done }

// Wait blocks until loaded or until ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failures returns the feeds whose first load failed.
func (t *Tracker) Failures() map[string]error {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]error, len(t.failures))
	for name, err := range t.failures {
		out[name] = err
	}
	return out
}
