package live

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
)

// Collections a Watcher reports changes for.
const (
	Students = "students"
	Staff    = "staff"
	Expenses = "expenses"
	Slips    = "slips"
)

// Watcher notifies changes to a stored collection. The channel is closed once
// ctx is done; notifications may be coalesced.
type Watcher interface {
	Watch(ctx context.Context, collection string) (<-chan struct{}, error)
}

// Loader reads a whole collection.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Feed holds the latest snapshot of a collection. It loads once on Run, then
// again on every change the Watcher reports. Failed loads are logged and leave
// the previous snapshot in place; nothing is retried until the next change.
type Feed[T any] struct {
	name    string
	load    Loader[T]
	watcher Watcher
	logger  core.Logger
	tracker *Tracker

	mu       sync.RWMutex
	snapshot []T
	loaded   bool
	err      error
	subs     map[chan struct{}]struct{}
}

// NewFeed builds a feed named after its collection. A nil tracker is allowed.
func NewFeed[T any](collection string, load Loader[T], watcher Watcher, tracker *Tracker, logger core.Logger) *Feed[T] {
	if tracker != nil {
		tracker.Register(collection)
	}
	return &Feed[T]{
		name:    collection,
		load:    load,
		watcher: watcher,
		logger:  logger,
		tracker: tracker,
		subs:    make(map[chan struct{}]struct{}),
	}
}

func (f *Feed[T]) Name() string { return f.name }

// Run loads the collection then follows its changes until ctx is done.
// Load and watch failures are logged, never returned: a feed that cannot
// watch keeps its first snapshot until ctx is done.
func (f *Feed[T]) Run(ctx context.Context) error {
	var changes <-chan struct{} // nil never fires
	if f.watcher != nil {
		ch, err := f.watcher.Watch(ctx, f.name)
		if err != nil {
			err = errors.Wrapf(err, "watching %s", f.name)
			if f.logger != nil {
				f.logger.Error(err.Error(), err)
			}
		} else {
			changes = ch
		}
	}

	f.settle(f.Reload(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			_ = f.Reload(ctx)
		}
	}
}

func (f *Feed[T]) settle(err error) {
	if f.tracker != nil {
		f.tracker.Settle(f.name, err)
	}
}

// Reload replaces the snapshot with a fresh load and notifies subscribers.
func (f *Feed[T]) Reload(ctx context.Context) error {
	items, err := f.load(ctx)
	if err != nil {
		err = errors.Wrapf(err, "loading %s", f.name)
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		if f.logger != nil {
			f.logger.Error(err.Error(), err)
		}
		return err
	}

	f.mu.Lock()
	f.snapshot = items
	f.loaded = true
	f.err = nil
	for ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default: // already pending
		}
	}
	f.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the latest items and whether any load succeeded yet.
func (f *Feed[T]) Snapshot() ([]T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]T, len(f.snapshot))
	copy(out, f.snapshot)
	return out, f.loaded
}

// Err returns the error of the last load, if it failed.
func (f *Feed[T]) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.err
}

// Subscribe returns a channel signalled after every new snapshot, and a func to stop.
func (f *Feed[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
		})
	}
}
