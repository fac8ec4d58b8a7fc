package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
)

type fakeWatcher struct {
	mu    sync.Mutex
	chans map[string]chan struct{}
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{chans: make(map[string]chan struct{})}
}

func (w *fakeWatcher) Watch(_ context.Context, collection string) (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(chan struct{}, 1)
	w.chans[collection] = ch
	return ch, nil
}

func (w *fakeWatcher) notify(collection string) {
	w.mu.Lock()
	ch := w.chans[collection]
	w.mu.Unlock()
	ch <- struct{}{}
}

// store is a loader over a mutable slice.
type store[T any] struct {
	mu    sync.Mutex
	items []T
	err   error
}

func (s *store[T]) set(items ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *store[T]) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *store[T]) load(context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]T(nil), s.items...), nil
}

func expenseOf(cost int64) expense.Expense {
	return expense.Expense{Cost: decimal.NewFromInt(cost), Date: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Register("a")
	tr.Register("b")

	tr.Settle("a", nil)
	if tr.Loaded() {
		t.Fatal("Loaded() = true with b pending")
	}
	tr.Settle("b", errors.New("boom"))
	if !tr.Loaded() {
		t.Fatal("Loaded() = false once every feed settled")
	}
	tr.Settle("b", nil)
	tr.Settle("unknown", nil)

	failures := tr.Failures()
	if len(failures) != 1 || failures["b"] == nil {
		t.Errorf("Failures() = %v; want b only", failures)
	}
	if err := tr.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := newFakeWatcher()
	tr := NewTracker()
	src := &store[expense.Expense]{}
	src.set(expenseOf(100))
	feed := NewFeed(Expenses, src.load, watcher, tr, nil)

	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()
	waitFor(t, tr.Done())

	items, loaded := feed.Snapshot()
	if !loaded || len(items) != 1 {
		t.Fatalf("Snapshot() = %v, %v; want 1 item, loaded", items, loaded)
	}

	changes, stop := feed.Subscribe()
	defer stop()
	src.set(expenseOf(100), expenseOf(200))
	watcher.notify(Expenses)
	waitFor(t, changes)
	if items, _ = feed.Snapshot(); len(items) != 2 {
		t.Errorf("Snapshot() after change = %d items; want 2", len(items))
	}

	// a failed reload keeps the last snapshot
	src.fail(errors.New("unavailable"))
	if err := feed.Reload(ctx); err == nil || feed.Err() == nil {
		t.Errorf("Reload() error = %v; want the load error", err)
	}
	if items, _ = feed.Snapshot(); len(items) != 2 {
		t.Errorf("Snapshot() after failure = %d items; want 2", len(items))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop with its context")
	}
}

func TestBoard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := newFakeWatcher()
	students := &store[student.Student]{}
	staffStore := &store[staff.Staff]{err: errors.New("permission denied")}
	expenses := &store[expense.Expense]{}
	expenses.set(expenseOf(5000))

	board := NewBoard(Sources{Students: students.load, Staff: staffStore.load, Expenses: expenses.load}, watcher, nil)
	go func() { _ = board.Run(ctx) }()

	f := projection.DefaultFilter(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	f.Month = time.March

	got := make(chan projection.DashboardStats, 4)
	streamCtx, stopStream := context.WithCancel(ctx)
	defer stopStream()
	go func() {
		_ = board.Stream(streamCtx, f, func(d projection.DashboardStats) error {
			select {
			case got <- d:
			case <-streamCtx.Done():
			}
			return nil
		})
	}()

	recv := func() projection.DashboardStats {
		t.Helper()
		select {
		case d := <-got:
			return d
		case <-time.After(2 * time.Second):
			t.Fatal("no dashboard received")
			return projection.DashboardStats{}
		}
	}

	// the failing staff feed does not hold the board back
	first := recv()
	if !board.Loaded() {
		t.Error("Loaded() = false after the first dashboard")
	}
	if _, ok := board.Tracker().Failures()[Staff]; !ok {
		t.Errorf("Failures() = %v; want staff", board.Tracker().Failures())
	}
	if !first.TotalExpenses.Equal(decimal.NewFromInt(5000)) || !first.NetProfit.Equal(decimal.NewFromInt(-5000)) {
		t.Errorf("first dashboard expenses, net = %s, %s; want 5000, -5000", first.TotalExpenses, first.NetProfit)
	}

	expenses.set(expenseOf(5000), expenseOf(1000))
	watcher.notify(Expenses)
	// the first loads may still be signalled: skip dashboards computed before the change
	for {
		if d := recv(); d.TotalExpenses.Equal(decimal.NewFromInt(6000)) {
			break
		}
	}
}

// failingWatcher refuses to watch one collection.
type failingWatcher struct {
	*fakeWatcher
	broken string
}

func (w failingWatcher) Watch(ctx context.Context, collection string) (<-chan struct{}, error) {
	if collection == w.broken {
		return nil, errors.New(collection + " LISTEN failed")
	}
	return w.fakeWatcher.Watch(ctx, collection)
}

func TestBoard_watchFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := failingWatcher{fakeWatcher: newFakeWatcher(), broken: Staff}
	students := &store[student.Student]{}
	staffStore := &store[staff.Staff]{}
	staffStore.set(staff.Staff{}, staff.Staff{})
	expenses := &store[expense.Expense]{}
	expenses.set(expenseOf(100))

	board := NewBoard(Sources{Students: students.load, Staff: staffStore.load, Expenses: expenses.load}, watcher, nil)
	done := make(chan error, 1)
	go func() { done <- board.Run(ctx) }()
	waitFor(t, board.Tracker().Done())

	// the feed that cannot watch still loads once
	if items, loaded := board.Staff.Snapshot(); !loaded || len(items) != 2 {
		t.Errorf("staff Snapshot() = %d items, %v; want 2, loaded", len(items), loaded)
	}
	if failures := board.Tracker().Failures(); len(failures) != 0 {
		t.Errorf("Failures() = %v; want none", failures)
	}

	// the other feeds keep following changes
	changes, stop := board.Expenses.Subscribe()
	defer stop()
	expenses.set(expenseOf(100), expenseOf(200))
	watcher.notify(Expenses)
	waitFor(t, changes)
	if items, _ := board.Expenses.Snapshot(); len(items) != 2 {
		t.Errorf("expenses Snapshot() after change = %d items; want 2", len(items))
	}

	select {
	case err := <-done:
		t.Fatalf("Run() returned early: %v", err)
	default:
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop with its context")
	}
}
