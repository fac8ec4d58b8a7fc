// Package inmemdb keeps every collection in memory. It backs tests and the
// API when no database is configured, and reports changes like the SQL store does.
package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/live"
	"github.com/trezcool/bursar/core/slip"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/core/user"
)

type (
	DB struct {
		users    *table[user.User]
		students *table[student.Student]
		staff    *table[staff.Staff]
		expenses *table[expense.Expense]
		slips    *table[slip.Slip]

		watchMu  sync.Mutex
		watchers map[string]map[chan struct{}]struct{}
	}

	// table keeps rows by id, in insertion order.
	table[T any] struct {
		sync.RWMutex
		rows  map[string]T
		order []string
	}
)

var _ live.Watcher = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		users:    newTable[user.User](),
		students: newTable[student.Student](),
		staff:    newTable[staff.Staff](),
		expenses: newTable[expense.Expense](),
		slips:    newTable[slip.Slip](),
		watchers: make(map[string]map[chan struct{}]struct{}),
	}
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) insert(id string, row T) {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) get(id string) (T, bool) {
	t.RLock()
	defer t.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// update replaces the row of id with fn's result. It reports false when there is no such row.
func (t *table[T]) update(id string, fn func(T) T) bool {
	t.Lock()
	defer t.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return false
	}
	t.rows[id] = fn(row)
	return true
}

func (t *table[T]) remove(id string) bool {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// all returns the rows kept by keep (every row when keep is nil), in insertion order.
func (t *table[T]) all(keep func(T) bool) []T {
	t.RLock()
	defer t.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		if row := t.rows[id]; keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T]) find(match func(T) bool) (T, bool) {
	t.RLock()
	defer t.RUnlock()
	for _, id := range t.order {
		if row := t.rows[id]; match(row) {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Watch signals every write to collection until ctx is done.
func (db *DB) Watch(ctx context.Context, collection string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	db.watchMu.Lock()
	if db.watchers[collection] == nil {
		db.watchers[collection] = make(map[chan struct{}]struct{})
	}
	db.watchers[collection][ch] = struct{}{}
	db.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		db.watchMu.Lock()
		delete(db.watchers[collection], ch)
		close(ch)
		db.watchMu.Unlock()
	}()
	return ch, nil
}

func (db *DB) notify(collections ...string) {
	db.watchMu.Lock()
	defer db.watchMu.Unlock()
	for _, c := range collections {
		for ch := range db.watchers[c] {
			select {
			case ch <- struct{}{}:
			default: // already pending
			}
		}
	}
}
