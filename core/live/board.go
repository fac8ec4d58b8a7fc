package live

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
)

// Sources load the collections a Board follows.
type Sources struct {
	Students Loader[student.Student]
	Staff    Loader[staff.Staff]
	Expenses Loader[expense.Expense]
}

// Board follows students, staff and expenses and recomputes the dashboard
// from their latest snapshots.
type Board struct {
	Students *Feed[student.Student]
	Staff    *Feed[staff.Staff]
	Expenses *Feed[expense.Expense]

	tracker *Tracker
}

func NewBoard(src Sources, watcher Watcher, logger core.Logger) *Board {
	tracker := NewTracker()
	return &Board{
		Students: NewFeed(Students, src.Students, watcher, tracker, logger),
		Staff:    NewFeed(Staff, src.Staff, watcher, tracker, logger),
		Expenses: NewFeed(Expenses, src.Expenses, watcher, tracker, logger),
		tracker:  tracker,
	}
}

// Run runs every feed until ctx is done. Feeds fail independently.
func (b *Board) Run(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return b.Students.Run(ctx) })
	g.Go(func() error { return b.Staff.Run(ctx) })
	g.Go(func() error { return b.Expenses.Run(ctx) })
	return g.Wait()
}

func (b *Board) Tracker() *Tracker { return b.tracker }

// Loaded reports whether every feed settled its first load.
func (b *Board) Loaded() bool { return b.tracker.Loaded() }

// Dashboard computes the dashboard from the latest snapshots.
func (b *Board) Dashboard(f projection.FilterState) projection.DashboardStats {
	students, _ := b.Students.Snapshot()
	staffList, _ := b.Staff.Snapshot()
	expenses, _ := b.Expenses.Snapshot()
	return projection.Dashboard(students, staffList, expenses, f)
}

// Subscribe returns a channel signalled whenever any feed has a new snapshot.
func (b *Board) Subscribe() (<-chan struct{}, func()) {
	out := make(chan struct{}, 1)
	done := make(chan struct{})

	students, stopStudents := b.Students.Subscribe()
	staffCh, stopStaff := b.Staff.Subscribe()
	expenses, stopExpenses := b.Expenses.Subscribe()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-students:
			case <-staffCh:
			case <-expenses:
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			stopStudents()
			stopStaff()
			stopExpenses()
			close(done)
		})
	}
}

// Stream calls send with the dashboard once the first load settled, then
// again after every change, until ctx is done or send fails.
func (b *Board) Stream(ctx context.Context, f projection.FilterState, send func(projection.DashboardStats) error) error {
	changes, stop := b.Subscribe()
	defer stop()

	if b.tracker.Wait(ctx) != nil {
		return nil // gone before the first load
	}
	if err := send(b.Dashboard(f)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := send(b.Dashboard(f)); err != nil {
				return err
			}
		}
	}
}
