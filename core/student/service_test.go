package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
	"github.com/trezcool/bursar/core/student"
	eventsvc "github.com/trezcool/bursar/services/events"
	inmemdb "github.com/trezcool/bursar/storage/database/inmem"
)

var validate, _ = core.NewValidator()

func newService() (*student.Service, *eventsvc.LogPublisher) {
	events := eventsvc.NewLogPublisher(nil)
	return student.NewService(inmemdb.NewStudentRepository(inmemdb.Open()), events, nil), events
}

func enroll(t *testing.T, svc *student.Service, name string, fee int64, admission core.Date) student.Student {
	t.Helper()
	s, err := svc.Create(context.Background(), student.NewStudent{
		Name:          name,
		Class:         "5",
		RollNumber:    "12",
		MonthlyFee:    decimal.NewFromInt(fee),
		AdmissionDate: admission,
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return s
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, events := newService()
	year := time.Now().UTC().Year()
	admission := core.NewDate(time.Date(year, time.April, 10, 0, 0, 0, 0, time.UTC))

	s := enroll(t, svc, "Ali", 1000, admission)
	if s.ID == "" || s.Status != roster.StatusActive {
		t.Errorf("Create() = %+v; want an active student with an id", s)
	}
	assert.Equal(t, []int{year}, s.Ledger.Years())

	l := s.FeeLedger(year)
	if !l.Month(time.March).Amount.IsZero() || !l.Month(time.April).Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("seeded ledger March, April = %s, %s; want 0, 1000", l.Month(time.March).Amount, l.Month(time.April).Amount)
	}

	_, err := svc.Create(ctx, student.NewStudent{Name: "Ali", Class: "5", RollNumber: "12"})
	if !core.IsConflict(err) {
		t.Errorf("Create() duplicate error = %v; want a conflict", err)
	}
	if got := events.Events(); len(got) != 1 || got[0].Action != "created" || got[0].EntityID != s.ID {
		t.Errorf("events = %+v; want one created event", got)
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	year := time.Now().UTC().Year()
	s := enroll(t, svc, "Ali", 500, core.NewDate(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)))
	other := enroll(t, svc, "Sara", 500, core.Date{})

	// mark January paid
	l := s.FeeLedger(year)
	jan := l.Month(time.January)
	jan.Paid = true
	l.SetMonth(time.January, jan)
	if _, err := svc.SaveLedger(ctx, s.ID, year, l); err != nil {
		t.Fatalf("SaveLedger() error = %v", err)
	}

	fee := decimal.NewFromInt(700)
	us := student.UpdateStudent{MonthlyFee: &fee}
	if err := us.Validate(s, validate); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	updated, err := svc.Update(ctx, s.ID, us)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got := updated.FeeLedger(year)
	if !got.Month(time.January).Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("paid January = %s; want 500 kept", got.Month(time.January).Amount)
	}
	if !got.Month(time.February).Amount.Equal(fee) {
		t.Errorf("unpaid February = %s; want 700", got.Month(time.February).Amount)
	}
	if stored, _ := svc.GetByID(ctx, s.ID); !stored.FeeLedger(year).Month(time.February).Amount.Equal(fee) {
		t.Error("backfilled ledger not saved")
	}

	// taking another student's identity is refused
	clash := student.UpdateStudent{Name: other.Name}
	_ = clash.Validate(s, validate)
	if _, err = svc.Update(ctx, s.ID, clash); !core.IsConflict(err) {
		t.Errorf("Update() to a duplicate identity error = %v; want a conflict", err)
	}
}

func TestService_MarkLeftAndReactivate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	s := enroll(t, svc, "Ali", 1000, core.Date{})

	if _, err := svc.MarkLeft(ctx, s.ID, time.Time{}); err == nil {
		t.Error("MarkLeft() without a date succeeded")
	}
	left := time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)
	got, err := svc.MarkLeft(ctx, s.ID, left)
	if err != nil {
		t.Fatalf("MarkLeft() error = %v", err)
	}
	if got.Status != roster.StatusLeft || got.LeftDate == nil || !got.LeftDate.Equal(left) {
		t.Errorf("MarkLeft() = %v, %v; want left on %v", got.Status, got.LeftDate, left)
	}

	if got, err = svc.Reactivate(ctx, s.ID); err != nil {
		t.Fatalf("Reactivate() error = %v", err)
	}
	if got.Status != roster.StatusActive || got.LeftDate != nil {
		t.Errorf("Reactivate() = %v, %v; want active without leaving date", got.Status, got.LeftDate)
	}

	if _, err = svc.MarkLeft(ctx, "missing", left); err != student.ErrNotFound {
		t.Errorf("MarkLeft() of a missing student error = %v; want ErrNotFound", err)
	}
}

func TestService_SaveLedger(t *testing.T) {
	ctx := context.Background()
	svc, events := newService()
	s := enroll(t, svc, "Ali", 1000, core.Date{})

	bad := ledger.Default(student.Kind, decimal.NewFromInt(1000))
	bad.Additional.Adjustment = decimal.NewFromInt(-1)
	err := errors.Cause(func() error { _, err := svc.SaveLedger(ctx, s.ID, 2024, bad); return err }())
	verr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("SaveLedger() negative fine error = %v; want a validation error", err)
	}
	assert.Equal(t, "Additional.fine", verr.Fields[0].Field)

	// an unsaved year resolves to the same synthesized ledger every time
	first, _ := svc.Ledger(ctx, s.ID, 2030)
	second, _ := svc.Ledger(ctx, s.ID, 2030)
	assert.Equal(t, first, second)

	good := ledger.Default(student.Kind, decimal.NewFromInt(1200))
	if _, err = svc.SaveLedger(ctx, s.ID, 2030, good); err != nil {
		t.Fatalf("SaveLedger() error = %v", err)
	}
	saved, _ := svc.Ledger(ctx, s.ID, 2030)
	if !saved.Month(time.June).Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("saved June = %s; want 1200", saved.Month(time.June).Amount)
	}

	all := events.Events()
	last := all[len(all)-1]
	if last.Name != core.EventLedgerSaved || last.Year != 2030 {
		t.Errorf("last event = %+v; want ledger.saved for 2030", last)
	}
}
