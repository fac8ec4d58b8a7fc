package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
)

var (
	// errors
	ErrNotFound  = errors.New("student not found")
	ErrDuplicate = errors.New("a student with this name, class and roll number already exists")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryStudents(ctx context.Context) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// FindStudent looks a student up by its identity fields, returning ErrNotFound when none matches.
		FindStudent(ctx context.Context, name, class, roll string) (Student, error)
		// UpdateStudent saves the record along with the ledger of each of the given years.
		UpdateStudent(ctx context.Context, s Student, years ...int) (Student, error)
		SaveStudentLedger(ctx context.Context, id string, year int, l ledger.YearLedger) error
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		events  core.EventPublisher
		logger  core.Logger
		nowFunc func() time.Time
	}
)

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (svc *Service) publish(ctx context.Context, name, action, id string, year int) {
	core.PublishQuietly(ctx, svc.events, svc.logger, core.Event{
		Name:       name,
		EntityKind: "student",
		EntityID:   id,
		Action:     action,
		Year:       year,
	})
}

// checkDuplicate fails with a ConflictError when another student has the same identity.
func (svc *Service) checkDuplicate(ctx context.Context, name, class, roll string, excludedID string) error {
	found, err := svc.repo.FindStudent(ctx, name, class, roll)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "checking duplicate student")
	}
	if found.ID == excludedID {
		return nil
	}
	return core.NewConflictError(ErrDuplicate)
}

// Create enrolls a student: status active, admission today unless given,
// and a fee ledger seeded for the current year.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkDuplicate(ctx, ns.Name, ns.Class, ns.RollNumber, ""); err != nil {
		return Student{}, err
	}

	now := svc.nowFunc().UTC()
	joined := now
	if !ns.AdmissionDate.IsZero() {
		joined = ns.AdmissionDate.Time
	}
	s := Student{
		Member: roster.Member{
			Name:       ns.Name,
			Status:     roster.StatusActive,
			JoinedAt:   joined,
			BaseAmount: ns.MonthlyFee,
			Ledger:     roster.Seed(Kind, ns.MonthlyFee, joined, now),
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Class:         ns.Class,
		RollNumber:    ns.RollNumber,
		GuardianEmail: ns.GuardianEmail,
	}
	s, err := svc.repo.CreateStudent(ctx, s)
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	svc.publish(ctx, core.EventEntityChanged, "created", s.ID, 0)
	return s, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// Update changes the identity fields of a student. A new monthly fee is
// carried to the unpaid months of every saved year.
func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = svc.checkDuplicate(ctx, us.Name, us.Class, us.RollNumber, s.ID); err != nil {
		return Student{}, err
	}

	s.Name = us.Name
	s.Class = us.Class
	s.RollNumber = us.RollNumber
	s.GuardianEmail = us.GuardianEmail
	if us.AdmissionDate != nil && !us.AdmissionDate.IsZero() {
		s.JoinedAt = us.AdmissionDate.Time
	}
	var years []int
	if us.MonthlyFee != nil {
		years = roster.Rebase(&s.Member, *us.MonthlyFee)
	}
	s.UpdatedAt = svc.nowFunc().UTC()

	if s, err = svc.repo.UpdateStudent(ctx, s, years...); err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	svc.publish(ctx, core.EventEntityChanged, "updated", s.ID, 0)
	return s, nil
}

// MarkLeft records that a student left on date.
func (svc *Service) MarkLeft(ctx context.Context, id string, date time.Time) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = roster.MarkLeft(&s.Member, date); err != nil {
		return Student{}, err
	}
	if s, err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return Student{}, errors.Wrap(err, "marking student as left")
	}
	svc.publish(ctx, core.EventEntityChanged, "left", s.ID, 0)
	return s, nil
}

// Reactivate brings a student who left back to active.
func (svc *Service) Reactivate(ctx context.Context, id string) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	roster.Reactivate(&s.Member)
	if s, err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return Student{}, errors.Wrap(err, "reactivating student")
	}
	svc.publish(ctx, core.EventEntityChanged, "reactivated", s.ID, 0)
	return s, nil
}

// Ledger resolves the fee ledger of a student for year.
func (svc *Service) Ledger(ctx context.Context, id string, year int) (ledger.YearLedger, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return ledger.YearLedger{}, err
	}
	return s.FeeLedger(year), nil
}

// SaveLedger replaces the whole fee ledger of year. Last write wins.
func (svc *Service) SaveLedger(ctx context.Context, id string, year int, l ledger.YearLedger) (ledger.YearLedger, error) {
	l.Kind = Kind
	if err := roster.ValidateLedger(year, l); err != nil {
		return ledger.YearLedger{}, err
	}
	if _, err := svc.repo.GetStudent(ctx, id); err != nil {
		return ledger.YearLedger{}, err
	}
	if err := svc.repo.SaveStudentLedger(ctx, id, year, l); err != nil {
		return ledger.YearLedger{}, errors.Wrap(err, "saving fee ledger")
	}
	svc.publish(ctx, core.EventLedgerSaved, "updated", id, year)
	return l, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteStudent(ctx, id); err != nil {
		return err
	}
	svc.publish(ctx, core.EventEntityChanged, "deleted", id, 0)
	return nil
}
