package staff

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
	ErrNotFound  = errors.New("staff not found")
	ErrDuplicate = errors.New("a staff member with this name and contact number already exists")
)

type (
	Repository interface {
		CreateStaff(ctx context.Context, s Staff) (Staff, error)
		QueryStaff(ctx context.Context) ([]Staff, error)
		GetStaff(ctx context.Context, id string) (Staff, error)
		// FindStaff looks a staff member up by name and contact number, returning ErrNotFound when none matches.
		FindStaff(ctx context.Context, name, contact string) (Staff, error)
		UpdateStaff(ctx context.Context, s Staff, years ...int) (Staff, error)
		SaveStaffLedger(ctx context.Context, id string, year int, l ledger.YearLedger) error
		DeleteStaff(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		events  core.EventPublisher
		logger  core.Logger
		nowFunc func() time.Time
	}
)

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{repo: repo, events: events, logger: logger, nowFunc: time.Now}
}

func (svc *Service) publish(ctx context.Context, name, action, id string, year int) {
	core.PublishQuietly(ctx, svc.events, svc.logger, core.Event{
		Name:       name,
		EntityKind: "staff",
		EntityID:   id,
		Action:     action,
		Year:       year,
	})
}

func (svc *Service) checkDuplicate(ctx context.Context, name, contact, excludedID string) error {
	found, err := svc.repo.FindStaff(ctx, name, contact)
	switch {
	case errors.Cause(err) == ErrNotFound:
		return nil
	case err != nil:
		return errors.Wrap(err, "checking duplicate staff")
	case found.ID == excludedID:
		return nil
	}
	return core.NewConflictError(ErrDuplicate)
}

// Create hires a staff member with a salary ledger seeded for the current year.
func (svc *Service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	if err := svc.checkDuplicate(ctx, ns.Name, ns.ContactNumber, ""); err != nil {
		return Staff{}, err
	}

	now := svc.nowFunc().UTC()
	joined := now
	if !ns.JoiningDate.IsZero() {
		joined = ns.JoiningDate.Time
	}
	s, err := svc.repo.CreateStaff(ctx, Staff{
		Member: roster.Member{
			Name:       ns.Name,
			Status:     roster.StatusActive,
			JoinedAt:   joined,
			BaseAmount: ns.MonthlySalary,
			Ledger:     roster.Seed(Kind, ns.MonthlySalary, joined, now),
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Designation:   ns.Designation,
		ContactNumber: ns.ContactNumber,
		Email:         ns.Email,
	})
	if err != nil {
		return Staff{}, errors.Wrap(err, "creating staff")
	}
	svc.publish(ctx, core.EventEntityChanged, "created", s.ID, 0)
	return s, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Staff, error) {
	return svc.repo.QueryStaff(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Staff, error) {
	return svc.repo.GetStaff(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStaff) (Staff, error) {
	s, err := svc.repo.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	if err = svc.checkDuplicate(ctx, us.Name, us.ContactNumber, s.ID); err != nil {
		return Staff{}, err
	}

	s.Name = us.Name
	s.Designation = us.Designation
	s.ContactNumber = us.ContactNumber
	s.Email = us.Email
	if us.JoiningDate != nil && !us.JoiningDate.IsZero() {
		s.JoinedAt = us.JoiningDate.Time
	}
	var years []int
	if us.MonthlySalary != nil {
		years = roster.Rebase(&s.Member, *us.MonthlySalary)
	}
	s.UpdatedAt = svc.nowFunc().UTC()

	if s, err = svc.repo.UpdateStaff(ctx, s, years...); err != nil {
		return Staff{}, errors.Wrap(err, "updating staff")
	}
	svc.publish(ctx, core.EventEntityChanged, "updated", s.ID, 0)
	return s, nil
}

func (svc *Service) MarkLeft(ctx context.Context, id string, date time.Time) (Staff, error) {
	s, err := svc.repo.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	if err = roster.MarkLeft(&s.Member, date); err != nil {
		return Staff{}, err
	}
	if s, err = svc.repo.UpdateStaff(ctx, s); err != nil {
		return Staff{}, errors.Wrap(err, "marking staff as left")
	}
	svc.publish(ctx, core.EventEntityChanged, "left", s.ID, 0)
	return s, nil
}

func (svc *Service) Reactivate(ctx context.Context, id string) (Staff, error) {
	s, err := svc.repo.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	roster.Reactivate(&s.Member)
	if s, err = svc.repo.UpdateStaff(ctx, s); err != nil {
		return Staff{}, errors.Wrap(err, "reactivating staff")
	}
	svc.publish(ctx, core.EventEntityChanged, "reactivated", s.ID, 0)
	return s, nil
}

func (svc *Service) Ledger(ctx context.Context, id string, year int) (ledger.YearLedger, error) {
	s, err := svc.repo.GetStaff(ctx, id)
	if err != nil {
		return ledger.YearLedger{}, err
	}
	return s.SalaryLedger(year), nil
}

// SaveLedger replaces the whole salary ledger of year. Last write wins.
func (svc *Service) SaveLedger(ctx context.Context, id string, year int, l ledger.YearLedger) (ledger.YearLedger, error) {
	l.Kind = Kind
	if err := roster.ValidateLedger(year, l); err != nil {
		return ledger.YearLedger{}, err
	}
	if _, err := svc.repo.GetStaff(ctx, id); err != nil {
		return ledger.YearLedger{}, err
	}
	if err := svc.repo.SaveStaffLedger(ctx, id, year, l); err != nil {
		return ledger.YearLedger{}, errors.Wrap(err, "saving salary ledger")
	}
	svc.publish(ctx, core.EventLedgerSaved, "updated", id, year)
	return l, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteStaff(ctx, id); err != nil {
		return err
	}
	svc.publish(ctx, core.EventEntityChanged, "deleted", id, 0)
	return nil
}
