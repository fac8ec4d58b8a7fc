package slip

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/student"
)

type (
	Repository interface {
		CreateSlip(ctx context.Context, s Slip) (Slip, error)
		QuerySlips(ctx context.Context, year int, month time.Month) ([]Slip, error)
		GetSlip(ctx context.Context, id string) (Slip, error)
		UpdateSlip(ctx context.Context, s Slip) (Slip, error)
		DeleteSlip(ctx context.Context, id string) error
	}

	// StudentGetter finds the student a slip is issued to.
	StudentGetter interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
	}

	Service struct {
		repo     Repository
		students StudentGetter
		events   core.EventPublisher
		logger   core.Logger
		nowFunc  func() time.Time
	}
)

func NewService(repo Repository, students StudentGetter, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		students: students,
		events:   events,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

func (svc *Service) publish(ctx context.Context, action string, s Slip) {
	core.PublishQuietly(ctx, svc.events, svc.logger, core.Event{
		Name:       core.EventSlipSaved,
		EntityKind: "slip",
		EntityID:   s.ID,
		Action:     action,
		Year:       s.Year,
	})
}

// Create issues an unpaid slip. The student's name, class and roll number are copied onto it.
func (svc *Service) Create(ctx context.Context, ns NewSlip) (Slip, error) {
	std, err := svc.students.GetByID(ctx, ns.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Slip{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Slip{}, errors.Wrap(err, "finding student")
	}

	now := svc.nowFunc().UTC()
	s := Slip{
		StudentID:     std.ID,
		StudentName:   std.Name,
		StudentClass:  std.Class,
		RollNumber:    std.RollNumber,
		Month:         time.Month(ns.Month),
		Year:          ns.Year,
		FeeAmount:     ns.FeeAmount,
		Fine:          ns.Fine,
		LateFee:       ns.LateFee,
		DueDate:       ns.DueDate,
		PaymentMode:   ns.PaymentMode,
		BankName:      ns.BankName,
		AccountNumber: ns.AccountNumber,
		Status:        Unpaid,
		IssueDate:     now,
		UpdatedAt:     now,
	}
	if s.DueDate.IsZero() {
		s.DueDate = core.NewDate(now)
	}
	s.TotalAmount = s.Total()

	if s, err = svc.repo.CreateSlip(ctx, s); err != nil {
		return Slip{}, errors.Wrap(err, "creating slip")
	}
	svc.publish(ctx, "created", s)
	return s, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Slip, error) {
	return svc.repo.GetSlip(ctx, id)
}

// Query lists the slips of month and year.
func (svc *Service) Query(ctx context.Context, year int, month time.Month) ([]Slip, error) {
	return svc.repo.QuerySlips(ctx, year, month)
}

// Update replaces the amounts, dates, payment details and status of a slip.
// The issue date is kept.
func (svc *Service) Update(ctx context.Context, id string, us UpdateSlip) (Slip, error) {
	s, err := svc.repo.GetSlip(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	s.FeeAmount = us.FeeAmount
	s.Fine = us.Fine
	s.LateFee = us.LateFee
	if !us.DueDate.IsZero() {
		s.DueDate = us.DueDate
	}
	s.PaymentMode = us.PaymentMode
	s.BankName = us.BankName
	s.AccountNumber = us.AccountNumber
	if us.Status != "" {
		s.Status = us.Status
	}
	s.TotalAmount = s.Total()
	s.UpdatedAt = svc.nowFunc().UTC()

	if s, err = svc.repo.UpdateSlip(ctx, s); err != nil {
		return Slip{}, errors.Wrap(err, "updating slip")
	}
	svc.publish(ctx, "updated", s)
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	s, err := svc.repo.GetSlip(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteSlip(ctx, id); err != nil {
		return errors.Wrap(err, "deleting slip")
	}
	svc.publish(ctx, "deleted", s)
	return nil
}

// StudentStatus tells whether a student already got a slip for the month.
type StudentStatus struct {
	Student student.Student `json:"student"`
	HasSlip bool            `json:"has_slip"`
	Slip    *Slip           `json:"slip"`
}

// WithSlipStatus pairs every student with its slip among slips, sorted by student name.
func WithSlipStatus(students []student.Student, slips []Slip) []StudentStatus {
	byStudent := make(map[string]Slip, len(slips))
	for _, s := range slips {
		byStudent[s.StudentID] = s
	}

	out := make([]StudentStatus, 0, len(students))
	for _, std := range students {
		st := StudentStatus{Student: std}
		if s, ok := byStudent[std.ID]; ok {
			s := s
			st.HasSlip = true
			st.Slip = &s
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Student.Name) < strings.ToLower(out[j].Student.Name)
	})
	return out
}
