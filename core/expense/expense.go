package expense

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
)

var ErrNotFound = errors.New("expense not found")

// dayOfMonth is the day an expense booked for a month is dated on.
const dayOfMonth = 15

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	Date        time.Time       `json:"date"`       // UTC
	CreatedAt   time.Time       `json:"created_at"` // UTC
}

// In reports whether e falls in year and, unless month is 0, in month.
func (e Expense) In(year int, month time.Month) bool {
	if e.Date.Year() != year {
		return false
	}
	return month == 0 || e.Date.Month() == month
}

// NewExpense books a cost against a month of a year.
type NewExpense struct {
	Description string          `json:"description" validate:"required"`
	Cost        decimal.Decimal `json:"cost" validate:"gt=0"`
	Year        int             `json:"year" validate:"required,gte=1900,lte=9999"`
	Month       int             `json:"month" validate:"required,gte=1,lte=12"`
}

func (ne *NewExpense) Validate(validate *validator.Validate) error {
	ne.Description = core.CleanString(ne.Description)
	return validate.Struct(ne)
}

// Date is the point in time the expense is recorded at.
func (ne NewExpense) Date() time.Time {
	return time.Date(ne.Year, time.Month(ne.Month), dayOfMonth, 0, 0, 0, 0, time.UTC)
}

type (
	Repository interface {
		CreateExpense(ctx context.Context, e Expense) (Expense, error)
		QueryExpenses(ctx context.Context) ([]Expense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	Service struct {
		repo   Repository
		events core.EventPublisher
		logger core.Logger
	}
)

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{repo: repo, events: events, logger: logger}
}

func (svc *Service) Create(ctx context.Context, ne NewExpense) (Expense, error) {
	e, err := svc.repo.CreateExpense(ctx, Expense{
		Description: ne.Description,
		Cost:        ne.Cost,
		Date:        ne.Date(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Expense{}, errors.Wrap(err, "creating expense")
	}
	core.PublishQuietly(ctx, svc.events, svc.logger, core.Event{
		Name: core.EventEntityChanged, EntityKind: "expense", EntityID: e.ID, Action: "created", Year: ne.Year,
	})
	return e, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Expense, error) {
	return svc.repo.QueryExpenses(ctx)
}

// Query lists the expenses of year and, unless month is 0, of month.
func (svc *Service) Query(ctx context.Context, year int, month time.Month) ([]Expense, error) {
	all, err := svc.repo.QueryExpenses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying expenses")
	}
	return Filter(all, year, month), nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	core.PublishQuietly(ctx, svc.events, svc.logger, core.Event{
		Name: core.EventEntityChanged, EntityKind: "expense", EntityID: id, Action: "deleted",
	})
	return nil
}

// Filter keeps the expenses of year and, unless month is 0, of month.
func Filter(expenses []Expense, year int, month time.Month) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.In(year, month) {
			out = append(out, e)
		}
	}
	return out
}

// Total sums the cost of expenses.
func Total(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Cost)
	}
	return total
}
