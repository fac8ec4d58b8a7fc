// Package roster holds what students and staff have in common: an enrolment
// status, a base monthly amount and a ledger keyed by year.
package roster

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
)

type Status string

const (
	StatusActive Status = "active"
	StatusLeft   Status = "left"
	StatusAll    Status = "all" // filter value only
)

var (
	ErrInvalidStatus  = errors.New("invalid status")
	ErrLeftDateNeeded = errors.New("a leaving date is required")
	ErrInvalidYear    = errors.New("invalid year")
)

// ParseStatus maps a filter value to a Status. An empty value means active.
func ParseStatus(s string) (Status, error) {
	switch Status(core.CleanString(s, true /* lower */)) {
	case "", StatusActive:
		return StatusActive, nil
	case StatusLeft:
		return StatusLeft, nil
	case StatusAll:
		return StatusAll, nil
	}
	return "", ErrInvalidStatus
}

// Member is the part of a student or staff record the ledger cares about.
type Member struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Status     Status              `json:"status"`
	LeftDate   *time.Time          `json:"left_date,omitempty"`
	JoinedAt   time.Time           `json:"joined_at"`
	BaseAmount decimal.Decimal     `json:"base_amount"`
	Ledger     ledger.EntityLedger `json:"-"`
	CreatedAt  time.Time           `json:"created_at"` // UTC
	UpdatedAt  time.Time           `json:"updated_at"` // UTC
}

func (m Member) IsActive() bool { return m.Status != StatusLeft }

// Matches reports whether m passes a status filter.
func (m Member) Matches(status Status) bool {
	switch status {
	case StatusAll:
		return true
	case StatusLeft:
		return m.Status == StatusLeft
	default:
		return m.Status != StatusLeft
	}
}

// YearLedger resolves the ledger of year for m.
func (m Member) YearLedger(kind ledger.Kind, year int) ledger.YearLedger {
	return m.Ledger.Resolve(kind, year, m.BaseAmount, m.JoinedAt)
}

// Seed returns the ledger a new member starts with: the current year only.
func Seed(kind ledger.Kind, base decimal.Decimal, joined, now time.Time) ledger.EntityLedger {
	year := now.Year()
	return ledger.EntityLedger{year: ledger.DefaultWithJoinDate(kind, base, year, joined)}
}

// MarkLeft flags m as having left on date.
func MarkLeft(m *Member, date time.Time) error {
	if date.IsZero() {
		return core.NewValidationError(ErrLeftDateNeeded, core.FieldError{Field: "left_date", Error: ErrLeftDateNeeded.Error()})
	}
	d := date.UTC()
	m.Status = StatusLeft
	m.LeftDate = &d
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// LeaveRequest carries the leaving date of a member.
type LeaveRequest struct {
	LeftDate core.Date `json:"left_date"`
}

// Reactivate brings m back and forgets the leaving date.
func Reactivate(m *Member) {
	m.Status = StatusActive
	m.LeftDate = nil
	m.UpdatedAt = time.Now().UTC()
}

// Rebase sets a new base amount on m, carrying it to the unpaid months of every saved year.
// It returns the years whose ledger changed.
func Rebase(m *Member, base decimal.Decimal) []int {
	if m.BaseAmount.Equal(base) {
		return nil
	}
	old := m.BaseAmount
	m.BaseAmount = base
	if len(m.Ledger) == 0 {
		return nil
	}
	m.Ledger = m.Ledger.Backfill(old, base)
	return m.Ledger.Years()
}

// ValidateLedger checks a ledger about to be saved: no negative money anywhere.
func ValidateLedger(year int, l ledger.YearLedger) error {
	var flds []core.FieldError
	if year < 1900 || year > 9999 {
		flds = append(flds, core.FieldError{Field: "year", Error: ErrInvalidYear.Error()})
	}
	check := func(name string, c ledger.Cell) {
		if c.Amount.IsNegative() {
			flds = append(flds, core.AmountFieldError(name+".amount", false))
		}
		if c.Adjustment.IsNegative() {
			flds = append(flds, core.AmountFieldError(name+"."+l.Kind.AdjustmentField(), false))
		}
	}
	for _, m := range ledger.Months {
		check(m.String(), l.Month(m))
	}
	check(ledger.AdditionalKey, l.Additional)

	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid ledger"), flds...)
	}
	return nil
}

// ParseYear reads a year path or query value, defaulting to now's.
func ParseYear(s string, now time.Time) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1900 || y > 9999 {
		return 0, ErrInvalidYear
	}
	return y, nil
}
