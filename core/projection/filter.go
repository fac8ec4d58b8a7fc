// Package projection derives listing rows, stat cards and dashboard figures
// from roster snapshots. Everything here is a pure function of its inputs.
package projection

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
)

// Payment narrows single-month listings on the month's paid flag.
type Payment string

const (
	PaymentAll    Payment = "all"
	PaymentPaid   Payment = "paid"
	PaymentUnpaid Payment = "unpaid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

var ErrInvalidPayment = errors.New("invalid payment filter")

// FilterState is the full set of listing criteria. It is passed by value.
type FilterState struct {
	Year     int           `json:"year"`
	Month    time.Month    `json:"month"` // 0: all months
	Payment  Payment       `json:"payment"`
	Class    string        `json:"class,omitempty"`
	Search   string        `json:"search,omitempty"`
	Status   roster.Status `json:"status"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// DefaultFilter lists active entities over the whole current year.
func DefaultFilter(now time.Time) FilterState {
	return FilterState{
		Year:     now.Year(),
		Payment:  PaymentAll,
		Status:   roster.StatusActive,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// MonthLabel returns the month name, or "all".
func (f FilterState) MonthLabel() string {
	return ledger.MonthName(f.Month)
}

// Label describes f as printed in a report header, e.g.
// "Class: All, Status: active, Fee Month: all, Fee Status: all".
func (f FilterState) Label(groupName, monthName, paymentName string) string {
	group := f.Class
	if group == "" {
		group = "All"
	}
	return fmt.Sprintf("%s: %s, Status: %s, %s: %s, %s: %s",
		groupName, group, f.Status, monthName, f.MonthLabel(), paymentName, f.Payment)
}

// Scope returns the ledger scope of f for an entity joined at joined.
func (f FilterState) Scope(joined time.Time) ledger.Scope {
	return ledger.MonthScope(f.Month, f.Year, joined)
}

// ParseFilter reads a FilterState from query values, falling back to
// DefaultFilter(now) for absent keys. Every malformed key is reported.
func ParseFilter(q url.Values, now time.Time) (FilterState, error) {
	f := DefaultFilter(now)
	var fields []core.FieldError
	fail := func(field string, err error) {
		fields = append(fields, core.FieldError{Field: field, Error: err.Error()})
	}

	if v := q.Get("year"); v != "" {
		year, err := roster.ParseYear(v, now)
		if err != nil {
			fail("year", err)
		} else {
			f.Year = year
		}
	}
	if m, err := ledger.ParseMonth(q.Get("month")); err != nil {
		fail("month", err)
	} else {
		f.Month = m
	}
	if v := strings.ToLower(strings.TrimSpace(q.Get("payment"))); v != "" {
		switch p := Payment(v); p {
		case PaymentAll, PaymentPaid, PaymentUnpaid:
			f.Payment = p
		default:
			fail("payment", ErrInvalidPayment)
		}
	}
	if v := q.Get("status"); v != "" {
		status, err := roster.ParseStatus(v)
		if err != nil {
			fail("status", err)
		} else {
			f.Status = status
		}
	}
	f.Class = core.CleanString(q.Get("class"))
	f.Search = core.CleanString(q.Get("search"))

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			fail("page", errors.New("page must be a positive number"))
		} else {
			f.Page = page
		}
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > MaxPageSize {
			fail("page_size", errors.Errorf("page_size must be between 1 and %d", MaxPageSize))
		} else {
			f.PageSize = size
		}
	}

	if len(fields) > 0 {
		return f, core.NewValidationError(errors.New("invalid filter"), fields...)
	}
	return f, nil
}
