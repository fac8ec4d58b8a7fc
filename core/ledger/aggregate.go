package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the reduction of a set of cells.
// Net is only reported for salary ledgers: what is still owed once deductions are withheld.
type Summary struct {
	Due        decimal.Decimal  `json:"total_due"`
	Paid       decimal.Decimal  `json:"total_paid"`
	Adjustment decimal.Decimal  `json:"total_adjustment"`
	Balance    decimal.Decimal  `json:"balance"`
	Net        *decimal.Decimal `json:"net_balance,omitempty"`
}

// Add sums two summaries of the same kind.
func (s Summary) Add(o Summary) Summary {
	out := Summary{
		Due:        s.Due.Add(o.Due),
		Paid:       s.Paid.Add(o.Paid),
		Adjustment: s.Adjustment.Add(o.Adjustment),
		Balance:    s.Balance.Add(o.Balance),
	}
	if s.Net != nil || o.Net != nil {
		net := decimal.Zero
		if s.Net != nil {
			net = net.Add(*s.Net)
		}
		if o.Net != nil {
			net = net.Add(*o.Net)
		}
		out.Net = &net
	}
	return out
}

// Aggregate reduces cells into a Summary. Both ledger kinds share it:
//   - due sums amount+adjustment of every cell, paid or not
//   - paid only sums cells flagged paid with a positive total
//   - balance is due-paid; salary ledgers also report due-paid-adjustment
//
// Negative inputs are not clamped.
func Aggregate(kind Kind, cells ...Cell) Summary {
	s := Summary{Due: decimal.Zero, Paid: decimal.Zero, Adjustment: decimal.Zero}
	for _, c := range cells {
		total := c.Total()
		s.Due = s.Due.Add(total)
		s.Adjustment = s.Adjustment.Add(c.Adjustment)
		if c.Paid && total.IsPositive() {
			s.Paid = s.Paid.Add(total)
		}
	}
	s.Balance = s.Due.Sub(s.Paid)
	if kind == Salary {
		net := s.Balance.Sub(s.Adjustment)
		s.Net = &net
	}
	return s
}

// Scope selects the cells of a YearLedger to reduce.
// A zero Month means the whole year, Additional included.
type Scope struct {
	Month             time.Month
	IncludeAdditional bool
}

// AllMonths is the whole-year scope.
var AllMonths = Scope{IncludeAdditional: true}

// MonthScope scopes to month m of year. The Additional line is only counted
// in the month the entity joined; a zero m means the whole year.
func MonthScope(m time.Month, year int, joined time.Time) Scope {
	if m == 0 {
		return AllMonths
	}
	return Scope{
		Month:             m,
		IncludeAdditional: !joined.IsZero() && joined.Year() == year && joined.Month() == m,
	}
}

// InScope returns the cells selected by scope.
func (l YearLedger) InScope(scope Scope) []Cell {
	if scope.Month == 0 {
		return l.Cells()
	}
	cells := []Cell{l.Month(scope.Month)}
	if scope.IncludeAdditional {
		cells = append(cells, l.Additional)
	}
	return cells
}

// Summarize aggregates the cells selected by scope.
func (l YearLedger) Summarize(scope Scope) Summary {
	return Aggregate(l.Kind, l.InScope(scope)...)
}
