package ledger

import "github.com/shopspring/decimal"

// Kind tells fee ledgers from salary ledgers.
// It decides the name of the adjustment field and whether the net-of-adjustment balance is reported.
type Kind int

const (
	Fee Kind = iota
	Salary
)

// AdjustmentField is the document field holding a cell's adjustment.
func (k Kind) AdjustmentField() string {
	if k == Salary {
		return "deduction"
	}
	return "fine"
}

func (k Kind) String() string {
	if k == Salary {
		return "salary"
	}
	return "fee"
}

// Cell is one month's (or the Additional line's) entry.
// Adjustment is the fine of a fee ledger or the deduction of a salary ledger.
type Cell struct {
	Amount      decimal.Decimal `json:"amount"`
	Adjustment  decimal.Decimal `json:"adjustment"`
	Paid        bool            `json:"paid"`
	Remarks     string          `json:"remarks"`
	Description string          `json:"description,omitempty"`
}

// Total is what the cell asks for: amount plus adjustment.
func (c Cell) Total() decimal.Decimal {
	return c.Amount.Add(c.Adjustment)
}

// Applicable reports whether anything is due on the cell.
// Zero cells are neither paid nor unpaid.
func (c Cell) Applicable() bool {
	return c.Total().IsPositive()
}

// Settled reports whether the cell counts as paid.
func (c Cell) Settled() bool {
	return c.Paid && c.Applicable()
}

// PaymentStatus is the label reports and listings show for a cell.
type PaymentStatus string

const (
	StatusPaid   PaymentStatus = "Paid"
	StatusUnpaid PaymentStatus = "Unpaid"
	StatusNA     PaymentStatus = "N/A"
)

// Status labels c: a paid cell with something due is Paid, an unpaid one Unpaid,
// and a cell with nothing due is N/A whatever its flag says.
func (c Cell) Status() PaymentStatus {
	switch {
	case !c.Applicable():
		return StatusNA
	case c.Paid:
		return StatusPaid
	default:
		return StatusUnpaid
	}
}
