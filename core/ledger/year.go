package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// YearLedger holds the twelve month cells of one year and the Additional line.
// Every month is always present; a month never recorded is a zero cell.
type YearLedger struct {
	Kind       Kind
	Months     [12]Cell
	Additional Cell
}

// Month returns the cell of m. Out of range months yield a zero cell.
func (l YearLedger) Month(m time.Month) Cell {
	if m < time.January || m > time.December {
		return Cell{}
	}
	return l.Months[m-1]
}

// SetMonth replaces the cell of m.
func (l *YearLedger) SetMonth(m time.Month, c Cell) {
	if m < time.January || m > time.December {
		return
	}
	l.Months[m-1] = c
}

// Cells returns the month cells followed by the Additional line.
func (l YearLedger) Cells() []Cell {
	cells := make([]Cell, 0, len(l.Months)+1)
	cells = append(cells, l.Months[:]...)
	return append(cells, l.Additional)
}

// Default builds a fresh ledger charging base every month.
func Default(kind Kind, base decimal.Decimal) YearLedger {
	l := YearLedger{Kind: kind}
	for i := range l.Months {
		l.Months[i] = Cell{Amount: base}
	}
	return l
}

// DefaultWithJoinDate builds a fresh ledger for year, leaving the months before
// joined at zero. A zero joined date charges every month.
func DefaultWithJoinDate(kind Kind, base decimal.Decimal, year int, joined time.Time) YearLedger {
	l := Default(kind, base)
	if joined.IsZero() {
		return l
	}
	switch {
	case year < joined.Year():
		for i := range l.Months {
			l.Months[i].Amount = decimal.Zero
		}
	case year == joined.Year():
		for _, m := range Months {
			if m < joined.Month() {
				l.Months[m-1].Amount = decimal.Zero
			}
		}
	}
	return l
}

// Backfill moves the unpaid months still charging oldBase (or nothing) to newBase.
// Paid months and the Additional line are left alone.
func Backfill(l YearLedger, oldBase, newBase decimal.Decimal) YearLedger {
	for i, c := range l.Months {
		if c.Paid {
			continue
		}
		if c.Amount.Equal(oldBase) || c.Amount.IsZero() {
			l.Months[i].Amount = newBase
		}
	}
	return l
}
