package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EntityLedger maps a year to its persisted YearLedger.
type EntityLedger map[int]YearLedger

// Resolve returns the persisted ledger of year, or synthesizes one from the
// entity's base amount and join date when nothing was saved for that year.
func (el EntityLedger) Resolve(kind Kind, year int, base decimal.Decimal, joined time.Time) YearLedger {
	if l, ok := el[year]; ok {
		l.Kind = kind
		return l
	}
	return DefaultWithJoinDate(kind, base, year, joined)
}

// Backfill applies Backfill to every persisted year.
func (el EntityLedger) Backfill(oldBase, newBase decimal.Decimal) EntityLedger {
	out := make(EntityLedger, len(el))
	for year, l := range el {
		out[year] = Backfill(l, oldBase, newBase)
	}
	return out
}

// Years lists the persisted years in ascending order.
func (el EntityLedger) Years() []int {
	years := make([]int, 0, len(el))
	for y := range el {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Clone copies the map so that callers can change years without touching el.
func (el EntityLedger) Clone() EntityLedger {
	out := make(EntityLedger, len(el))
	for y, l := range el {
		out[y] = l
	}
	return out
}
