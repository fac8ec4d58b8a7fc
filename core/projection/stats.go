package projection

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
)

const (
	unassignedGroup = "Unassigned"
	recentWindow    = 30 * 24 * time.Hour
)

// Stats are the stat cards of a listing page.
type Stats struct {
	Count     int            `json:"count"`
	Totals    ledger.Summary `json:"totals"`
	ByGroup   map[string]int `json:"by_group"`
	JoinedNew int            `json:"joined_last_30_days"`
	Left      int            `json:"left"`
}

// Summarize reduces the population matching f.Status over the scope of f.
// Search, class and payment criteria are ignored. Left counts every left
// entity whatever the status filter.
func Summarize(subjects []Subject, f FilterState, now time.Time) Stats {
	st := Stats{
		Totals:  ledger.Summary{Due: decimal.Zero, Paid: decimal.Zero, Adjustment: decimal.Zero, Balance: decimal.Zero},
		ByGroup: make(map[string]int),
	}
	since := now.Add(-recentWindow)
	for _, s := range subjects {
		m := s.Roster()
		if m.Status == roster.StatusLeft {
			st.Left++
		}
		if !m.Matches(f.Status) {
			continue
		}
		st.Count++
		group := strings.TrimSpace(s.Group())
		if group == "" {
			group = unassignedGroup
		}
		st.ByGroup[group]++
		if m.JoinedAt.After(since) {
			st.JoinedNew++
		}

		st.Totals = st.Totals.Add(Resolve(s, f).Summary)
	}
	return st
}

// Totals are the figures shown under a listing.
type Totals struct {
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// RowTotals sums what was paid and what is still due over rows.
func RowTotals(rows []Row) Totals {
	t := Totals{Collected: decimal.Zero, Outstanding: decimal.Zero}
	for _, r := range rows {
		t.Collected = t.Collected.Add(r.Summary.Paid)
		t.Outstanding = t.Outstanding.Add(r.Summary.Balance)
	}
	return t
}

// ExpenseTotal sums the expenses dated within the year and month of f.
func ExpenseTotal(expenses []expense.Expense, f FilterState) decimal.Decimal {
	return expense.Total(expense.Filter(expenses, f.Year, f.Month))
}
