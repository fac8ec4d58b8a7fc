package projection

import (
	"strings"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
)

// Subject is an entity owning a year-keyed ledger: a student or a staff member.
type Subject interface {
	Roster() roster.Member
	LedgerKind() ledger.Kind
	// Group is the class of a student or the designation of a staff member.
	Group() string
	// SearchKeys are matched by free-text search.
	SearchKeys() []string
}

// Subjects converts a typed slice into Subjects.
func Subjects[T Subject](items []T) []Subject {
	out := make([]Subject, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// Row is one listed entity with its resolved ledger and scoped summary.
// Cell and Status are only set when a single month is in scope.
type Row struct {
	Record  Subject              `json:"record"`
	Ledger  ledger.YearLedger    `json:"-"`
	Summary ledger.Summary       `json:"summary"`
	Cell    *ledger.Cell         `json:"cell,omitempty"`
	Status  ledger.PaymentStatus `json:"payment_status,omitempty"`
}

// Resolve builds the Row of s for the year and month of f, without filtering.
func Resolve(s Subject, f FilterState) Row {
	m := s.Roster()
	l := m.YearLedger(s.LedgerKind(), f.Year)
	row := Row{
		Record:  s,
		Ledger:  l,
		Summary: l.Summarize(f.Scope(m.JoinedAt)),
	}
	if f.Month != 0 {
		c := l.Month(f.Month)
		row.Cell = &c
		row.Status = c.Status()
	}
	return row
}

// Project resolves and filters subjects. All criteria of f must hold:
//   - status, class (exact, case-insensitive) and search (substring of any search key)
//   - for a single month, the payment filter on that month's cell; a month with
//     nothing due only ever matches PaymentUnpaid
//
// Over all months the payment filter is ignored. Input order is kept.
func Project(subjects []Subject, f FilterState) []Row {
	rows := make([]Row, 0, len(subjects))
	for _, s := range subjects {
		if !matchesEntity(s, f) {
			continue
		}
		row := Resolve(s, f)
		if row.Cell != nil && !matchesPayment(*row.Cell, f.Payment) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Matching returns the items f selects, in input order. Pagination is ignored.
func Matching[T Subject](items []T, f FilterState) []T {
	rows := Project(Subjects(items), f)
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record.(T))
	}
	return out
}

func matchesEntity(s Subject, f FilterState) bool {
	if !s.Roster().Matches(f.Status) {
		return false
	}
	if f.Class != "" && !strings.EqualFold(strings.TrimSpace(s.Group()), f.Class) {
		return false
	}
	if f.Search == "" {
		return true
	}
	for _, key := range s.SearchKeys() {
		if core.ContainsFold(key, f.Search) {
			return true
		}
	}
	return false
}

func matchesPayment(c ledger.Cell, p Payment) bool {
	if !c.Applicable() {
		return p == PaymentUnpaid
	}
	switch p {
	case PaymentPaid:
		return c.Paid
	case PaymentUnpaid:
		return !c.Paid
	default:
		return true
	}
}

// PageInfo describes a page cut out of a longer listing. Pages are 1-based.
type PageInfo struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// Paginate returns page of items. An out-of-range page is empty.
func Paginate[T any](items []T, page, size int) ([]T, PageInfo) {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	info := PageInfo{Page: page, PageSize: size, Total: len(items)}
	info.Pages = (info.Total + size - 1) / size

	if page > info.Pages {
		return []T{}, info
	}
	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], info
}
