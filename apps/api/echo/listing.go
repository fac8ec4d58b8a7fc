package echoapi

import (
	"strings"

	"github.com/trezcool/bursar/core/projection"
)

// ListResponse is one page of a student or staff listing.
type ListResponse struct {
	Filter projection.FilterState `json:"filter"`
	Rows   []projection.Row       `json:"rows"`
	Page   projection.PageInfo    `json:"page"`
	Totals projection.Totals      `json:"totals"` // over every matching row, not just the page
	Groups []string               `json:"groups"` // classes or designations, for the filter dropdown
}

func listing[T projection.Subject](items []T, f projection.FilterState) ListResponse {
	subjects := projection.Subjects(items)
	rows := projection.Project(subjects, f)
	page, info := projection.Paginate(rows, f.Page, f.PageSize)
	return ListResponse{
		Filter: f,
		Rows:   page,
		Page:   info,
		Totals: projection.RowTotals(rows),
		Groups: groups(subjects),
	}
}

// groups lists the distinct non-blank groups of subjects, in first-seen order.
func groups(subjects []projection.Subject) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range subjects {
		g := strings.TrimSpace(s.Group())
		if g != "" && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// selected returns the items whose ID is in ids, in listing order.
func selected[T projection.Subject](items []T, ids []string) []T {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	out := make([]T, 0, len(ids))
	for _, item := range items {
		if want[item.Roster().ID] {
			out = append(out, item)
		}
	}
	return out
}
