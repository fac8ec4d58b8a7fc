// Package ledger models the recurring fee and salary ledgers: one cell per
// month of a year plus a single "Additional" line, and the sums derived from them.
package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// AdditionalKey is the document key of the extra, non-monthly line of a YearLedger.
const AdditionalKey = "Additional"

// Months lists the calendar months in ledger order.
var Months = [12]time.Month{
	time.January, time.February, time.March, time.April, time.May, time.June,
	time.July, time.August, time.September, time.October, time.November, time.December,
}

var ErrInvalidMonth = errors.New("invalid month")

// ParseMonth accepts a full English month name (any case), its first three
// letters, or a month number. "all" and "" return 0.
func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, ErrInvalidMonth
		}
		return time.Month(n), nil
	}
	for _, m := range Months {
		name := m.String()
		if strings.EqualFold(s, name) || (len(s) == 3 && strings.EqualFold(s, name[:3])) {
			return m, nil
		}
	}
	return 0, ErrInvalidMonth
}

// MonthName returns the English name of m, or "all" for 0.
func MonthName(m time.Month) string {
	if m == 0 {
		return "all"
	}
	return m.String()
}
