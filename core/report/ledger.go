package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
)

const (
	reportMargin = 14.0
	rowHeight    = 6.0
	// an entity block needs at least this much room above the bottom edge
	blockRoom = 50.0
	// rows stop this far above the bottom edge, clear of the footer
	rowRoom = 15.0
	// the summary block, Net line included, must end above the footer
	summaryRoom = 20.0
	footerUp    = 8.0
)

// Entry is one entity of a ledger report.
type Entry struct {
	Name     string
	Identity string // e.g. "Class: 5 | Roll No: 12"
	Status   string
	Ledger   ledger.YearLedger
}

// Options describe what a ledger report covers.
type Options struct {
	Year    int
	Type    string // e.g. "Filtered Students (active)"
	Filters string // e.g. "Class: All, Status: active, Fee Month: all, Fee Status: all"
	Now     time.Time
}

// LedgerReport lists the year ledger of several entities, one block each:
// identity, a row per month, the Additional line and a summary.
type LedgerReport struct {
	Org     Org
	Title   string
	Kind    ledger.Kind
	Options Options
	Entries []Entry
}

var _ Document = LedgerReport{}

// StudentFeeReport reports the fee ledgers of students for opts.Year.
func StudentFeeReport(org Org, students []student.Student, opts Options) LedgerReport {
	entries := make([]Entry, 0, len(students))
	for _, s := range students {
		entries = append(entries, Entry{
			Name:     s.Name,
			Identity: fmt.Sprintf("Class: %s | Roll No: %s", s.Class, s.RollNumber),
			Status:   string(s.Status),
			Ledger:   s.FeeLedger(opts.Year),
		})
	}
	return LedgerReport{
		Org:     org,
		Title:   fmt.Sprintf("Student Fee Report (%d)", opts.Year),
		Kind:    student.Kind,
		Options: opts,
		Entries: entries,
	}
}

// StaffSalaryReport reports the salary ledgers of staff for opts.Year.
func StaffSalaryReport(org Org, staffList []staff.Staff, opts Options) LedgerReport {
	entries := make([]Entry, 0, len(staffList))
	for _, s := range staffList {
		identity := s.Designation
		if s.ContactNumber != "" {
			identity += " | Contact: " + s.ContactNumber
		}
		entries = append(entries, Entry{
			Name:     s.Name,
			Identity: identity,
			Status:   string(s.Status),
			Ledger:   s.SalaryLedger(opts.Year),
		})
	}
	return LedgerReport{
		Org:     org,
		Title:   fmt.Sprintf("Staff Salary Report (%d)", opts.Year),
		Kind:    staff.Kind,
		Options: opts,
		Entries: entries,
	}
}

func (r LedgerReport) Empty() bool { return len(r.Entries) == 0 }

type columns struct {
	month, amount, adjustment, status, remarks float64
}

func (r LedgerReport) Draw(s Surface) error {
	s.AddPage()
	pageW, pageH := s.PageSize()
	m := reportMargin
	cols := columns{month: m + 2, amount: m + 45, adjustment: m + 75, status: m + 100, remarks: m + 125}
	y := 18.0

	// letterhead
	s.SetFont(Bold, 20)
	s.Text(pageW/2, y, r.Org.Name, AlignCenter)
	y += 7
	s.SetFont(Regular, 12)
	s.Text(pageW/2, y, r.Org.Branch, AlignCenter)
	y += 7
	s.SetFont(Bold, 15)
	s.Text(pageW/2, y, r.Title, AlignCenter)
	y += 8
	s.SetFont(Italic, 10)
	if r.Options.Type != "" {
		s.Text(m, y, "Report Type: "+r.Options.Type, AlignLeft)
		y += 6
	}
	if r.Options.Filters != "" {
		s.Text(m, y, "Filters: "+r.Options.Filters, AlignLeft)
		y += 6
	}
	y += 2

	for i, e := range r.Entries {
		if y > pageH-blockRoom {
			s.AddPage()
			y = m
		}
		if i > 0 {
			s.SetDrawColor(200, 200, 200)
			s.SetLineWidth(0.2)
			s.Line(m, y, pageW-m, y)
			y += 5
		}

		s.SetFont(Bold, 12)
		s.Text(m, y, e.Name, AlignLeft)
		s.SetFont(Regular, 10)
		s.Text(m+50, y, truncate(s, e.Identity, 80), AlignLeft)
		s.Text(pageW-m, y, "Status: "+e.Status, AlignRight)
		y += 8

		r.drawHeader(s, cols, y)
		y += rowHeight

		for _, month := range ledger.Months {
			if y > pageH-rowRoom {
				y = r.continueOnNewPage(s, cols, e.Name)
			}
			s.SetFont(Regular, 9)
			r.drawRow(s, cols, y, month.String()[:3], e.Ledger.Month(month))
			y += rowHeight
		}
		if y > pageH-rowRoom {
			y = r.continueOnNewPage(s, cols, e.Name)
		}
		desc := e.Ledger.Additional.Description
		if desc == "" {
			desc = "Additional"
		}
		s.SetFont(Italic, 9)
		r.drawRow(s, cols, y, truncate(s, desc, cols.amount-cols.month-2), e.Ledger.Additional)
		y += rowHeight + 2

		if y > pageH-summaryRoom {
			s.AddPage()
			y = m
		}
		y = r.drawSummary(s, y, e.Ledger.Summarize(ledger.AllMonths))
	}

	r.drawFooters(s)
	return nil
}

func (r LedgerReport) drawHeader(s Surface, cols columns, y float64) {
	pageW, _ := s.PageSize()
	s.SetFont(Bold, 9)
	s.SetFillColor(235, 235, 235)
	s.SetDrawColor(200, 200, 200)
	s.SetLineWidth(0.1)
	s.Rect(reportMargin, y, pageW-2*reportMargin, rowHeight, FillAndStroke)
	s.SetTextColor(50, 50, 50)

	amount, adjustment := "Fee", "Fine"
	if r.Kind == ledger.Salary {
		amount, adjustment = "Salary", "Deduction"
	}
	s.Text(cols.month, y+4, "Month", AlignLeft)
	s.Text(cols.amount, y+4, amount, AlignLeft)
	s.Text(cols.adjustment, y+4, adjustment, AlignLeft)
	s.Text(cols.status, y+4, "Status", AlignLeft)
	s.Text(cols.remarks, y+4, "Remarks", AlignLeft)
	setTextColor(s, black)
}

func (r LedgerReport) continueOnNewPage(s Surface, cols columns, name string) float64 {
	s.AddPage()
	y := reportMargin
	s.SetFont(Italic, 8)
	s.Text(reportMargin, y, fmt.Sprintf("(Continuation for %s - %d)", name, r.Options.Year), AlignLeft)
	y += 6
	r.drawHeader(s, cols, y)
	return y + rowHeight
}

// drawRow writes one cell. The label font is left to the caller.
func (r LedgerReport) drawRow(s Surface, cols columns, y float64, label string, c ledger.Cell) {
	pageW, _ := s.PageSize()
	s.Text(cols.month, y+4, label, AlignLeft)
	s.SetFont(Regular, 9)
	s.Text(cols.amount, y+4, dashIfZero(c.Amount.IsPositive(), Amount(c.Amount)), AlignLeft)
	s.Text(cols.adjustment, y+4, dashIfZero(c.Adjustment.IsPositive(), Amount(c.Adjustment)), AlignLeft)

	status, color := StatusOf(c)
	setTextColor(s, color)
	s.Text(cols.status, y+4, string(status), AlignLeft)
	setTextColor(s, black)

	remarks := strings.TrimSpace(c.Remarks)
	if remarks == "" {
		remarks = "-"
	}
	s.Text(cols.remarks, y+4, truncate(s, remarks, pageW-reportMargin-cols.remarks-2), AlignLeft)
	s.SetFont(Regular, 9)
}

func (r LedgerReport) drawSummary(s Surface, y float64, sum ledger.Summary) float64 {
	pageW, _ := s.PageSize()
	m := reportMargin
	s.SetFont(Bold, 9.5)
	s.SetDrawColor(200, 200, 200)
	s.SetLineWidth(0.2)
	s.Line(m, y, pageW-m, y)
	y += 5
	s.Text(m, y, fmt.Sprintf("Summary (%d):", r.Options.Year), AlignLeft)
	s.Text(m+50, y, "Due: "+Rupees(sum.Due), AlignLeft)
	s.Text(m+90, y, "Paid: "+Rupees(sum.Paid), AlignLeft)
	if sum.Balance.IsPositive() {
		setTextColor(s, darkRed)
	}
	s.Text(m+135, y, "Balance: "+Rupees(sum.Balance), AlignLeft)
	setTextColor(s, black)
	if sum.Net != nil {
		y += 5
		s.SetFont(Italic, 9)
		s.Text(m+135, y, "Net: "+Rupees(*sum.Net), AlignLeft)
	}
	return y + 8
}

// drawFooters stamps every page once the layout is complete.
func (r LedgerReport) drawFooters(s Surface) {
	pageW, pageH := s.PageSize()
	now := r.Options.Now
	if now.IsZero() {
		now = time.Now()
	}
	n := s.PageCount()
	for i := 1; i <= n; i++ {
		s.SetPage(i)
		s.SetFont(Italic, 8)
		setTextColor(s, gray)
		s.Text(reportMargin, pageH-footerUp, "Generated on: "+formatDate(now), AlignLeft)
		s.Text(pageW/2, pageH-footerUp, fmt.Sprintf("Page %d of %d", i, n), AlignCenter)
		s.Text(pageW-reportMargin, pageH-footerUp, r.Org.FooterName, AlignRight)
	}
	setTextColor(s, black)
}

func dashIfZero(ok bool, s string) string {
	if !ok {
		return "-"
	}
	return s
}
