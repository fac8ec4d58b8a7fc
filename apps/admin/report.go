package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/report"
)

type reportOptions struct {
	kind    string // students or staff
	year    string
	month   string
	payment string
	class   string
	status  string
	out     string
}

func (opts reportOptions) filter(now time.Time) (projection.FilterState, error) {
	return projection.ParseFilter(url.Values{
		"year":    {opts.year},
		"month":   {opts.month},
		"payment": {opts.payment},
		"class":   {opts.class},
		"status":  {opts.status},
	}, now)
}

// report writes the ledger report of every student or staff member the options match.
func (cli *commandLine) report(opts reportOptions) error {
	ctx := context.Background()
	now := cli.now()
	f, err := opts.filter(now)
	if err != nil {
		return err
	}

	var (
		doc  report.LedgerReport
		name string
	)
	switch opts.kind {
	case "students":
		students, err := cli.students.QueryAll(ctx)
		if err != nil {
			return errors.Wrap(err, "querying students")
		}
		doc = report.StudentFeeReport(cli.org, projection.Matching(students, f), report.Options{
			Year:    f.Year,
			Type:    fmt.Sprintf("Filtered Students (%s)", f.Status),
			Filters: f.Label("Class", "Fee Month", "Fee Status"),
			Now:     now,
		})
		name = "student-fee-report"
	default:
		staffList, err := cli.staff.QueryAll(ctx)
		if err != nil {
			return errors.Wrap(err, "querying staff")
		}
		doc = report.StaffSalaryReport(cli.org, projection.Matching(staffList, f), report.Options{
			Year:    f.Year,
			Type:    fmt.Sprintf("Filtered Staff (%s)", f.Status),
			Filters: f.Label("Designation", "Salary Month", "Salary Status"),
			Now:     now,
		})
		name = "staff-salary-report"
	}

	out := opts.out
	if out == "" {
		out = fmt.Sprintf("%s-%d-%s.pdf", name, f.Year, now.Format("20060102"))
	}
	if err = writeFileFunc(out, doc); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	fmt.Printf("%d entries written to %s\n", len(doc.Entries), out)
	return nil
}

// voucher writes the fee voucher of a slip.
func (cli *commandLine) voucher(id, out string) error {
	s, err := cli.slips.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	if out == "" {
		name := strings.ToLower(strings.Join(strings.Fields(s.StudentName), "-"))
		out = fmt.Sprintf("voucher-%s-%d-%02d.pdf", name, s.Year, int(s.Month))
	}
	if err = writeFileFunc(out, report.Voucher{Org: cli.org, Slip: s}); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	fmt.Printf("voucher written to %s\n", out)
	return nil
}
