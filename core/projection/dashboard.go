package projection

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
)

// DashboardStats are the school-wide figures for one year or month.
type DashboardStats struct {
	Year  int    `json:"year"`
	Month string `json:"month"`

	TotalFee      decimal.Decimal `json:"total_fee"`
	CollectedFee  decimal.Decimal `json:"collected_fee"`
	TotalSalaries decimal.Decimal `json:"total_salaries"`
	SalariesPaid  decimal.Decimal `json:"salaries_paid"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`

	Expenses []expense.Expense `json:"expenses"`

	EnrolledStudents int               `json:"enrolled_students"`
	LeftStudents     []student.Student `json:"left_students"`
	ActiveStaff      int               `json:"active_staff"`
	LeftStaff        []staff.Staff     `json:"left_staff"`
}

// Dashboard computes the dashboard for the year and month of f. Other
// criteria of f are ignored: every student and staff member counts.
//
// Fee and salary figures sum cell amounts; fines and deductions are left out.
// A student's Additional line counts over the whole year, or in the month
// they were admitted. Net profit is collected fees less paid salaries and
// expenses for the period alone; nothing carries over from earlier periods.
func Dashboard(students []student.Student, staffList []staff.Staff, expenses []expense.Expense, f FilterState) DashboardStats {
	d := DashboardStats{
		Year:          f.Year,
		Month:         f.MonthLabel(),
		TotalFee:      decimal.Zero,
		CollectedFee:  decimal.Zero,
		TotalSalaries: decimal.Zero,
		SalariesPaid:  decimal.Zero,
		LeftStudents:  make([]student.Student, 0),
		LeftStaff:     make([]staff.Staff, 0),
	}

	for _, s := range students {
		if s.Status == roster.StatusLeft {
			d.LeftStudents = append(d.LeftStudents, s)
		} else {
			d.EnrolledStudents++
		}
		l := s.FeeLedger(f.Year)
		due, paid := amountsIn(l.InScope(f.Scope(s.JoinedAt)))
		d.TotalFee = d.TotalFee.Add(due)
		d.CollectedFee = d.CollectedFee.Add(paid)
	}

	for _, s := range staffList {
		if s.Status == roster.StatusLeft {
			d.LeftStaff = append(d.LeftStaff, s)
		} else {
			d.ActiveStaff++
		}
		l := s.SalaryLedger(f.Year)
		scope := ledger.AllMonths
		if f.Month != 0 {
			scope = ledger.Scope{Month: f.Month}
		}
		due, paid := amountsIn(l.InScope(scope))
		d.TotalSalaries = d.TotalSalaries.Add(due)
		d.SalariesPaid = d.SalariesPaid.Add(paid)
	}

	d.Expenses = expense.Filter(expenses, f.Year, f.Month)
	d.TotalExpenses = expense.Total(d.Expenses)
	d.NetProfit = NetProfit(d.CollectedFee, d.SalariesPaid, d.TotalExpenses)
	return d
}

// NetProfit is what remains of collected fees once salaries and expenses are paid.
func NetProfit(collectedFee, paidSalary, expenseCost decimal.Decimal) decimal.Decimal {
	return collectedFee.Sub(paidSalary).Sub(expenseCost)
}

func amountsIn(cells []ledger.Cell) (due, paid decimal.Decimal) {
	due, paid = decimal.Zero, decimal.Zero
	for _, c := range cells {
		if !c.Amount.IsPositive() {
			continue
		}
		due = due.Add(c.Amount)
		if c.Paid {
			paid = paid.Add(c.Amount)
		}
	}
	return due, paid
}
