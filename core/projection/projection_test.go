package projection

import (
	"math"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func newStudent(id, name, class, roll string, base int64, joined time.Time, years ledger.EntityLedger) student.Student {
	return student.Student{
		Member: roster.Member{
			ID:         id,
			Name:       name,
			Status:     roster.StatusActive,
			JoinedAt:   joined,
			BaseAmount: dec(base),
			Ledger:     years,
		},
		Class:      class,
		RollNumber: roll,
	}
}

// fixtures returns:
//   - ali: persisted 2025 ledger, March paid, May charging nothing
//   - sara: nothing persisted, admitted 2025-03-15
//   - bilal: left, March paid
func fixtures() []student.Student {
	aliLedger := ledger.Default(ledger.Fee, dec(1000))
	aliLedger.SetMonth(time.March, ledger.Cell{Amount: dec(1000), Paid: true})
	aliLedger.SetMonth(time.May, ledger.Cell{})
	ali := newStudent("1", "Ali Raza", "Class 5", "12", 1000, date(2024, time.January, 10), ledger.EntityLedger{2025: aliLedger})

	sara := newStudent("2", "Sara Khan", "class 5", "7", 1200, date(2025, time.March, 15), nil)

	bilalLedger := ledger.Default(ledger.Fee, dec(900))
	bilalLedger.SetMonth(time.March, ledger.Cell{Amount: dec(900), Paid: true})
	bilal := newStudent("3", "Bilal Ahmed", "Class 6", "3", 900, date(2023, time.August, 1), ledger.EntityLedger{2025: bilalLedger})
	_ = roster.MarkLeft(&bilal.Member, date(2025, time.February, 1))

	return []student.Student{ali, sara, bilal}
}

func ids(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record.Roster().ID)
	}
	return out
}

func TestProject(t *testing.T) {
	subjects := Subjects(fixtures())
	base := DefaultFilter(date(2025, time.June, 1))

	with := func(mod func(f *FilterState)) FilterState {
		f := base
		mod(&f)
		return f
	}

	tests := []struct {
		name    string
		filter  FilterState
		wantIDs []string
	}{
		{name: "default", filter: base, wantIDs: []string{"1", "2"}},
		{name: "all months ignore payment", filter: with(func(f *FilterState) { f.Payment = PaymentPaid }), wantIDs: []string{"1", "2"}},
		{name: "march paid", filter: with(func(f *FilterState) { f.Month, f.Payment = time.March, PaymentPaid }), wantIDs: []string{"1"}},
		{name: "march unpaid", filter: with(func(f *FilterState) { f.Month, f.Payment = time.March, PaymentUnpaid }), wantIDs: []string{"2"}},
		{name: "nothing due excluded from all", filter: with(func(f *FilterState) { f.Month = time.January }), wantIDs: []string{"1"}},
		{name: "nothing due counts as unpaid", filter: with(func(f *FilterState) { f.Month, f.Payment = time.January, PaymentUnpaid }), wantIDs: []string{"1", "2"}},
		{name: "nothing due never paid", filter: with(func(f *FilterState) { f.Month, f.Payment = time.May, PaymentPaid }), wantIDs: []string{}},
		{name: "class is case-insensitive", filter: with(func(f *FilterState) { f.Class, f.Status = "CLASS 5", roster.StatusAll }), wantIDs: []string{"1", "2"}},
		{name: "search name", filter: with(func(f *FilterState) { f.Search = "khan" }), wantIDs: []string{"2"}},
		{name: "search roll", filter: with(func(f *FilterState) { f.Search = "12" }), wantIDs: []string{"1"}},
		{name: "left", filter: with(func(f *FilterState) { f.Status = roster.StatusLeft }), wantIDs: []string{"3"}},
		{name: "every status", filter: with(func(f *FilterState) { f.Status = roster.StatusAll }), wantIDs: []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIDs, ids(Project(subjects, tt.filter)))
		})
	}
}

func TestProject_rows(t *testing.T) {
	f := DefaultFilter(date(2025, time.June, 1))
	f.Month = time.March
	rows := Project(Subjects(fixtures()), f)
	if len(rows) != 2 {
		t.Fatalf("Project() returned %d rows; want 2", len(rows))
	}

	ali, sara := rows[0], rows[1]
	if ali.Status != ledger.StatusPaid || sara.Status != ledger.StatusUnpaid {
		t.Errorf("statuses = %s, %s; want Paid, Unpaid", ali.Status, sara.Status)
	}
	if !ali.Summary.Due.Equal(dec(1000)) || !ali.Summary.Paid.Equal(dec(1000)) || !ali.Summary.Balance.IsZero() {
		t.Errorf("ali summary = %+v; want 1000 due and paid", ali.Summary)
	}
	// synthesized from the admission date
	if !sara.Summary.Due.Equal(dec(1200)) || sara.Ledger.Month(time.February).Amount.Sign() != 0 {
		t.Errorf("sara summary = %+v; want 1200 due and nothing before March", sara.Summary)
	}

	totals := RowTotals(rows)
	if !totals.Collected.Equal(dec(1000)) || !totals.Outstanding.Equal(dec(1200)) {
		t.Errorf("RowTotals() = %+v; want collected 1000, outstanding 1200", totals)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name      string
		page      int
		size      int
		want      []int
		wantPages int
	}{
		{name: "first", page: 1, size: 2, want: []int{1, 2}, wantPages: 3},
		{name: "middle", page: 2, size: 2, want: []int{3, 4}, wantPages: 3},
		{name: "last partial", page: 3, size: 2, want: []int{5}, wantPages: 3},
		{name: "out of range", page: 4, size: 2, want: []int{}, wantPages: 3},
		{name: "zero page is first", page: 0, size: 10, want: items, wantPages: 1},
		{name: "huge page", page: math.MaxInt, size: MaxPageSize, want: []int{}, wantPages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := Paginate(items, tt.page, tt.size)
			assert.Equal(t, tt.want, got)
			if info.Total != len(items) || info.Pages != tt.wantPages {
				t.Errorf("Paginate() info = %+v; want total %d, %d pages", info, len(items), tt.wantPages)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	now := date(2025, time.June, 1)

	t.Run("defaults", func(t *testing.T) {
		f, err := ParseFilter(url.Values{}, now)
		if err != nil {
			t.Fatalf("ParseFilter() error = %v", err)
		}
		assert.Equal(t, DefaultFilter(now), f)
	})

	t.Run("every key", func(t *testing.T) {
		q := url.Values{
			"year":      {"2024"},
			"month":     {"mar"},
			"payment":   {"Paid"},
			"status":    {"all"},
			"class":     {" Class 5 "},
			"search":    {" ali "},
			"page":      {"2"},
			"page_size": {"50"},
		}
		f, err := ParseFilter(q, now)
		if err != nil {
			t.Fatalf("ParseFilter() error = %v", err)
		}
		want := FilterState{
			Year: 2024, Month: time.March, Payment: PaymentPaid, Class: "Class 5",
			Search: "ali", Status: roster.StatusAll, Page: 2, PageSize: 50,
		}
		assert.Equal(t, want, f)
	})

	t.Run("huge page", func(t *testing.T) {
		f, err := ParseFilter(url.Values{"page": {strconv.Itoa(math.MaxInt)}, "page_size": {"200"}}, now)
		if err != nil {
			t.Fatalf("ParseFilter() error = %v", err)
		}
		got, info := Paginate([]int{1, 2, 3}, f.Page, f.PageSize)
		if len(got) != 0 || info.Page != math.MaxInt || info.Pages != 1 {
			t.Errorf("Paginate() = %v, %+v; want an empty last page", got, info)
		}
	})

	t.Run("invalid keys", func(t *testing.T) {
		q := url.Values{"year": {"abc"}, "month": {"13"}, "payment": {"maybe"}, "page": {"0"}, "page_size": {"1000"}}
		_, err := ParseFilter(q, now)
		verr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("ParseFilter() error = %v; want *core.ValidationError", err)
		}
		fields := make([]string, 0, len(verr.Fields))
		for _, fe := range verr.Fields {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"year", "month", "payment", "page", "page_size"}, fields)
	})
}

func TestFilterState_Label(t *testing.T) {
	now := date(2025, time.June, 1)
	tests := []struct {
		name string
		f    FilterState
		want string
	}{
		{"defaults", DefaultFilter(now), "Class: All, Status: active, Fee Month: all, Fee Status: all"},
		{
			"narrowed",
			FilterState{Year: 2025, Month: time.March, Payment: PaymentUnpaid, Class: "5", Status: roster.StatusLeft},
			"Class: 5, Status: left, Fee Month: March, Fee Status: unpaid",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Label("Class", "Fee Month", "Fee Status"))
		})
	}
}

func TestSummarize(t *testing.T) {
	now := date(2025, time.April, 1)
	f := DefaultFilter(now)

	st := Summarize(Subjects(fixtures()), f, now)

	if st.Count != 2 || st.Left != 1 || st.JoinedNew != 1 {
		t.Errorf("Summarize() count, left, new = %d, %d, %d; want 2, 1, 1", st.Count, st.Left, st.JoinedNew)
	}
	assert.Equal(t, map[string]int{"Class 5": 1, "class 5": 1}, st.ByGroup)

	// ali: 11 charged months of 1000 with March paid; sara: March to December at 1200
	if !st.Totals.Due.Equal(dec(23000)) || !st.Totals.Paid.Equal(dec(1000)) || !st.Totals.Balance.Equal(dec(22000)) {
		t.Errorf("Summarize() totals = %+v; want due 23000, paid 1000, balance 22000", st.Totals)
	}
	if st.Totals.Net != nil {
		t.Errorf("Summarize() net = %s; want none for fees", st.Totals.Net)
	}
}

func TestDashboard_netProfit(t *testing.T) {
	fees := ledger.YearLedger{Kind: ledger.Fee}
	fees.SetMonth(time.March, ledger.Cell{Amount: dec(50000), Adjustment: dec(500), Paid: true})
	students := []student.Student{newStudent("1", "Ali", "5", "1", 0, date(2020, time.January, 1), ledger.EntityLedger{2025: fees})}

	salaries := ledger.YearLedger{Kind: ledger.Salary}
	salaries.SetMonth(time.March, ledger.Cell{Amount: dec(30000), Adjustment: dec(1000), Paid: true})
	staffList := []staff.Staff{{
		Member:      roster.Member{ID: "s1", Name: "Hina", Status: roster.StatusActive, Ledger: ledger.EntityLedger{2025: salaries}},
		Designation: "Teacher",
	}}

	expenses := []expense.Expense{
		{ID: "e1", Cost: dec(5000), Date: date(2025, time.March, 15)},
		{ID: "e2", Cost: dec(1000), Date: date(2025, time.April, 15)},
		{ID: "e3", Cost: dec(700), Date: date(2024, time.March, 15)},
	}

	f := DefaultFilter(date(2025, time.June, 1))
	f.Month = time.March
	d := Dashboard(students, staffList, expenses, f)

	if !d.CollectedFee.Equal(dec(50000)) || !d.SalariesPaid.Equal(dec(30000)) || !d.TotalExpenses.Equal(dec(5000)) {
		t.Errorf("Dashboard() collected, salaries, expenses = %s, %s, %s; want 50000, 30000, 5000",
			d.CollectedFee, d.SalariesPaid, d.TotalExpenses)
	}
	if !d.NetProfit.Equal(dec(15000)) {
		t.Errorf("Dashboard() net profit = %s; want 15000", d.NetProfit)
	}
	if len(d.Expenses) != 1 || d.Expenses[0].ID != "e1" {
		t.Errorf("Dashboard() expenses = %+v; want e1 only", d.Expenses)
	}
	if d.EnrolledStudents != 1 || d.ActiveStaff != 1 || len(d.LeftStudents) != 0 || len(d.LeftStaff) != 0 {
		t.Errorf("Dashboard() head counts = %d, %d, %d, %d", d.EnrolledStudents, d.ActiveStaff, len(d.LeftStudents), len(d.LeftStaff))
	}

	if got := NetProfit(dec(50000), dec(30000), dec(5000)); !got.Equal(dec(15000)) {
		t.Errorf("NetProfit() = %s; want 15000", got)
	}
}

func TestDashboard_admissionMonth(t *testing.T) {
	fees := ledger.Default(ledger.Fee, dec(3000))
	fees.SetMonth(time.March, ledger.Cell{Amount: dec(3000), Paid: true})
	fees.Additional = ledger.Cell{Amount: dec(2000), Paid: true, Description: "Admission"}
	admitted := newStudent("1", "Ali", "5", "1", 3000, date(2025, time.March, 15), ledger.EntityLedger{2025: fees})

	left := newStudent("2", "Omar", "5", "2", 0, time.Time{}, nil)
	left.Status = roster.StatusLeft

	tests := []struct {
		month         time.Month
		wantTotal     int64
		wantCollected int64
	}{
		{month: time.March, wantTotal: 5000, wantCollected: 5000},
		{month: time.April, wantTotal: 3000, wantCollected: 0},
		{month: 0, wantTotal: 38000, wantCollected: 5000},
	}
	for _, tt := range tests {
		t.Run(ledger.MonthName(tt.month), func(t *testing.T) {
			f := DefaultFilter(date(2025, time.June, 1))
			f.Month = tt.month
			d := Dashboard([]student.Student{admitted, left}, nil, nil, f)
			if !d.TotalFee.Equal(dec(tt.wantTotal)) || !d.CollectedFee.Equal(dec(tt.wantCollected)) {
				t.Errorf("Dashboard() fees = %s, %s; want %d, %d", d.TotalFee, d.CollectedFee, tt.wantTotal, tt.wantCollected)
			}
			if d.EnrolledStudents != 1 || len(d.LeftStudents) != 1 {
				t.Errorf("Dashboard() enrolled, left = %d, %d; want 1, 1", d.EnrolledStudents, len(d.LeftStudents))
			}
		})
	}
}
