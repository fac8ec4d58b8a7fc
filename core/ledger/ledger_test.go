package ledger

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestDefault(t *testing.T) {
	l := Default(Fee, dec(1500))
	for _, m := range Months {
		c := l.Month(m)
		if !c.Amount.Equal(dec(1500)) || !c.Adjustment.IsZero() || c.Paid || c.Remarks != "" {
			t.Errorf("Default() %s = %+v; want amount 1500, unpaid, no adjustment", m, c)
		}
	}
	if !l.Additional.Amount.IsZero() || l.Additional.Description != "" {
		t.Errorf("Default() Additional = %+v; want zero cell", l.Additional)
	}
}

func TestDefaultWithJoinDate(t *testing.T) {
	joined := date(2024, time.April, 10)

	tests := []struct {
		name     string
		year     int
		joined   time.Time
		wantZero []time.Month // months expected at 0, every other month at 1000
	}{
		{name: "join year", year: 2024, joined: joined, wantZero: []time.Month{time.January, time.February, time.March}},
		{name: "before join year", year: 2023, joined: joined, wantZero: Months[:]},
		{name: "after join year", year: 2025, joined: joined},
		{name: "unknown join date", year: 2024},
		{name: "joined in january", year: 2024, joined: date(2024, time.January, 31)},
		{name: "joined in december", year: 2024, joined: date(2024, time.December, 1), wantZero: Months[:11]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := DefaultWithJoinDate(Fee, dec(1000), tt.year, tt.joined)
			zero := make(map[time.Month]bool, len(tt.wantZero))
			for _, m := range tt.wantZero {
				zero[m] = true
			}
			for _, m := range Months {
				c := l.Month(m)
				want := dec(1000)
				if zero[m] {
					want = decimal.Zero
				}
				if !c.Amount.Equal(want) {
					t.Errorf("%s amount = %s; want %s", m, c.Amount, want)
				}
				if c.Paid || !c.Adjustment.IsZero() {
					t.Errorf("%s = %+v; synthesized cells must be unpaid without adjustment", m, c)
				}
			}
		})
	}
}

func TestEntityLedger_Resolve(t *testing.T) {
	joined := date(2024, time.April, 10)
	saved := Default(Salary, dec(30000))
	saved.Months[0].Paid = true
	el := EntityLedger{2024: saved}

	t.Run("persisted year wins", func(t *testing.T) {
		got := el.Resolve(Salary, 2024, dec(99), joined)
		if !reflect.DeepEqual(got, saved) {
			t.Errorf("Resolve() = %+v; want the persisted ledger", got)
		}
	})

	t.Run("synthesized year is stable", func(t *testing.T) {
		first := el.Resolve(Salary, 2025, dec(30000), joined)
		second := el.Resolve(Salary, 2025, dec(30000), joined)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Resolve() not idempotent: %+v != %+v", first, second)
		}
		if _, ok := el[2025]; ok {
			t.Error("Resolve() must not persist synthesized years")
		}
	})
}

func TestBackfill(t *testing.T) {
	l := Default(Salary, dec(500))
	l.SetMonth(time.January, Cell{Amount: dec(500), Paid: true})
	l.SetMonth(time.February, Cell{Amount: dec(650)})
	l.SetMonth(time.March, Cell{Amount: decimal.Zero})
	l.Additional = Cell{Amount: dec(500)}

	got := Backfill(l, dec(500), dec(700))

	tests := []struct {
		month time.Month
		want  decimal.Decimal
	}{
		{time.January, dec(500)},  // paid: untouched
		{time.February, dec(650)}, // edited by hand: untouched
		{time.March, dec(700)},    // zero: backfilled
		{time.April, dec(700)},    // old base, unpaid: backfilled
		{time.December, dec(700)},
	}
	for _, tt := range tests {
		if c := got.Month(tt.month); !c.Amount.Equal(tt.want) {
			t.Errorf("Backfill() %s = %s; want %s", tt.month, c.Amount, tt.want)
		}
	}
	if !got.Additional.Amount.Equal(dec(500)) {
		t.Errorf("Backfill() Additional = %s; want 500", got.Additional.Amount)
	}
	if !l.Month(time.April).Amount.Equal(dec(500)) {
		t.Error("Backfill() must not change its input")
	}
}

func TestEntityLedger_Backfill(t *testing.T) {
	el := EntityLedger{2024: Default(Fee, dec(500)), 2025: Default(Fee, dec(500))}
	got := el.Backfill(dec(500), dec(700))
	for _, y := range got.Years() {
		if c := got[y].Month(time.June); !c.Amount.Equal(dec(700)) {
			t.Errorf("Backfill() %d June = %s; want 700", y, c.Amount)
		}
	}
	if c := el[2024].Month(time.June); !c.Amount.Equal(dec(500)) {
		t.Error("EntityLedger.Backfill() must not change its receiver")
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		cells []Cell
		want  Summary
	}{
		{name: "empty", kind: Fee, want: Summary{Due: decimal.Zero, Paid: decimal.Zero, Adjustment: decimal.Zero, Balance: decimal.Zero}},
		{
			name: "fine folds into due",
			kind: Fee,
			cells: []Cell{
				{Amount: dec(1000), Adjustment: dec(100), Paid: true},
				{Amount: dec(1000)},
			},
			want: Summary{Due: dec(2100), Paid: dec(1100), Adjustment: dec(100), Balance: dec(1000)},
		},
		{
			name:  "paid zero cell counts nothing",
			kind:  Fee,
			cells: []Cell{{Paid: true}, {Amount: dec(300), Paid: true}},
			want:  Summary{Due: dec(300), Paid: dec(300), Adjustment: decimal.Zero, Balance: decimal.Zero},
		},
		{
			name:  "negative inputs are not clamped",
			kind:  Fee,
			cells: []Cell{{Amount: dec(-200)}, {Amount: dec(500)}},
			want:  Summary{Due: dec(300), Paid: decimal.Zero, Adjustment: decimal.Zero, Balance: dec(300)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.kind, tt.cells...)
			if !got.Due.Equal(tt.want.Due) || !got.Paid.Equal(tt.want.Paid) ||
				!got.Adjustment.Equal(tt.want.Adjustment) || !got.Balance.Equal(tt.want.Balance) {
				t.Errorf("Aggregate() = %+v; want %+v", got, tt.want)
			}
			if got.Net != nil {
				t.Errorf("Aggregate() Net = %s; fee ledgers do not report it", got.Net)
			}
		})
	}
}

func TestAggregate_salaryNet(t *testing.T) {
	got := Aggregate(Salary,
		Cell{Amount: dec(30000), Adjustment: dec(2000), Paid: true},
		Cell{Amount: dec(30000), Adjustment: dec(1000)},
	)
	if !got.Balance.Equal(dec(31000)) {
		t.Errorf("Balance = %s; want 31000", got.Balance)
	}
	if got.Net == nil || !got.Net.Equal(dec(28000)) {
		t.Errorf("Net = %v; want 28000", got.Net)
	}
}

func TestAggregate_properties(t *testing.T) {
	l := Default(Fee, dec(1200))
	l.SetMonth(time.March, Cell{Amount: dec(1200), Adjustment: dec(50), Paid: true})
	l.SetMonth(time.May, Cell{})
	l.Additional = Cell{Amount: dec(2000), Paid: true}

	s := l.Summarize(AllMonths)
	want := decimal.Zero
	for _, c := range l.Cells() {
		want = want.Add(c.Amount).Add(c.Adjustment)
	}
	if !s.Due.Equal(want) {
		t.Errorf("Due = %s; want sum of cells %s", s.Due, want)
	}
	if s.Paid.GreaterThan(s.Due) {
		t.Errorf("Paid %s > Due %s", s.Paid, s.Due)
	}

	// flipping paid on a zero cell never moves Paid
	toggled := l
	c := toggled.Month(time.May)
	c.Paid = !c.Paid
	toggled.SetMonth(time.May, c)
	if got := toggled.Summarize(AllMonths); !got.Paid.Equal(s.Paid) {
		t.Errorf("toggling a zero cell changed Paid: %s -> %s", s.Paid, got.Paid)
	}

	// due does not depend on paid flags
	for i := range toggled.Months {
		toggled.Months[i].Paid = true
	}
	if got := toggled.Summarize(AllMonths); !got.Due.Equal(s.Due) {
		t.Errorf("paid flags changed Due: %s -> %s", s.Due, got.Due)
	}
}

func TestMonthScope_admission(t *testing.T) {
	admitted := date(2025, time.March, 15)
	l := Default(Fee, dec(1000))
	l.SetMonth(time.March, Cell{Amount: dec(1000), Paid: true})
	l.Additional = Cell{Amount: dec(2000), Paid: true, Description: "Admission"}

	march := l.Summarize(MonthScope(time.March, 2025, admitted))
	if !march.Due.Equal(dec(3000)) || !march.Paid.Equal(dec(3000)) {
		t.Errorf("March = %+v; want due 3000, paid 3000", march)
	}

	april := l.Summarize(MonthScope(time.April, 2025, admitted))
	if !april.Due.Equal(dec(1000)) || !april.Paid.IsZero() {
		t.Errorf("April = %+v; want due 1000, paid 0", april)
	}

	otherYear := l.Summarize(MonthScope(time.March, 2026, admitted))
	if !otherYear.Due.Equal(dec(1000)) {
		t.Errorf("March 2026 = %+v; Additional belongs to the admission year only", otherYear)
	}

	if s := MonthScope(0, 2025, admitted); s != AllMonths {
		t.Errorf("MonthScope(0) = %+v; want AllMonths", s)
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Month
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "all", want: 0},
		{in: "ALL", want: 0},
		{in: "March", want: time.March},
		{in: "march", want: time.March},
		{in: "Sep", want: time.September},
		{in: "12", want: time.December},
		{in: "13", wantErr: true},
		{in: "0", wantErr: true},
		{in: "Marchy", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonth(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMonth(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCell_Status(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want PaymentStatus
	}{
		{name: "paid", cell: Cell{Amount: dec(1000), Paid: true}, want: StatusPaid},
		{name: "unpaid", cell: Cell{Amount: dec(1000)}, want: StatusUnpaid},
		{name: "fine only", cell: Cell{Adjustment: dec(100)}, want: StatusUnpaid},
		{name: "nothing due", cell: Cell{}, want: StatusNA},
		{name: "nothing due flagged paid", cell: Cell{Paid: true}, want: StatusNA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.Status(); got != tt.want {
				t.Errorf("Status() = %s; want %s", got, tt.want)
			}
		})
	}
}
