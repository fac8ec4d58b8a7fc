package echoapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/slip"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
)

// enroll creates a student through the API.
func enroll(t *testing.T, app *testApp, data map[string]interface{}) student.Student {
	t.Helper()
	var s student.Student
	app.doJSON(t, http.MethodPost, "/v1/students", data, http.StatusCreated, &s)
	return s
}

func Test_expenseApi(t *testing.T) {
	app := setup(t)

	var rent expense.Expense
	app.doJSON(t, http.MethodPost, "/v1/expenses", map[string]interface{}{
		"description": " Rent ", "cost": 500, "year": 2025, "month": 3,
	}, http.StatusCreated, &rent)
	if rent.Description != "Rent" || !rent.Date.Equal(date(2025, time.March, 15)) {
		t.Errorf("created expense = %+v", rent)
	}
	app.doJSON(t, http.MethodPost, "/v1/expenses", map[string]interface{}{
		"description": "Chalk", "cost": "120.50", "year": 2025, "month": 4,
	}, http.StatusCreated, nil)

	t.Run("validation", func(t *testing.T) {
		var fields map[string]string
		app.doJSON(t, http.MethodPost, "/v1/expenses", map[string]interface{}{"description": "Free", "cost": 0, "month": 3}, http.StatusBadRequest, &fields)
		if _, ok := fields["cost"]; !ok {
			t.Errorf("field errors = %v; want cost", fields)
		}
		app.doJSON(t, http.MethodPost, "/v1/expenses", map[string]interface{}{"description": "Odd", "cost": 1, "month": 13}, http.StatusBadRequest, nil)
	})

	tests := []struct {
		name  string
		query string
		count int
		total string
	}{
		{"year", "?year=2025", 2, "620.5"},
		{"month", "?year=2025&month=March", 1, "500"},
		{"empty month", "?year=2025&month=12", 0, "0"},
		{"other year", "?year=2024", 0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list ExpenseList
			app.doJSON(t, http.MethodGet, "/v1/expenses"+tt.query, nil, http.StatusOK, &list)
			if len(list.Expenses) != tt.count || list.Total.String() != tt.total {
				t.Errorf("got %d expenses totalling %s; want %d totalling %s", len(list.Expenses), list.Total, tt.count, tt.total)
			}
		})
	}

	t.Run("delete", func(t *testing.T) {
		app.doJSON(t, http.MethodDelete, "/v1/expenses/"+rent.ID, nil, http.StatusNoContent, nil)
		app.doJSON(t, http.MethodDelete, "/v1/expenses/"+rent.ID, nil, http.StatusNotFound, nil)
	})
}

func Test_slipApi(t *testing.T) {
	app := setup(t)
	ali := enroll(t, app, map[string]interface{}{
		"name": "Ali Khan", "class": "5", "roll_number": "12", "monthly_fee": 2000,
		"admission_date": "2025-01-10", "guardian_email": "parent@mail.pk",
	})
	sara := enroll(t, app, map[string]interface{}{
		"name": "Sara Ahmed", "class": "6", "roll_number": "3", "monthly_fee": 3000,
	})

	var s slip.Slip
	app.doJSON(t, http.MethodPost, "/v1/slips", map[string]interface{}{
		"student_id": ali.ID, "month": 3, "year": 2025, "fee_amount": 2000, "fine": 100, "due_date": "2025-03-10",
	}, http.StatusCreated, &s)
	if !s.TotalAmount.Equal(dec(2100)) || s.Status != slip.Unpaid || s.StudentName != "Ali Khan" || s.PaymentMode != slip.Cash {
		t.Fatalf("created slip = %+v", s)
	}

	t.Run("create validation", func(t *testing.T) {
		tests := []struct {
			name  string
			data  map[string]interface{}
			field string
		}{
			{"nothing to pay", map[string]interface{}{"student_id": ali.ID, "month": 3, "year": 2025}, "total_amount"},
			{"unknown student", map[string]interface{}{"student_id": "nobody", "month": 3, "year": 2025, "fee_amount": 1}, "student_id"},
			{"bad month", map[string]interface{}{"student_id": ali.ID, "month": 0, "year": 2025, "fee_amount": 1}, "month"},
			{"bad payment mode", map[string]interface{}{"student_id": ali.ID, "month": 3, "year": 2025, "fee_amount": 1, "payment_mode": "Cheque"}, "payment_mode"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var fields map[string]string
				app.doJSON(t, http.MethodPost, "/v1/slips", tt.data, http.StatusBadRequest, &fields)
				if _, ok := fields[tt.field]; !ok {
					t.Errorf("field errors = %v; want %s", fields, tt.field)
				}
			})
		}
	})

	t.Run("list", func(t *testing.T) {
		var list SlipList
		app.doJSON(t, http.MethodGet, "/v1/slips?year=2025&month=3", nil, http.StatusOK, &list)
		if len(list.Slips) != 1 || len(list.Students) != 2 {
			t.Fatalf("got %d slips and %d students; want 1 and 2", len(list.Slips), len(list.Students))
		}
		for _, st := range list.Students {
			if want := st.Student.ID == ali.ID; st.HasSlip != want {
				t.Errorf("%s: has_slip = %v; want %v", st.Student.Name, st.HasSlip, want)
			}
		}
		if list.Stats.Generated != 1 || !list.Stats.Pending.Equal(dec(2100)) || !list.Stats.Collected.IsZero() {
			t.Errorf("stats = %+v", list.Stats)
		}

		app.doJSON(t, http.MethodGet, "/v1/slips?year=2025&month=4", nil, http.StatusOK, &list)
		if len(list.Slips) != 0 || list.Stats.Generated != 0 {
			t.Errorf("April slips = %v; want none", list.Slips)
		}
	})

	t.Run("update", func(t *testing.T) {
		var got slip.Slip
		app.doJSON(t, http.MethodPut, "/v1/slips/"+s.ID, map[string]interface{}{
			"fee_amount": 2000, "fine": 100, "late_fee": 50, "due_date": "2025-03-10",
			"payment_mode": "Online", "bank_name": "HBL", "account_number": "0042", "status": "Paid",
		}, http.StatusOK, &got)
		if !got.IsPaid() || !got.TotalAmount.Equal(dec(2150)) || got.BankName != "HBL" || !got.IssueDate.Equal(s.IssueDate) {
			t.Errorf("updated slip = %+v", got)
		}
		app.doJSON(t, http.MethodPut, "/v1/slips/nothing", map[string]interface{}{"fee_amount": 1}, http.StatusNotFound, nil)
	})

	t.Run("voucher", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/slips/"+s.ID+"/voucher")
		checkPDF(t, rec)
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "voucher-ali-khan-2025-03.pdf") {
			t.Errorf("Content-Disposition = %q", cd)
		}
	})

	t.Run("email voucher", func(t *testing.T) {
		var res SuccessResponse
		app.doJSON(t, http.MethodPost, "/v1/slips/"+s.ID+"/voucher/email", nil, http.StatusAccepted, &res)
		msgs := app.mail.SentMessages()
		if len(msgs) != 1 {
			t.Fatalf("sent %d messages; want 1", len(msgs))
		}
		msg := msgs[0]
		if msg.To[0].Address != "parent@mail.pk" || !msg.HasAttachments() || msg.Attachments[0].Filename != voucherFilename(s) {
			t.Errorf("sent message = %+v", msg)
		}

		var other slip.Slip
		app.doJSON(t, http.MethodPost, "/v1/slips", map[string]interface{}{
			"student_id": sara.ID, "month": 3, "year": 2025, "fee_amount": 3000,
		}, http.StatusCreated, &other)
		var fields map[string]string
		app.doJSON(t, http.MethodPost, "/v1/slips/"+other.ID+"/voucher/email", nil, http.StatusBadRequest, &fields)
		if _, ok := fields["guardian_email"]; !ok {
			t.Errorf("field errors = %v; want guardian_email", fields)
		}
	})

	t.Run("email report", func(t *testing.T) {
		sent := len(app.mail.SentMessages())
		app.doJSON(t, http.MethodPost, "/v1/students/report?year=2025", ReportRequest{IDs: []string{ali.ID}, Email: true}, http.StatusAccepted, nil)
		msgs := app.mail.SentMessages()
		if len(msgs) != sent+1 {
			t.Fatalf("sent %d messages; want %d", len(msgs), sent+1)
		}
		if to := msgs[len(msgs)-1].To[0].Address; to != app.admin.Email {
			t.Errorf("report sent to %s; want %s", to, app.admin.Email)
		}
	})

	t.Run("student deletion drops slips", func(t *testing.T) {
		app.doJSON(t, http.MethodDelete, "/v1/students/"+ali.ID, nil, http.StatusNoContent, nil)
		app.doJSON(t, http.MethodGet, "/v1/slips/"+s.ID+"/voucher", nil, http.StatusNotFound, nil)
	})

	t.Run("delete", func(t *testing.T) {
		var list SlipList
		app.doJSON(t, http.MethodGet, "/v1/slips?year=2025&month=3", nil, http.StatusOK, &list)
		for _, sl := range list.Slips {
			app.doJSON(t, http.MethodDelete, "/v1/slips/"+sl.ID, nil, http.StatusNoContent, nil)
		}
		app.doJSON(t, http.MethodDelete, "/v1/slips/"+s.ID, nil, http.StatusNotFound, nil)
	})
}

// school fills the in-memory store with March 2025 figures:
// 5000 of fees with 2000 collected, a 30000 salary left unpaid and a 500 expense.
func school(t *testing.T, app *testApp) {
	t.Helper()
	ali := enroll(t, app, map[string]interface{}{
		"name": "Ali Khan", "class": "5", "roll_number": "12", "monthly_fee": 2000, "admission_date": "2025-01-10",
	})
	enroll(t, app, map[string]interface{}{
		"name": "Sara Ahmed", "class": "6", "roll_number": "3", "monthly_fee": 3000, "admission_date": "2025-03-01",
	})
	app.doJSON(t, http.MethodPut, "/v1/students/"+ali.ID+"/fees/2025",
		[]byte(`{"February": {"amount": 2000}, "March": {"amount": 2000, "fine": 100, "paid": true}}`), http.StatusOK, nil)

	var member staff.Staff
	app.doJSON(t, http.MethodPost, "/v1/staff", map[string]interface{}{
		"name": "Rukhsana Bibi", "designation": "Teacher", "contact_number": "0300-1234567",
		"monthly_salary": 30000, "joining_date": "2024-08-01",
	}, http.StatusCreated, &member)

	app.doJSON(t, http.MethodPost, "/v1/expenses", map[string]interface{}{
		"description": "Rent", "cost": 500, "year": 2025, "month": 3,
	}, http.StatusCreated, nil)
}

func Test_dashboardApi(t *testing.T) {
	app := setup(t)
	school(t, app)

	var d projection.DashboardStats
	app.doJSON(t, http.MethodGet, "/v1/dashboard?year=2025&month=March", nil, http.StatusOK, &d)

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"total_fee", d.TotalFee.String(), "5000"},
		{"collected_fee", d.CollectedFee.String(), "2000"},
		{"total_salaries", d.TotalSalaries.String(), "30000"},
		{"salaries_paid", d.SalariesPaid.String(), "0"},
		{"total_expenses", d.TotalExpenses.String(), "500"},
		{"net_profit", d.NetProfit.String(), "1500"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s; want %s", c.name, c.got, c.want)
		}
	}
	if d.Month != "March" || d.EnrolledStudents != 2 || d.ActiveStaff != 1 || len(d.Expenses) != 1 {
		t.Errorf("dashboard = %+v", d)
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "stream without board", path: "/v1/dashboard/stream", token: app.token,
			wantCode: http.StatusServiceUnavailable, wantData: marshalObj(t, httpErr{Error: "live dashboard unavailable"}),
		},
		{name: "bad month", path: "/v1/dashboard?month=Smarch", token: app.token, wantCode: http.StatusBadRequest},
	})
}

func Test_dashboardStream(t *testing.T) {
	app := setup(t, withBoard)
	school(t, app)

	boardCtx, stopBoard := context.WithCancel(context.Background())
	t.Cleanup(stopBoard)
	go app.srv.deps.Board.Run(boardCtx)

	ts := httptest.NewServer(app.srv)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/dashboard/stream?year=2025&month=3", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+app.token)
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q; want text/event-stream", ct)
	}

	events := bufio.NewScanner(res.Body)
	next := func() projection.DashboardStats {
		t.Helper()
		for events.Scan() {
			line := events.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var d projection.DashboardStats
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &d); err != nil {
				t.Fatalf("decoding event %q: %v", line, err)
			}
			return d
		}
		t.Fatalf("stream ended: %v", events.Err())
		return projection.DashboardStats{}
	}

	if d := next(); d.TotalExpenses.String() != "500" || d.NetProfit.String() != "1500" {
		t.Fatalf("first event = %+v", d)
	}

	app.doJSON(t, http.MethodPost, "/v1/expenses", map[string]interface{}{
		"description": "Books", "cost": 250, "year": 2025, "month": 3,
	}, http.StatusCreated, nil)
	for {
		d := next()
		if d.TotalExpenses.String() == "750" {
			if d.NetProfit.String() != "1250" {
				t.Errorf("net_profit = %s; want 1250", d.NetProfit)
			}
			break
		}
	}
}
