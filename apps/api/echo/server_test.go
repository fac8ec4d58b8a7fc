package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/signal"
	"testing"
	"time"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/live"
	"github.com/trezcool/bursar/core/slip"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/core/user"
	emailsvc "github.com/trezcool/bursar/services/email"
	eventsvc "github.com/trezcool/bursar/services/events"
	inmemdb "github.com/trezcool/bursar/storage/database/inmem"
	testutil "github.com/trezcool/bursar/tests"
)

const adminPassword = "Gr8!Ledger#"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type sentMessages interface {
	SentMessages() []core.EmailMessage
}

type testApp struct {
	srv    *Server
	db     *inmemdb.DB
	mail   sentMessages
	events *eventsvc.LogPublisher
	users  user.Repository
	admin  user.User
	token  string
}

type appOption func(*ServerDeps, *inmemdb.DB)

// withBoard follows the in-memory store with a live board.
func withBoard(deps *ServerDeps, db *inmemdb.DB) {
	deps.Board = live.NewBoard(live.Sources{
		Students: deps.StudentSvc.QueryAll,
		Staff:    deps.StaffSvc.QueryAll,
		Expenses: deps.ExpenseSvc.QueryAll,
	}, db, deps.Logger)
}

func setup(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(t)
	core.ParseEmailTemplates(logger, true)

	db := inmemdb.Open()
	events := eventsvc.NewLogPublisher(logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	usrRepo := inmemdb.NewUserRepository(db)
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db), events, logger)
	deps := ServerDeps{
		Conf:       conf,
		Logger:     logger,
		MailSvc:    mailSvc,
		UserSvc:    user.NewService(usrRepo, mailSvc, conf),
		StudentSvc: studentSvc,
		StaffSvc:   staff.NewService(inmemdb.NewStaffRepository(db), events, logger),
		ExpenseSvc: expense.NewService(inmemdb.NewExpenseRepository(db), events, logger),
		SlipSvc:    slip.NewService(inmemdb.NewSlipRepository(db), studentSvc, events, logger),
		Validate:   validate,
		Translator: translator,
	}
	for _, opt := range opts {
		opt(&deps, db)
	}

	srv := NewServer(deps)
	t.Cleanup(func() { signal.Stop(srv.shutdown) })

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@school.pk", adminPassword, true)
	return &testApp{
		srv:    srv,
		db:     db,
		mail:   mailSvc,
		events: events,
		users:  usrRepo,
		admin:  admin,
		token:  getToken(t, srv, admin),
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func getToken(t *testing.T, srv *Server, usr user.User) string {
	t.Helper()
	token, err := srv.auth.GenerateToken(srv.auth.Claims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

// do sends an authenticated request as the admin.
func (app *testApp) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, app.token, data...)
	app.srv.ServeHTTP(rec, req)
	return rec
}

// doJSON sends an authenticated request, checks its status and decodes the response into out.
func (app *testApp) doJSON(t *testing.T, method, path string, body interface{}, wantCode int, out interface{}) {
	t.Helper()
	var data []byte
	if body != nil {
		data = marshalObj(t, body)
	}
	rec := app.do(method, path, data)
	if rec.Code != wantCode {
		t.Fatalf("%s %s: code = %v; want %v (body %s)", method, path, rec.Code, wantCode, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decoding %s: %v", method, path, rec.Body.String(), err)
		}
	}
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	if b, ok := obj.([]byte); ok {
		return b
	}
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return jsonEqual(j1, j2), nil
}

func jsonEqual(a, b interface{}) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return bytes.Equal(ab, bb)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
