package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	testutil "github.com/trezcool/bursar/tests"
)

func Test_userApi(t *testing.T) {
	app := setup(t)
	inactive := testutil.CreateUser(t, app.users, "Gone", "gone@school.pk", adminPassword, false)

	login := func(email, pwd string) []byte {
		return marshalObj(t, LoginRequest{Email: email, Password: pwd})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "login: wrong password", method: http.MethodPost, path: "/v1/users/login",
			body: login("admin@school.pk", "nope"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "login: unknown email", method: http.MethodPost, path: "/v1/users/login",
			body: login("nobody@school.pk", adminPassword), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "login: deactivated", method: http.MethodPost, path: "/v1/users/login",
			body: login("gone@school.pk", adminPassword), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "me: auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "me: deactivated token", path: "/v1/users/me", token: getToken(t, app.srv, inactive),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "students: auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
	})

	t.Run("login", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/login", "", login(" Admin@School.pk ", adminPassword))
		app.srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v (%s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Token == "" {
			t.Fatalf("login response = %s; want a token", rec.Body.String())
		}

		// the new token works
		req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", res.Token)
		app.srv.ServeHTTP(rec, req)
		var me struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil || me.ID != app.admin.ID || me.Email != "admin@school.pk" {
			t.Errorf("me = %s; want the admin", rec.Body.String())
		}
	})

	t.Run("token refresh", func(t *testing.T) {
		var res LoginResponse
		app.doJSON(t, http.MethodPost, "/v1/users/token-refresh", nil, http.StatusOK, &res)
		if res.Token == "" {
			t.Error("token-refresh returned no token")
		}
	})

	t.Run("password reset", func(t *testing.T) {
		var res SuccessResponse
		app.doJSON(t, http.MethodPost, "/v1/users/password-reset", PasswordResetRequest{Email: "admin@school.pk"}, http.StatusOK, &res)
		app.doJSON(t, http.MethodPost, "/v1/users/password-reset", PasswordResetRequest{Email: "nobody@school.pk"}, http.StatusOK, &res)
		if got := len(app.mail.SentMessages()); got != 1 {
			t.Errorf("sent %d messages; want 1 (none for unknown emails)", got)
		}
	})
}
