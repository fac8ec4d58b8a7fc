package user

import (
	"testing"
	"time"
)

func TestTokenGenerator(t *testing.T) {
	gen := NewTokenGenerator("secret", 3*24*time.Hour)

	now := time.Now()
	usr := User{
		ID:        "6f1c5d3e-1f0a-4c43-9d0e-2f1f8b7a4a10",
		Name:      "T",
		Email:     "t@test.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken, err := gen.Make(usr)
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	// an expired token
	dayLate := gen.timeout + (24 * time.Hour)
	gen.nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, _ := gen.Make(usr)
	gen.nowFunc = time.Now

	// logging in invalidates pending tokens
	loggedIn := usr
	loggedIn.LastLogin = now.Add(time.Minute)

	otherSecret := NewTokenGenerator("other", gen.timeout)

	tests := []struct {
		name    string
		gen     *TokenGenerator
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", gen: gen, usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", gen: gen, usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", gen: gen, usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", gen: gen, usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid signature", gen: gen, usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", gen: gen, usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "user logged in since", gen: gen, usr: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "other secret", gen: otherSecret, usr: usr, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", gen: gen, usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.gen.Verify(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeUID(t *testing.T) {
	usr := User{ID: "6f1c5d3e-1f0a-4c43-9d0e-2f1f8b7a4a10"}
	got, err := decodeUID(EncodeUID(usr))
	if err != nil || got != usr.ID {
		t.Errorf("decodeUID(EncodeUID()) = %q, %v; want %q", got, err, usr.ID)
	}
}
