package user

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursar/core"
)

func TestNewUser_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)

	newUser := func(pwd string) NewUser {
		return NewUser{Name: "Ayesha Khan", Email: " Ayesha@School.PK ", Password: pwd, PasswordConfirm: pwd}
	}

	tests := []struct {
		name    string
		data    NewUser
		wantTag string
	}{
		{name: "too short", data: newUser("Ab1!"), wantTag: pwdMinLenTag},
		{name: "whitespace", data: newUser("Abc 1234!x"), wantTag: pwdNoSpaceTag},
		{name: "all numeric", data: newUser("1234567890"), wantTag: pwdNotAllNumTag},
		{name: "not complex", data: newUser("abcdefgh1"), wantTag: pwdComplexityTag},
		{name: "similar to name", data: newUser("AyeshaKhan1!"), wantTag: pwdAttrSimTag},
		{name: "mismatch", data: NewUser{Name: "A", Email: "a@b.cd", Password: "Gr8!Ledger#", PasswordConfirm: "nope"}, wantTag: "eqfield"},
		{name: "valid", data: newUser("Gr8!Ledger#")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			err := data.Validate(validate)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if data.Email != "ayesha@school.pk" {
					t.Errorf("Validate() email = %q; want it cleaned", data.Email)
				}
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Validate() error = %v; want validator.ValidationErrors", err)
			}
			found := false
			for _, fe := range verrs {
				if fe.Tag() == tt.wantTag {
					found = true
					if fe.Translate(translator) == "" {
						t.Errorf("tag %s has no translation", fe.Tag())
					}
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v; want tag %s", verrs, tt.wantTag)
			}
		})
	}
}
