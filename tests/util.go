// Package testutil holds fixtures shared by the tests of several packages.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/roster"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/core/user"
)

// Logger is a core.Logger writing to the test log.
type Logger struct {
	tb testing.TB
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(tb testing.TB) *Logger { return &Logger{tb: tb} }

func (l *Logger) log(level, msg string, args []interface{}) {
	l.tb.Helper()
	l.tb.Logf("%s: %s %s", level, msg, fmt.Sprint(args...))
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.tb.Helper()
	l.tb.Fatalf("FATAL: %s %s", msg, fmt.Sprint(args...))
}

// NewConfig returns the default configuration in test mode.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = true
	return conf
}

func CreateUser(t *testing.T, repo user.Repository, name, email, pwd string, isActive bool, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudent stores an active student with the ledger of its admission year seeded.
func CreateStudent(t *testing.T, repo student.Repository, name, class, roll string, fee int64, admission time.Time) student.Student {
	t.Helper()
	base := decimal.NewFromInt(fee)
	s, err := repo.CreateStudent(context.Background(), student.Student{
		Member: roster.Member{
			Name:       name,
			Status:     roster.StatusActive,
			JoinedAt:   admission,
			BaseAmount: base,
			Ledger:     roster.Seed(student.Kind, base, admission, admission),
			CreatedAt:  admission,
			UpdatedAt:  admission,
		},
		Class:      class,
		RollNumber: roll,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// CreateStaff stores an active staff member with the ledger of its joining year seeded.
func CreateStaff(t *testing.T, repo staff.Repository, name, designation, contact string, salary int64, joined time.Time) staff.Staff {
	t.Helper()
	base := decimal.NewFromInt(salary)
	s, err := repo.CreateStaff(context.Background(), staff.Staff{
		Member: roster.Member{
			Name:       name,
			Status:     roster.StatusActive,
			JoinedAt:   joined,
			BaseAmount: base,
			Ledger:     roster.Seed(staff.Kind, base, joined, joined),
			CreatedAt:  joined,
			UpdatedAt:  joined,
		},
		Designation:   designation,
		ContactNumber: contact,
	})
	if err != nil {
		t.Fatalf("CreateStaff() failed: %v", err)
	}
	return s
}
