package student

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
)

// Kind is the ledger kind of every student.
const Kind = ledger.Fee

type Student struct {
	roster.Member
	Class         string `json:"class"`
	RollNumber    string `json:"roll_number"`
	GuardianEmail string `json:"guardian_email,omitempty"`
}

// Roster, LedgerKind, Group and SearchKeys make a Student a projection subject.
func (s Student) Roster() roster.Member   { return s.Member }
func (s Student) LedgerKind() ledger.Kind { return Kind }
func (s Student) Group() string           { return s.Class }
func (s Student) SearchKeys() []string    { return []string{s.Name, s.Class, s.RollNumber} }

// FeeLedger resolves the fee ledger of year.
func (s Student) FeeLedger(year int) ledger.YearLedger {
	return s.YearLedger(Kind, year)
}

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	Name          string          `json:"name" validate:"required"`
	Class         string          `json:"class" validate:"required"`
	RollNumber    string          `json:"roll_number" validate:"required"`
	GuardianEmail string          `json:"guardian_email" validate:"omitempty,email"`
	MonthlyFee    decimal.Decimal `json:"monthly_fee" validate:"gte=0"`
	AdmissionDate core.Date       `json:"admission_date"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Class = core.CleanString(ns.Class)
	ns.RollNumber = core.CleanString(ns.RollNumber)
	ns.GuardianEmail = core.CleanString(ns.GuardianEmail, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what may be changed on an existing Student.
// Blank fields keep their current value.
type UpdateStudent struct {
	Name          string           `json:"name"`
	Class         string           `json:"class"`
	RollNumber    string           `json:"roll_number"`
	GuardianEmail string           `json:"guardian_email" validate:"omitempty,email"`
	MonthlyFee    *decimal.Decimal `json:"monthly_fee" validate:"omitempty,gte=0"`
	AdmissionDate *core.Date       `json:"admission_date"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if class := core.CleanString(us.Class); class != "" {
		us.Class = class
	} else {
		us.Class = orig.Class
	}
	if roll := core.CleanString(us.RollNumber); roll != "" {
		us.RollNumber = roll
	} else {
		us.RollNumber = orig.RollNumber
	}
	if email := core.CleanString(us.GuardianEmail, true /* lower */); email != "" {
		us.GuardianEmail = email
	} else {
		us.GuardianEmail = orig.GuardianEmail
	}
	return validate.Struct(us)
}
