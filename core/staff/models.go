package staff

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/roster"
)

// Kind is the ledger kind of every staff member.
const Kind = ledger.Salary

type Staff struct {
	roster.Member
	Designation   string `json:"designation"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email,omitempty"`
}

func (s Staff) Roster() roster.Member   { return s.Member }
func (s Staff) LedgerKind() ledger.Kind { return Kind }
func (s Staff) Group() string           { return s.Designation }
func (s Staff) SearchKeys() []string    { return []string{s.Name, s.Designation, s.ContactNumber} }

// SalaryLedger resolves the salary ledger of year.
func (s Staff) SalaryLedger(year int) ledger.YearLedger {
	return s.YearLedger(Kind, year)
}

type NewStaff struct {
	Name          string          `json:"name" validate:"required"`
	Designation   string          `json:"designation" validate:"required"`
	ContactNumber string          `json:"contact_number" validate:"required"`
	Email         string          `json:"email" validate:"omitempty,email"`
	MonthlySalary decimal.Decimal `json:"monthly_salary" validate:"gte=0"`
	JoiningDate   core.Date       `json:"joining_date"`
}

func (ns *NewStaff) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Designation = core.CleanString(ns.Designation)
	ns.ContactNumber = core.CleanString(ns.ContactNumber)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStaff defines what may be changed on an existing Staff. Blank fields keep their current value.
type UpdateStaff struct {
	Name          string           `json:"name"`
	Designation   string           `json:"designation"`
	ContactNumber string           `json:"contact_number"`
	Email         string           `json:"email" validate:"omitempty,email"`
	MonthlySalary *decimal.Decimal `json:"monthly_salary" validate:"omitempty,gte=0"`
	JoiningDate   *core.Date       `json:"joining_date"`
}

func (us *UpdateStaff) Validate(orig Staff, validate *validator.Validate) error {
	us.Name = orDefault(core.CleanString(us.Name), orig.Name)
	us.Designation = orDefault(core.CleanString(us.Designation), orig.Designation)
	us.ContactNumber = orDefault(core.CleanString(us.ContactNumber), orig.ContactNumber)
	us.Email = orDefault(core.CleanString(us.Email, true /* lower */), orig.Email)
	return validate.Struct(us)
}

func orDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
