// Package slip manages fee vouchers: one slip per student and month, printed
// and handed out for payment.
package slip

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
)

type (
	PaymentMode string
	Status      string
)

const (
	Cash   PaymentMode = "Cash"
	Online PaymentMode = "Online"

	Paid   Status = "Paid"
	Unpaid Status = "Unpaid"
)

var (
	// errors
	ErrNotFound     = errors.New("slip not found")
	ErrNothingToPay = errors.New("total amount must be greater than zero")
)

type Slip struct {
	ID            string          `json:"id"`
	StudentID     string          `json:"student_id"`
	StudentName   string          `json:"student_name"`
	StudentClass  string          `json:"student_class"`
	RollNumber    string          `json:"roll_number"`
	Month         time.Month      `json:"month"`
	Year          int             `json:"year"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	Fine          decimal.Decimal `json:"fine"`
	LateFee       decimal.Decimal `json:"late_fee"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DueDate       core.Date       `json:"due_date"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	BankName      string          `json:"bank_name,omitempty"`
	AccountNumber string          `json:"account_number,omitempty"`
	Status        Status          `json:"status"`
	IssueDate     time.Time       `json:"issue_date"` // UTC
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

// Total is what the slip asks for: fee, fines and late fee.
func (s Slip) Total() decimal.Decimal {
	return s.FeeAmount.Add(s.Fine).Add(s.LateFee)
}

func (s Slip) IsPaid() bool { return s.Status == Paid }

// Period is the "Month, Year" label printed on the slip.
func (s Slip) Period() string {
	return s.Month.String() + ", " + strconv.Itoa(s.Year)
}

// SlipData holds the editable part of a slip.
type SlipData struct {
	FeeAmount     decimal.Decimal `json:"fee_amount" validate:"gte=0"`
	Fine          decimal.Decimal `json:"fine" validate:"gte=0"`
	LateFee       decimal.Decimal `json:"late_fee" validate:"gte=0"`
	DueDate       core.Date       `json:"due_date"`
	PaymentMode   PaymentMode     `json:"payment_mode" validate:"omitempty,oneof=Cash Online"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	Status        Status          `json:"status" validate:"omitempty,oneof=Paid Unpaid"`
}

func (d *SlipData) clean() {
	d.BankName = core.CleanString(d.BankName)
	d.AccountNumber = core.CleanString(d.AccountNumber)
	if d.PaymentMode == "" {
		d.PaymentMode = Cash
	}
	if d.PaymentMode == Cash {
		d.BankName, d.AccountNumber = "", ""
	}
}

func (d SlipData) total() decimal.Decimal {
	return d.FeeAmount.Add(d.Fine).Add(d.LateFee)
}

func (d SlipData) checkTotal() error {
	if !d.total().IsPositive() {
		return core.NewValidationError(ErrNothingToPay, core.FieldError{Field: "total_amount", Error: ErrNothingToPay.Error()})
	}
	return nil
}

// NewSlip issues a slip to a student for a month of a year.
type NewSlip struct {
	SlipData
	StudentID string `json:"student_id" validate:"required"`
	Month     int    `json:"month" validate:"required,gte=1,lte=12"`
	Year      int    `json:"year" validate:"required,gte=1900,lte=9999"`
}

func (ns *NewSlip) Validate(validate *validator.Validate) error {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return ns.checkTotal()
}

// UpdateSlip replaces the editable part of a slip. The issue date never changes.
type UpdateSlip struct {
	SlipData
}

func (us *UpdateSlip) Validate(validate *validator.Validate) error {
	us.clean()
	if err := validate.Struct(us); err != nil {
		return err
	}
	return us.checkTotal()
}

// Stats sums up the slips of a month.
type Stats struct {
	Generated int             `json:"total_generated"`
	Collected decimal.Decimal `json:"total_collected"`
	Pending   decimal.Decimal `json:"total_pending"`
}

func Summarize(slips []Slip) Stats {
	st := Stats{Generated: len(slips), Collected: decimal.Zero, Pending: decimal.Zero}
	for _, s := range slips {
		if s.IsPaid() {
			st.Collected = st.Collected.Add(s.TotalAmount)
		} else {
			st.Pending = st.Pending.Add(s.TotalAmount)
		}
	}
	return st
}

// Filter keeps the slips of month and year.
func Filter(slips []Slip, year int, month time.Month) []Slip {
	out := make([]Slip, 0, len(slips))
	for _, s := range slips {
		if s.Year == year && (month == 0 || s.Month == month) {
			out = append(out, s)
		}
	}
	return out
}
