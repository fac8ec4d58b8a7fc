package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/slip"
)

const slipColumns = `id, student_id, student_name, student_class, roll_number, month, year,
	fee_amount, fine, late_fee, total_amount, due_date, payment_mode, bank_name, account_number,
	status, issue_date, updated_at`

type slipRow struct {
	ID            string          `db:"id"`
	StudentID     string          `db:"student_id"`
	StudentName   string          `db:"student_name"`
	StudentClass  string          `db:"student_class"`
	RollNumber    string          `db:"roll_number"`
	Month         int             `db:"month"`
	Year          int             `db:"year"`
	FeeAmount     decimal.Decimal `db:"fee_amount"`
	Fine          decimal.Decimal `db:"fine"`
	LateFee       decimal.Decimal `db:"late_fee"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	DueDate       null.Time       `db:"due_date"`
	PaymentMode   string          `db:"payment_mode"`
	BankName      null.String     `db:"bank_name"`
	AccountNumber null.String     `db:"account_number"`
	Status        string          `db:"status"`
	IssueDate     time.Time       `db:"issue_date"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func newSlipRow(s slip.Slip) slipRow {
	return slipRow{
		ID:            s.ID,
		StudentID:     s.StudentID,
		StudentName:   s.StudentName,
		StudentClass:  s.StudentClass,
		RollNumber:    s.RollNumber,
		Month:         int(s.Month),
		Year:          s.Year,
		FeeAmount:     s.FeeAmount,
		Fine:          s.Fine,
		LateFee:       s.LateFee,
		TotalAmount:   s.TotalAmount,
		DueDate:       null.NewTime(s.DueDate.Time, !s.DueDate.IsZero()),
		PaymentMode:   string(s.PaymentMode),
		BankName:      null.NewString(s.BankName, s.BankName != ""),
		AccountNumber: null.NewString(s.AccountNumber, s.AccountNumber != ""),
		Status:        string(s.Status),
		IssueDate:     s.IssueDate.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}
}

func (r slipRow) slip() slip.Slip {
	s := slip.Slip{
		ID:            r.ID,
		StudentID:     r.StudentID,
		StudentName:   r.StudentName,
		StudentClass:  r.StudentClass,
		RollNumber:    r.RollNumber,
		Month:         time.Month(r.Month),
		Year:          r.Year,
		FeeAmount:     r.FeeAmount,
		Fine:          r.Fine,
		LateFee:       r.LateFee,
		TotalAmount:   r.TotalAmount,
		PaymentMode:   slip.PaymentMode(r.PaymentMode),
		BankName:      r.BankName.String,
		AccountNumber: r.AccountNumber.String,
		Status:        slip.Status(r.Status),
		IssueDate:     r.IssueDate.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.DueDate.Valid {
		s.DueDate = core.NewDate(r.DueDate.Time)
	}
	return s
}

type slipRepository struct {
	db *sqlx.DB
}

var _ slip.Repository = (*slipRepository)(nil) // interface compliance check

func NewSlipRepository(db *sqlx.DB) *slipRepository {
	return &slipRepository{db: db}
}

func (repo slipRepository) CreateSlip(ctx context.Context, s slip.Slip) (slip.Slip, error) {
	s.ID = uuid.New().String()
	_, err := sqlx.NamedExecContext(ctx, repo.db, `
		INSERT INTO slips (`+slipColumns+`)
		VALUES (:id, :student_id, :student_name, :student_class, :roll_number, :month, :year,
			:fee_amount, :fine, :late_fee, :total_amount, :due_date, :payment_mode, :bank_name, :account_number,
			:status, :issue_date, :updated_at)`,
		newSlipRow(s))
	if err != nil {
		return slip.Slip{}, errors.Wrap(err, "inserting slip")
	}
	return s, nil
}

func (repo slipRepository) QuerySlips(ctx context.Context, year int, month time.Month) ([]slip.Slip, error) {
	var rows []slipRow
	err := sqlx.SelectContext(ctx, repo.db, &rows, `
		SELECT `+slipColumns+` FROM slips
		WHERE year = $1 AND ($2 = 0 OR month = $2)
		ORDER BY issue_date, id`,
		year, int(month))
	if err != nil {
		return nil, errors.Wrap(err, "querying slips")
	}

	slips := make([]slip.Slip, 0, len(rows))
	for _, r := range rows {
		slips = append(slips, r.slip())
	}
	return slips, nil
}

func (repo slipRepository) GetSlip(ctx context.Context, id string) (slip.Slip, error) {
	if !validID(id) {
		return slip.Slip{}, slip.ErrNotFound
	}
	var row slipRow
	if err := sqlx.GetContext(ctx, repo.db, &row, `SELECT `+slipColumns+` FROM slips WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return slip.Slip{}, slip.ErrNotFound
		}
		return slip.Slip{}, errors.Wrap(err, "getting slip")
	}
	return row.slip(), nil
}

// UpdateSlip saves everything but the student, period and issue date.
func (repo slipRepository) UpdateSlip(ctx context.Context, s slip.Slip) (slip.Slip, error) {
	if !validID(s.ID) {
		return slip.Slip{}, slip.ErrNotFound
	}
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
		UPDATE slips SET
			fee_amount = :fee_amount, fine = :fine, late_fee = :late_fee, total_amount = :total_amount,
			due_date = :due_date, payment_mode = :payment_mode, bank_name = :bank_name,
			account_number = :account_number, status = :status, updated_at = :updated_at
		WHERE id = :id`,
		newSlipRow(s))
	if err != nil {
		return slip.Slip{}, errors.Wrap(err, "updating slip")
	}
	if err = checkAffected(res, slip.ErrNotFound); err != nil {
		return slip.Slip{}, err
	}
	return s, nil
}

func (repo slipRepository) DeleteSlip(ctx context.Context, id string) error {
	if !validID(id) {
		return slip.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM slips WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting slip")
	}
	return checkAffected(res, slip.ErrNotFound)
}
