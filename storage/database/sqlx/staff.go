package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/staff"
)

const staffColumns = `id, name, designation, contact_number, email, status, left_date, joined_at, base_amount, created_at, updated_at`

type staffRow struct {
	memberRow
	Designation   string      `db:"designation"`
	ContactNumber string      `db:"contact_number"`
	Email         null.String `db:"email"`
}

func newStaffRow(s staff.Staff) staffRow {
	return staffRow{
		memberRow:     newMemberRow(s.Member),
		Designation:   s.Designation,
		ContactNumber: s.ContactNumber,
		Email:         null.NewString(s.Email, s.Email != ""),
	}
}

func (r staffRow) staff(el ledger.EntityLedger) staff.Staff {
	return staff.Staff{
		Member:        r.member(el),
		Designation:   r.Designation,
		ContactNumber: r.ContactNumber,
		Email:         r.Email.String,
	}
}

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *sqlx.DB) *staffRepository {
	return &staffRepository{db: db}
}

func (repo staffRepository) get(ctx context.Context, query string, args ...interface{}) (staff.Staff, error) {
	var row staffRow
	if err := sqlx.GetContext(ctx, repo.db, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, errors.Wrap(err, "getting staff")
	}
	ledgers, err := loadLedgers(ctx, repo.db, staff.Kind, row.ID)
	if err != nil {
		return staff.Staff{}, err
	}
	return row.staff(ledgers[row.ID]), nil
}

func (repo staffRepository) CreateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	s.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO staff (`+staffColumns+`)
			VALUES (:id, :name, :designation, :contact_number, :email, :status, :left_date, :joined_at, :base_amount, :created_at, :updated_at)`,
			newStaffRow(s)); err != nil {
			return errors.Wrap(err, "inserting staff")
		}
		return saveLedgers(ctx, tx, staff.Kind, s.ID, s.Ledger, s.Ledger.Years())
	})
	if err != nil {
		return staff.Staff{}, err
	}
	return s, nil
}

func (repo staffRepository) QueryStaff(ctx context.Context) ([]staff.Staff, error) {
	var rows []staffRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, `SELECT `+staffColumns+` FROM staff ORDER BY created_at, id`); err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	ledgers, err := loadLedgers(ctx, repo.db, staff.Kind)
	if err != nil {
		return nil, err
	}

	list := make([]staff.Staff, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.staff(ledgers[r.ID]))
	}
	return list, nil
}

func (repo staffRepository) GetStaff(ctx context.Context, id string) (staff.Staff, error) {
	if !validID(id) {
		return staff.Staff{}, staff.ErrNotFound
	}
	return repo.get(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
}

func (repo staffRepository) FindStaff(ctx context.Context, name, contact string) (staff.Staff, error) {
	return repo.get(ctx, `
		SELECT `+staffColumns+` FROM staff
		WHERE lower(name) = lower($1) AND contact_number = $2
		LIMIT 1`,
		name, contact)
}

func (repo staffRepository) UpdateStaff(ctx context.Context, s staff.Staff, years ...int) (staff.Staff, error) {
	if !validID(s.ID) {
		return staff.Staff{}, staff.ErrNotFound
	}
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := sqlx.NamedExecContext(ctx, tx, `
			UPDATE staff SET
				name = :name, designation = :designation, contact_number = :contact_number, email = :email,
				status = :status, left_date = :left_date, joined_at = :joined_at, base_amount = :base_amount,
				updated_at = :updated_at
			WHERE id = :id`,
			newStaffRow(s))
		if err != nil {
			return errors.Wrap(err, "updating staff")
		}
		if err = checkAffected(res, staff.ErrNotFound); err != nil {
			return err
		}
		return saveLedgers(ctx, tx, staff.Kind, s.ID, s.Ledger, years)
	})
	if err != nil {
		return staff.Staff{}, err
	}
	return s, nil
}

func (repo staffRepository) SaveStaffLedger(ctx context.Context, id string, year int, l ledger.YearLedger) error {
	if !validID(id) {
		return staff.ErrNotFound
	}
	return saveLedger(ctx, repo.db, staff.Kind, id, year, l)
}

func (repo staffRepository) DeleteStaff(ctx context.Context, id string) error {
	if !validID(id) {
		return staff.ErrNotFound
	}
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, "deleting staff")
		}
		if err = checkAffected(res, staff.ErrNotFound); err != nil {
			return err
		}
		return deleteLedgers(ctx, tx, staff.Kind, id)
	})
}
