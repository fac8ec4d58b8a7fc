package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/student"
)

const studentColumns = `id, name, class, roll_number, guardian_email, status, left_date, joined_at, base_amount, created_at, updated_at`

type studentRow struct {
	memberRow
	Class         string      `db:"class"`
	RollNumber    string      `db:"roll_number"`
	GuardianEmail null.String `db:"guardian_email"`
}

func newStudentRow(s student.Student) studentRow {
	return studentRow{
		memberRow:     newMemberRow(s.Member),
		Class:         s.Class,
		RollNumber:    s.RollNumber,
		GuardianEmail: null.NewString(s.GuardianEmail, s.GuardianEmail != ""),
	}
}

func (r studentRow) student(el ledger.EntityLedger) student.Student {
	return student.Student{
		Member:        r.member(el),
		Class:         r.Class,
		RollNumber:    r.RollNumber,
		GuardianEmail: r.GuardianEmail.String,
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) get(ctx context.Context, exec sqlx.QueryerContext, query string, args ...interface{}) (student.Student, error) {
	var row studentRow
	if err := sqlx.GetContext(ctx, exec, &row, query, args...); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "getting student")
	}
	ledgers, err := loadLedgers(ctx, exec, student.Kind, row.ID)
	if err != nil {
		return student.Student{}, err
	}
	return row.student(ledgers[row.ID]), nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO students (`+studentColumns+`)
			VALUES (:id, :name, :class, :roll_number, :guardian_email, :status, :left_date, :joined_at, :base_amount, :created_at, :updated_at)`,
			newStudentRow(s)); err != nil {
			return errors.Wrap(err, "inserting student")
		}
		return saveLedgers(ctx, tx, student.Kind, s.ID, s.Ledger, s.Ledger.Years())
	})
	if err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, `SELECT `+studentColumns+` FROM students ORDER BY created_at, id`); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	ledgers, err := loadLedgers(ctx, repo.db, student.Kind)
	if err != nil {
		return nil, err
	}

	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student(ledgers[r.ID]))
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	return repo.get(ctx, repo.db, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
}

func (repo studentRepository) FindStudent(ctx context.Context, name, class, roll string) (student.Student, error) {
	return repo.get(ctx, repo.db, `
		SELECT `+studentColumns+` FROM students
		WHERE lower(name) = lower($1) AND lower(class) = lower($2) AND lower(roll_number) = lower($3)
		LIMIT 1`,
		name, class, roll)
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student, years ...int) (student.Student, error) {
	if !validID(s.ID) {
		return student.Student{}, student.ErrNotFound
	}
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := sqlx.NamedExecContext(ctx, tx, `
			UPDATE students SET
				name = :name, class = :class, roll_number = :roll_number, guardian_email = :guardian_email,
				status = :status, left_date = :left_date, joined_at = :joined_at, base_amount = :base_amount,
				updated_at = :updated_at
			WHERE id = :id`,
			newStudentRow(s))
		if err != nil {
			return errors.Wrap(err, "updating student")
		}
		if err = checkAffected(res, student.ErrNotFound); err != nil {
			return err
		}
		return saveLedgers(ctx, tx, student.Kind, s.ID, s.Ledger, years)
	})
	if err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo studentRepository) SaveStudentLedger(ctx context.Context, id string, year int, l ledger.YearLedger) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	return saveLedger(ctx, repo.db, student.Kind, id, year, l)
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, "deleting student")
		}
		if err = checkAffected(res, student.ErrNotFound); err != nil {
			return err
		}
		return deleteLedgers(ctx, tx, student.Kind, id)
	})
}
