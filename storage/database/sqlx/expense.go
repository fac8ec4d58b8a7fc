package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core/expense"
)

type expenseRow struct {
	ID          string          `db:"id"`
	Description string          `db:"description"`
	Cost        decimal.Decimal `db:"cost"`
	Date        time.Time       `db:"date"`
	CreatedAt   time.Time       `db:"created_at"`
}

type expenseRepository struct {
	db *sqlx.DB
}

var _ expense.Repository = (*expenseRepository)(nil) // interface compliance check

func NewExpenseRepository(db *sqlx.DB) *expenseRepository {
	return &expenseRepository{db: db}
}

func (repo expenseRepository) CreateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	e.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO expenses (id, description, cost, date, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Description, e.Cost, e.Date.UTC(), e.CreatedAt.UTC())
	if err != nil {
		return expense.Expense{}, errors.Wrap(err, "inserting expense")
	}
	return e, nil
}

func (repo expenseRepository) QueryExpenses(ctx context.Context) ([]expense.Expense, error) {
	var rows []expenseRow
	err := sqlx.SelectContext(ctx, repo.db, &rows,
		`SELECT id, description, cost, date, created_at FROM expenses ORDER BY date, created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying expenses")
	}

	expenses := make([]expense.Expense, 0, len(rows))
	for _, r := range rows {
		expenses = append(expenses, expense.Expense{
			ID:          r.ID,
			Description: r.Description,
			Cost:        r.Cost,
			Date:        r.Date.UTC(),
			CreatedAt:   r.CreatedAt.UTC(),
		})
	}
	return expenses, nil
}

func (repo expenseRepository) DeleteExpense(ctx context.Context, id string) error {
	if !validID(id) {
		return expense.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting expense")
	}
	return checkAffected(res, expense.ErrNotFound)
}
