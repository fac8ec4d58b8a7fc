package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/live"
)

type expenseRepository struct {
	db *DB
}

var _ expense.Repository = (*expenseRepository)(nil) // interface compliance check

func NewExpenseRepository(db *DB) *expenseRepository {
	return &expenseRepository{db: db}
}

func (repo *expenseRepository) CreateExpense(_ context.Context, e expense.Expense) (expense.Expense, error) {
	e.ID = uuid.New().String()
	repo.db.expenses.insert(e.ID, e)
	repo.db.notify(live.Expenses)
	return e, nil
}

func (repo *expenseRepository) QueryExpenses(context.Context) ([]expense.Expense, error) {
	expenses := repo.db.expenses.all(nil)
	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date.Before(expenses[j].Date) })
	return expenses, nil
}

func (repo *expenseRepository) DeleteExpense(_ context.Context, id string) error {
	if !repo.db.expenses.remove(id) {
		return expense.ErrNotFound
	}
	repo.db.notify(live.Expenses)
	return nil
}
