package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core/expense"
)

type expenseApi struct {
	srv      *Server
	svc      *expense.Service
	validate *validator.Validate
}

func registerExpenseAPI(g *echo.Group, s *Server) {
	api := expenseApi{srv: s, svc: s.deps.ExpenseSvc, validate: s.deps.Validate}

	g.GET("", api.query)
	g.POST("", api.create)
	g.DELETE("/:id", api.destroy)
}

type ExpenseList struct {
	Expenses []expense.Expense `json:"expenses"`
	Total    decimal.Decimal   `json:"total"`
}

func (api *expenseApi) query(ctx echo.Context) error {
	year, month, err := bindPeriod(ctx, api.srv.now())
	if err != nil {
		return err
	}
	expenses, err := api.svc.Query(ctx.Request().Context(), year, month)
	if err != nil {
		return errors.Wrap(err, "querying expenses")
	}
	return ctx.JSON(http.StatusOK, ExpenseList{Expenses: expenses, Total: expense.Total(expenses)})
}

func (api *expenseApi) create(ctx echo.Context) error {
	var data expense.NewExpense
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExpense")
	}
	if data.Year == 0 {
		data.Year = api.srv.now().Year()
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating expense")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *expenseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting expense")
	}
	return ctx.NoContent(http.StatusNoContent)
}
