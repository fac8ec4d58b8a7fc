package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
)

type dashboardApi struct {
	srv *Server
}

func registerDashboardAPI(g *echo.Group, s *Server) {
	api := dashboardApi{srv: s}

	g.GET("", api.retrieve)
	g.GET("/stream", api.stream)
}

func (api *dashboardApi) filter(ctx echo.Context) (projection.FilterState, error) {
	now := api.srv.now()
	year, month, err := bindPeriod(ctx, now)
	if err != nil {
		return projection.FilterState{}, err
	}
	f := projection.DefaultFilter(now)
	f.Year, f.Month = year, month
	return f, nil
}

// retrieve computes the dashboard from a fresh load of every collection.
func (api *dashboardApi) retrieve(ctx echo.Context) error {
	f, err := api.filter(ctx)
	if err != nil {
		return err
	}

	var (
		students  []student.Student
		staffList []staff.Staff
		expenses  []expense.Expense
	)
	deps := api.srv.deps
	g, gctx := errgroup.WithContext(ctx.Request().Context())
	g.Go(func() (err error) {
		students, err = deps.StudentSvc.QueryAll(gctx)
		return errors.Wrap(err, "querying students")
	})
	g.Go(func() (err error) {
		staffList, err = deps.StaffSvc.QueryAll(gctx)
		return errors.Wrap(err, "querying staff")
	})
	g.Go(func() (err error) {
		expenses, err = deps.ExpenseSvc.QueryAll(gctx)
		return errors.Wrap(err, "querying expenses")
	})
	if err = g.Wait(); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, projection.Dashboard(students, staffList, expenses, f))
}

// stream pushes the dashboard as server-sent events: once the live feeds
// settled their first load, then after every change.
func (api *dashboardApi) stream(ctx echo.Context) error {
	board := api.srv.deps.Board
	if board == nil {
		return errStreamUnavailable
	}
	f, err := api.filter(ctx)
	if err != nil {
		return err
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	return board.Stream(ctx.Request().Context(), f, func(d projection.DashboardStats) error {
		data, err := json.Marshal(d)
		if err != nil {
			return errors.Wrap(err, "encoding dashboard")
		}
		if _, err = fmt.Fprintf(res, "event: dashboard\ndata: %s\n\n", data); err != nil {
			return errors.Wrap(err, "writing dashboard event")
		}
		res.Flush()
		return nil
	})
}
