package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/report"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/user"
)

type staffApi struct {
	srv      *Server
	svc      *staff.Service
	users    *user.Service
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, s *Server) {
	api := staffApi{
		srv:      s,
		svc:      s.deps.StaffSvc,
		users:    s.deps.UserSvc,
		validate: s.deps.Validate,
	}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/stats", api.stats)
	g.POST("/report", api.report)

	// detail endpoints
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.POST("/:id/left", api.markLeft)
	g.POST("/:id/reactivate", api.reactivate)
	g.GET("/:id/salaries/:year", api.retrieveSalaries)
	g.PUT("/:id/salaries/:year", api.saveSalaries)
	g.GET("/:id/report", api.memberReport)
}

func (api *staffApi) query(ctx echo.Context) error {
	f, err := bindFilter(ctx, api.srv.now())
	if err != nil {
		return err
	}
	staffList, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	return ctx.JSON(http.StatusOK, listing(staffList, f))
}

func (api *staffApi) stats(ctx echo.Context) error {
	now := api.srv.now()
	f, err := bindFilter(ctx, now)
	if err != nil {
		return err
	}
	staffList, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	return ctx.JSON(http.StatusOK, projection.Summarize(projection.Subjects(staffList), f, now))
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding staff by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *staffApi) update(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding staff by ID")
	}

	var data staff.UpdateStaff
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStaff")
	}
	if err = data.Validate(s, api.validate); err != nil {
		return err
	}

	if s, err = api.svc.Update(ctx.Request().Context(), s.ID, data); err != nil {
		return errors.Wrap(err, "updating staff")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *staffApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) markLeft(ctx echo.Context) error {
	date, err := bindLeave(ctx, api.srv.now())
	if err != nil {
		return err
	}
	s, err := api.svc.MarkLeft(ctx.Request().Context(), ctx.Param("id"), date)
	if err != nil {
		return errors.Wrap(err, "marking staff as left")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *staffApi) reactivate(ctx echo.Context) error {
	s, err := api.svc.Reactivate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reactivating staff")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *staffApi) retrieveSalaries(ctx echo.Context) error {
	year, err := bindYear(ctx, "year", api.srv.now())
	if err != nil {
		return err
	}
	l, err := api.svc.Ledger(ctx.Request().Context(), ctx.Param("id"), year)
	if err != nil {
		return errors.Wrap(err, "resolving salary ledger")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *staffApi) saveSalaries(ctx echo.Context) error {
	year, err := bindYear(ctx, "year", api.srv.now())
	if err != nil {
		return err
	}
	l, err := bindLedger(ctx, staff.Kind)
	if err != nil {
		return err
	}
	if l, err = api.svc.SaveLedger(ctx.Request().Context(), ctx.Param("id"), year, l); err != nil {
		return errors.Wrap(err, "saving salary ledger")
	}
	return ctx.JSON(http.StatusOK, l)
}

// report prints the salary ledgers of the selected staff, or of every staff
// member the query filter matches when none is selected.
func (api *staffApi) report(ctx echo.Context) error {
	now := api.srv.now()
	f, err := bindFilter(ctx, now)
	if err != nil {
		return err
	}
	data, err := bindReportRequest(ctx)
	if err != nil {
		return err
	}
	staffList, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}

	opts := report.Options{
		Year:    f.Year,
		Filters: f.Label("Designation", "Salary Month", "Salary Status"),
		Now:     now,
	}
	if len(data.IDs) > 0 {
		staffList = selected(staffList, data.IDs)
		opts.Type = fmt.Sprintf("Selected Staff (%d)", len(staffList))
	} else {
		staffList = projection.Matching(staffList, f)
		opts.Type = fmt.Sprintf("Filtered Staff (%s)", f.Status)
	}
	doc := report.StaffSalaryReport(api.srv.org(), staffList, opts)
	filename := reportFilename("staff-salary-report", f.Year, now)

	if !data.Email {
		return sendPDF(ctx, filename, doc)
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return api.srv.mailPDF(ctx, mailedDocument{
		To:           mail.Address{Name: usr.Name, Address: usr.Email},
		Subject:      doc.Title,
		TemplateName: "report",
		TemplateData: map[string]interface{}{"Name": usr.Name, "Title": doc.Title, "Count": len(doc.Entries)},
		Filename:     filename,
		Doc:          doc,
	})
}

// memberReport prints the salary ledger of a single staff member for ?year.
func (api *staffApi) memberReport(ctx echo.Context) error {
	now := api.srv.now()
	year, err := bindYear(ctx, "", now)
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding staff by ID")
	}

	doc := report.StaffSalaryReport(api.srv.org(), []staff.Staff{s}, report.Options{
		Year: year,
		Type: s.Name,
		Now:  now,
	})
	slug := strings.ToLower(strings.Join(strings.Fields(s.Name), "-"))
	return sendPDF(ctx, reportFilename("salary-"+slug, year, now), doc)
}
