package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/report"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/core/user"
)

type studentApi struct {
	srv      *Server
	svc      *student.Service
	users    *user.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, s *Server) {
	api := studentApi{
		srv:      s,
		svc:      s.deps.StudentSvc,
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
	g.GET("/:id/fees/:year", api.retrieveFees)
	g.PUT("/:id/fees/:year", api.saveFees)
}

func (api *studentApi) query(ctx echo.Context) error {
	f, err := bindFilter(ctx, api.srv.now())
	if err != nil {
		return err
	}
	students, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, listing(students, f))
}

func (api *studentApi) stats(ctx echo.Context) error {
	now := api.srv.now()
	f, err := bindFilter(ctx, now)
	if err != nil {
		return err
	}
	students, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, projection.Summarize(projection.Subjects(students), f, now))
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(s, api.validate); err != nil {
		return err
	}

	if s, err = api.svc.Update(ctx.Request().Context(), s.ID, data); err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) markLeft(ctx echo.Context) error {
	date, err := bindLeave(ctx, api.srv.now())
	if err != nil {
		return err
	}
	s, err := api.svc.MarkLeft(ctx.Request().Context(), ctx.Param("id"), date)
	if err != nil {
		return errors.Wrap(err, "marking student as left")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) reactivate(ctx echo.Context) error {
	s, err := api.svc.Reactivate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reactivating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) retrieveFees(ctx echo.Context) error {
	year, err := bindYear(ctx, "year", api.srv.now())
	if err != nil {
		return err
	}
	l, err := api.svc.Ledger(ctx.Request().Context(), ctx.Param("id"), year)
	if err != nil {
		return errors.Wrap(err, "resolving fee ledger")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *studentApi) saveFees(ctx echo.Context) error {
	year, err := bindYear(ctx, "year", api.srv.now())
	if err != nil {
		return err
	}
	l, err := bindLedger(ctx, student.Kind)
	if err != nil {
		return err
	}
	if l, err = api.svc.SaveLedger(ctx.Request().Context(), ctx.Param("id"), year, l); err != nil {
		return errors.Wrap(err, "saving fee ledger")
	}
	return ctx.JSON(http.StatusOK, l)
}

// report prints the fee ledgers of the selected students, or of every student
// the query filter matches when none is selected.
func (api *studentApi) report(ctx echo.Context) error {
	now := api.srv.now()
	f, err := bindFilter(ctx, now)
	if err != nil {
		return err
	}
	data, err := bindReportRequest(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	opts := report.Options{
		Year:    f.Year,
		Filters: f.Label("Class", "Fee Month", "Fee Status"),
		Now:     now,
	}
	if len(data.IDs) > 0 {
		students = selected(students, data.IDs)
		opts.Type = fmt.Sprintf("Selected Students (%d)", len(students))
	} else {
		students = projection.Matching(students, f)
		opts.Type = fmt.Sprintf("Filtered Students (%s)", f.Status)
	}
	doc := report.StudentFeeReport(api.srv.org(), students, opts)
	filename := reportFilename("student-fee-report", f.Year, now)

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

func reportFilename(prefix string, year int, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s.pdf", prefix, year, now.Format("20060102"))
}
