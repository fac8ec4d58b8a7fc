package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/report"
	"github.com/trezcool/bursar/core/slip"
	"github.com/trezcool/bursar/core/student"
)

var errNoGuardianEmail = errors.New("the student has no guardian email")

type slipApi struct {
	srv      *Server
	svc      *slip.Service
	students *student.Service
	validate *validator.Validate
}

func registerSlipAPI(g *echo.Group, s *Server) {
	api := slipApi{
		srv:      s,
		svc:      s.deps.SlipSvc,
		students: s.deps.StudentSvc,
		validate: s.deps.Validate,
	}

	g.GET("", api.query)
	g.POST("", api.create)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.GET("/:id/voucher", api.voucher)
	g.POST("/:id/voucher/email", api.emailVoucher)
}

// SlipList is the slips of a month, every student with its slip status and the month's stats.
type SlipList struct {
	Slips    []slip.Slip          `json:"slips"`
	Students []slip.StudentStatus `json:"students"`
	Stats    slip.Stats           `json:"stats"`
}

// query lists the slips of ?year and ?month, the current month by default.
func (api *slipApi) query(ctx echo.Context) error {
	now := api.srv.now()
	year, month, err := bindPeriod(ctx, now)
	if err != nil {
		return err
	}
	if month == 0 && ctx.QueryParam("month") == "" {
		month = now.Month()
	}

	var (
		slips    []slip.Slip
		students []student.Student
	)
	g, gctx := errgroup.WithContext(ctx.Request().Context())
	g.Go(func() (err error) {
		slips, err = api.svc.Query(gctx, year, month)
		return errors.Wrap(err, "querying slips")
	})
	g.Go(func() (err error) {
		students, err = api.students.QueryAll(gctx)
		return errors.Wrap(err, "querying students")
	})
	if err = g.Wait(); err != nil {
		return err
	}
	if slips == nil {
		slips = []slip.Slip{}
	}

	return ctx.JSON(http.StatusOK, SlipList{
		Slips:    slips,
		Students: slip.WithSlipStatus(students, slips),
		Stats:    slip.Summarize(slips),
	})
}

func (api *slipApi) create(ctx echo.Context) error {
	var data slip.NewSlip
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlip")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating slip")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *slipApi) update(ctx echo.Context) error {
	var data slip.UpdateSlip
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSlip")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating slip")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *slipApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting slip")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func voucherFilename(s slip.Slip) string {
	name := strings.ToLower(strings.Join(strings.Fields(s.StudentName), "-"))
	return fmt.Sprintf("voucher-%s-%d-%02d.pdf", name, s.Year, int(s.Month))
}

func (api *slipApi) voucher(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding slip by ID")
	}
	return sendPDF(ctx, voucherFilename(s), report.Voucher{Org: api.srv.org(), Slip: s})
}

// emailVoucher mails the voucher of a slip to the guardian of its student.
func (api *slipApi) emailVoucher(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding slip by ID")
	}
	std, err := api.students.GetByID(ctx.Request().Context(), s.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	if std.GuardianEmail == "" {
		return core.NewValidationError(errNoGuardianEmail, core.FieldError{Field: "guardian_email", Error: errNoGuardianEmail.Error()})
	}

	return api.srv.mailPDF(ctx, mailedDocument{
		To:           mail.Address{Address: std.GuardianEmail},
		Subject:      "Fee Voucher - " + s.Period(),
		TemplateName: "voucher",
		TemplateData: map[string]interface{}{
			"StudentName":  s.StudentName,
			"StudentClass": s.StudentClass,
			"RollNumber":   s.RollNumber,
			"Period":       s.Period(),
			"Total":        report.Amount(s.TotalAmount),
			"DueDate":      s.DueDate.Format(core.DateLayout),
		},
		Filename: voucherFilename(s),
		Doc:      report.Voucher{Org: api.srv.org(), Slip: s},
	})
}
