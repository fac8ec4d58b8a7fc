package echoapi

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/projection"
	"github.com/trezcool/bursar/core/roster"
)

const maxLedgerBody = 1 << 20

// bindFilter reads the listing criteria from the query string.
func bindFilter(ctx echo.Context, now time.Time) (projection.FilterState, error) {
	return projection.ParseFilter(ctx.QueryParams(), now)
}

// bindYear reads a year from the named path param, or from the query when param is "".
func bindYear(ctx echo.Context, param string, now time.Time) (int, error) {
	field := "year"
	val := ctx.QueryParam(field)
	if param != "" {
		field, val = param, ctx.Param(param)
	}
	year, err := roster.ParseYear(val, now)
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return year, nil
}

// bindPeriod reads the year and month query params. A missing month is 0: the whole year.
func bindPeriod(ctx echo.Context, now time.Time) (int, time.Month, error) {
	year, err := bindYear(ctx, "", now)
	if err != nil {
		return 0, 0, err
	}
	month, err := ledger.ParseMonth(ctx.QueryParam("month"))
	if err != nil {
		return 0, 0, core.NewValidationError(err, core.FieldError{Field: "month", Error: err.Error()})
	}
	return year, month, nil
}

// bindLedger decodes a ledger document of kind from the request body.
func bindLedger(ctx echo.Context, kind ledger.Kind) (ledger.YearLedger, error) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxLedgerBody))
	if err != nil {
		return ledger.YearLedger{}, errors.Wrap(err, "reading ledger document")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return ledger.YearLedger{}, echo.NewHTTPError(http.StatusBadRequest, "empty ledger document")
	}
	l, err := ledger.DecodeDocument(kind, body)
	if err != nil {
		var docErr *ledger.DocumentError
		if errors.As(err, &docErr) {
			return ledger.YearLedger{}, docErr
		}
		return ledger.YearLedger{}, echo.NewHTTPError(http.StatusBadRequest, "malformed ledger document")
	}
	return l, nil
}

// bindLeave reads the leaving date of a member, defaulting to today.
func bindLeave(ctx echo.Context, now time.Time) (time.Time, error) {
	var data roster.LeaveRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&data); err != nil {
			return time.Time{}, errors.Wrap(err, "binding to LeaveRequest")
		}
	}
	if data.LeftDate.IsZero() {
		return now, nil
	}
	return data.LeftDate.Time, nil
}

// ReportRequest selects the entities of a report. Without IDs, the query filter applies.
type ReportRequest struct {
	IDs   []string `json:"ids"`
	Email bool     `json:"email"`
}

func bindReportRequest(ctx echo.Context) (ReportRequest, error) {
	var data ReportRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&data); err != nil {
			return data, errors.Wrap(err, "binding to ReportRequest")
		}
	}
	return data, nil
}
