package echoapi

import (
	"bytes"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/report"
)

const pdfContentType = "application/pdf"

// sendPDF renders doc and answers with it as a download.
func sendPDF(ctx echo.Context, filename string, doc report.Document) error {
	data, err := report.Render(doc)
	if err != nil {
		return errors.Wrap(err, "rendering "+filename)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, pdfContentType, data)
}

// mailedDocument is a rendered document sent by email.
type mailedDocument struct {
	To           mail.Address
	Subject      string
	TemplateName string
	TemplateData interface{}
	Filename     string
	Doc          report.Document
}

// mailPDF renders md.Doc and mails it as an attachment. Sending happens in the background.
func (s *Server) mailPDF(ctx echo.Context, md mailedDocument) error {
	data, err := report.Render(md.Doc)
	if err != nil {
		return errors.Wrap(err, "rendering "+md.Filename)
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{md.To},
		Subject:      md.Subject,
		TemplateName: md.TemplateName,
		TemplateData: md.TemplateData,
	}
	if err = msg.Attach(bytes.NewReader(data), md.Filename, pdfContentType); err != nil {
		return errors.Wrap(err, "attaching "+md.Filename)
	}
	s.deps.MailSvc.SendMessages(msg)
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The document will be emailed to " + md.To.Address + "."})
}
