package report

import (
	"io"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// PDF is an A4 portrait Surface backed by fpdf.
type PDF struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

var _ Surface = (*PDF)(nil)

func NewPDF() *PDF {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont(fontFamily, Regular, 10)
	return &PDF{
		doc: doc,
		// core fonts are cp1252
		tr: doc.UnicodeTranslatorFromDescriptor(""),
	}
}

func (p *PDF) PageSize() (float64, float64) {
	w, h := p.doc.GetPageSize()
	return w, h
}

func (p *PDF) AddPage()       { p.doc.AddPage() }
func (p *PDF) SetPage(n int)  { p.doc.SetPage(n) }
func (p *PDF) PageCount() int { return p.doc.PageCount() }
func (p *PDF) Err() error     { return p.doc.Error() }

func (p *PDF) SetLineWidth(w float64) { p.doc.SetLineWidth(w) }

func (p *PDF) SetFont(style string, size float64) {
	p.doc.SetFont(fontFamily, style, size)
}

func (p *PDF) SetTextColor(r, g, b int) { p.doc.SetTextColor(r, g, b) }
func (p *PDF) SetDrawColor(r, g, b int) { p.doc.SetDrawColor(r, g, b) }
func (p *PDF) SetFillColor(r, g, b int) { p.doc.SetFillColor(r, g, b) }

func (p *PDF) SetDash(pattern ...float64) {
	p.doc.SetDashPattern(pattern, 0)
}

func (p *PDF) Text(x, y float64, s string, align Align) {
	s = p.tr(s)
	switch align {
	case AlignCenter:
		x -= p.doc.GetStringWidth(s) / 2
	case AlignRight:
		x -= p.doc.GetStringWidth(s)
	}
	p.doc.Text(x, y, s)
}

func (p *PDF) TextWidth(s string) float64 {
	return p.doc.GetStringWidth(p.tr(s))
}

func (p *PDF) Rect(x, y, w, h float64, style string) {
	p.doc.Rect(x, y, w, h, style)
}

func (p *PDF) Line(x1, y1, x2, y2 float64) {
	p.doc.Line(x1, y1, x2, y2)
}

func (p *PDF) Output(w io.Writer) error {
	return p.doc.Output(w)
}
