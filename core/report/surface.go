// Package report lays out fee vouchers and ledger reports on a fixed A4
// geometry. Coordinates are in millimetres from the top-left corner.
package report

import "io"

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Font styles.
const (
	Regular    = ""
	Bold       = "B"
	Italic     = "I"
	BoldItalic = "BI"
)

// Rect styles.
const (
	Stroke        = "D"
	Fill          = "F"
	FillAndStroke = "FD"
)

// Surface is a page-based drawing target.
type Surface interface {
	PageSize() (w, h float64)
	AddPage()
	// SetPage moves back to page n (1-based) of those already added.
	SetPage(n int)
	PageCount() int

	SetFont(style string, size float64)
	SetTextColor(r, g, b int)
	SetDrawColor(r, g, b int)
	SetFillColor(r, g, b int)
	SetLineWidth(w float64)
	// SetDash strokes lines with the given on/off lengths; no pattern means solid lines.
	SetDash(pattern ...float64)

	// Text writes s on the baseline y. x is the left edge, the centre or the
	// right edge of the text depending on align.
	Text(x, y float64, s string, align Align)
	TextWidth(s string) float64
	Rect(x, y, w, h float64, style string)
	Line(x1, y1, x2, y2 float64)

	// Err returns the first drawing error, if any.
	Err() error
	Output(w io.Writer) error
}
