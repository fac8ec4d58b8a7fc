package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/ledger"
)

var (
	// ErrEmptyReport is returned, before anything is drawn, for a document with nothing to show.
	ErrEmptyReport = errors.New("nothing to report")
	// ErrGeneration matches every GenerationError.
	ErrGeneration = errors.New("generating document")
)

// GenerationError aborts a whole document.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string        { return ErrGeneration.Error() + ": " + e.Err.Error() }
func (e *GenerationError) Unwrap() error        { return e.Err }
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// Org is the letterhead printed on every document.
type Org struct {
	Name          string
	Branch        string
	PaymentHint   string // e.g. "For Online Payment : EasyPaisa : 03XXXXXXXX"
	FooterName    string
	LateFeePolicy string
}

func NewOrg(c core.OrgConfig) Org {
	return Org{
		Name:          c.Name,
		Branch:        c.Branch,
		PaymentHint:   c.PaymentHint,
		FooterName:    c.ShortName,
		LateFeePolicy: c.LateFeePolicy,
	}
}

// Document is something Generate can lay out.
type Document interface {
	Empty() bool
	Draw(s Surface) error
}

// Generate lays doc out on s and writes the result to w.
// Nothing is written to w unless the whole document succeeded.
func Generate(w io.Writer, s Surface, doc Document) (err error) {
	if doc.Empty() {
		return ErrEmptyReport
	}
	defer func() {
		if r := recover(); r != nil {
			err = &GenerationError{Err: errors.Errorf("panic: %v", r)}
		}
	}()

	if err = doc.Draw(s); err != nil {
		return &GenerationError{Err: err}
	}
	if err = s.Err(); err != nil {
		return &GenerationError{Err: err}
	}
	var buf bytes.Buffer
	if err = s.Output(&buf); err != nil {
		return &GenerationError{Err: err}
	}
	if _, err = buf.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing document")
	}
	return nil
}

// Render lays doc out on a fresh PDF.
func Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Generate(&buf, NewPDF(), doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders doc as a PDF at path. The file only appears once complete.
func WriteFile(path string, doc Document) error {
	data, err := Render(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpPath := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "replacing document")
	}
	return nil
}

// RGB is a colour.
type RGB struct{ R, G, B int }

var (
	black     = RGB{0, 0, 0}
	darkGreen = RGB{0, 100, 0}
	darkRed   = RGB{200, 0, 0}
	gray      = RGB{150, 150, 150}
)

// StatusOf returns the label and colour of a ledger cell in reports.
func StatusOf(c ledger.Cell) (ledger.PaymentStatus, RGB) {
	switch st := c.Status(); st {
	case ledger.StatusPaid:
		return st, darkGreen
	case ledger.StatusUnpaid:
		return st, darkRed
	default:
		return st, gray
	}
}

func setTextColor(s Surface, c RGB) { s.SetTextColor(c.R, c.G, c.B) }

// Amount formats d with thousands separators: 50000 is "50,000".
func Amount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return humanize.Commaf(f)
}

// Rupees prefixes Amount with the currency.
func Rupees(d decimal.Decimal) string {
	return "Rs. " + Amount(d)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("02/01/2006")
}

// truncate shortens s to fit within width, marking the cut with "..".
func truncate(s Surface, text string, width float64) string {
	if s.TextWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && s.TextWidth(string(runes)+"..") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ".."
}
