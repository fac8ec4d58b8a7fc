package report

import (
	"github.com/trezcool/bursar/core/slip"
)

const (
	voucherMargin = 10.0
	lateFeeLine   = "Late Fee 300 Per Day after Due Date"
)

// Voucher prints a fee slip twice on one page, a student copy above a school
// copy, separated by a dashed cut line.
type Voucher struct {
	Org  Org
	Slip slip.Slip
}

var _ Document = Voucher{}

func (v Voucher) Empty() bool { return v.Slip.ID == "" && v.Slip.StudentName == "" }

func (v Voucher) Draw(s Surface) error {
	s.AddPage()
	pageW, pageH := s.PageSize()

	v.drawCopy(s, voucherMargin, "Student Copy")

	s.SetDrawColor(100, 100, 100)
	s.SetDash(2, 2)
	s.Line(voucherMargin/2, pageH/2, pageW-voucherMargin/2, pageH/2)
	s.SetDash()

	v.drawCopy(s, pageH/2+voucherMargin/2, "School Copy")
	return nil
}

func (v Voucher) drawCopy(s Surface, top float64, label string) {
	pageW, pageH := s.PageSize()
	var (
		m        = voucherMargin
		height   = pageH/2 - m*1.5
		width    = pageW - m*2
		right    = pageW - m - 5
		col1     = m + 5
		col2     = m + width/2 + 5
		sl       = v.Slip
		y        = top + 5
		lateFees = v.Org.LateFeePolicy
	)
	if lateFees == "" {
		lateFees = lateFeeLine
	}

	s.SetDrawColor(150, 150, 150)
	s.Rect(m, top, width, height, Stroke)
	s.SetFont(Italic, 10)
	s.Text(right, y+2, label, AlignRight)

	// letterhead
	s.SetFont(Bold, 20)
	s.Text(m+25, y+10, v.Org.Name, AlignLeft)
	s.SetFont(Regular, 10)
	s.Text(m+25, y+15, v.Org.Branch, AlignLeft)
	if v.Org.PaymentHint != "" {
		s.SetFont(Bold, 10)
		s.Text(m+50, y+21, v.Org.PaymentHint, AlignLeft)
	}
	s.SetFillColor(230, 230, 230)
	s.Rect(m+5, y+3, 15, 15, Fill) // logo

	s.SetFont(Bold, 14)
	s.Text(right, y+10, "FEE VOUCHER", AlignRight)
	s.SetFont(Bold, 9)
	if sl.IsPaid() {
		s.SetTextColor(0, 150, 0)
	} else {
		s.SetTextColor(200, 0, 0)
	}
	s.Text(right, y+15, string(sl.Status), AlignRight)
	setTextColor(s, black)

	y += 22
	s.SetDrawColor(180, 180, 180)
	s.Line(m, y, pageW-m, y)

	// identity
	y += 8
	field := func(x, y float64, name, value string) {
		s.SetFont(Regular, 9)
		s.Text(x, y, name, AlignLeft)
		s.SetFont(Bold, 9)
		s.Text(x, y+4, value, AlignLeft)
	}
	field(col1, y, "Student Name:", sl.StudentName)
	field(col2, y, "Class:", sl.StudentClass)
	y += 8
	field(col1, y, "Roll Number:", sl.RollNumber)
	field(col2, y, "Fee Month:", sl.Period())
	y += 10
	s.Line(m, y, pageW-m, y)

	// charges
	y += 5
	s.SetFont(Bold, 9)
	s.Text(col1, y, "Description", AlignLeft)
	s.Text(right, y, "Amount (Rs.)", AlignRight)
	y += 2
	s.Line(m, y, pageW-m, y)
	y += 5
	s.SetFont(Regular, 9)
	for i, line := range []struct{ desc, amount string }{
		{"Fee for " + sl.Month.String(), Amount(sl.FeeAmount)},
		{"Fines", Amount(sl.Fine)},
		{lateFees, Amount(sl.LateFee)},
	} {
		if i > 0 {
			y += 6
		}
		s.Text(col1, y, line.desc, AlignLeft)
		s.Text(right, y, line.amount, AlignRight)
	}
	y += 2
	s.SetDash(1, 1)
	s.Line(m, y, pageW-m, y)
	s.SetDash()

	y += 6
	s.SetFont(Bold, 11)
	s.Text(col1, y, "Total Amount", AlignLeft)
	s.Text(right, y, Rupees(sl.Total()), AlignRight)
	y += 2
	s.SetDrawColor(0, 0, 0)
	s.SetLineWidth(0.5)
	s.Line(m, y, pageW-m, y)
	s.SetLineWidth(0.2)

	// payment
	y += 8
	s.SetFont(Regular, 9)
	s.Text(col1, y, "Mode of Payment:", AlignLeft)
	s.SetFont(Bold, 9)
	s.Text(col1+35, y, string(sl.PaymentMode), AlignLeft)
	s.SetFont(Regular, 9)
	y += 5
	if sl.PaymentMode == slip.Online {
		s.SetFillColor(245, 245, 245)
		s.Rect(col1-2, y-2, width-6, 10, Fill)
		s.SetFont(Regular, 8)
		s.Text(col1, y+2, "Pay To: "+orNA(sl.BankName)+" - "+orNA(sl.AccountNumber), AlignLeft)
		s.SetFont(Regular, 9)
		y += 10
	}

	s.Text(col1, y+5, "Issue Date:", AlignLeft)
	s.SetFont(Bold, 9)
	s.Text(col1+25, y+5, formatDate(sl.IssueDate), AlignLeft)
	s.SetFont(Regular, 9)
	s.Text(col2, y+5, "Due Date:", AlignLeft)
	s.SetFont(Bold, 9)
	s.Text(col2+20, y+5, formatDate(sl.DueDate.Time), AlignLeft)

	signY := top + height - 15
	s.SetDrawColor(180, 180, 180)
	s.Line(pageW-m-60, signY, right, signY)
	s.SetFont(Regular, 8)
	s.Text(right, signY+3, "Principal / Admin Signature", AlignRight)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
