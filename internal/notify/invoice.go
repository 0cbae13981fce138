package notify

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
)

// Invoice renders a one-page A4 invoice for a paid order.
func Invoice(shop string, c Confirmation) ([]byte, error) {
	o := c.Order
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+o.Number, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(shop), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Invoice for order "+o.Number, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+o.CreatedAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	if c.PaymentID != "" {
		pdf.CellFormat(0, 6, "Payment: "+c.PaymentID, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	s := o.Shipping
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Ship to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, l := range []string{
		s.FirstName + " " + s.LastName,
		s.ShippingAddress,
		fmt.Sprintf("%s %s %s", s.City, s.State, s.Pincode),
		s.Phone,
	} {
		pdf.CellFormat(0, 6, tr(l), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{95, 20, 35, 40}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Product", "Qty", "Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	ls, _ := lines(c)
	for _, l := range ls {
		pdf.CellFormat(widths[0], 8, tr(l.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, strconv.Itoa(l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, l.Price, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, l.Total, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Amount paid ("+o.Currency+")", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, o.Amount.StringFixed(2), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
