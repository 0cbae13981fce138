package order

import (
	"io"

	"github.com/tealeg/xlsx"
)

var ledgerHeaders = []string{
	"OrderID", "UserID", "Email", "GatewayOrderID", "GatewayPaymentID", "Amount", "Currency",
	"OrderStatus", "PaymentStatus", "Method", "Name", "Phone", "City", "State", "Pincode",
	"ShippingAddress", "CreatedAt", "PaymentUpdatedAt",
}

// WriteLedger renders orders and their payments as a one-sheet workbook.
func WriteLedger(w io.Writer, rows []LedgerRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range ledgerHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, lr := range rows {
		o, p, s := lr.Order, lr.Payment, lr.Order.Shipping
		row := sheet.AddRow()
		row.AddCell().SetValue(o.Number)
		row.AddCell().SetValue(o.UserID)
		row.AddCell().SetValue(lr.Email)
		row.AddCell().SetValue(o.GatewayOrderID)
		row.AddCell().SetValue(p.GatewayPaymentID)
		row.AddCell().SetValue(o.Amount.StringFixed(2))
		row.AddCell().SetValue(o.Currency)
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(string(p.Status))
		row.AddCell().SetValue(p.Method)
		row.AddCell().SetValue(s.FirstName + " " + s.LastName)
		row.AddCell().SetValue(s.Phone)
		row.AddCell().SetValue(s.City)
		row.AddCell().SetValue(s.State)
		row.AddCell().SetValue(s.Pincode)
		row.AddCell().SetValue(s.ShippingAddress)
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file.Write(w)
}
