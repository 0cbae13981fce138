package notify

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif">
<h2>{{.Shop}}: order {{.C.Order.Number}} confirmed</h2>
<p>Hi {{.C.Name}}, we received your payment <b>{{.C.PaymentID}}</b>. Your order is now being prepared.</p>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse:collapse">
<tr><th align="left">Product</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.Price}}</td><td align="right">{{.Total}}</td></tr>
{{end}}<tr><td colspan="3" align="right"><b>Amount paid</b></td><td align="right"><b>{{.C.Order.Currency}} {{.Amount}}</b></td></tr>
</table>
{{with .C.Order.Shipping}}<h3>Shipping to</h3>
<p>{{.FirstName}} {{.LastName}}<br>{{.ShippingAddress}}<br>{{.City}} {{.State}} {{.Pincode}}<br>{{.Phone}}</p>
{{if .Notes}}<p><i>{{.Notes}}</i></p>{{end}}{{end}}
<p>Thank you for shopping with {{.Shop}}.</p>
</body></html>`))

type line struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

func lines(c Confirmation) ([]line, decimal.Decimal) {
	out := make([]line, 0, len(c.Items))
	sum := decimal.Zero
	for _, it := range c.Items {
		t := it.Total()
		sum = sum.Add(t)
		out = append(out, line{Name: it.ProductName, Quantity: it.Quantity, Price: it.Price.StringFixed(2), Total: t.StringFixed(2)})
	}
	return out, sum
}

// RenderConfirmation produces the HTML body of the order-paid email.
func RenderConfirmation(shop string, c Confirmation) (string, error) {
	ls, _ := lines(c)
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, map[string]any{
		"Shop":   shop,
		"C":      c,
		"Lines":  ls,
		"Amount": c.Order.Amount.StringFixed(2),
	})
	return buf.String(), err
}
