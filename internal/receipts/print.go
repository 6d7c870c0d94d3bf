package receipts

import (
	"fmt"
	"html/template"
	"io"

	"github.com/jogardn/fireworks-storefront/internal/pricing"
	"github.com/jogardn/fireworks-storefront/pkg/models"
)

const storeName = "SIVAKASI KARGIL CRACKERS"

// WhatsAppNumber receives payment screenshots.
const WhatsAppNumber = "7395899600"

type printLine struct {
	Name     string
	Quantity int
	Rate     string
	Net      string
	Saved    string
}

type printView struct {
	StoreName string
	OrderID   string
	OrderDate string
	Subtotal  string
	Discount  string
	Net       string
	Customer  models.CustomerDetails
	Address   string
	Lines     []printLine
	Payment   models.PaymentDetails
	WhatsApp  string
}

var printTemplate = template.Must(template.New("print").Parse(`<html>
<head>
<title>Order Details - {{.OrderID}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { text-align: center; margin-bottom: 30px; }
.section { margin-bottom: 20px; }
.row { display: flex; justify-content: space-between; margin: 5px 0; }
.label { font-weight: bold; }
.total { font-size: 18px; font-weight: bold; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<div class="header"><h1>{{.StoreName}}</h1><h2>Order Details</h2></div>
<div class="section">
<h3>Order Information</h3>
<div class="row"><span class="label">Order Number:</span><span>{{.OrderID}}</span></div>
<div class="row"><span class="label">Order Date:</span><span>{{.OrderDate}}</span></div>
<div class="row"><span class="label">Subtotal:</span><span>₹{{.Subtotal}}</span></div>
{{- if .Discount}}
<div class="row"><span class="label">Discount:</span><span>-₹{{.Discount}}</span></div>
{{- end}}
<div class="row"><span class="label">Total:</span><span class="total">₹{{.Net}}</span></div>
</div>
<div class="section">
<h3>Customer Details</h3>
<div class="row"><span class="label">Name:</span><span>{{.Customer.Name}}</span></div>
<div class="row"><span class="label">Mobile:</span><span>{{.Customer.Mobile}}</span></div>
<div class="row"><span class="label">Address:</span><span>{{.Address}}</span></div>
<div class="row"><span class="label">City:</span><span>{{.Customer.City}}, {{.Customer.State}} - {{.Customer.Pincode}}</span></div>
</div>
<div class="section">
<h3>Order Items</h3>
{{- range .Lines}}
<div class="row"><span class="label">{{.Name}}</span><span>Qty: {{.Quantity}} × ₹{{.Rate}} = ₹{{.Net}}{{if .Saved}} (Saved: ₹{{.Saved}}){{end}}</span></div>
{{- end}}
</div>
<div class="section">
<h3>Payment Details</h3>
<div class="row"><span class="label">Account Name:</span><span>{{.Payment.AccountName}}</span></div>
<div class="row"><span class="label">Account Number:</span><span>{{.Payment.AccountNumber}}</span></div>
<div class="row"><span class="label">IFSC Code:</span><span>{{.Payment.IFSCCode}}</span></div>
<div class="row"><span class="label">Bank Name:</span><span>{{.Payment.BankName}}</span></div>
<div class="row"><span class="label">UPI ID:</span><span>{{.Payment.UPIID}}</span></div>
</div>
<div class="section">
<h3>Important Instructions</h3>
<p>After making the payment, send the payment screenshot to our WhatsApp number {{.WhatsApp}}.</p>
<p>Include your Order ID: <strong>{{.OrderID}}</strong> in the message.</p>
<p>We will confirm your order within 24 hours.</p>
</div>
</body>
</html>
`))

// Render writes the printable order page. Amounts are recomputed from the
// order lines with the shared totals calculator.
func Render(w io.Writer, r *Receipt) error {
	totals, err := pricing.Compute(r.Order.Items)
	if err != nil {
		return fmt.Errorf("failed to compute totals: %w", err)
	}

	view := printView{
		StoreName: storeName,
		OrderID:   r.Order.ID,
		OrderDate: r.Order.OrderDate.Format("02/01/2006"),
		Subtotal:  pricing.Format(totals.Subtotal),
		Net:       pricing.Format(totals.Net),
		Customer:  r.Order.Customer,
		Address:   r.Order.Customer.Address1,
		Payment:   r.Payment,
		WhatsApp:  WhatsAppNumber,
	}
	if totals.Discount.IsPositive() {
		view.Discount = pricing.Format(totals.Discount)
	}
	if r.Order.Customer.Address2 != "" {
		view.Address += ", " + r.Order.Customer.Address2
	}

	for _, item := range r.Order.Items {
		line, err := pricing.Line(item)
		if err != nil {
			return fmt.Errorf("failed to compute line for product %d: %w", item.Product.ID, err)
		}
		rate, _ := pricing.PriceOf(item.Product.Price)
		pl := printLine{
			Name:     item.Product.Name,
			Quantity: item.Quantity,
			Rate:     pricing.Format(rate),
			Net:      pricing.Format(line.Net),
		}
		if line.Discount.IsPositive() {
			pl.Saved = pricing.Format(line.Discount)
		}
		view.Lines = append(view.Lines, pl)
	}

	return printTemplate.Execute(w, view)
}
