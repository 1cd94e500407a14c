package receipt

import (
	"html/template"
	"io"

	"pdv-service/internal/models"

	"github.com/shopspring/decimal"
)

// Data feeds the receipt template with a completed sale snapshot
type Data struct {
	CompanyName string
	Currency    string
	Sale        models.Sale
	Items       []models.SaleItem
	Payments    []models.SalePayment
	Customer    *models.Customer
}

var methodLabels = map[string]string{
	models.PaymentMethodMoney:     "Dinheiro",
	models.PaymentMethodPix:       "Pix",
	models.PaymentMethodDebit:     "Débito",
	models.PaymentMethodCredit:    "Crédito",
	models.PaymentMethodCreditTab: "Crediário",
	models.PaymentMethodLink:      "Link",
	models.PaymentMethodOthers:    "Outros",
}

var tmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"amount": func(item models.SaleItem) string {
		return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2)
	},
	"method": func(m string) string {
		if label, ok := methodLabels[m]; ok {
			return label
		}
		return m
	},
}).Parse(receiptHTML))

// Render writes the 80mm thermal-style HTML receipt for a sale
func Render(w io.Writer, data Data) error {
	return tmpl.Execute(w, data)
}

const receiptHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Cupom - Venda {{.Sale.ID}}</title>
<style>
  @page { size: 80mm auto; margin: 0; }
  body { width: 80mm; margin: 0 auto; padding: 4mm; font-family: "Courier New", monospace; font-size: 11px; color: #000; }
  .center { text-align: center; }
  .right { text-align: right; }
  hr { border: 0; border-top: 1px dashed #000; margin: 4px 0; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 1px 0; vertical-align: top; }
  .total { font-size: 13px; font-weight: bold; }
</style>
</head>
<body>
<div class="center">
  <strong>{{.CompanyName}}</strong><br>
  {{.Sale.SoldAt.Format "02/01/2006 15:04"}}<br>
  Venda #{{.Sale.ID}}
</div>
{{if .Customer}}<div>Cliente: {{.Customer.Name}}</div>{{end}}
<hr>
<table>
{{range .Items}}
  <tr>
    <td colspan="2">{{.Description}}{{if .PeriodLabel}} ({{.PeriodLabel}}){{end}}</td>
  </tr>
  <tr>
    <td>{{.Quantity}} x {{money .UnitPrice}}</td>
    <td class="right">{{amount .}}</td>
  </tr>
{{end}}
</table>
<hr>
<table>
  <tr><td>Subtotal</td><td class="right">{{money .Sale.Subtotal}}</td></tr>
{{if .Sale.Discount.IsPositive}}
  <tr><td>Desconto</td><td class="right">-{{money .Sale.Discount}}</td></tr>
{{end}}
  <tr class="total"><td class="total">TOTAL {{.Currency}}</td><td class="right total">{{money .Sale.Total}}</td></tr>
</table>
<hr>
<table>
{{range .Payments}}
  <tr><td>{{method .Method}}</td><td class="right">{{money .Amount}}</td></tr>
{{end}}
{{if .Sale.Change.IsPositive}}
  <tr><td>Troco</td><td class="right">{{money .Sale.Change}}</td></tr>
{{end}}
</table>
<hr>
<div class="center">Obrigado pela preferência!</div>
</body>
</html>
`
