package templates

import (
	"bytes"
	"html/template"
	"log"
)

// OrderConfirmationProps is the data shown in the order confirmation email.
type OrderConfirmationProps struct {
	Name          string
	OrderID       string
	ProductName   string
	PriceLabel    string
	Installment   string
	AccessURL     string
	GuaranteeDays int
}

var confirmationTemplate = template.Must(template.New("orderConfirmation").Parse(`
<h1 style="font-size: 24px; margin: 0 0 16px;">Parabéns, {{.Name}}!</h1>
<p style="margin: 0 0 16px;">Seu pedido <strong>{{.OrderID}}</strong> foi confirmado.</p>
<table role="presentation" style="width: 100%; margin-bottom: 16px; border-collapse: collapse;">
  <tr><td style="padding: 4px 0;">Produto</td><td style="padding: 4px 0; text-align: right;">{{.ProductName}}</td></tr>
  <tr><td style="padding: 4px 0;">Total</td><td style="padding: 4px 0; text-align: right;"><strong>{{.PriceLabel}}</strong></td></tr>
  {{if .Installment}}<tr><td style="padding: 4px 0;">Parcelamento</td><td style="padding: 4px 0; text-align: right;">{{.Installment}}</td></tr>{{end}}
</table>
{{if .AccessURL}}
<table role="presentation" border="0" cellpadding="0" cellspacing="0" style="margin-bottom: 16px;">
  <tr>
    <td style="border-radius: 4px; background-color: #16a34a;" bgcolor="#16a34a">
      <a href="{{.AccessURL}}" target="_blank" style="display: inline-block; padding: 12px 24px; color: #ffffff; font-weight: bold; text-decoration: none;">Acompanhar meu pedido</a>
    </td>
  </tr>
</table>
{{end}}
<p style="margin: 0; color: #6b7280;">Garantia incondicional de {{.GuaranteeDays}} dias.</p>`))

// GetOrderConfirmationContent renders the confirmation body.
func GetOrderConfirmationContent(props OrderConfirmationProps) string {
	if props.Name == "" {
		props.Name = "cliente"
	}
	if props.GuaranteeDays == 0 {
		props.GuaranteeDays = 60
	}

	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, props); err != nil {
		log.Printf("Error executing order confirmation template: %v", err)
		return ""
	}
	return buf.String()
}
