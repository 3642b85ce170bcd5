package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"storefront/internal/domain"
)

var otpTemplate = template.Must(template.New("otp").Parse(`Verify your email address

Thanks for signing up! Use the following one-time code to complete your registration:

    {{.Code}}

This code will expire in {{.ExpiresIn}}.
If you didn't request this, you can safely ignore this email.
`))

var orderTemplate = template.Must(template.New("order").Parse(`Thank you for your order!

Order {{.Order.ID}} is {{.Order.Status}}.
{{range .Order.Items}}
  {{.Quantity}} x {{.Name}} @ {{.Price.StringFixed 2}}{{end}}

Subtotal: {{.Order.Subtotal.StringFixed 2}}
Shipping: {{.Order.Shipping.StringFixed 2}}
Tax:      {{.Order.Tax.StringFixed 2}}
Total:    {{.Order.Total.StringFixed 2}}
`))

func renderOTP(code, expiresIn string) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct{ Code, ExpiresIn string }{code, expiresIn})
	if err != nil {
		return "", fmt.Errorf("failed to render otp email: %w", err)
	}
	return buf.String(), nil
}

func renderOrderConfirmation(order *domain.Order) (string, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, struct{ Order *domain.Order }{order}); err != nil {
		return "", fmt.Errorf("failed to render order email: %w", err)
	}
	return buf.String(), nil
}
