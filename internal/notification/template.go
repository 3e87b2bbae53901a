// Package notification renders and sends email notifications, both for the
// synchronous API and for consumed payment events.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Notification types selectable by API callers and event handlers.
const (
	TypeOTP                 = "otp"
	TypeBookingConfirmation = "booking_confirmation"
	TypePaymentConfirmation = "payment_confirmation"
	TypeGeneral             = "general"
)

// ErrUnknownType is returned when no template matches the requested
// notification type.
var ErrUnknownType = errors.New("no template for notification type")

// ErrMissingField is returned when the template data lacks a field the
// template requires.
var ErrMissingField = errors.New("missing template data")

// templates maps notification types to their email bodies. Rendering uses
// missingkey=error so an absent field fails loudly instead of printing
// "<no value>" into a customer email.
var templates = map[string]*template.Template{
	TypeOTP: mustParse(TypeOTP, `
<html>
<body>
    <h1>Train Booking OTP</h1>
    <p>Hello,</p>
    <p>Your OTP for verification is: <strong>{{.otp}}</strong></p>
    <p>This OTP will expire in 10 minutes.</p>
    <p>Thank you,<br>Train Booking Team</p>
</body>
</html>
`),
	TypeBookingConfirmation: mustParse(TypeBookingConfirmation, `
<html>
<body>
    <h1>Booking Confirmation</h1>
    <p>Hello {{.name}},</p>
    <p>Your booking has been confirmed!</p>
    <p><strong>Booking Details:</strong></p>
    <ul>
        <li>Train: {{.train_name}}</li>
        <li>From: {{.source}}</li>
        <li>To: {{.destination}}</li>
        <li>Date: {{.date}}</li>
        <li>Seat: {{.seat}}</li>
        <li>Ticket ID: {{.ticket_id}}</li>
    </ul>
    <p>Thank you for choosing our service!</p>
    <p>Regards,<br>Train Booking Team</p>
</body>
</html>
`),
	TypePaymentConfirmation: mustParse(TypePaymentConfirmation, `
<html>
<body>
    <h1>Payment Confirmation</h1>
    <p>Hello {{.name}},</p>
    <p>Your payment of {{.amount}} {{.currency}} has been confirmed!</p>
    <p><strong>Payment Details:</strong></p>
    <ul>
        <li>Payment ID: {{.payment_id}}</li>
        <li>Transaction ID: {{.transaction_id}}</li>
        <li>Amount: {{.amount}} {{.currency}}</li>
        <li>Ticket ID: {{.ticket_id}}</li>
    </ul>
    <p>Thank you for your payment!</p>
    <p>Regards,<br>Train Booking Team</p>
</body>
</html>
`),
	TypeGeneral: mustParse(TypeGeneral, `
<html>
<body>
    <h1>{{.subject}}</h1>
    <p>Hello {{.name}},</p>
    <p>{{.message}}</p>
    <p>Regards,<br>Train Booking Team</p>
</body>
</html>
`),
}

func mustParse(name, body string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").Parse(body))
}

// Render produces the email body for a notification type from named
// template fields. Returns ErrUnknownType for an unrecognized type and
// ErrMissingField when the data lacks a required field.
func Render(notificationType string, data map[string]interface{}) (string, error) {
	tpl, ok := templates[notificationType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, notificationType)
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingField, err)
	}
	return b.String(), nil
}
