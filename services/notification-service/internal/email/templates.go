package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const (
	KindBookingConfirmed = "booking_confirmed"
	KindBookingCancelled = "booking_cancelled"
	KindVerificationCode = "verification_code"
)

type tmpl struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(kind, subject, body string) tmpl {
	return tmpl{
		subject: template.Must(template.New(kind + ".subject").Parse(subject)),
		body:    template.Must(template.New(kind + ".body").Parse(strings.TrimSpace(body))),
	}
}

var templates = map[string]tmpl{
	KindBookingConfirmed: mustTemplate(KindBookingConfirmed,
		`Confirmed: {{.EventTitle}} on {{.GuestStartLocal}}`,
		`
Hi {{.GuestName}},

Your booking for {{.EventTitle}} is confirmed.

When: {{.GuestStartLocal}} ({{.GuestTimezone}})
{{- if .Location}}
Where: {{.Location}}
{{- end}}

Booking reference: {{.BookingID}}
`),
	KindBookingCancelled: mustTemplate(KindBookingCancelled,
		`Cancelled: {{.EventTitle}} on {{.GuestStartLocal}}`,
		`
Hi {{.GuestName}},

Your booking for {{.EventTitle}} on {{.GuestStartLocal}} ({{.GuestTimezone}}) was cancelled.
{{- if .Reason}}

Reason: {{.Reason}}
{{- end}}

Booking reference: {{.BookingID}}
`),
	KindVerificationCode: mustTemplate(KindVerificationCode,
		`Your verification code for {{.EventTitle}}`,
		`
Your verification code is {{.Code}}.

Enter it on the booking page to confirm your email address. It expires at {{.ExpiresAt}}.
`),
}

// Render fills the subject and body for kind from data.
func Render(kind string, data any) (subject string, body string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("email: unknown template %q", kind)
	}
	var s, b bytes.Buffer
	if err := t.subject.Execute(&s, data); err != nil {
		return "", "", err
	}
	if err := t.body.Execute(&b, data); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(s.String()), b.String(), nil
}
