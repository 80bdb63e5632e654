package email

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// Message is one outgoing email. Invite, when set, is attached as text/calendar.
type Message struct {
	To      string
	Subject string
	Body    string
	Invite  []byte
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends email via unauthenticated SMTP (Mailpit-compatible).
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host string, port string, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@meetslot.local"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := buildMessage(s.from, msg)
	if err != nil {
		return err
	}
	return smtp.SendMail(s.addr, nil, s.from, []string{msg.To}, raw)
}

func buildMessage(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n", from, msg.To, msg.Subject)

	if len(msg.Invite) == 0 {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", msg.Body)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(msg.Body + "\r\n")); err != nil {
		return nil, err
	}

	invite, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {"text/calendar; charset=utf-8; method=REQUEST"},
		"Content-Disposition": {`attachment; filename="invite.ics"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := invite.Write(msg.Invite); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Outbox collects messages instead of sending them.
type Outbox struct {
	Sent []Message
	Fail func(Message) error
}

func (o *Outbox) Send(_ context.Context, msg Message) error {
	if o.Fail != nil {
		if err := o.Fail(msg); err != nil {
			return err
		}
	}
	o.Sent = append(o.Sent, msg)
	return nil
}
