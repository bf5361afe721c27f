// Package mail sends the club's transactional mail.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Message is a single HTML mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sendMail is a seam for tests.
var sendMail = smtp.SendMail

// SMTPMailer delivers through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPMailer builds a mailer for host:port. Auth is skipped when username
// is empty.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		auth: auth,
		from: from,
	}
}

// Send delivers msg. net/smtp has no context support, so ctx is only checked
// before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sendMail(m.addr, m.auth, envelopeAddress(m.from), []string{msg.To}, m.render(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

// LogMailer only logs what it would have sent. It is used when no SMTP relay
// is configured.
type LogMailer struct {
	Log *slog.Logger
}

// Send logs the message headers.
func (m LogMailer) Send(ctx context.Context, msg Message) error {
	m.Log.Info("mail not sent, smtp disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Confirmation holds the fields of a registration confirmation.
type Confirmation struct {
	Name           string
	Email          string
	RegistrationNo string
	EventTitle     string
	EventDate      time.Time
	EventEndDate   *time.Time
	Venue          string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Registration Confirmed!</h2>
  <p>Dear {{.Name}},</p>
  <p>Thank you for registering for <strong>{{.EventTitle}}</strong>.</p>
  <div style="background-color: #f3f4f6; padding: 16px; border-radius: 8px;">
    <h3>Event Details</h3>
    <p><strong>Date:</strong> {{.EventDate.Format "Monday, January 2, 2006"}}{{with .EventEndDate}} to {{.Format "Monday, January 2, 2006"}}{{end}}</p>
    <p><strong>Time:</strong> {{.EventDate.Format "3:04 PM"}}</p>
    <p><strong>Venue:</strong> {{.Venue}}</p>
    <p><strong>Registration Number:</strong> {{.RegistrationNo}}</p>
  </div>
  <p>Please arrive 15 minutes before the event starts.</p>
  <p>Best regards,<br>GenX Team</p>
</div>`))

// ConfirmationMessage renders the confirmation mail.
func ConfirmationMessage(c Confirmation) (Message, error) {
	var b bytes.Buffer
	if err := confirmationTmpl.Execute(&b, c); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Message{
		To:      c.Email,
		Subject: "Registration Confirmed: " + c.EventTitle,
		HTML:    b.String(),
	}, nil
}
