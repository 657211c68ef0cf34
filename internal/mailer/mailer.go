// Package mailer renders HTML mail templates and sends them over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names
const (
	TemplateJobCompleted  = "job_completed"
	TemplateQuoteSent     = "quote_sent"
	TemplateVisitReminder = "visit_reminder"
)

// Template selects a named template and the data it renders.
type Template struct {
	Name    string
	Context map[string]interface{}
}

// Mailer sends templated mail.
type Mailer interface {
	SendEmail(ctx context.Context, subject, from string, to []string, t Template) error
}

// Dialer is the part of gomail.Dialer used here.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer renders with html/template and sends with gomail.
type SMTPMailer struct {
	dialer    Dialer
	templates *template.Template
}

// NewSMTPMailer parses the embedded templates and binds an SMTP dialer.
func NewSMTPMailer(host string, port int, username, password string) (*SMTPMailer, error) {
	return newSMTPMailer(gomail.NewDialer(host, port, username, password))
}

func newSMTPMailer(d Dialer) (*SMTPMailer, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &SMTPMailer{dialer: d, templates: tpl}, nil
}

// Render executes the named template.
func (m *SMTPMailer) Render(t Template) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, t.Name+".html", t.Context); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name, err)
	}
	return buf.String(), nil
}

func (m *SMTPMailer) SendEmail(ctx context.Context, subject, from string, to []string, t Template) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	body, err := m.Render(t)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return m.dialer.DialAndSend(msg)
}

// Nop discards mail.
type Nop struct{}

func (Nop) SendEmail(context.Context, string, string, []string, Template) error { return nil }
