// Package mail renders and delivers transactional email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/k3a/html2text"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	SubjectWelcome       = "Welcome to the Natours Family!"
	SubjectPasswordReset = "Your password reset token (valid for only 10 minutes)"
)

// Recipient identifies who a message is addressed to.
type Recipient struct {
	Name  string
	Email string
}

// Message is a rendered email ready for delivery.
type Message struct {
	To      Recipient
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher renders the named templates and hands them to a Sender.
type Dispatcher struct {
	sender    Sender
	templates *template.Template
}

// NewDispatcher parses the embedded templates.
func NewDispatcher(sender Sender) (*Dispatcher, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Dispatcher{sender: sender, templates: tmpl}, nil
}

// SendWelcome sends the welcome email pointing at url.
func (d *Dispatcher) SendWelcome(ctx context.Context, to Recipient, url string) error {
	return d.send(ctx, "welcome", SubjectWelcome, to, url)
}

// SendPasswordReset sends the password reset link.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, to Recipient, url string) error {
	return d.send(ctx, "passwordReset", SubjectPasswordReset, to, url)
}

func (d *Dispatcher) send(ctx context.Context, name, subject string, to Recipient, url string) error {
	msg, err := d.render(name, subject, to, url)
	if err != nil {
		return err
	}
	if err := d.sender.Send(ctx, *msg); err != nil {
		return fmt.Errorf("send %s email: %w", name, err)
	}
	return nil
}

func (d *Dispatcher) render(name, subject string, to Recipient, url string) (*Message, error) {
	var buf bytes.Buffer
	data := map[string]string{
		"FirstName": firstName(to.Name),
		"URL":       url,
		"Subject":   subject,
	}
	if err := d.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s email: %w", name, err)
	}

	html := buf.String()
	return &Message{
		To:      to,
		Subject: subject,
		HTML:    html,
		Text:    html2text.HTML2Text(html),
	}, nil
}

func firstName(name string) string {
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}
