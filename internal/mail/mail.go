// Package mail delivers contact enquiries to the investor-relations inbox.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/internal/enquiries"
	gomail "github.com/wneessen/go-mail"
)

// Mailer sends an enquiry notification.
type Mailer interface {
	Send(ctx context.Context, e *enquiries.Enquiry) error
}

var bodyTmpl = template.Must(template.New("enquiry").Parse(`New enquiry from the website contact form.

Name:    {{.Name}}
Email:   {{.Email}}
{{- if .Phone}}
Phone:   {{.Phone}}{{end}}
{{- if .Company}}
Company: {{.Company}}{{end}}
Received: {{.CreatedAt.Format "02 Jan 2006 15:04 MST"}}
Reference: {{.ID}}

{{.Message}}
`))

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer returns nil when SMTP is disabled.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if !cfg.Enabled {
		return nil
	}
	return &SMTPMailer{cfg: cfg}
}

// Subject builds the mail subject line for e.
func Subject(e *enquiries.Enquiry) string {
	s := strings.TrimSpace(e.Subject)
	if s == "" {
		s = "Website enquiry"
	}
	return fmt.Sprintf("[Contact] %s - %s", s, e.Name)
}

// Compose renders the message without sending it.
func (m *SMTPMailer) Compose(e *enquiries.Enquiry) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("sender %q: %w", from, err)
	}
	if err := msg.To(strings.Split(m.cfg.To, ",")...); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	if err := msg.ReplyTo(e.Email); err != nil {
		return nil, fmt.Errorf("reply-to: %w", err)
	}
	msg.Subject(Subject(e))
	var body bytes.Buffer
	if err := bodyTmpl.Execute(&body, e); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	msg.SetBodyString(gomail.TypeTextPlain, body.String())
	return msg, nil
}

func (m *SMTPMailer) Send(ctx context.Context, e *enquiries.Enquiry) error {
	msg, err := m.Compose(e)
	if err != nil {
		return err
	}
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
