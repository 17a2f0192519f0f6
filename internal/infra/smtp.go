package infra

import (
	"fmt"
	"net/smtp"

	"vendapos/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends transactional mail (closure reports, customer receipts)
// through the configured SMTP relay.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPUser,
	}
}

// Send delivers a message with an optional PDF attachment.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	if m.host == "" {
		return fmt.Errorf("mailer: SMTP_HOST not configured")
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("VendaPOS <%s>", m.from)
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", attachmentPath, err)
		}
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(addr, auth)
}
