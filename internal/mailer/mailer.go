package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"inkpress/internal/config"
)

// Mailer sends transactional email. Implementations must be safe for
// concurrent use by multiple workers.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, fullName, code string) error
	SendResetToken(ctx context.Context, to, fullName, token string) error
}

// SMTPMailer implements Mailer over SMTP using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a Mailer from SMTP config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (m *SMTPMailer) SendVerificationCode(_ context.Context, to, fullName, code string) error {
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Your verification code is:</p>
<h2>%s</h2>
<p>The code expires in 10 minutes. If you did not sign up, you can ignore this email.</p>`,
		fullName, code,
	)
	return m.send(to, "Verify your email address", body)
}

func (m *SMTPMailer) SendResetToken(_ context.Context, to, fullName, token string) error {
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>We received a request to reset your password. Use this token to set a new one:</p>
<h2>%s</h2>
<p>The token expires in 15 minutes. If you did not request a reset, you can ignore this email.</p>`,
		fullName, token,
	)
	return m.send(to, "Reset your password", body)
}
