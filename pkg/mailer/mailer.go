package mailer

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/noah-isme/rec-ctp-api/pkg/config"
)

// Notifier sends outbound email. Failures are the caller's to log and
// swallow; mail delivery never decides the outcome of a business operation.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// New constructs an SMTP mailer.
func New(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers a plain-text message. When SMTP credentials are not
// configured the message is logged instead, so local development works
// without a relay.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		m.logger.Info("smtp not configured, skipping delivery",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		m.cfg.FromName, m.cfg.FromEmail, to, subject, body)

	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// ResetPasswordBody renders the password-reset message containing the raw
// single-use token.
func ResetPasswordBody(baseURL, token string) string {
	return fmt.Sprintf("You requested a password reset for your CTP Portal account.\n\n"+
		"Open the link below within 10 minutes to choose a new password:\n\n"+
		"%s/reset-password/%s\n\n"+
		"If you did not request this, you can ignore this message.", baseURL, token)
}

// WelcomeBody renders the registration confirmation message.
func WelcomeBody(name string, approved bool) string {
	if approved {
		return fmt.Sprintf("Hi %s,\n\nYour CTP Portal account is active. You can log in and submit applications right away.", name)
	}
	return fmt.Sprintf("Hi %s,\n\nYour CTP Portal account was created and is awaiting admin approval. You will be able to log in once it is approved.", name)
}
