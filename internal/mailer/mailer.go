package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/aswaq/aswaq-backend/internal/config"
	"github.com/aswaq/aswaq-backend/pkg/logger"
)

// Sender dispatches a single email. The auth handlers only depend on this
// interface; production wiring uses SMTP and dev wiring logs instead.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.cfg.From, to, subject, body)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes the mail to the log instead of delivering it. Used when no
// SMTP host is configured so dev flows still show the token links.
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	logger.Infof("mail (not sent): to=%s subject=%q body=%q", to, subject, body)
	return nil
}

// Verification and reset emails link back into the frontend.

func VerificationEmail(appURL, token string) (subject, body string) {
	return "Verify your account",
		fmt.Sprintf("Welcome! Please confirm your email address by opening:\n\n%s/verify-email/%s\n\nThe link expires in one hour.", appURL, token)
}

func ResetPasswordEmail(appURL, token string) (subject, body string) {
	return "Reset your password",
		fmt.Sprintf("A password reset was requested for your account. Open:\n\n%s/reset-password/%s\n\nThe link expires in one hour. If you did not request this, ignore this email.", appURL, token)
}
