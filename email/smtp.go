// Package email delivers account emails over SMTP.
package email

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"
)

// Config carries the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
}

// SMTPSender sends account emails through an SMTP relay. It implements
// tasknest.Sender.
type SMTPSender struct {
	cfg    Config
	logger *slog.Logger
}

func NewSMTPSender(cfg Config, logger *slog.Logger) *SMTPSender {
	if cfg.AppName == "" {
		cfg.AppName = "TaskNest"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) SendWelcomeEmail(to, name string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Welcome to %s, %s!</h2>
    <p>Your account is ready. Sign in and start organizing your tasks.</p>
  </div>
</body>
</html>`, s.cfg.AppName, name)

	if err := s.send(to, fmt.Sprintf("Welcome to %s", s.cfg.AppName), body); err != nil {
		return err
	}
	s.logger.Info("welcome email sent", slog.String("to", to))
	return nil
}

func (s *SMTPSender) SendPasswordResetEmail(to, resetLink string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>%s password reset</h2>
    <p>You requested a password reset. The link below is valid for 10 minutes:</p>
    <p><a href="%s">%s</a></p>
    <p>If you did not request this, you can ignore this email.</p>
  </div>
</body>
</html>`, s.cfg.AppName, resetLink, resetLink)

	if err := s.send(to, fmt.Sprintf("%s password reset", s.cfg.AppName), body); err != nil {
		return err
	}
	s.logger.Info("password reset email sent", slog.String("to", to))
	return nil
}

func (s *SMTPSender) send(to, subject, body string) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return fmt.Errorf("smtp config missing")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
