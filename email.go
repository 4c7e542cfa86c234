package tasknest

import "log/slog"

// Sender delivers account emails. Implementations are best-effort with a
// bounded timeout; callers decide whether a failure is fatal (it is only for
// password-reset delivery, which triggers a compensating rollback).
type Sender interface {
	SendWelcomeEmail(to, name string) error
	SendPasswordResetEmail(to, resetLink string) error
}

// ConsoleSender logs emails instead of sending them. Used in development and
// tests.
type ConsoleSender struct {
	Logger *slog.Logger
}

func (c *ConsoleSender) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *ConsoleSender) SendWelcomeEmail(to, name string) error {
	c.logger().Info("email: welcome", "to", to, "name", name)
	return nil
}

func (c *ConsoleSender) SendPasswordResetEmail(to, resetLink string) error {
	c.logger().Info("email: password reset", "to", to, "link", resetLink)
	return nil
}
