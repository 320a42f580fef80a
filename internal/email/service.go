package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/circuitbreaker"
	"github.com/cirs/cirs-api/pkg/logger"
)

type Service interface {
	SendWelcome(ctx context.Context, to string, name string) error
	SendRegistrationRejected(ctx context.Context, to string, name string) error
	SendPasswordReset(ctx context.Context, to string, name string) error
	SendReminder(ctx context.Context, reminder model.Reminder) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough is configured to reach a server.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	cb     *gobreaker.CircuitBreaker
}

// NewSMTPService sends mail through gomail. A circuit breaker stops hammering
// an unreachable server.
func NewSMTPService(cfg SMTPConfig, l *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		cb: circuitbreaker.New(circuitbreaker.Settings{
			Name:     "smtp",
			Interval: time.Minute,
			Timeout:  30 * time.Second,
		}, l.Zerolog()),
	}
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := circuitbreaker.Execute(s.cb, func() error {
		return s.dialer.DialAndSend(m)
	}); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name string) error {
	subject, body := welcomeMessage(name)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendRegistrationRejected(ctx context.Context, to, name string) error {
	subject, body := rejectedMessage(name)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to, name string) error {
	subject, body := passwordResetMessage(name)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendReminder(ctx context.Context, r model.Reminder) error {
	subject, body := reminderMessage(r)
	return s.SendCustom(ctx, r.ParentEmail, subject, body)
}

// logService writes mail to the log instead of sending it.
type logService struct {
	logger *logger.Logger
}

func NewLogService(l *logger.Logger) Service {
	return &logService{logger: l.Component("email")}
}

func (s *logService) SendCustom(_ context.Context, to, subject, _ string) error {
	s.logger.Info("Email not sent, SMTP is not configured", "to", to, "subject", subject)
	return nil
}

func (s *logService) SendWelcome(ctx context.Context, to, name string) error {
	subject, body := welcomeMessage(name)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *logService) SendRegistrationRejected(ctx context.Context, to, name string) error {
	subject, body := rejectedMessage(name)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *logService) SendPasswordReset(ctx context.Context, to, name string) error {
	subject, body := passwordResetMessage(name)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *logService) SendReminder(ctx context.Context, r model.Reminder) error {
	subject, body := reminderMessage(r)
	return s.SendCustom(ctx, r.ParentEmail, subject, body)
}

func welcomeMessage(name string) (string, string) {
	return "Your CIRS account has been approved",
		fmt.Sprintf("Hello %s,\n\nYour registration has been approved. You can now sign in to CIRS.\n", name)
}

func rejectedMessage(name string) (string, string) {
	return "Your CIRS registration",
		fmt.Sprintf("Hello %s,\n\nYour registration request was not approved. Contact your clinic administrator for details.\n", name)
}

func passwordResetMessage(name string) (string, string) {
	return "CIRS password reset",
		fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. Ask an administrator to complete it if this was you.\n", name)
}

func reminderMessage(r model.Reminder) (string, string) {
	var b strings.Builder
	subject := fmt.Sprintf("Vaccination reminder: %s", r.PatientName)
	if r.Status == model.StatusOverdue {
		subject = fmt.Sprintf("Overdue vaccination: %s", r.PatientName)
	}

	fmt.Fprintf(&b, "Hello %s,\n\n", r.ParentName)
	switch r.Status {
	case model.StatusOverdue:
		fmt.Fprintf(&b, "%s's %s vaccination was due on %s and has not been recorded yet.\n", r.PatientName, r.VaccineName, r.DueDate)
	default:
		fmt.Fprintf(&b, "%s's %s vaccination is due on %s.\n", r.PatientName, r.VaccineName, r.DueDate)
	}
	b.WriteString("\nPlease contact your healthcare provider to schedule it.\n")
	return subject, b.String()
}
