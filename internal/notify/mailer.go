// Package notify sends the HTML notification emails of the ITSM system
// through SendGrid, or logs them when no provider is configured.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/config"
)

const sendGridHost = "https://api.sendgrid.com"

// Sender delivers one rendered message
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Mailer renders and sends notification emails. Its methods report success
// and never return errors.
type Mailer struct {
	sender Sender
	logger *zap.Logger
}

// New builds a Mailer for the configured provider
func New(cfg config.EmailConfig, logger *zap.Logger) (*Mailer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var sender Sender
	switch cfg.Provider {
	case "", "log":
		sender = &LogSender{logger: logger}
	case "noop":
		sender = NoopSender{}
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires an API key")
		}
		sender = NewSendGridSender(cfg.SendGridAPIKey, cfg.SenderName, cfg.Sender, sendGridHost)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return NewMailer(sender, logger), nil
}

// NewMailer wraps an arbitrary Sender
func NewMailer(sender Sender, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{sender: sender, logger: logger}
}

// SendMaintenanceNotification tells an empresa that maintenance was scheduled
func (m *Mailer) SendMaintenanceNotification(ctx context.Context, to, equipo, fecha, tecnico string) bool {
	subject := "Mantenimiento programado - " + equipo
	return m.send(ctx, to, subject, maintenanceTemplate, maintenanceData{
		Equipo:  equipo,
		Fecha:   fecha,
		Tecnico: tecnico,
	})
}

// SendReportNotification tells an empresa that a report is ready
func (m *Mailer) SendReportNotification(ctx context.Context, to, empresa, tipo string) bool {
	subject := "Reporte generado - " + empresa
	return m.send(ctx, to, subject, reportTemplate, reportData{
		Empresa: empresa,
		Tipo:    tipo,
	})
}

func (m *Mailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data any) bool {
	if strings.TrimSpace(to) == "" {
		m.logger.Warn("Email skipped, no recipient", zap.String("subject", subject))
		return false
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		m.logger.Error("Failed to render email", zap.String("subject", subject), zap.Error(err))
		return false
	}

	if err := m.sender.Send(ctx, to, subject, body.String()); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return false
	}
	return true
}

// SendGridSender delivers through the SendGrid v3 API
type SendGridSender struct {
	apiKey string
	host   string
	from   *mail.Email
}

// NewSendGridSender creates a sender. host is the API base URL.
func NewSendGridSender(apiKey, fromName, fromAddress, host string) *SendGridSender {
	return &SendGridSender{
		apiKey: apiKey,
		host:   host,
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

// Send posts the message; any non-2xx status is an error
func (s *SendGridSender) Send(ctx context.Context, to, subject, html string) error {
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), "", html)

	request := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them
type LogSender struct {
	logger *zap.Logger
}

// Send logs the message
func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("Email (log provider)", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NoopSender discards messages
type NoopSender struct{}

// Send does nothing
func (NoopSender) Send(context.Context, string, string, string) error { return nil }
