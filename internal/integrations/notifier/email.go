package notifier

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender отправляет письма через SendGrid API
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    Logger
}

// NewSendGridSender создает отправителя SendGrid
func NewSendGridSender(apiKey, fromEmail, fromName string, logger Logger) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// Send отправляет письмо через SendGrid
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("SendGrid: send to %s failed: %v", msg.To, err)
		return fmt.Errorf("%w: sendgrid: %v", ErrSend, err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("SendGrid: status %d for %s: %s", response.StatusCode, msg.To, response.Body)
		return fmt.Errorf("%w: sendgrid returned status %d", ErrSend, response.StatusCode)
	}

	s.logger.Info("SendGrid: sent %q to %s, status=%d", msg.Subject, msg.To, response.StatusCode)
	return nil
}

// StubSender только логирует письма, используется локально и в тестах
type StubSender struct {
	logger Logger
}

// NewStubSender создает заглушку отправителя
func NewStubSender(logger Logger) *StubSender {
	return &StubSender{logger: logger}
}

// Send логирует письмо без отправки
func (s *StubSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("StubSender: would send %q to %s", msg.Subject, msg.To)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubSender)(nil)
)
