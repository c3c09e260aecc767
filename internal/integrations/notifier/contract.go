package notifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

// AppointmentRepository интерфейс для получения данных записи для письма
type AppointmentRepository interface {
	GetDetails(ctx context.Context, id uuid.UUID) (*domain.AppointmentDetails, error)
}

// EmailSender отправляет письмо через конкретного провайдера (SendGrid, SES, заглушка)
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// EmailMessage письмо для отправки
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}
