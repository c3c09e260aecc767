package update_appointment_status

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/service/appointments/models"
)

type AppointmentService interface {
	UpdateStatus(ctx context.Context, actorID string, id uuid.UUID, status string) (*models.AppointmentResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
