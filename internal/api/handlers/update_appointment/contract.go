package update_appointment

import (
	"context"

	"github.com/google/uuid"

	updateAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/update_appointment"
)

type UpdateAppointmentUseCase interface {
	Execute(ctx context.Context, actorID string, id uuid.UUID, req *updateAppointment.Request) (*updateAppointment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
