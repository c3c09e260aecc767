package create_public_appointment

import (
	"context"

	createAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
)

type CreatePublicAppointmentUseCase interface {
	ExecutePublic(ctx context.Context, req *createAppointment.PublicRequest) (*createAppointment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
