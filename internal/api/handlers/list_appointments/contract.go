package list_appointments

import (
	"context"
	"time"

	"github.com/m04kA/kumelen-agenda/internal/service/appointments/models"
)

type AppointmentService interface {
	List(ctx context.Context, req *models.ListRequest) (*models.ListResponse, error)
}

// Calendar переводит локальную дату центра в границы дня в UTC
type Calendar interface {
	DayRangeUTC(localDate string) (time.Time, time.Time, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
