package get_availability

import (
	"github.com/google/uuid"
)

// Request модель запроса свободных интервалов на день
type Request struct {
	ServiceID       uuid.UUID  // ID услуги
	Date            string     // Локальная дата YYYY-MM-DD
	DurationMinutes *int       // Переопределение длительности услуги (опционально)
	TherapistID     *uuid.UUID // Закреплённый терапевт (опционально)
}

// Response модель ответа со свободными интервалами
type Response struct {
	Date                   string
	Timezone               string
	ServiceID              uuid.UUID
	ServiceDurationMinutes int
	FreeIntervals          []FreeInterval
}

// FreeInterval свободный интервал в локальном времени ("HH:mm")
type FreeInterval struct {
	Start string
	End   string
}
