package resolve_therapist

import (
	"time"

	"github.com/google/uuid"
)

// Причины отклонения кандидата (метка reason в метриках)
const (
	ReasonNoSchedule = "no_schedule"
	ReasonOutOfHours = "out_of_hours"
	ReasonConflict   = "conflict"
)

// Итог решения резолвера (метка outcome в метриках)
const (
	OutcomeAssigned    = "assigned"
	OutcomeUnavailable = "unavailable"
)

// Request запрос на подбор терапевта
type Request struct {
	ServiceID uuid.UUID // Услуга, которую должен оказывать терапевт
	StartAt   time.Time // Начало записи (UTC)
	EndAt     time.Time // Конец записи (UTC), startAt + длительность услуги
}

// Response результат подбора
// Found=false не ошибка: свободного терапевта нет, вызывающий код решает, что делать
type Response struct {
	TherapistID uuid.UUID
	Found       bool
	Rejections  RejectionStats
}

// RejectionStats счётчики отклонённых кандидатов по причинам
type RejectionStats struct {
	NoSchedule int
	OutOfHours int
	Conflict   int
}

// Total возвращает общее число отклонённых кандидатов
func (s RejectionStats) Total() int {
	return s.NoSchedule + s.OutOfHours + s.Conflict
}
