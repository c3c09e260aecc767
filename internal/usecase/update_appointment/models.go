package update_appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

// Request модель частичного обновления записи
// Не переданные поля остаются без изменений
type Request struct {
	ServiceID   *uuid.UUID
	TherapistID *uuid.UUID
	StartAt     *string // RFC 3339 с явным смещением
	Status      *domain.AppointmentStatus
	Notes       *string
	ClientNotes *string
}

// IsEmpty возвращает true, если не передано ни одного поля
func (r *Request) IsEmpty() bool {
	return r.ServiceID == nil && r.TherapistID == nil && r.StartAt == nil &&
		r.Status == nil && r.Notes == nil && r.ClientNotes == nil
}

// Response обновлённая запись без персональных данных клиента
type Response struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	TherapistID *uuid.UUID
	ServiceID   uuid.UUID
	StartAt     time.Time
	EndAt       time.Time
	Status      domain.AppointmentStatus
	Notes       *string
	ClientNotes *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newResponse(a *domain.Appointment) *Response {
	return &Response{
		ID:          a.ID,
		CustomerID:  a.CustomerID,
		TherapistID: a.TherapistID,
		ServiceID:   a.ServiceID,
		StartAt:     a.StartAt,
		EndAt:       a.EndAt,
		Status:      a.Status,
		Notes:       a.Notes,
		ClientNotes: a.ClientNotes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
