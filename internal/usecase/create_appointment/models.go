package create_appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

// CustomerData данные нового клиента
type CustomerData struct {
	Name     string
	LastName *string
	Email    *string
	Phone    *string
	Rut      *string
}

// Request модель запроса на создание записи из админки
// Нужен ровно один из CustomerID и CustomerData
type Request struct {
	ServiceID    uuid.UUID
	StartAt      string     // RFC 3339 с явным смещением
	TherapistID  *uuid.UUID // Если не указан, терапевт подбирается автоматически
	CustomerID   *uuid.UUID
	CustomerData *CustomerData
	Status       *domain.AppointmentStatus // По умолчанию PENDING
	Notes        *string
	ClientNotes  *string
}

// PublicRequest модель запроса на создание записи из публичного виджета
// Клиент ищется по email, затем телефону, затем RUT; если не найден, создаётся
type PublicRequest struct {
	ServiceID    uuid.UUID
	StartAt      string
	TherapistID  *uuid.UUID
	CustomerData CustomerData
	Notes        *string
	ClientNotes  *string
}

// Response созданная запись без персональных данных клиента
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

// NewResponse собирает ответ из доменной записи
func NewResponse(a *domain.Appointment) *Response {
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

// customerPlan что сделать с клиентом внутри транзакции
type customerPlan struct {
	id         uuid.UUID        // существующий клиент
	reactivate bool             // существующий клиент неактивен
	create     *domain.Customer // новый клиент
}

// admission подготовленные данные записи перед транзакцией
type admission struct {
	actorID     string // пусто для публичных записей: аудит не пишется
	service     *domain.Service
	customer    customerPlan
	therapistID *uuid.UUID
	startAt     time.Time
	endAt       time.Time
	status      domain.AppointmentStatus
	notes       *string
	clientNotes *string
}
