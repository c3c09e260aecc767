package models

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid appointment status")
)

// Request модели

// ListRequest запрос на получение списка записей
type ListRequest struct {
	Page        int        `json:"page"`
	PageSize    int        `json:"pageSize"`
	TherapistID *uuid.UUID `json:"therapistId,omitempty"`
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	Status      *string    `json:"status,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"` // start_at >= StartDate
	EndDate     *time.Time `json:"endDate,omitempty"`   // start_at <= EndDate
}

// Normalize подставляет значения пагинации по умолчанию
func (r *ListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = domain.DefaultPageSize
	}
	if r.PageSize > domain.MaxPageSize {
		r.PageSize = domain.MaxPageSize
	}
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListRequest) ToDomainFilter() (domain.AppointmentsFilter, error) {
	filter := domain.AppointmentsFilter{
		TherapistID: r.TherapistID,
		CustomerID:  r.CustomerID,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Limit:       r.PageSize,
		Offset:      (r.Page - 1) * r.PageSize,
	}

	if r.Status != nil {
		status, err := ToDomainStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// AppointmentResponse запись без персональных данных клиента
type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	TherapistID *uuid.UUID `json:"therapistId"`
	CustomerID  uuid.UUID  `json:"customerId"`
	ServiceID   uuid.UUID  `json:"serviceId"`
	StartAt     time.Time  `json:"startAt"`
	EndAt       time.Time  `json:"endAt"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes"`
	ClientNotes *string    `json:"clientNotes"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ListResponse страница записей
type ListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}
	return &AppointmentResponse{
		ID:          a.ID,
		TherapistID: a.TherapistID,
		CustomerID:  a.CustomerID,
		ServiceID:   a.ServiceID,
		StartAt:     a.StartAt.UTC(),
		EndAt:       a.EndAt.UTC(),
		Status:      string(a.Status),
		Notes:       a.Notes,
		ClientNotes: a.ClientNotes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(list []*domain.Appointment) []AppointmentResponse {
	resp := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		if item := FromDomainAppointment(a); item != nil {
			resp = append(resp, *item)
		}
	}
	return resp
}

// ToDomainStatus конвертирует строку в domain.AppointmentStatus с валидацией
func ToDomainStatus(status string) (domain.AppointmentStatus, error) {
	s := domain.AppointmentStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
