package create_appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	"github.com/m04kA/kumelen-agenda/internal/domain"
	createAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
)

// CustomerData HTTP модель нового клиента
type CustomerData struct {
	Name     string  `json:"name"`
	LastName *string `json:"lastName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Rut      *string `json:"rut,omitempty"`
}

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ServiceID    uuid.UUID     `json:"serviceId"`
	StartAt      string        `json:"startAt"` // "2025-01-13T10:00:00-03:00"
	TherapistID  *uuid.UUID    `json:"therapistId,omitempty"`
	CustomerID   *uuid.UUID    `json:"customerId,omitempty"`
	CustomerData *CustomerData `json:"customerData,omitempty"`
	Status       *string       `json:"status,omitempty"`
	Notes        *string       `json:"notes,omitempty"`
	ClientNotes  *string       `json:"clientNotes,omitempty"`
}

// AppointmentResponse HTTP response model
type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	TherapistID *uuid.UUID `json:"therapistId"`
	CustomerID  uuid.UUID  `json:"customerId"`
	ServiceID   uuid.UUID  `json:"serviceId"`
	StartAt     string     `json:"startAt"`
	EndAt       string     `json:"endAt"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes"`
	ClientNotes *string    `json:"clientNotes"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest() *createAppointment.Request {
	req := &createAppointment.Request{
		ServiceID:   r.ServiceID,
		StartAt:     r.StartAt,
		TherapistID: r.TherapistID,
		CustomerID:  r.CustomerID,
		Notes:       r.Notes,
		ClientNotes: r.ClientNotes,
	}

	if r.CustomerData != nil {
		req.CustomerData = &createAppointment.CustomerData{
			Name:     r.CustomerData.Name,
			LastName: r.CustomerData.LastName,
			Email:    r.CustomerData.Email,
			Phone:    r.CustomerData.Phone,
			Rut:      r.CustomerData.Rut,
		}
	}

	if r.Status != nil {
		status := domain.AppointmentStatus(*r.Status)
		req.Status = &status
	}

	return req
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createAppointment.Response) *AppointmentResponse {
	return &AppointmentResponse{
		ID:          resp.ID,
		TherapistID: resp.TherapistID,
		CustomerID:  resp.CustomerID,
		ServiceID:   resp.ServiceID,
		StartAt:     resp.StartAt.UTC().Format(time.RFC3339),
		EndAt:       resp.EndAt.UTC().Format(time.RFC3339),
		Status:      string(resp.Status),
		Notes:       resp.Notes,
		ClientNotes: resp.ClientNotes,
		CreatedAt:   resp.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   resp.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// DuplicateFields конвертирует поля дубликата клиента в поля ошибки API
func DuplicateFields(err *createAppointment.DuplicateCustomerError) []handlers.FieldError {
	fields := make([]handlers.FieldError, len(err.Fields))
	for i, f := range err.Fields {
		fields[i] = handlers.FieldError{Field: f.Field, Value: f.Value}
	}
	return fields
}
