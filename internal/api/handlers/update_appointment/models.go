package update_appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	updateAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/update_appointment"
)

// UpdateAppointmentRequest HTTP request model, все поля опциональны
type UpdateAppointmentRequest struct {
	ServiceID   *uuid.UUID `json:"serviceId,omitempty"`
	TherapistID *uuid.UUID `json:"therapistId,omitempty"`
	StartAt     *string    `json:"startAt,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	ClientNotes *string    `json:"clientNotes,omitempty"`
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
func (r *UpdateAppointmentRequest) ToUseCaseRequest() *updateAppointment.Request {
	req := &updateAppointment.Request{
		ServiceID:   r.ServiceID,
		TherapistID: r.TherapistID,
		StartAt:     r.StartAt,
		Notes:       r.Notes,
		ClientNotes: r.ClientNotes,
	}
	if r.Status != nil {
		status := domain.AppointmentStatus(*r.Status)
		req.Status = &status
	}
	return req
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *updateAppointment.Response) *AppointmentResponse {
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
