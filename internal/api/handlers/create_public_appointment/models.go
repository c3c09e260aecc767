package create_public_appointment

import (
	"time"

	"github.com/google/uuid"

	createAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
)

// CustomerData контактные данные клиента из виджета
type CustomerData struct {
	Name     string  `json:"name"`
	LastName *string `json:"lastName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Rut      *string `json:"rut,omitempty"`
}

// PublicAppointmentRequest HTTP request model
type PublicAppointmentRequest struct {
	ServiceID    uuid.UUID    `json:"serviceId"`
	StartAt      string       `json:"startAt"`
	TherapistID  *uuid.UUID   `json:"therapistId,omitempty"`
	CustomerData CustomerData `json:"customerData"`
	Notes        *string      `json:"notes,omitempty"`
	ClientNotes  *string      `json:"clientNotes,omitempty"`
}

// PublicAppointmentResponse ответ виджету: только то, что нужно для экрана подтверждения
type PublicAppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	ServiceID   uuid.UUID  `json:"serviceId"`
	TherapistID *uuid.UUID `json:"therapistId"`
	StartAt     string     `json:"startAt"`
	EndAt       string     `json:"endAt"`
	Status      string     `json:"status"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *PublicAppointmentRequest) ToUseCaseRequest() *createAppointment.PublicRequest {
	return &createAppointment.PublicRequest{
		ServiceID:   r.ServiceID,
		StartAt:     r.StartAt,
		TherapistID: r.TherapistID,
		CustomerData: createAppointment.CustomerData{
			Name:     r.CustomerData.Name,
			LastName: r.CustomerData.LastName,
			Email:    r.CustomerData.Email,
			Phone:    r.CustomerData.Phone,
			Rut:      r.CustomerData.Rut,
		},
		Notes:       r.Notes,
		ClientNotes: r.ClientNotes,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createAppointment.Response) *PublicAppointmentResponse {
	return &PublicAppointmentResponse{
		ID:          resp.ID,
		ServiceID:   resp.ServiceID,
		TherapistID: resp.TherapistID,
		StartAt:     resp.StartAt.UTC().Format(time.RFC3339),
		EndAt:       resp.EndAt.UTC().Format(time.RFC3339),
		Status:      string(resp.Status),
	}
}
