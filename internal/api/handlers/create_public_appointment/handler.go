package create_public_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	createAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
)

const (
	msgInvalidRequestBody   = "cuerpo de la solicitud inválido"
	msgInvalidStartAt       = "startAt inválido, se espera RFC 3339 con zona horaria"
	msgServiceNotFound      = "servicio no encontrado"
	msgTherapistNotFound    = "terapeuta no encontrado"
	msgNoTherapistAvailable = "no hay terapeutas disponibles en ese horario"
	msgSlotNotAvailable     = "el horario seleccionado ya no está disponible"
	msgCustomerConflict     = "no pudimos registrar tus datos, intenta nuevamente"
)

type Handler struct {
	useCase CreatePublicAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CreatePublicAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/public/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req PublicAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /public/appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.ExecutePublic(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, createAppointment.ErrServiceNotFound):
			h.logger.Warn("POST /public/appointments - Service not found: service_id=%s", req.ServiceID)
			handlers.RespondNotFound(w, handlers.CodeServiceNotFound, msgServiceNotFound)

		case errors.Is(err, createAppointment.ErrTherapistNotFound):
			h.logger.Warn("POST /public/appointments - Therapist not found: therapist_id=%v", req.TherapistID)
			handlers.RespondNotFound(w, handlers.CodeTherapistNotFound, msgTherapistNotFound)

		case errors.Is(err, createAppointment.ErrInvalidStartAt):
			h.logger.Warn("POST /public/appointments - Invalid startAt: %q", req.StartAt)
			handlers.RespondBadRequest(w, handlers.CodeInvalidStartAt, msgInvalidStartAt)

		case errors.Is(err, createAppointment.ErrInvalidInput):
			h.logger.Warn("POST /public/appointments - Invalid input: %v", err)
			handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidRequestBody)

		case errors.Is(err, createAppointment.ErrNoTherapistAvailable):
			h.logger.Warn("POST /public/appointments - No therapist available: service_id=%s, start_at=%s", req.ServiceID, req.StartAt)
			handlers.RespondConflict(w, handlers.CodeNoTherapistAvailable, msgNoTherapistAvailable)

		case errors.Is(err, createAppointment.ErrSlotNotAvailable):
			h.logger.Warn("POST /public/appointments - Slot not available: service_id=%s, start_at=%s", req.ServiceID, req.StartAt)
			handlers.RespondConflict(w, handlers.CodeSlotNotAvailable, msgSlotNotAvailable)

		// Гонка с параллельной регистрацией того же клиента; поля не раскрываем
		case errors.Is(err, createAppointment.ErrDuplicateCustomer):
			h.logger.Warn("POST /public/appointments - Customer created concurrently: %v", err)
			handlers.RespondConflict(w, handlers.CodeCustomerConflict, msgCustomerConflict)

		default:
			h.logger.Error("POST /public/appointments - Failed to create appointment: service_id=%s, error=%v", req.ServiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /public/appointments - Appointment created: id=%s, therapist_id=%v", result.ID, result.TherapistID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
