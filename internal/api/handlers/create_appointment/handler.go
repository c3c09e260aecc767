package create_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	"github.com/m04kA/kumelen-agenda/internal/api/middleware"
	createAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
)

const (
	msgInvalidRequestBody   = "cuerpo de la solicitud inválido"
	msgMissingActor         = "falta la identidad del usuario"
	msgInvalidStartAt       = "startAt inválido, se espera RFC 3339 con zona horaria"
	msgCustomerRequired     = "se requiere customerId o customerData"
	msgServiceNotFound      = "servicio no encontrado"
	msgCustomerNotFound     = "cliente no encontrado"
	msgTherapistNotFound    = "terapeuta no encontrado"
	msgNoTherapistAvailable = "no hay terapeutas disponibles en ese horario"
	msgSlotNotAvailable     = "el horario seleccionado ya no está disponible"
	msgCustomerConflict     = "ya existe un cliente con estos datos"
)

type Handler struct {
	useCase CreateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CreateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Получаем ID актора из контекста (через middleware Auth)
	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		h.logger.Warn("POST /appointments - Missing actor ID")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), actorID, req.ToUseCaseRequest())
	if err != nil {
		var dup *createAppointment.DuplicateCustomerError
		switch {
		case errors.As(err, &dup):
			h.logger.Warn("POST /appointments - Duplicate customer: %v", err)
			handlers.RespondErrorWithFields(w, http.StatusConflict, handlers.CodeCustomerConflict, msgCustomerConflict, DuplicateFields(dup))

		case errors.Is(err, createAppointment.ErrServiceNotFound):
			h.logger.Warn("POST /appointments - Service not found: service_id=%s", req.ServiceID)
			handlers.RespondNotFound(w, handlers.CodeServiceNotFound, msgServiceNotFound)

		case errors.Is(err, createAppointment.ErrCustomerNotFound):
			h.logger.Warn("POST /appointments - Customer not found: customer_id=%v", req.CustomerID)
			handlers.RespondNotFound(w, handlers.CodeCustomerNotFound, msgCustomerNotFound)

		case errors.Is(err, createAppointment.ErrTherapistNotFound):
			h.logger.Warn("POST /appointments - Therapist not found: therapist_id=%v", req.TherapistID)
			handlers.RespondNotFound(w, handlers.CodeTherapistNotFound, msgTherapistNotFound)

		case errors.Is(err, createAppointment.ErrInvalidStartAt):
			h.logger.Warn("POST /appointments - Invalid startAt: %q", req.StartAt)
			handlers.RespondBadRequest(w, handlers.CodeInvalidStartAt, msgInvalidStartAt)

		case errors.Is(err, createAppointment.ErrCustomerRequired):
			h.logger.Warn("POST /appointments - Customer is missing")
			handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgCustomerRequired)

		case errors.Is(err, createAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: %v", err)
			handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidRequestBody)

		case errors.Is(err, createAppointment.ErrNoTherapistAvailable):
			h.logger.Warn("POST /appointments - No therapist available: service_id=%s, start_at=%s", req.ServiceID, req.StartAt)
			handlers.RespondConflict(w, handlers.CodeNoTherapistAvailable, msgNoTherapistAvailable)

		case errors.Is(err, createAppointment.ErrSlotNotAvailable):
			h.logger.Warn("POST /appointments - Slot not available: service_id=%s, start_at=%s", req.ServiceID, req.StartAt)
			handlers.RespondConflict(w, handlers.CodeSlotNotAvailable, msgSlotNotAvailable)

		default:
			h.logger.Error("POST /appointments - Failed to create appointment: actor=%s, error=%v", actorID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created: id=%s, therapist_id=%v, actor=%s",
		result.ID, result.TherapistID, actorID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
