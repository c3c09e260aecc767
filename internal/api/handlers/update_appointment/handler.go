package update_appointment

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	"github.com/m04kA/kumelen-agenda/internal/api/middleware"
	updateAppointment "github.com/m04kA/kumelen-agenda/internal/usecase/update_appointment"
)

const (
	msgInvalidAppointmentID = "ID de cita inválido"
	msgInvalidRequestBody   = "cuerpo de la solicitud inválido"
	msgMissingActor         = "falta la identidad del usuario"
	msgInvalidStartAt       = "startAt inválido, se espera RFC 3339 con zona horaria"
	msgAppointmentNotFound  = "cita no encontrada"
	msgServiceNotFound      = "servicio no encontrado"
	msgTherapistNotFound    = "terapeuta no encontrado"
	msgSlotNotAvailable     = "el horario seleccionado ya no está disponible"
)

type Handler struct {
	useCase UpdateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase UpdateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/appointments/{id}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.ParseUUID(mux.Vars(r)["id"])
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id} - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidAppointmentID)
		return
	}

	actorID, ok := middleware.GetActorID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /appointments/{id} - Missing actor ID")
		handlers.RespondUnauthorized(w, msgMissingActor)
		return
	}

	var req UpdateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), actorID, id, req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, updateAppointment.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/{id} - Appointment not found: id=%s", id)
			handlers.RespondNotFound(w, handlers.CodeAppointmentNotFound, msgAppointmentNotFound)

		case errors.Is(err, updateAppointment.ErrServiceNotFound):
			h.logger.Warn("PATCH /appointments/{id} - Service not found: id=%s, service_id=%v", id, req.ServiceID)
			handlers.RespondNotFound(w, handlers.CodeServiceNotFound, msgServiceNotFound)

		case errors.Is(err, updateAppointment.ErrTherapistNotFound):
			h.logger.Warn("PATCH /appointments/{id} - Therapist not found: id=%s, therapist_id=%v", id, req.TherapistID)
			handlers.RespondNotFound(w, handlers.CodeTherapistNotFound, msgTherapistNotFound)

		case errors.Is(err, updateAppointment.ErrInvalidStartAt):
			h.logger.Warn("PATCH /appointments/{id} - Invalid startAt: id=%s", id)
			handlers.RespondBadRequest(w, handlers.CodeInvalidStartAt, msgInvalidStartAt)

		case errors.Is(err, updateAppointment.ErrInvalidInput):
			h.logger.Warn("PATCH /appointments/{id} - Invalid input: id=%s, error=%v", id, err)
			handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidRequestBody)

		case errors.Is(err, updateAppointment.ErrSlotNotAvailable):
			h.logger.Warn("PATCH /appointments/{id} - Slot not available: id=%s", id)
			handlers.RespondConflict(w, handlers.CodeSlotNotAvailable, msgSlotNotAvailable)

		default:
			h.logger.Error("PATCH /appointments/{id} - Failed to update appointment: id=%s, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id} - Appointment updated: id=%s, actor=%s", id, actorID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
