package list_appointments

import (
	"errors"
	"net/http"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	"github.com/m04kA/kumelen-agenda/internal/service/appointments"
)

const (
	msgInvalidParams = "parámetros de consulta inválidos"
	msgInvalidDate   = "fecha inválida, se espera YYYY-MM-DD o RFC 3339"
)

type Handler struct {
	service  AppointmentService
	calendar Calendar
	logger   Logger
}

func NewHandler(service AppointmentService, calendar Calendar, logger Logger) *Handler {
	return &Handler{
		service:  service,
		calendar: calendar,
		logger:   logger,
	}
}

// Handle GET /api/v1/appointments
// Query params: page, pageSize, therapistId, customerId, status, startDate, endDate (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceReq, err := ToServiceRequest(r.URL.Query(), h.calendar)
	if err != nil {
		h.logger.Warn("GET /appointments - Invalid parameters: %v", err)
		if errors.Is(err, errInvalidDate) {
			handlers.RespondBadRequest(w, handlers.CodeInvalidDate, msgInvalidDate)
			return
		}
		handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidParams)
		return
	}

	result, err := h.service.List(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, appointments.ErrInvalidInput) {
			h.logger.Warn("GET /appointments - Invalid filter: %v", err)
			handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidParams)
			return
		}
		h.logger.Error("GET /appointments - Failed to list appointments: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /appointments - Appointments listed: page=%d, count=%d, total=%d",
		result.Page, len(result.Appointments), result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
