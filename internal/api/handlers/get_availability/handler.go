package get_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	getAvailability "github.com/m04kA/kumelen-agenda/internal/usecase/get_availability"
)

const (
	msgInvalidParams   = "parámetros de consulta inválidos"
	msgInvalidDate     = "fecha inválida, se espera YYYY-MM-DD"
	msgServiceNotFound = "servicio no encontrado"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/public/availability
// Query params: serviceId, date (обязательные), durationMinutes, therapistId (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	useCaseReq, err := ToUseCaseRequest(r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /public/availability - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidParams)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrServiceNotFound):
			h.logger.Warn("GET /public/availability - Service not found: service_id=%s", useCaseReq.ServiceID)
			handlers.RespondNotFound(w, handlers.CodeServiceNotFound, msgServiceNotFound)

		case errors.Is(err, getAvailability.ErrInvalidDate):
			h.logger.Warn("GET /public/availability - Invalid date: %q", useCaseReq.Date)
			handlers.RespondBadRequest(w, handlers.CodeInvalidDate, msgInvalidDate)

		case errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /public/availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, handlers.CodeInvalidRequest, msgInvalidParams)

		default:
			h.logger.Error("GET /public/availability - Failed to compute availability: service_id=%s, date=%s, error=%v",
				useCaseReq.ServiceID, useCaseReq.Date, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /public/availability - Availability computed: service_id=%s, date=%s, intervals=%d",
		useCaseReq.ServiceID, useCaseReq.Date, len(result.FreeIntervals))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
