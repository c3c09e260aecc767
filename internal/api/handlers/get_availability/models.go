package get_availability

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	getAvailability "github.com/m04kA/kumelen-agenda/internal/usecase/get_availability"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date                   string         `json:"date"`
	Timezone               string         `json:"timezone"`
	ServiceID              uuid.UUID      `json:"serviceId"`
	ServiceDurationMinutes int            `json:"serviceDurationMinutes"`
	FreeIntervals          []FreeInterval `json:"freeIntervals"`
}

// FreeInterval свободный интервал "HH:mm"
type FreeInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ToUseCaseRequest разбирает query параметры serviceId, date, durationMinutes, therapistId
func ToUseCaseRequest(query url.Values) (*getAvailability.Request, error) {
	serviceID, err := handlers.ParseUUID(query.Get("serviceId"))
	if err != nil {
		return nil, fmt.Errorf("serviceId: %w", err)
	}

	therapistID, err := handlers.ParseOptionalUUID(query.Get("therapistId"))
	if err != nil {
		return nil, fmt.Errorf("therapistId: %w", err)
	}

	req := &getAvailability.Request{
		ServiceID:   serviceID,
		Date:        query.Get("date"),
		TherapistID: therapistID,
	}

	if raw := query.Get("durationMinutes"); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("durationMinutes: %w", err)
		}
		req.DurationMinutes = &duration
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	intervals := make([]FreeInterval, len(resp.FreeIntervals))
	for i, iv := range resp.FreeIntervals {
		intervals[i] = FreeInterval{Start: iv.Start, End: iv.End}
	}

	return &AvailabilityResponse{
		Date:                   resp.Date,
		Timezone:               resp.Timezone,
		ServiceID:              resp.ServiceID,
		ServiceDurationMinutes: resp.ServiceDurationMinutes,
		FreeIntervals:          intervals,
	}
}
