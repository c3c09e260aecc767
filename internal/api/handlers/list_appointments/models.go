package list_appointments

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
	"github.com/m04kA/kumelen-agenda/internal/service/appointments/models"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

var errInvalidDate = errors.New("invalid date")

// localDateLen длина "YYYY-MM-DD"
const localDateLen = 10

// ToServiceRequest разбирает query параметры:
// page, pageSize, therapistId, customerId, status, startDate, endDate
// Даты принимаются как локальная дата YYYY-MM-DD (весь день включительно) или RFC 3339 момент
func ToServiceRequest(query url.Values, calendar Calendar) (*models.ListRequest, error) {
	req := &models.ListRequest{}

	var err error
	if req.Page, err = optionalInt(query.Get("page")); err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	if req.PageSize, err = optionalInt(query.Get("pageSize")); err != nil {
		return nil, fmt.Errorf("pageSize: %w", err)
	}
	if req.TherapistID, err = handlers.ParseOptionalUUID(query.Get("therapistId")); err != nil {
		return nil, fmt.Errorf("therapistId: %w", err)
	}
	if req.CustomerID, err = handlers.ParseOptionalUUID(query.Get("customerId")); err != nil {
		return nil, fmt.Errorf("customerId: %w", err)
	}
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	if raw := query.Get("startDate"); raw != "" {
		start, _, err := parseBound(raw, calendar)
		if err != nil {
			return nil, fmt.Errorf("startDate: %w", err)
		}
		req.StartDate = &start
	}
	if raw := query.Get("endDate"); raw != "" {
		_, end, err := parseBound(raw, calendar)
		if err != nil {
			return nil, fmt.Errorf("endDate: %w", err)
		}
		req.EndDate = &end
	}

	return req, nil
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// parseBound возвращает нижнюю и верхнюю границу для значения даты
// Для локальной даты верхняя граница: последняя микросекунда дня (точность timestamptz)
func parseBound(raw string, calendar Calendar) (time.Time, time.Time, error) {
	if len(raw) == localDateLen {
		start, end, err := calendar.DayRangeUTC(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", errInvalidDate, err)
		}
		return start, end.Add(-time.Microsecond), nil
	}

	t, err := worktime.ParseInstant(raw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", errInvalidDate, err)
	}
	return t, t, nil
}
