package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	catalogRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/catalog"
	"github.com/m04kA/kumelen-agenda/pkg/interval"
	"github.com/m04kA/kumelen-agenda/pkg/ptr"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

// UseCase use case расчёта свободных интервалов на день
type UseCase struct {
	serviceRepo   ServiceRepository
	candidateRepo CandidateRepository
	calendar      worktime.Calendar
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	serviceRepo ServiceRepository,
	candidateRepo CandidateRepository,
	calendar worktime.Calendar,
	logger Logger,
) *UseCase {
	return &UseCase{
		serviceRepo:   serviceRepo,
		candidateRepo: candidateRepo,
		calendar:      calendar,
		logger:        logger,
	}
}

// Execute выполняет use case расчёта свободных интервалов
// Для каждого терапевта: рабочее окно дня (обрезанное часами работы центра) минус занятые интервалы,
// затем отбрасываются интервалы короче длительности услуги.
// Без закреплённого терапевта результаты объединяются: важно лишь, что кто-то свободен.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: service=%s, date=%s, therapist=%v, duration=%v",
		req.ServiceID, req.Date, ptrString(req.TherapistID), ptr.Value(req.DurationMinutes, 0))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	// 2. Границы локального дня в UTC
	dayStart, dayEnd, err := uc.calendar.DayRangeUTC(req.Date)
	if err != nil {
		uc.logger.Warn("GetAvailability: invalid date %q: %v", req.Date, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	day := domain.DayOfWeekFromWeekday(uc.calendar.Weekday(dayStart))

	// 3. Получаем услугу
	service, err := uc.serviceRepo.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailability: service id=%s not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailability: failed to get service id=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	duration := ptr.Value(req.DurationMinutes, service.DurationMinutes)

	// 4. Загружаем кандидатов (закреплённого терапевта или всех, кто оказывает услугу)
	candidates, err := uc.candidateRepo.ListCandidates(ctx, domain.CandidateQuery{
		ServiceID:   req.ServiceID,
		TherapistID: req.TherapistID,
		DayOfWeek:   day,
		DayStart:    dayStart,
		DayEnd:      dayEnd,
	})
	if err != nil {
		uc.logger.Error("GetAvailability: failed to load candidates: %v", err)
		return nil, fmt.Errorf("%w: failed to load candidates: %v", ErrInternal, err)
	}

	// 5. Свободные интервалы по каждому терапевту
	all := make([]interval.Interval, 0)
	for _, c := range candidates {
		free, err := uc.freeIntervals(c, day, dayStart, duration)
		if err != nil {
			return nil, err
		}
		all = append(all, free...)
	}

	// 6. Объединяем, если терапевт не закреплён
	if req.TherapistID == nil {
		all = interval.Merge(all)
	}

	uc.logger.Info("GetAvailability: service=%s date=%s candidates=%d intervals=%d",
		req.ServiceID, req.Date, len(candidates), len(all))

	return &Response{
		Date:                   req.Date,
		Timezone:               uc.calendar.Timezone(),
		ServiceID:              service.ID,
		ServiceDurationMinutes: duration,
		FreeIntervals:          toFreeIntervals(all),
	}, nil
}

// freeIntervals считает свободные интервалы одного терапевта
func (uc *UseCase) freeIntervals(
	c *domain.TherapistCandidate,
	day domain.DayOfWeek,
	dayStart time.Time,
	duration int,
) ([]interval.Interval, error) {
	entry, ok := c.Schedule.For(day)
	if !ok {
		return nil, nil
	}

	iv, err := entry.Interval()
	if err != nil {
		uc.logger.Error("GetAvailability: invalid schedule for therapist=%s: %v", c.Therapist.ID, err)
		return nil, fmt.Errorf("%w: invalid schedule: %v", ErrInternal, err)
	}

	working, ok := uc.calendar.ClampToBusinessHours(iv)
	if !ok {
		return nil, nil
	}

	busy := make([]interval.Interval, 0, len(c.Busy))
	for _, b := range c.Busy {
		if local, ok := uc.calendar.LocalInterval(b.StartAt, b.EndAt, dayStart); ok {
			busy = append(busy, local)
		}
	}

	free := interval.Subtract([]interval.Interval{working}, busy)
	return interval.FilterByDuration(free, duration), nil
}

func toFreeIntervals(intervals []interval.Interval) []FreeInterval {
	result := make([]FreeInterval, len(intervals))
	for i, iv := range intervals {
		result[i] = FreeInterval{
			Start: interval.FormatHHmm(iv.StartMin),
			End:   interval.FormatHHmm(iv.EndMin),
		}
	}
	return result
}

func ptrString(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
