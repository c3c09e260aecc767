package resolve_therapist

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

// UseCase подбирает свободного терапевта на заданное окно
type UseCase struct {
	candidateRepo CandidateRepository
	calendar      worktime.Calendar
	policy        string
	metrics       Metrics
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
// Неизвестная политика заменяется на first_available
func NewUseCase(
	candidateRepo CandidateRepository,
	calendar worktime.Calendar,
	policy string,
	metrics Metrics,
	logger Logger,
) *UseCase {
	if policy != domain.PolicyLeastLoaded {
		policy = domain.PolicyFirstAvailable
	}
	return &UseCase{
		candidateRepo: candidateRepo,
		calendar:      calendar,
		policy:        policy,
		metrics:       metrics,
		logger:        logger,
	}
}

// eligible кандидат, прошедший все фильтры
type eligible struct {
	candidate   *domain.TherapistCandidate
	busyMinutes int
}

// Execute выполняет подбор терапевта
// Кандидаты проверяются в стабильном порядке (created_at, id): расписание на день,
// попадание окна в рабочее время (с учётом часов работы центра), отсутствие пересечений
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if !req.EndAt.After(req.StartAt) {
		return nil, fmt.Errorf("%w: endAt must be after startAt", ErrInvalidInput)
	}

	day := domain.DayOfWeekFromWeekday(uc.calendar.Weekday(req.StartAt))
	dayStart, dayEnd := uc.calendar.DayBoundsOf(req.StartAt)

	candidates, err := uc.candidateRepo.ListCandidates(ctx, domain.CandidateQuery{
		ServiceID: req.ServiceID,
		DayOfWeek: day,
		DayStart:  dayStart,
		DayEnd:    dayEnd,
	})
	if err != nil {
		uc.logger.Error("ResolveTherapist: failed to load candidates for service=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to load candidates: %v", ErrInternal, err)
	}

	startMin, endMin := uc.calendar.MinutesRange(req.StartAt, req.EndAt)
	window := domain.TimeRange{StartAt: req.StartAt, EndAt: req.EndAt}

	uc.logger.Debug("ResolveTherapist: service=%s day=%s window=%d-%d candidates=%d policy=%s",
		req.ServiceID, day, startMin, endMin, len(candidates), uc.policy)

	var (
		stats  RejectionStats
		chosen *eligible
	)

	for _, c := range candidates {
		reason, err := uc.check(c, day, startMin, endMin, window)
		if err != nil {
			return nil, err
		}
		switch reason {
		case ReasonNoSchedule:
			stats.NoSchedule++
			continue
		case ReasonOutOfHours:
			stats.OutOfHours++
			continue
		case ReasonConflict:
			stats.Conflict++
			continue
		}

		if uc.policy == domain.PolicyFirstAvailable {
			chosen = &eligible{candidate: c}
			break
		}

		// least_loaded: при равной загрузке побеждает более ранний в стабильном порядке
		busy := uc.busyMinutes(c, dayStart)
		if chosen == nil || busy < chosen.busyMinutes {
			chosen = &eligible{candidate: c, busyMinutes: busy}
		}
	}

	uc.recordRejections(stats)

	if chosen == nil {
		uc.metrics.ObserveResolverDecision(OutcomeUnavailable)
		uc.logger.Warn("ResolveTherapist: no therapist available for service=%s start=%s end=%s candidates=%d no_schedule=%d out_of_hours=%d conflict=%d",
			req.ServiceID, req.StartAt.Format(time.RFC3339), req.EndAt.Format(time.RFC3339), len(candidates),
			stats.NoSchedule, stats.OutOfHours, stats.Conflict)
		return &Response{Found: false, Rejections: stats}, nil
	}

	uc.metrics.ObserveResolverDecision(OutcomeAssigned)
	uc.logger.Info("ResolveTherapist: therapist=%s selected for service=%s window=%d-%d",
		chosen.candidate.Therapist.ID, req.ServiceID, startMin, endMin)

	return &Response{
		TherapistID: chosen.candidate.Therapist.ID,
		Found:       true,
		Rejections:  stats,
	}, nil
}

// check возвращает причину отклонения кандидата или пустую строку, если кандидат подходит
func (uc *UseCase) check(
	c *domain.TherapistCandidate,
	day domain.DayOfWeek,
	startMin, endMin int,
	window domain.TimeRange,
) (string, error) {
	entry, ok := c.Schedule.For(day)
	if !ok {
		return ReasonNoSchedule, nil
	}

	iv, err := entry.Interval()
	if err != nil {
		uc.logger.Error("ResolveTherapist: invalid schedule for therapist=%s: %v", c.Therapist.ID, err)
		return "", fmt.Errorf("%w: invalid schedule: %v", ErrInternal, err)
	}

	working, ok := uc.calendar.ClampToBusinessHours(iv)
	if !ok || startMin < working.StartMin || endMin > working.EndMin {
		return ReasonOutOfHours, nil
	}

	for _, b := range c.Busy {
		if window.Overlaps(b) {
			return ReasonConflict, nil
		}
	}

	return "", nil
}

// busyMinutes суммирует занятые минуты терапевта в пределах локального дня
func (uc *UseCase) busyMinutes(c *domain.TherapistCandidate, dayStart time.Time) int {
	total := 0
	for _, b := range c.Busy {
		if iv, ok := uc.calendar.LocalInterval(b.StartAt, b.EndAt, dayStart); ok {
			total += iv.Width()
		}
	}
	return total
}

func (uc *UseCase) recordRejections(stats RejectionStats) {
	uc.metrics.AddResolverRejections(ReasonNoSchedule, stats.NoSchedule)
	uc.metrics.AddResolverRejections(ReasonOutOfHours, stats.OutOfHours)
	uc.metrics.AddResolverRejections(ReasonConflict, stats.Conflict)
}
