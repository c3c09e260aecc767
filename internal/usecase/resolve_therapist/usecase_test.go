package resolve_therapist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/logger"
	"github.com/m04kA/kumelen-agenda/pkg/types"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

type fakeCandidates struct {
	candidates []*domain.TherapistCandidate
	err        error
	lastQuery  domain.CandidateQuery
}

func (f *fakeCandidates) ListCandidates(_ context.Context, q domain.CandidateQuery) ([]*domain.TherapistCandidate, error) {
	f.lastQuery = q
	return f.candidates, f.err
}

type fakeMetrics struct {
	decisions  map[string]int
	rejections map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{decisions: map[string]int{}, rejections: map[string]int{}}
}

func (m *fakeMetrics) ObserveResolverDecision(outcome string) { m.decisions[outcome]++ }

func (m *fakeMetrics) AddResolverRejections(reason string, n int) { m.rejections[reason] += n }

var santiago = mustLocation("America/Santiago")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// monday возвращает момент 2025-01-13 hh:mm по Сантьяго (UTC-3 летом)
func monday(hh, mm int) time.Time {
	return time.Date(2025, 1, 13, hh, mm, 0, 0, santiago).UTC()
}

func candidate(t *testing.T, start, end types.TimeString, busy ...domain.TimeRange) *domain.TherapistCandidate {
	t.Helper()
	id := uuid.New()
	var entries []domain.ScheduleEntry
	if start != "" {
		entries = append(entries, domain.ScheduleEntry{
			TherapistID: id,
			DayOfWeek:   domain.Monday,
			StartTime:   start,
			EndTime:     end,
			IsActive:    true,
		})
	}
	schedule, err := domain.NewWeeklySchedule(entries)
	require.NoError(t, err)
	return &domain.TherapistCandidate{
		Therapist: domain.Therapist{ID: id, Name: "t-" + id.String()[:4], IsActive: true},
		Schedule:  schedule,
		Busy:      busy,
	}
}

func newCalendar(t *testing.T, dayStart, dayEnd int) worktime.Calendar {
	t.Helper()
	cal, err := worktime.New("America/Santiago", dayStart, dayEnd)
	require.NoError(t, err)
	return cal
}

func TestExecute_FirstAvailableSkipsRejectedCandidates(t *testing.T) {
	noSchedule := candidate(t, "", "")
	busy := candidate(t, "09:00", "17:00", domain.TimeRange{StartAt: monday(10, 0), EndAt: monday(10, 30)})
	free := candidate(t, "09:00", "17:00")
	alsoFree := candidate(t, "09:00", "17:00")

	repo := &fakeCandidates{candidates: []*domain.TherapistCandidate{noSchedule, busy, free, alsoFree}}
	m := newFakeMetrics()
	uc := NewUseCase(repo, newCalendar(t, 480, 1200), "", m, logger.NewNop())

	resp, err := uc.Execute(context.Background(), &Request{
		ServiceID: uuid.New(),
		StartAt:   monday(10, 15),
		EndAt:     monday(10, 45),
	})

	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, free.Therapist.ID, resp.TherapistID)
	assert.Equal(t, RejectionStats{NoSchedule: 1, Conflict: 1}, resp.Rejections)

	assert.Equal(t, domain.Monday, repo.lastQuery.DayOfWeek)
	assert.Equal(t, time.Date(2025, 1, 13, 3, 0, 0, 0, time.UTC), repo.lastQuery.DayStart)
	assert.Equal(t, time.Date(2025, 1, 14, 3, 0, 0, 0, time.UTC), repo.lastQuery.DayEnd)

	assert.Equal(t, 1, m.decisions[OutcomeAssigned])
	assert.Equal(t, 1, m.rejections[ReasonConflict])
	assert.Equal(t, 1, m.rejections[ReasonNoSchedule])
}

func TestExecute_AdjacentAppointmentIsNotConflict(t *testing.T) {
	c := candidate(t, "09:00", "17:00", domain.TimeRange{StartAt: monday(10, 0), EndAt: monday(10, 30)})
	uc := NewUseCase(&fakeCandidates{candidates: []*domain.TherapistCandidate{c}},
		newCalendar(t, 480, 1200), domain.PolicyFirstAvailable, newFakeMetrics(), logger.NewNop())

	resp, err := uc.Execute(context.Background(), &Request{StartAt: monday(10, 30), EndAt: monday(11, 0)})

	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, c.Therapist.ID, resp.TherapistID)
}

func TestExecute_OutOfHours(t *testing.T) {
	tests := []struct {
		name  string
		start types.TimeString
		end   types.TimeString
		from  time.Time
		to    time.Time
	}{
		{
			name:  "before clamped business start",
			start: "07:00", end: "18:00",
			from: monday(7, 30), to: monday(8, 30),
		},
		{
			name:  "after personal schedule end",
			start: "09:00", end: "17:00",
			from: monday(16, 45), to: monday(17, 15),
		},
		{
			name:  "schedule entirely outside business hours",
			start: "20:00", end: "22:00",
			from: monday(20, 0), to: monday(20, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate(t, tt.start, tt.end)
			m := newFakeMetrics()
			uc := NewUseCase(&fakeCandidates{candidates: []*domain.TherapistCandidate{c}},
				newCalendar(t, 480, 1200), domain.PolicyFirstAvailable, m, logger.NewNop())

			resp, err := uc.Execute(context.Background(), &Request{StartAt: tt.from, EndAt: tt.to})

			require.NoError(t, err)
			assert.False(t, resp.Found)
			assert.Equal(t, 1, resp.Rejections.OutOfHours)
			assert.Equal(t, 1, m.decisions[OutcomeUnavailable])
		})
	}
}

func TestExecute_WindowCrossingMidnightIsOutOfHours(t *testing.T) {
	c := candidate(t, "00:00", "24:00")
	uc := NewUseCase(&fakeCandidates{candidates: []*domain.TherapistCandidate{c}},
		newCalendar(t, 0, 1440), domain.PolicyFirstAvailable, newFakeMetrics(), logger.NewNop())

	resp, err := uc.Execute(context.Background(), &Request{StartAt: monday(23, 30), EndAt: monday(23, 30).Add(time.Hour)})

	require.NoError(t, err)
	assert.False(t, resp.Found)
	assert.Equal(t, 1, resp.Rejections.OutOfHours)
}

func TestExecute_LeastLoaded(t *testing.T) {
	loaded := candidate(t, "09:00", "17:00",
		domain.TimeRange{StartAt: monday(9, 0), EndAt: monday(10, 0)},
		domain.TimeRange{StartAt: monday(14, 0), EndAt: monday(15, 0)},
	)
	light := candidate(t, "09:00", "17:00", domain.TimeRange{StartAt: monday(15, 0), EndAt: monday(15, 30)})
	alsoLight := candidate(t, "09:00", "17:00", domain.TimeRange{StartAt: monday(16, 0), EndAt: monday(16, 30)})

	uc := NewUseCase(&fakeCandidates{candidates: []*domain.TherapistCandidate{loaded, light, alsoLight}},
		newCalendar(t, 480, 1200), domain.PolicyLeastLoaded, newFakeMetrics(), logger.NewNop())

	resp, err := uc.Execute(context.Background(), &Request{StartAt: monday(11, 0), EndAt: monday(12, 0)})

	require.NoError(t, err)
	assert.True(t, resp.Found)
	// при равной загрузке выигрывает кандидат, идущий раньше
	assert.Equal(t, light.Therapist.ID, resp.TherapistID)
}

func TestExecute_IsDeterministic(t *testing.T) {
	candidates := []*domain.TherapistCandidate{
		candidate(t, "09:00", "17:00"),
		candidate(t, "09:00", "17:00"),
	}
	uc := NewUseCase(&fakeCandidates{candidates: candidates},
		newCalendar(t, 480, 1200), domain.PolicyFirstAvailable, newFakeMetrics(), logger.NewNop())

	req := &Request{StartAt: monday(12, 0), EndAt: monday(13, 0)}
	first, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first.TherapistID, again.TherapistID)
	}
}

func TestExecute_Errors(t *testing.T) {
	cal := newCalendar(t, 480, 1200)

	uc := NewUseCase(&fakeCandidates{}, cal, "", newFakeMetrics(), logger.NewNop())
	_, err := uc.Execute(context.Background(), &Request{StartAt: monday(10, 0), EndAt: monday(10, 0)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	uc = NewUseCase(&fakeCandidates{err: errors.New("db down")}, cal, "", newFakeMetrics(), logger.NewNop())
	_, err = uc.Execute(context.Background(), &Request{StartAt: monday(10, 0), EndAt: monday(11, 0)})
	assert.ErrorIs(t, err, ErrInternal)
}
