package get_availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	catalogRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/catalog"
	"github.com/m04kA/kumelen-agenda/pkg/logger"
	"github.com/m04kA/kumelen-agenda/pkg/ptr"
	"github.com/m04kA/kumelen-agenda/pkg/types"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

type fakeServices struct {
	service *domain.Service
	err     error
}

func (f *fakeServices) GetServiceByID(_ context.Context, _ uuid.UUID) (*domain.Service, error) {
	return f.service, f.err
}

type fakeCandidates struct {
	candidates []*domain.TherapistCandidate
	err        error
	lastQuery  domain.CandidateQuery
}

func (f *fakeCandidates) ListCandidates(_ context.Context, q domain.CandidateQuery) ([]*domain.TherapistCandidate, error) {
	f.lastQuery = q
	return f.candidates, f.err
}

var santiago, _ = time.LoadLocation("America/Santiago")

// at возвращает момент 2025-01-13 (понедельник) hh:mm по Сантьяго
func at(hh, mm int) time.Time {
	return time.Date(2025, 1, 13, hh, mm, 0, 0, santiago).UTC()
}

func therapist(t *testing.T, start, end types.TimeString, busy ...domain.TimeRange) *domain.TherapistCandidate {
	t.Helper()
	id := uuid.New()
	schedule, err := domain.NewWeeklySchedule([]domain.ScheduleEntry{{
		TherapistID: id,
		DayOfWeek:   domain.Monday,
		StartTime:   start,
		EndTime:     end,
		IsActive:    true,
	}})
	require.NoError(t, err)
	return &domain.TherapistCandidate{
		Therapist: domain.Therapist{ID: id, IsActive: true},
		Schedule:  schedule,
		Busy:      busy,
	}
}

func newUseCase(t *testing.T, service *domain.Service, candidates *fakeCandidates) *UseCase {
	t.Helper()
	cal, err := worktime.New("America/Santiago", 8*60, 20*60)
	require.NoError(t, err)
	return NewUseCase(&fakeServices{service: service}, candidates, cal, logger.NewNop())
}

func massage(minutes int) *domain.Service {
	return &domain.Service{ID: uuid.New(), Name: "Masaje", DurationMinutes: minutes, IsActive: true}
}

func TestExecute_SingleTherapistWithAppointment(t *testing.T) {
	svc := massage(30)
	repo := &fakeCandidates{candidates: []*domain.TherapistCandidate{
		therapist(t, "09:00", "17:00", domain.TimeRange{StartAt: at(10, 0), EndAt: at(10, 30)}),
	}}
	uc := newUseCase(t, svc, repo)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: "2025-01-13"})

	require.NoError(t, err)
	assert.Equal(t, "America/Santiago", resp.Timezone)
	assert.Equal(t, 30, resp.ServiceDurationMinutes)
	assert.Equal(t, []FreeInterval{
		{Start: "09:00", End: "10:00"},
		{Start: "10:30", End: "17:00"},
	}, resp.FreeIntervals)

	assert.Equal(t, domain.Monday, repo.lastQuery.DayOfWeek)
	assert.Nil(t, repo.lastQuery.TherapistID)
	assert.Equal(t, time.Date(2025, 1, 13, 3, 0, 0, 0, time.UTC), repo.lastQuery.DayStart)
}

func TestExecute_MergesAcrossTherapists(t *testing.T) {
	svc := massage(60)
	repo := &fakeCandidates{candidates: []*domain.TherapistCandidate{
		therapist(t, "07:00", "12:00"),
		therapist(t, "11:00", "14:00", domain.TimeRange{StartAt: at(12, 0), EndAt: at(12, 40)}),
		therapist(t, "16:00", "22:00"),
	}}
	uc := newUseCase(t, svc, repo)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: "2025-01-13"})

	require.NoError(t, err)
	// первый обрезан часами работы центра, 12:00-12:40 не закрыт никем
	assert.Equal(t, []FreeInterval{
		{Start: "08:00", End: "12:00"},
		{Start: "12:40", End: "14:00"},
		{Start: "16:00", End: "20:00"},
	}, resp.FreeIntervals)
}

func TestExecute_DurationFilterNeverSplits(t *testing.T) {
	svc := massage(60)
	repo := &fakeCandidates{candidates: []*domain.TherapistCandidate{
		therapist(t, "09:00", "12:00",
			domain.TimeRange{StartAt: at(9, 40), EndAt: at(10, 0)},
			domain.TimeRange{StartAt: at(10, 50), EndAt: at(11, 0)},
		),
	}}
	uc := newUseCase(t, svc, repo)

	override := 45
	resp, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: "2025-01-13", DurationMinutes: &override})

	require.NoError(t, err)
	assert.Equal(t, 45, resp.ServiceDurationMinutes)
	assert.Equal(t, []FreeInterval{
		{Start: "10:00", End: "10:50"},
		{Start: "11:00", End: "12:00"},
	}, resp.FreeIntervals)
}

func TestExecute_PinnedTherapistIsNotMerged(t *testing.T) {
	svc := massage(30)
	pinned := therapist(t, "09:00", "13:00", domain.TimeRange{StartAt: at(11, 0), EndAt: at(11, 30)})
	repo := &fakeCandidates{candidates: []*domain.TherapistCandidate{pinned}}
	uc := newUseCase(t, svc, repo)

	resp, err := uc.Execute(context.Background(), &Request{
		ServiceID:   svc.ID,
		Date:        "2025-01-13",
		TherapistID: ptr.Ptr(pinned.Therapist.ID),
	})

	require.NoError(t, err)
	require.NotNil(t, repo.lastQuery.TherapistID)
	assert.Equal(t, pinned.Therapist.ID, *repo.lastQuery.TherapistID)
	assert.Equal(t, []FreeInterval{
		{Start: "09:00", End: "11:00"},
		{Start: "11:30", End: "13:00"},
	}, resp.FreeIntervals)
}

func TestExecute_AppointmentFromPreviousDayIsClipped(t *testing.T) {
	svc := massage(30)
	overnightStart := time.Date(2025, 1, 12, 23, 0, 0, 0, santiago).UTC()
	repo := &fakeCandidates{candidates: []*domain.TherapistCandidate{
		therapist(t, "00:00", "24:00", domain.TimeRange{StartAt: overnightStart, EndAt: at(9, 0)}),
	}}
	uc := newUseCase(t, svc, repo)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: "2025-01-13"})

	require.NoError(t, err)
	assert.Equal(t, []FreeInterval{{Start: "09:00", End: "20:00"}}, resp.FreeIntervals)
}

func TestExecute_NoCandidates(t *testing.T) {
	svc := massage(30)
	uc := newUseCase(t, svc, &fakeCandidates{})

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: svc.ID, Date: "2025-01-13"})

	require.NoError(t, err)
	assert.Empty(t, resp.FreeIntervals)
	assert.NotNil(t, resp.FreeIntervals)
}

func TestExecute_Errors(t *testing.T) {
	cal, err := worktime.New("America/Santiago", 8*60, 20*60)
	require.NoError(t, err)
	svc := massage(30)

	tests := []struct {
		name     string
		services *fakeServices
		repo     *fakeCandidates
		req      *Request
		wantErr  error
	}{
		{
			name:     "service not found",
			services: &fakeServices{err: fmt.Errorf("wrapped: %w", catalogRepo.ErrServiceNotFound)},
			repo:     &fakeCandidates{},
			req:      &Request{ServiceID: svc.ID, Date: "2025-01-13"},
			wantErr:  ErrServiceNotFound,
		},
		{
			name:     "malformed date",
			services: &fakeServices{service: svc},
			repo:     &fakeCandidates{},
			req:      &Request{ServiceID: svc.ID, Date: "13/01/2025"},
			wantErr:  ErrInvalidDate,
		},
		{
			name:     "malformed date with unknown service",
			services: &fakeServices{err: catalogRepo.ErrServiceNotFound},
			repo:     &fakeCandidates{},
			req:      &Request{ServiceID: uuid.New(), Date: "not-a-date"},
			wantErr:  ErrInvalidDate,
		},
		{
			name:     "non-positive duration override",
			services: &fakeServices{service: svc},
			repo:     &fakeCandidates{},
			req:      &Request{ServiceID: svc.ID, Date: "2025-01-13", DurationMinutes: ptr.Ptr(0)},
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "repository failure",
			services: &fakeServices{service: svc},
			repo:     &fakeCandidates{err: fmt.Errorf("db down")},
			req:      &Request{ServiceID: svc.ID, Date: "2025-01-13"},
			wantErr:  ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewUseCase(tt.services, tt.repo, cal, logger.NewNop())
			_, err := uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
