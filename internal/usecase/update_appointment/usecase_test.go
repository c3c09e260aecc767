package update_appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	appointmentRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/catalog"
	therapistRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/therapist"
	"github.com/m04kA/kumelen-agenda/pkg/logger"
	"github.com/m04kA/kumelen-agenda/pkg/ptr"
	"github.com/m04kA/kumelen-agenda/pkg/txmanager"
)

type conflictCall struct {
	therapistID uuid.UUID
	startAt     time.Time
	endAt       time.Time
	excludeID   *uuid.UUID
}

type fakeAppointments struct {
	stored    map[uuid.UUID]*domain.Appointment
	conflict  bool
	updateErr error
	checks    []conflictCall
	updates   []domain.AppointmentUpdate
}

func (f *fakeAppointments) GetByID(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	if a, ok := f.stored[id]; ok {
		out := *a
		return &out, nil
	}
	return nil, appointmentRepo.ErrAppointmentNotFound
}

func (f *fakeAppointments) Update(_ context.Context, id uuid.UUID, upd domain.AppointmentUpdate) (*domain.Appointment, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, upd)
	a := f.stored[id]
	out := *a
	out.ServiceID = upd.ServiceID
	out.TherapistID = upd.TherapistID
	out.StartAt = upd.StartAt
	out.EndAt = upd.EndAt
	out.Status = upd.Status
	out.Notes = upd.Notes
	out.ClientNotes = upd.ClientNotes
	return &out, nil
}

func (f *fakeAppointments) HasConflict(_ context.Context, therapistID uuid.UUID, startAt, endAt time.Time, excludeID *uuid.UUID) (bool, error) {
	f.checks = append(f.checks, conflictCall{therapistID, startAt, endAt, excludeID})
	return f.conflict, nil
}

type fakeServices map[uuid.UUID]*domain.Service

func (f fakeServices) GetServiceByID(_ context.Context, id uuid.UUID) (*domain.Service, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, catalogRepo.ErrServiceNotFound
}

type fakeTherapists map[uuid.UUID]*domain.Therapist

func (f fakeTherapists) GetByID(_ context.Context, id uuid.UUID) (*domain.Therapist, error) {
	if t, ok := f[id]; ok {
		return t, nil
	}
	return nil, therapistRepo.ErrTherapistNotFound
}

type fakeAudit struct {
	entries []*domain.AuditLog
}

func (f *fakeAudit) Create(_ context.Context, entry *domain.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeTx struct {
	err error
}

func (f *fakeTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fixture struct {
	uc           *UseCase
	appointments *fakeAppointments
	audit        *fakeAudit
	tx           *fakeTx
	existing     *domain.Appointment
	massage      *domain.Service
	facial       *domain.Service
	ana          *domain.Therapist
	bea          *domain.Therapist
}

func newFixture() *fixture {
	massage := &domain.Service{ID: uuid.New(), Name: "Masaje", DurationMinutes: 60}
	facial := &domain.Service{ID: uuid.New(), Name: "Limpieza facial", DurationMinutes: 90}
	ana := &domain.Therapist{ID: uuid.New(), Name: "Ana", IsActive: true}
	bea := &domain.Therapist{ID: uuid.New(), Name: "Bea", IsActive: true}

	start := time.Date(2025, 1, 13, 13, 0, 0, 0, time.UTC)
	existing := &domain.Appointment{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		TherapistID: &ana.ID,
		ServiceID:   massage.ID,
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
		Status:      domain.StatusPending,
	}

	f := &fixture{
		appointments: &fakeAppointments{stored: map[uuid.UUID]*domain.Appointment{existing.ID: existing}},
		audit:        &fakeAudit{},
		tx:           &fakeTx{},
		existing:     existing,
		massage:      massage,
		facial:       facial,
		ana:          ana,
		bea:          bea,
	}
	f.uc = NewUseCase(
		f.appointments,
		fakeServices{massage.ID: massage, facial.ID: facial},
		fakeTherapists{ana.ID: ana, bea.ID: bea},
		f.audit,
		f.tx,
		logger.NewNop(),
	)
	return f
}

func TestExecute_NotesOnlySkipsConflictCheck(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), "staff-1", f.existing.ID, &Request{Notes: ptr.Ptr("Alergia a almendras")})

	require.NoError(t, err)
	assert.Equal(t, "Alergia a almendras", *resp.Notes)
	assert.Equal(t, f.existing.EndAt, resp.EndAt)
	assert.Empty(t, f.appointments.checks)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, domain.AuditActionUpdate, f.audit.entries[0].Action)
}

func TestExecute_ServiceChangeRecomputesEnd(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), "staff-1", f.existing.ID, &Request{ServiceID: &f.facial.ID})

	require.NoError(t, err)
	assert.Equal(t, f.existing.StartAt, resp.StartAt)
	assert.Equal(t, f.existing.StartAt.Add(90*time.Minute), resp.EndAt)
	require.Len(t, f.appointments.checks, 1)
	assert.Equal(t, f.existing.ID, *f.appointments.checks[0].excludeID)
	assert.Equal(t, f.ana.ID, f.appointments.checks[0].therapistID)
}

func TestExecute_StartChangeKeepsServiceDuration(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), "staff-1", f.existing.ID, &Request{StartAt: ptr.Ptr("2025-01-13T15:30:00-03:00")})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 13, 18, 30, 0, 0, time.UTC), resp.StartAt)
	assert.Equal(t, time.Date(2025, 1, 13, 19, 30, 0, 0, time.UTC), resp.EndAt)
	assert.Len(t, f.appointments.checks, 1)
}

func TestExecute_SameStartRecomputesEndFromCurrentDuration(t *testing.T) {
	f := newFixture()
	f.massage.DurationMinutes = 75

	resp, err := f.uc.Execute(context.Background(), "staff-1", f.existing.ID, &Request{
		StartAt: ptr.Ptr(f.existing.StartAt.Format(time.RFC3339)),
	})

	require.NoError(t, err)
	assert.Equal(t, f.existing.StartAt, resp.StartAt)
	assert.Equal(t, f.existing.StartAt.Add(75*time.Minute), resp.EndAt)
	require.Len(t, f.appointments.checks, 1)
	assert.Equal(t, f.existing.StartAt.Add(75*time.Minute), f.appointments.checks[0].endAt)
}

func TestExecute_TherapistChangeChecksNewTherapist(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), "staff-1", f.existing.ID, &Request{TherapistID: &f.bea.ID})

	require.NoError(t, err)
	assert.Equal(t, f.bea.ID, *resp.TherapistID)
	require.Len(t, f.appointments.checks, 1)
	assert.Equal(t, f.bea.ID, f.appointments.checks[0].therapistID)
}

func TestExecute_CancelledAppointmentSkipsConflictCheck(t *testing.T) {
	f := newFixture()
	cancelled := domain.StatusCancelled

	_, err := f.uc.Execute(context.Background(), "staff-1", f.existing.ID, &Request{
		StartAt: ptr.Ptr("2025-01-13T15:30:00-03:00"),
		Status:  &cancelled,
	})

	require.NoError(t, err)
	assert.Empty(t, f.appointments.checks)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture) (uuid.UUID, *Request)
		wantErr error
	}{
		{
			name: "empty request",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				return f.existing.ID, &Request{}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "start without offset",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				return f.existing.ID, &Request{StartAt: ptr.Ptr("2025-01-13 10:00")}
			},
			wantErr: ErrInvalidStartAt,
		},
		{
			name: "unknown appointment",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				return uuid.New(), &Request{Notes: ptr.Ptr("x")}
			},
			wantErr: ErrAppointmentNotFound,
		},
		{
			name: "unknown service",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				id := uuid.New()
				return f.existing.ID, &Request{ServiceID: &id}
			},
			wantErr: ErrServiceNotFound,
		},
		{
			name: "inactive therapist",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				f.bea.IsActive = false
				return f.existing.ID, &Request{TherapistID: &f.bea.ID}
			},
			wantErr: ErrTherapistNotFound,
		},
		{
			name: "conflict",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				f.appointments.conflict = true
				return f.existing.ID, &Request{ServiceID: &f.facial.ID}
			},
			wantErr: ErrSlotNotAvailable,
		},
		{
			name: "exclusion constraint",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				f.appointments.updateErr = appointmentRepo.ErrOverlap
				return f.existing.ID, &Request{ServiceID: &f.facial.ID}
			},
			wantErr: ErrSlotNotAvailable,
		},
		{
			name: "serialization failure",
			prepare: func(f *fixture) (uuid.UUID, *Request) {
				f.tx.err = txmanager.ErrSerialization
				return f.existing.ID, &Request{Notes: ptr.Ptr("x")}
			},
			wantErr: ErrSlotNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id, req := tt.prepare(f)

			resp, err := f.uc.Execute(context.Background(), "staff-1", id, req)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
			assert.Empty(t, f.audit.entries)
		})
	}
}
