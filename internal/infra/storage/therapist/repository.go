package therapist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/dbmetrics"
	"github.com/m04kA/kumelen-agenda/pkg/psqlbuilder"
)

// Переиспользуем интерфейс из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

const (
	tableTherapists        = "therapists"
	tableTherapistServices = "therapist_services"
	tableSchedules         = "therapist_schedules"
	tableAppointments      = "appointments"
)

// Repository репозиторий терапевтов и их расписаний
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория терапевтов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает терапевта по ID (в том числе неактивного)
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Therapist, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "is_active", "created_at").
		From(tableTherapists).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var t domain.Therapist
	err = executor.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTherapistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan therapist: %v", ErrScanRow, err)
	}

	return &t, nil
}

// ListCandidates загружает терапевтов-кандидатов на один локальный день:
// активных и оказывающих услугу (или одного закреплённого по id и is_active),
// с расписанием на день недели и блокирующими записями, пересекающими [DayStart, DayEnd).
// Порядок стабильный: created_at, id.
func (r *Repository) ListCandidates(ctx context.Context, q domain.CandidateQuery) ([]*domain.TherapistCandidate, error) {
	therapists, err := r.listTherapists(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(therapists) == 0 {
		return []*domain.TherapistCandidate{}, nil
	}

	ids := make([]uuid.UUID, len(therapists))
	for i, t := range therapists {
		ids[i] = t.ID
	}

	entries, err := r.listScheduleEntries(ctx, ids, q.DayOfWeek)
	if err != nil {
		return nil, err
	}

	busy, err := r.listBusy(ctx, ids, q)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.TherapistCandidate, 0, len(therapists))
	for _, t := range therapists {
		schedule, err := domain.NewWeeklySchedule(entries[t.ID])
		if err != nil {
			return nil, fmt.Errorf("%w: therapist %s: %v", ErrInvalidSchedule, t.ID, err)
		}
		candidates = append(candidates, &domain.TherapistCandidate{
			Therapist: t,
			Schedule:  schedule,
			Busy:      busy[t.ID],
		})
	}

	return candidates, nil
}

func (r *Repository) listTherapists(ctx context.Context, q domain.CandidateQuery) ([]domain.Therapist, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "name", "is_active", "created_at").
		From(tableTherapists).
		Where(squirrel.Eq{"is_active": true})

	// Закреплённый терапевт выбирается только по id и активности, без проверки услуги
	if q.TherapistID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"id": *q.TherapistID})
	} else {
		selectBuilder = selectBuilder.Where(
			"EXISTS (SELECT 1 FROM "+tableTherapistServices+" ts WHERE ts.therapist_id = "+tableTherapists+".id AND ts.service_id = ?)",
			q.ServiceID,
		)
	}

	query, args, err := selectBuilder.OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listTherapists - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listTherapists - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]domain.Therapist, 0)
	for rows.Next() {
		var t domain.Therapist
		if err := rows.Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: listTherapists - scan therapist: %v", ErrScanRow, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listTherapists - rows iteration: %v", ErrScanRow, err)
	}

	return result, nil
}

func (r *Repository) listScheduleEntries(ctx context.Context, ids []uuid.UUID, day domain.DayOfWeek) (map[uuid.UUID][]domain.ScheduleEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("therapist_id", "day_of_week", "start_time", "end_time", "is_active").
		From(tableSchedules).
		Where(squirrel.Eq{"therapist_id": ids}).
		Where(squirrel.Eq{"day_of_week": string(day)}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listScheduleEntries - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listScheduleEntries - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]domain.ScheduleEntry, len(ids))
	for rows.Next() {
		var e domain.ScheduleEntry
		if err := rows.Scan(&e.TherapistID, &e.DayOfWeek, &e.StartTime, &e.EndTime, &e.IsActive); err != nil {
			return nil, fmt.Errorf("%w: listScheduleEntries - scan entry: %v", ErrScanRow, err)
		}
		result[e.TherapistID] = append(result[e.TherapistID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listScheduleEntries - rows iteration: %v", ErrScanRow, err)
	}

	return result, nil
}

func (r *Repository) listBusy(ctx context.Context, ids []uuid.UUID, q domain.CandidateQuery) (map[uuid.UUID][]domain.TimeRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("therapist_id", "start_at", "end_at").
		From(tableAppointments).
		Where(squirrel.Eq{"therapist_id": ids}).
		Where(squirrel.NotEq{"status": domain.NonBlockingStatusStrings()}).
		Where(squirrel.Lt{"start_at": q.DayEnd}).
		Where(squirrel.Gt{"end_at": q.DayStart}).
		OrderBy("start_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: listBusy - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listBusy - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]domain.TimeRange, len(ids))
	for rows.Next() {
		var (
			therapistID uuid.UUID
			tr          domain.TimeRange
		)
		if err := rows.Scan(&therapistID, &tr.StartAt, &tr.EndAt); err != nil {
			return nil, fmt.Errorf("%w: listBusy - scan appointment: %v", ErrScanRow, err)
		}
		tr.StartAt = tr.StartAt.UTC()
		tr.EndAt = tr.EndAt.UTC()
		result[therapistID] = append(result[therapistID], tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listBusy - rows iteration: %v", ErrScanRow, err)
	}

	return result, nil
}
