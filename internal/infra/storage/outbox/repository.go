package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/dbmetrics"
	"github.com/m04kA/kumelen-agenda/pkg/psqlbuilder"
)

const tableOutbox = "outbox_events"

var (
	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("outbox.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("outbox.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("outbox.repository: failed to scan row")
)

// Repository очередь исходящих событий (transactional outbox)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Insert ставит событие в очередь
// Должен вызываться в транзакции изменения, которое породило событие
func (r *Repository) Insert(ctx context.Context, evt *domain.OutboxEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableOutbox).
		Columns("id", "event_type", "aggregate_id", "payload", "status", "attempts", "next_attempt_at").
		Values(evt.ID, evt.EventType, evt.AggregateID, []byte(evt.Payload), string(evt.Status), evt.Attempts, evt.NextAttemptAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// FetchPending выбирает готовые к отправке события
// Внутри транзакции строки блокируются с SKIP LOCKED, параллельные диспетчеры получают разные пачки
func (r *Repository) FetchPending(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"event_type",
		"aggregate_id",
		"payload",
		"status",
		"attempts",
		"next_attempt_at",
		"last_error",
		"created_at",
		"delivered_at",
	).
		From(tableOutbox).
		Where(squirrel.Eq{"status": string(domain.OutboxPending)}).
		Where(squirrel.LtOrEq{"next_attempt_at": now}).
		OrderBy("created_at ASC").
		Limit(uint64(limit))

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var (
			evt     domain.OutboxEvent
			payload []byte
		)
		err := rows.Scan(
			&evt.ID,
			&evt.EventType,
			&evt.AggregateID,
			&payload,
			&evt.Status,
			&evt.Attempts,
			&evt.NextAttemptAt,
			&evt.LastError,
			&evt.CreatedAt,
			&evt.DeliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: FetchPending - scan event: %v", ErrScanRow, err)
		}
		evt.Payload = payload
		events = append(events, &evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchPending - rows iteration: %v", ErrScanRow, err)
	}

	return events, nil
}

// MarkDelivered отмечает событие доставленным
func (r *Repository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, "MarkDelivered", id, map[string]interface{}{
		"status":       string(domain.OutboxDelivered),
		"delivered_at": at,
		"last_error":   nil,
	})
}

// MarkRetry откладывает событие до nextAttemptAt после неудачной попытки
func (r *Repository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastErr string) error {
	return r.update(ctx, "MarkRetry", id, map[string]interface{}{
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt,
		"last_error":      lastErr,
	})
}

// MarkFailed окончательно помечает событие неотправленным (попытки исчерпаны)
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return r.update(ctx, "MarkFailed", id, map[string]interface{}{
		"status":     string(domain.OutboxFailed),
		"attempts":   attempts,
		"last_error": lastErr,
	})
}

func (r *Repository) update(ctx context.Context, op string, id uuid.UUID, fields map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableOutbox).
		SetMap(fields).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	return nil
}
