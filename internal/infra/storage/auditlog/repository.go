package auditlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/dbmetrics"
	"github.com/m04kA/kumelen-agenda/pkg/psqlbuilder"
)

var (
	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("auditlog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("auditlog.repository: failed to execute query")
)

// Repository журнал действий пользователей (app_logs)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create записывает действие в журнал
// Вызывается внутри той же транзакции, что и само изменение
func (r *Repository) Create(ctx context.Context, entry *domain.AuditLog) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("app_logs").
		Columns("actor_id", "entity", "entity_id", "action").
		Values(entry.ActorID, string(entry.Entity), entry.EntityID, string(entry.Action)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}
