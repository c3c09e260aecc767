package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/dbmetrics"
	"github.com/m04kA/kumelen-agenda/pkg/psqlbuilder"
)

const (
	tableCustomers     = "customers"
	pqUniqueViolation  = "23505"
	fieldEmail         = "email"
	fieldPhone         = "phone"
	fieldRut           = "rut"
	customerReturnings = "RETURNING id, name, last_name, email, phone, rut, is_active, created_at, updated_at"
)

var customerColumns = []string{
	"id",
	"name",
	"last_name",
	"email",
	"phone",
	"rut",
	"is_active",
	"created_at",
	"updated_at",
}

var (
	// ErrCustomerNotFound возвращается, когда клиент не найден
	ErrCustomerNotFound = errors.New("customer.repository: customer not found")

	// ErrDuplicateCustomer возвращается, когда уникальный индекс по email/phone/rut отклонил вставку
	ErrDuplicateCustomer = errors.New("customer.repository: duplicate customer")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("customer.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("customer.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("customer.repository: failed to scan row")
)

// Repository репозиторий клиентов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория клиентов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает клиента по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return r.findOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// FindByEmail ищет клиента по точному совпадению email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, "FindByEmail", squirrel.Eq{fieldEmail: email})
}

// FindByPhone ищет клиента по точному совпадению телефона
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.findOne(ctx, "FindByPhone", squirrel.Eq{fieldPhone: phone})
}

// FindByRut ищет клиента по точному совпадению RUT
func (r *Repository) FindByRut(ctx context.Context, rut string) (*domain.Customer, error) {
	return r.findOne(ctx, "FindByRut", squirrel.Eq{fieldRut: rut})
}

// Create создает нового клиента
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableCustomers).
		Columns("name", "last_name", "email", "phone", "rut", "is_active").
		Values(c.Name, c.LastName, c.Email, c.Phone, c.Rut, true).
		Suffix(customerReturnings).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created, err := scanCustomer(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCustomer, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return created, nil
}

// Reactivate снова делает клиента активным
func (r *Repository) Reactivate(ctx context.Context, id uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableCustomers).
		Set("is_active", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Reactivate - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Reactivate - execute update: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Reactivate - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

func (r *Repository) findOne(ctx context.Context, op string, where squirrel.Eq) (*domain.Customer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(customerColumns...).
		From(tableCustomers).
		Where(where).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	c, err := scanCustomer(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan customer: %v", ErrScanRow, op, err)
	}

	return c, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Rut,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
