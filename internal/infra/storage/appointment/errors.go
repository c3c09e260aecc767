package appointment

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqExclusionViolation  = "23P01"
	pqForeignKeyViolation = "23503"
)

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrOverlap возвращается, когда БД отклонила пересекающуюся запись терапевта (exclusion constraint)
	ErrOverlap = errors.New("appointment.repository: overlapping appointment for therapist")

	// ErrReferenceNotFound возвращается, когда связанный клиент, услуга или терапевт не существует
	ErrReferenceNotFound = errors.New("appointment.repository: referenced entity not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")
)

// mapWriteError переводит ошибки ограничений Postgres в ошибки репозитория
func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqExclusionViolation:
			return fmt.Errorf("%w: %s: %v", ErrOverlap, op, err)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s: %v", ErrReferenceNotFound, op, err)
		}
	}
	// исходная ошибка сохраняется: txmanager распознаёт по ней serialization failure
	return fmt.Errorf("%w: %s: %w", ErrExecQuery, op, err)
}
