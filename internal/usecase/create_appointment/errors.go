package create_appointment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_appointment: service not found")

	// ErrCustomerNotFound возвращается, когда клиент по customerId не найден
	ErrCustomerNotFound = errors.New("create_appointment: customer not found")

	// ErrTherapistNotFound возвращается, когда указанный терапевт не существует или неактивен
	ErrTherapistNotFound = errors.New("create_appointment: therapist not found")

	// ErrCustomerRequired возвращается, когда не передан ни customerId, ни customerData
	ErrCustomerRequired = errors.New("create_appointment: customerId or customerData is required")

	// ErrInvalidStartAt возвращается, когда startAt не является корректным RFC 3339 моментом
	ErrInvalidStartAt = errors.New("create_appointment: invalid startAt")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_appointment: invalid input data")

	// ErrNoTherapistAvailable возвращается, когда резолвер не нашёл свободного терапевта
	ErrNoTherapistAvailable = errors.New("create_appointment: no therapist available")

	// ErrSlotNotAvailable возвращается, когда у терапевта уже есть пересекающаяся запись
	ErrSlotNotAvailable = errors.New("create_appointment: slot is not available")

	// ErrDuplicateCustomer возвращается, когда данные нового клиента совпадают с существующим
	ErrDuplicateCustomer = errors.New("create_appointment: customer already exists")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_appointment: internal error")
)

// Поля клиента, по которым ищутся дубликаты
const (
	FieldEmail = "email"
	FieldPhone = "phone"
	FieldRut   = "rut"
)

// DuplicateField поле нового клиента, совпавшее с существующим клиентом
type DuplicateField struct {
	Field string
	Value string
}

// DuplicateCustomerError собирает все совпавшие поля в одну ошибку
type DuplicateCustomerError struct {
	Fields []DuplicateField
}

func (e *DuplicateCustomerError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s %q", f.Field, f.Value)
	}
	return fmt.Sprintf("%s: %s", ErrDuplicateCustomer.Error(), strings.Join(parts, ", "))
}

// Is позволяет проверять ошибку через errors.Is(err, ErrDuplicateCustomer)
func (e *DuplicateCustomerError) Is(target error) bool {
	return target == ErrDuplicateCustomer
}
