package create_appointment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

// validateRequest валидирует запрос из админки
func validateRequest(req *Request) error {
	if req.ServiceID == uuid.Nil {
		return fmt.Errorf("%w: serviceId is required", ErrInvalidInput)
	}

	if req.CustomerID == nil && req.CustomerData == nil {
		return ErrCustomerRequired
	}
	if req.CustomerID != nil && req.CustomerData != nil {
		return fmt.Errorf("%w: customerId and customerData are mutually exclusive", ErrInvalidInput)
	}
	if req.CustomerData != nil {
		if err := validateCustomerData(req.CustomerData); err != nil {
			return err
		}
	}

	if req.Status != nil && !req.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
	}

	return validateNotes(req.Notes, req.ClientNotes)
}

// validatePublicRequest валидирует запрос из публичного виджета
func validatePublicRequest(req *PublicRequest) error {
	if req.ServiceID == uuid.Nil {
		return fmt.Errorf("%w: serviceId is required", ErrInvalidInput)
	}

	if err := validateCustomerData(&req.CustomerData); err != nil {
		return err
	}

	return validateNotes(req.Notes, req.ClientNotes)
}

func validateCustomerData(data *CustomerData) error {
	name := strings.TrimSpace(data.Name)
	if name == "" {
		return fmt.Errorf("%w: customerData.name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return fmt.Errorf("%w: customerData.name is too long", ErrInvalidInput)
	}
	if data.Email != nil && !strings.Contains(*data.Email, "@") {
		return fmt.Errorf("%w: customerData.email is malformed", ErrInvalidInput)
	}
	return nil
}

func validateNotes(notes, clientNotes *string) error {
	if notes != nil && utf8.RuneCountInString(*notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}
	if clientNotes != nil && utf8.RuneCountInString(*clientNotes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: clientNotes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}
	return nil
}

// nonEmpty возвращает значение указателя, если оно не пустое
func nonEmpty(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}
