package update_appointment

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

func validateRequest(req *Request) error {
	if req.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if req.ServiceID != nil && *req.ServiceID == uuid.Nil {
		return fmt.Errorf("%w: serviceId must not be empty", ErrInvalidInput)
	}
	if req.TherapistID != nil && *req.TherapistID == uuid.Nil {
		return fmt.Errorf("%w: therapistId must not be empty", ErrInvalidInput)
	}
	if req.Status != nil && !req.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
	}
	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}
	if req.ClientNotes != nil && utf8.RuneCountInString(*req.ClientNotes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: clientNotes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}
	return nil
}
