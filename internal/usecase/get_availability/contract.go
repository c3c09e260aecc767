package get_availability

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

// ServiceRepository интерфейс каталога услуг
type ServiceRepository interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)
}

// CandidateRepository интерфейс загрузки терапевтов-кандидатов на день
type CandidateRepository interface {
	ListCandidates(ctx context.Context, q domain.CandidateQuery) ([]*domain.TherapistCandidate, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
