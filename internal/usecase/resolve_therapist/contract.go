package resolve_therapist

import (
	"context"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

// CandidateRepository интерфейс загрузки терапевтов-кандидатов на день
type CandidateRepository interface {
	ListCandidates(ctx context.Context, q domain.CandidateQuery) ([]*domain.TherapistCandidate, error)
}

// Metrics интерфейс метрик решений резолвера
type Metrics interface {
	ObserveResolverDecision(outcome string)
	AddResolverRejections(reason string, n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
