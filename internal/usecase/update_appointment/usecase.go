package update_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	appointmentRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/catalog"
	therapistRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/therapist"
	"github.com/m04kA/kumelen-agenda/pkg/txmanager"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

// UseCase use case частичного обновления записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	serviceRepo     ServiceRepository
	therapistRepo   TherapistRepository
	auditRepo       AuditLogRepository
	txManager       TransactionManager
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	serviceRepo ServiceRepository,
	therapistRepo TherapistRepository,
	auditRepo AuditLogRepository,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		serviceRepo:     serviceRepo,
		therapistRepo:   therapistRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

// Execute обновляет переданные поля записи
// endAt пересчитывается, если передан startAt или serviceId; пересечения проверяются,
// если запись назначена терапевту и передано время или услуга, сменился терапевт или запись снова стала активной
func (uc *UseCase) Execute(ctx context.Context, actorID string, id uuid.UUID, req *Request) (*Response, error) {
	uc.logger.Info("UpdateAppointment: actor=%s, id=%s", actorID, id)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("UpdateAppointment: validation failed: %v", err)
		return nil, err
	}

	var newStart *time.Time
	if req.StartAt != nil {
		parsed, err := worktime.ParseInstant(*req.StartAt)
		if err != nil {
			uc.logger.Warn("UpdateAppointment: invalid startAt %q: %v", *req.StartAt, err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidStartAt, err)
		}
		newStart = &parsed
	}

	var result *domain.Appointment

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2. Загружаем текущую запись (FOR UPDATE внутри транзакции)
		current, err := uc.appointmentRepo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				uc.logger.Warn("UpdateAppointment: appointment id=%s not found", id)
				return ErrAppointmentNotFound
			}
			uc.logger.Error("UpdateAppointment: failed to get appointment id=%s: %v", id, err)
			return fmt.Errorf("%w: failed to get appointment: %w", ErrInternal, err)
		}

		upd := domain.AppointmentUpdate{
			ServiceID:   current.ServiceID,
			TherapistID: current.TherapistID,
			StartAt:     current.StartAt,
			EndAt:       current.EndAt,
			Status:      current.Status,
			Notes:       current.Notes,
			ClientNotes: current.ClientNotes,
		}
		if req.Notes != nil {
			upd.Notes = req.Notes
		}
		if req.ClientNotes != nil {
			upd.ClientNotes = req.ClientNotes
		}
		if req.Status != nil {
			upd.Status = *req.Status
		}

		retimed := newStart != nil || req.ServiceID != nil
		therapistChanged := req.TherapistID != nil &&
			(current.TherapistID == nil || *req.TherapistID != *current.TherapistID)
		reactivated := !current.BlocksAvailability() && upd.Status.BlocksAvailability()

		// 3. Пересчитываем endAt по длительности услуги
		if retimed {
			if newStart != nil {
				upd.StartAt = *newStart
			}
			if req.ServiceID != nil {
				upd.ServiceID = *req.ServiceID
			}
			service, err := uc.getService(txCtx, upd.ServiceID)
			if err != nil {
				return err
			}
			upd.EndAt = upd.StartAt.Add(time.Duration(service.DurationMinutes) * time.Minute)
		}

		// 4. Проверяем нового терапевта
		if therapistChanged {
			if err := uc.checkTherapist(txCtx, *req.TherapistID); err != nil {
				return err
			}
			upd.TherapistID = req.TherapistID
		}

		// 5. Проверка пересечений, исключая саму запись
		if (retimed || therapistChanged || reactivated) &&
			upd.TherapistID != nil && upd.Status.BlocksAvailability() {
			conflict, err := uc.appointmentRepo.HasConflict(txCtx, *upd.TherapistID, upd.StartAt, upd.EndAt, &id)
			if err != nil {
				uc.logger.Error("UpdateAppointment: conflict check failed for id=%s: %v", id, err)
				return fmt.Errorf("%w: conflict check: %w", ErrInternal, err)
			}
			if conflict {
				uc.logger.Warn("UpdateAppointment: therapist=%s already booked in %s - %s",
					*upd.TherapistID, upd.StartAt.Format(time.RFC3339), upd.EndAt.Format(time.RFC3339))
				return ErrSlotNotAvailable
			}
		}

		// 6. Сохраняем
		updated, err := uc.appointmentRepo.Update(txCtx, id, upd)
		if err != nil {
			switch {
			case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
				return ErrAppointmentNotFound
			case errors.Is(err, appointmentRepo.ErrOverlap):
				uc.logger.Warn("UpdateAppointment: overlap rejected by database for id=%s", id)
				return ErrSlotNotAvailable
			}
			uc.logger.Error("UpdateAppointment: failed to update appointment id=%s: %v", id, err)
			return fmt.Errorf("%w: failed to update appointment: %w", ErrInternal, err)
		}

		// 7. Журнал действий
		if actorID != "" {
			if err := uc.auditRepo.Create(txCtx, &domain.AuditLog{
				ActorID:  actorID,
				Entity:   domain.AuditEntityAppointment,
				EntityID: id,
				Action:   domain.AuditActionUpdate,
			}); err != nil {
				uc.logger.Error("UpdateAppointment: failed to write audit log: %v", err)
				return fmt.Errorf("%w: failed to write audit log: %v", ErrInternal, err)
			}
		}

		result = updated
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrSerialization) {
			uc.logger.Warn("UpdateAppointment: concurrent modification detected: %v", err)
			return nil, ErrSlotNotAvailable
		}
		if isKnown(err) {
			return nil, err
		}
		uc.logger.Error("UpdateAppointment: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.logger.Info("UpdateAppointment: updated appointment id=%s", id)

	return newResponse(result), nil
}

func (uc *UseCase) getService(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	service, err := uc.serviceRepo.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("UpdateAppointment: service id=%s not found", id)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("UpdateAppointment: failed to get service id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	return service, nil
}

func (uc *UseCase) checkTherapist(ctx context.Context, id uuid.UUID) error {
	therapist, err := uc.therapistRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, therapistRepo.ErrTherapistNotFound) {
			uc.logger.Warn("UpdateAppointment: therapist id=%s not found", id)
			return ErrTherapistNotFound
		}
		uc.logger.Error("UpdateAppointment: failed to get therapist id=%s: %v", id, err)
		return fmt.Errorf("%w: failed to get therapist: %w", ErrInternal, err)
	}
	if !therapist.IsActive {
		return fmt.Errorf("%w: therapist is inactive", ErrTherapistNotFound)
	}
	return nil
}

func isKnown(err error) bool {
	for _, target := range []error{
		ErrAppointmentNotFound,
		ErrServiceNotFound,
		ErrTherapistNotFound,
		ErrSlotNotAvailable,
		ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
