package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	appointmentRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/appointment"
	"github.com/m04kA/kumelen-agenda/internal/service/appointments/models"
)

// Service сервис для работы с записями
type Service struct {
	appointmentRepo AppointmentRepository
	auditRepo       AuditLogRepository
	txManager       TransactionManager
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	auditRepo AuditLogRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

// GetByID получает запись по ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%s", id)

	appt, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("GetByID: appointment id=%s not found", id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetByID: repository error for appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainAppointment(appt), nil
}

// List получает страницу записей с фильтрацией
// Страница и общее количество читаются в одной read-only транзакции
func (s *Service) List(ctx context.Context, req *models.ListRequest) (*models.ListResponse, error) {
	req.Normalize()

	logMsg := fmt.Sprintf("List: fetching appointments page=%d, pageSize=%d", req.Page, req.PageSize)
	if req.TherapistID != nil {
		logMsg += fmt.Sprintf(", therapist=%s", *req.TherapistID)
	}
	if req.CustomerID != nil {
		logMsg += fmt.Sprintf(", customer=%s", *req.CustomerID)
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	s.logger.Info(logMsg)

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	var (
		list  []*domain.Appointment
		total int
	)
	err = s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		if list, err = s.appointmentRepo.List(txCtx, filter); err != nil {
			return err
		}
		total, err = s.appointmentRepo.Count(txCtx, filter)
		return err
	})
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d of %d appointments", len(list), total)
	return &models.ListResponse{
		Appointments: models.FromDomainAppointmentList(list),
		Total:        total,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}, nil
}

// UpdateStatus обновляет статус записи и пишет журнал действий
// Возврат отменённой записи в работу может нарушить exclusion constraint, тогда возвращается ErrSlotNotAvailable
func (s *Service) UpdateStatus(ctx context.Context, actorID string, id uuid.UUID, status string) (*models.AppointmentResponse, error) {
	s.logger.Info("UpdateStatus: updating appointment id=%s to status=%s by actor=%s", id, status, actorID)

	newStatus, err := models.ToDomainStatus(status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for appointment id=%s", status, id)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	var updated *domain.Appointment
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.appointmentRepo.UpdateStatus(txCtx, id, newStatus)
		if err != nil {
			return err
		}
		return s.audit(txCtx, actorID, id, domain.AuditActionUpdate)
	})
	if err != nil {
		switch {
		case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
			s.logger.Warn("UpdateStatus: appointment id=%s not found", id)
			return nil, ErrAppointmentNotFound
		case errors.Is(err, appointmentRepo.ErrOverlap):
			s.logger.Warn("UpdateStatus: appointment id=%s overlaps another appointment", id)
			return nil, ErrSlotNotAvailable
		}
		s.logger.Error("UpdateStatus: repository error for appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateStatus: appointment id=%s now has status=%s", id, newStatus)
	return models.FromDomainAppointment(updated), nil
}

// Delete удаляет запись и пишет журнал действий
func (s *Service) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	s.logger.Info("Delete: deleting appointment id=%s by actor=%s", id, actorID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.appointmentRepo.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audit(txCtx, actorID, id, domain.AuditActionDelete)
	})
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("Delete: appointment id=%s not found", id)
			return ErrAppointmentNotFound
		}
		s.logger.Error("Delete: repository error for appointment id=%s: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Delete: appointment id=%s deleted", id)
	return nil
}

// Вспомогательные методы

func (s *Service) audit(ctx context.Context, actorID string, id uuid.UUID, action domain.AuditAction) error {
	if actorID == "" {
		return nil
	}
	return s.auditRepo.Create(ctx, &domain.AuditLog{
		ActorID:  actorID,
		Entity:   domain.AuditEntityAppointment,
		EntityID: id,
		Action:   action,
	})
}
