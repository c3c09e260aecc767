package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	appointmentRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/customer"
	therapistRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/therapist"
	"github.com/m04kA/kumelen-agenda/internal/usecase/resolve_therapist"
	"github.com/m04kA/kumelen-agenda/pkg/txmanager"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

// UseCase use case создания записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	serviceRepo     ServiceRepository
	customerRepo    CustomerRepository
	therapistRepo   TherapistRepository
	resolver        TherapistResolver
	outboxRepo      OutboxRepository
	auditRepo       AuditLogRepository
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	serviceRepo ServiceRepository,
	customerRepo CustomerRepository,
	therapistRepo TherapistRepository,
	resolver TherapistResolver,
	outboxRepo OutboxRepository,
	auditRepo AuditLogRepository,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		serviceRepo:     serviceRepo,
		customerRepo:    customerRepo,
		therapistRepo:   therapistRepo,
		resolver:        resolver,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute создает запись от имени сотрудника (actorID попадает в журнал действий)
// Клиент задаётся либо существующим customerId, либо данными нового клиента;
// совпадение email/phone/rut нового клиента с существующим отклоняется одной ошибкой со всеми полями
func (uc *UseCase) Execute(ctx context.Context, actorID string, req *Request) (*Response, error) {
	uc.logger.Info("CreateAppointment: actor=%s, service=%s, startAt=%s", actorID, req.ServiceID, req.StartAt)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Разбираем startAt до любых обращений к хранилищу
	startAt, err := uc.parseStartAt(req.StartAt)
	if err != nil {
		return nil, err
	}

	// 3. Получаем услугу и считаем endAt по её длительности
	service, err := uc.getService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	endAt, err := endOf(startAt, service)
	if err != nil {
		return nil, err
	}

	// 4. Определяем клиента (без побочных эффектов, создание внутри транзакции)
	var plan customerPlan
	if req.CustomerID != nil {
		plan, err = uc.existingCustomer(ctx, *req.CustomerID)
	} else {
		plan, err = uc.newCustomer(ctx, req.CustomerData)
	}
	if err != nil {
		return nil, err
	}

	status := domain.StatusPending
	if req.Status != nil {
		status = *req.Status
	}

	return uc.admit(ctx, &admission{
		actorID:     actorID,
		service:     service,
		customer:    plan,
		therapistID: req.TherapistID,
		startAt:     startAt,
		endAt:       endAt,
		status:      status,
		notes:       req.Notes,
		clientNotes: req.ClientNotes,
	})
}

// ExecutePublic создает запись из публичного виджета
// Существующий клиент ищется по email, затем телефону, затем RUT и при необходимости реактивируется
func (uc *UseCase) ExecutePublic(ctx context.Context, req *PublicRequest) (*Response, error) {
	uc.logger.Info("CreatePublicAppointment: service=%s, startAt=%s, hasTherapist=%t",
		req.ServiceID, req.StartAt, req.TherapistID != nil)

	// 1. Валидация входных данных
	if err := validatePublicRequest(req); err != nil {
		uc.logger.Warn("CreatePublicAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Разбираем startAt до любых обращений к хранилищу
	startAt, err := uc.parseStartAt(req.StartAt)
	if err != nil {
		return nil, err
	}

	// 3. Получаем услугу и считаем endAt по её длительности
	service, err := uc.getService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	endAt, err := endOf(startAt, service)
	if err != nil {
		return nil, err
	}

	// 4. Ищем клиента по контактам
	plan, err := uc.matchCustomer(ctx, &req.CustomerData)
	if err != nil {
		return nil, err
	}

	return uc.admit(ctx, &admission{
		service:     service,
		customer:    plan,
		therapistID: req.TherapistID,
		startAt:     startAt,
		endAt:       endAt,
		status:      domain.StatusPending,
		notes:       req.Notes,
		clientNotes: req.ClientNotes,
	})
}

// admit выполняет запись в одной SERIALIZABLE транзакции:
// клиент → терапевт (указанный или подобранный) → проверка пересечений → вставка → события outbox → аудит.
// Проверка пересечений выполняется строго перед вставкой; окончательную гарантию даёт exclusion constraint в БД.
func (uc *UseCase) admit(ctx context.Context, a *admission) (*Response, error) {
	var result *domain.Appointment

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Клиент
		customerID, err := uc.applyCustomer(txCtx, a.customer)
		if err != nil {
			return err
		}

		// 2. Терапевт
		therapistID, err := uc.chooseTherapist(txCtx, a)
		if err != nil {
			return err
		}

		// 3. Проверка пересечений непосредственно перед вставкой
		conflict, err := uc.appointmentRepo.HasConflict(txCtx, therapistID, a.startAt, a.endAt, nil)
		if err != nil {
			uc.logger.Error("CreateAppointment: conflict check failed for therapist=%s: %v", therapistID, err)
			return fmt.Errorf("%w: conflict check: %w", ErrInternal, err)
		}
		if conflict {
			uc.logger.Warn("CreateAppointment: therapist=%s already booked in %s - %s",
				therapistID, a.startAt.Format(time.RFC3339), a.endAt.Format(time.RFC3339))
			return ErrSlotNotAvailable
		}

		// 4. Сохраняем запись
		created, err := uc.appointmentRepo.Create(txCtx, &domain.Appointment{
			CustomerID:  customerID,
			TherapistID: &therapistID,
			ServiceID:   a.service.ID,
			StartAt:     a.startAt,
			EndAt:       a.endAt,
			Status:      a.status,
			Notes:       a.notes,
			ClientNotes: a.clientNotes,
		})
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrOverlap) {
				uc.logger.Warn("CreateAppointment: overlap rejected by database for therapist=%s", therapistID)
				return ErrSlotNotAvailable
			}
			uc.logger.Error("CreateAppointment: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %w", ErrInternal, err)
		}
		if created == nil {
			return fmt.Errorf("%w: appointment was not created", ErrInternal)
		}

		// 5. Уведомления через outbox, в той же транзакции
		if err := uc.enqueueNotifications(txCtx, created.ID); err != nil {
			return err
		}

		// 6. Журнал действий (только для сотрудников)
		if a.actorID != "" {
			if err := uc.auditRepo.Create(txCtx, &domain.AuditLog{
				ActorID:  a.actorID,
				Entity:   domain.AuditEntityAppointment,
				EntityID: created.ID,
				Action:   domain.AuditActionCreate,
			}); err != nil {
				uc.logger.Error("CreateAppointment: failed to write audit log: %v", err)
				return fmt.Errorf("%w: failed to write audit log: %v", ErrInternal, err)
			}
		}

		result = created
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrSerialization) {
			uc.logger.Warn("CreateAppointment: concurrent booking detected: %v", err)
			return nil, ErrSlotNotAvailable
		}
		if isKnown(err) {
			return nil, err
		}
		uc.logger.Error("CreateAppointment: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.logger.Info("CreateAppointment: created appointment id=%s therapist=%s start=%s",
		result.ID, *result.TherapistID, result.StartAt.Format(time.RFC3339))

	return NewResponse(result), nil
}

func (uc *UseCase) getService(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	service, err := uc.serviceRepo.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateAppointment: service id=%s not found", id)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get service id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	return service, nil
}

// parseStartAt строго разбирает startAt (RFC 3339 со смещением)
func (uc *UseCase) parseStartAt(raw string) (time.Time, error) {
	startAt, err := worktime.ParseInstant(raw)
	if err != nil {
		uc.logger.Warn("CreateAppointment: invalid startAt %q: %v", raw, err)
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidStartAt, err)
	}
	return startAt, nil
}

// endOf вычисляет endAt = startAt + длительность услуги
func endOf(startAt time.Time, service *domain.Service) (time.Time, error) {
	if service.DurationMinutes <= 0 {
		return time.Time{}, fmt.Errorf("%w: service %s has no duration", ErrInternal, service.ID)
	}
	return startAt.Add(time.Duration(service.DurationMinutes) * time.Minute), nil
}

func (uc *UseCase) existingCustomer(ctx context.Context, id uuid.UUID) (customerPlan, error) {
	if _, err := uc.customerRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, customerRepo.ErrCustomerNotFound) {
			uc.logger.Warn("CreateAppointment: customer id=%s not found", id)
			return customerPlan{}, ErrCustomerNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get customer id=%s: %v", id, err)
		return customerPlan{}, fmt.Errorf("%w: failed to get customer: %v", ErrInternal, err)
	}
	return customerPlan{id: id}, nil
}

// newCustomer проверяет все контакты нового клиента и собирает совпадения в одну ошибку
func (uc *UseCase) newCustomer(ctx context.Context, data *CustomerData) (customerPlan, error) {
	lookups := []struct {
		field string
		value *string
		find  func(context.Context, string) (*domain.Customer, error)
	}{
		{FieldEmail, data.Email, uc.customerRepo.FindByEmail},
		{FieldPhone, data.Phone, uc.customerRepo.FindByPhone},
		{FieldRut, data.Rut, uc.customerRepo.FindByRut},
	}

	var duplicates []DuplicateField
	for _, l := range lookups {
		value, ok := nonEmpty(l.value)
		if !ok {
			continue
		}
		_, err := l.find(ctx, value)
		if err == nil {
			duplicates = append(duplicates, DuplicateField{Field: l.field, Value: value})
			continue
		}
		if !errors.Is(err, customerRepo.ErrCustomerNotFound) {
			uc.logger.Error("CreateAppointment: failed to look up customer by %s: %v", l.field, err)
			return customerPlan{}, fmt.Errorf("%w: failed to look up customer: %v", ErrInternal, err)
		}
	}

	if len(duplicates) > 0 {
		dupErr := &DuplicateCustomerError{Fields: duplicates}
		uc.logger.Warn("CreateAppointment: %v", dupErr)
		return customerPlan{}, dupErr
	}

	return customerPlan{create: toCustomer(data)}, nil
}

// matchCustomer ищет клиента по email, затем телефону, затем RUT
func (uc *UseCase) matchCustomer(ctx context.Context, data *CustomerData) (customerPlan, error) {
	lookups := []struct {
		field string
		value *string
		find  func(context.Context, string) (*domain.Customer, error)
	}{
		{FieldEmail, data.Email, uc.customerRepo.FindByEmail},
		{FieldPhone, data.Phone, uc.customerRepo.FindByPhone},
		{FieldRut, data.Rut, uc.customerRepo.FindByRut},
	}

	for _, l := range lookups {
		value, ok := nonEmpty(l.value)
		if !ok {
			continue
		}
		existing, err := l.find(ctx, value)
		if err == nil {
			uc.logger.Info("CreatePublicAppointment: matched customer id=%s by %s", existing.ID, l.field)
			return customerPlan{id: existing.ID, reactivate: !existing.IsActive}, nil
		}
		if !errors.Is(err, customerRepo.ErrCustomerNotFound) {
			uc.logger.Error("CreatePublicAppointment: failed to look up customer by %s: %v", l.field, err)
			return customerPlan{}, fmt.Errorf("%w: failed to look up customer: %v", ErrInternal, err)
		}
	}

	return customerPlan{create: toCustomer(data)}, nil
}

// applyCustomer выполняет план по клиенту внутри транзакции и возвращает его ID
func (uc *UseCase) applyCustomer(ctx context.Context, plan customerPlan) (uuid.UUID, error) {
	if plan.create == nil {
		if plan.reactivate {
			if err := uc.customerRepo.Reactivate(ctx, plan.id); err != nil {
				uc.logger.Error("CreateAppointment: failed to reactivate customer id=%s: %v", plan.id, err)
				return uuid.Nil, fmt.Errorf("%w: failed to reactivate customer: %v", ErrInternal, err)
			}
			uc.logger.Info("CreateAppointment: customer id=%s reactivated", plan.id)
		}
		return plan.id, nil
	}

	created, err := uc.customerRepo.Create(ctx, plan.create)
	if err != nil {
		// уникальный индекс сработал при гонке с параллельной регистрацией
		if errors.Is(err, customerRepo.ErrDuplicateCustomer) {
			return uuid.Nil, &DuplicateCustomerError{Fields: contactFields(plan.create)}
		}
		uc.logger.Error("CreateAppointment: failed to create customer: %v", err)
		return uuid.Nil, fmt.Errorf("%w: failed to create customer: %w", ErrInternal, err)
	}
	uc.logger.Info("CreateAppointment: created customer id=%s", created.ID)
	return created.ID, nil
}

// chooseTherapist проверяет указанного терапевта или подбирает свободного
func (uc *UseCase) chooseTherapist(ctx context.Context, a *admission) (uuid.UUID, error) {
	if a.therapistID != nil {
		therapist, err := uc.therapistRepo.GetByID(ctx, *a.therapistID)
		if err != nil {
			if errors.Is(err, therapistRepo.ErrTherapistNotFound) {
				uc.logger.Warn("CreateAppointment: therapist id=%s not found", *a.therapistID)
				return uuid.Nil, ErrTherapistNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get therapist id=%s: %v", *a.therapistID, err)
			return uuid.Nil, fmt.Errorf("%w: failed to get therapist: %w", ErrInternal, err)
		}
		if !therapist.IsActive {
			uc.logger.Warn("CreateAppointment: therapist id=%s is inactive", therapist.ID)
			return uuid.Nil, fmt.Errorf("%w: therapist is inactive", ErrTherapistNotFound)
		}
		return therapist.ID, nil
	}

	resolved, err := uc.resolver.Execute(ctx, &resolve_therapist.Request{
		ServiceID: a.service.ID,
		StartAt:   a.startAt,
		EndAt:     a.endAt,
	})
	if err != nil {
		uc.logger.Error("CreateAppointment: therapist resolution failed: %v", err)
		return uuid.Nil, fmt.Errorf("%w: therapist resolution failed: %w", ErrInternal, err)
	}
	if !resolved.Found {
		return uuid.Nil, ErrNoTherapistAvailable
	}
	return resolved.TherapistID, nil
}

// enqueueNotifications ставит уведомления центру и клиенту в outbox
// Письмо клиенту без email диспетчер пропустит
func (uc *UseCase) enqueueNotifications(ctx context.Context, appointmentID uuid.UUID) error {
	now := uc.timeProvider.Now().UTC()
	for _, eventType := range []string{domain.EventAppointmentCreatedBusiness, domain.EventAppointmentCreatedCustomer} {
		evt, err := domain.NewAppointmentEvent(eventType, appointmentID, now)
		if err != nil {
			return fmt.Errorf("%w: failed to build %s event: %v", ErrInternal, eventType, err)
		}
		if err := uc.outboxRepo.Insert(ctx, evt); err != nil {
			uc.logger.Error("CreateAppointment: failed to enqueue %s: %v", eventType, err)
			return fmt.Errorf("%w: failed to enqueue %s: %w", ErrInternal, eventType, err)
		}
	}
	return nil
}

func toCustomer(data *CustomerData) *domain.Customer {
	c := &domain.Customer{Name: data.Name, LastName: data.LastName, IsActive: true}
	if v, ok := nonEmpty(data.Email); ok {
		c.Email = &v
	}
	if v, ok := nonEmpty(data.Phone); ok {
		c.Phone = &v
	}
	if v, ok := nonEmpty(data.Rut); ok {
		c.Rut = &v
	}
	return c
}

func contactFields(c *domain.Customer) []DuplicateField {
	var fields []DuplicateField
	if c.Email != nil {
		fields = append(fields, DuplicateField{Field: FieldEmail, Value: *c.Email})
	}
	if c.Phone != nil {
		fields = append(fields, DuplicateField{Field: FieldPhone, Value: *c.Phone})
	}
	if c.Rut != nil {
		fields = append(fields, DuplicateField{Field: FieldRut, Value: *c.Rut})
	}
	return fields
}

// isKnown сообщает, является ли ошибка одной из ошибок этого usecase
func isKnown(err error) bool {
	for _, target := range []error{
		ErrServiceNotFound,
		ErrCustomerNotFound,
		ErrTherapistNotFound,
		ErrNoTherapistAvailable,
		ErrSlotNotAvailable,
		ErrDuplicateCustomer,
		ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
