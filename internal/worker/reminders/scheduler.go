package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/kumelen-agenda/internal/domain"
)

// Config настройки планировщика напоминаний
type Config struct {
	Interval  time.Duration
	Lead      time.Duration // за сколько до начала записи отправлять напоминание
	BatchSize int
}

// Scheduler ставит напоминания о ближайших записях в outbox
type Scheduler struct {
	appointmentRepo AppointmentRepository
	outboxRepo      OutboxRepository
	txManager       TransactionManager
	logger          Logger
	cfg             Config
	now             func() time.Time
}

// NewScheduler создает планировщик, подставляя значения по умолчанию
func NewScheduler(appointmentRepo AppointmentRepository, outboxRepo OutboxRepository, txManager TransactionManager, logger Logger, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Lead <= 0 {
		cfg.Lead = domain.DefaultReminderLeadHour * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Scheduler{
		appointmentRepo: appointmentRepo,
		outboxRepo:      outboxRepo,
		txManager:       txManager,
		logger:          logger,
		cfg:             cfg,
		now:             time.Now,
	}
}

// Run ставит напоминания до отмены контекста
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Reminder scheduler started: interval=%s, lead=%s", s.cfg.Interval, s.cfg.Lead)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("Reminder scheduler: run failed: %v", err)
			}
		}
	}
}

// RunOnce ставит напоминания для записей, начинающихся в ближайшие Lead
// События и отметка reminder_sent_at пишутся в одной транзакции
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	enqueued := 0

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		now := s.now().UTC()

		due, err := s.appointmentRepo.ListDueForReminder(txCtx, now, now.Add(s.cfg.Lead), s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("list due appointments: %w", err)
		}

		for _, appt := range due {
			for _, eventType := range []string{domain.EventAppointmentReminderCustomer, domain.EventAppointmentReminderBusiness} {
				evt, err := domain.NewAppointmentEvent(eventType, appt.ID, now)
				if err != nil {
					return fmt.Errorf("build %s event: %w", eventType, err)
				}
				if err := s.outboxRepo.Insert(txCtx, evt); err != nil {
					return fmt.Errorf("enqueue %s for id=%s: %w", eventType, appt.ID, err)
				}
			}
			if err := s.appointmentRepo.MarkReminderSent(txCtx, appt.ID, now); err != nil {
				return fmt.Errorf("mark reminder sent id=%s: %w", appt.ID, err)
			}
			enqueued++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if enqueued > 0 {
		s.logger.Info("Reminder scheduler: enqueued reminders for %d appointments", enqueued)
	}
	return enqueued, nil
}
