package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/internal/integrations/notifier"
)

// Результаты доставки для метрик
const (
	ResultDelivered = "delivered"
	ResultRetry     = "retry"
	ResultFailed    = "failed"
)

// Config настройки диспетчера
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

// Dispatcher периодически забирает события из outbox и доставляет их
// Строки блокируются через FOR UPDATE SKIP LOCKED, поэтому несколько экземпляров не доставят событие дважды
type Dispatcher struct {
	repo      Repository
	handler   Handler
	txManager TransactionManager
	metrics   Metrics
	logger    Logger
	cfg       Config
	now       func() time.Time
}

// NewDispatcher создает диспетчер, подставляя значения по умолчанию
func NewDispatcher(repo Repository, handler Handler, txManager TransactionManager, metrics Metrics, logger Logger, cfg Config) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Hour
	}
	return &Dispatcher{
		repo:      repo,
		handler:   handler,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run обрабатывает пачки событий до отмены контекста
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("Outbox dispatcher started: interval=%s, batch=%d", d.cfg.PollInterval, d.cfg.BatchSize)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error("Outbox dispatcher: batch failed: %v", err)
			}
		}
	}
}

// ProcessBatch доставляет до BatchSize событий и возвращает число обработанных
// Каждое событие забирается, отправляется и отмечается в собственной транзакции:
// сбой записи результата откатывает только текущее событие, уже отмеченные остаются доставленными
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0

	for processed < d.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		handled := false
		err := d.txManager.Do(ctx, func(txCtx context.Context) error {
			now := d.now().UTC()

			events, err := d.repo.FetchPending(txCtx, now, 1)
			if err != nil {
				return fmt.Errorf("fetch pending: %w", err)
			}
			if len(events) == 0 {
				return nil
			}

			handled = true
			return d.deliver(txCtx, events[0], now)
		})
		if err != nil {
			return processed, err
		}
		if !handled {
			break
		}
		processed++
	}

	return processed, nil
}

// deliver отправляет событие и фиксирует результат
// Ошибка возвращается только если не удалось записать результат в БД
func (d *Dispatcher) deliver(ctx context.Context, evt *domain.OutboxEvent, now time.Time) error {
	sendErr := d.handler.Handle(ctx, evt)
	if sendErr == nil {
		if err := d.repo.MarkDelivered(ctx, evt.ID, now); err != nil {
			return fmt.Errorf("mark delivered id=%s: %w", evt.ID, err)
		}
		d.metrics.ObserveOutboxDelivery(evt.EventType, ResultDelivered)
		return nil
	}

	attempts := evt.Attempts + 1
	if notifier.IsPermanent(sendErr) || attempts >= d.cfg.MaxAttempts {
		d.logger.Error("Outbox: event id=%s type=%s failed after %d attempts: %v", evt.ID, evt.EventType, attempts, sendErr)
		if err := d.repo.MarkFailed(ctx, evt.ID, attempts, sendErr.Error()); err != nil {
			return fmt.Errorf("mark failed id=%s: %w", evt.ID, err)
		}
		d.metrics.ObserveOutboxDelivery(evt.EventType, ResultFailed)
		return nil
	}

	next := now.Add(d.backoff(attempts))
	d.logger.Warn("Outbox: event id=%s type=%s attempt %d failed, retry at %s: %v",
		evt.ID, evt.EventType, attempts, next.Format(time.RFC3339), sendErr)
	if err := d.repo.MarkRetry(ctx, evt.ID, attempts, next, sendErr.Error()); err != nil {
		return fmt.Errorf("mark retry id=%s: %w", evt.ID, err)
	}
	d.metrics.ObserveOutboxDelivery(evt.EventType, ResultRetry)
	return nil
}

// backoff возвращает BaseBackoff * 2^(attempts-1), не больше MaxBackoff
func (d *Dispatcher) backoff(attempts int) time.Duration {
	delay := d.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return delay
}
