package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	createAppointmentHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/create_appointment"
	createPublicAppointmentHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/create_public_appointment"
	deleteAppointmentHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/delete_appointment"
	getAppointmentHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/get_appointment"
	getAvailabilityHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/get_availability"
	healthHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/health"
	listAppointmentsHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/list_appointments"
	updateAppointmentHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/update_appointment"
	updateAppointmentStatusHandler "github.com/m04kA/kumelen-agenda/internal/api/handlers/update_appointment_status"
	"github.com/m04kA/kumelen-agenda/internal/api/middleware"
	"github.com/m04kA/kumelen-agenda/internal/config"
	appointmentRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/appointment"
	auditLogRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/auditlog"
	catalogRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/catalog"
	customerRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/customer"
	outboxRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/outbox"
	therapistRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/therapist"
	"github.com/m04kA/kumelen-agenda/internal/integrations/notifier"
	appointmentsService "github.com/m04kA/kumelen-agenda/internal/service/appointments"
	createAppointmentUC "github.com/m04kA/kumelen-agenda/internal/usecase/create_appointment"
	getAvailabilityUC "github.com/m04kA/kumelen-agenda/internal/usecase/get_availability"
	resolveTherapistUC "github.com/m04kA/kumelen-agenda/internal/usecase/resolve_therapist"
	updateAppointmentUC "github.com/m04kA/kumelen-agenda/internal/usecase/update_appointment"
	outboxWorker "github.com/m04kA/kumelen-agenda/internal/worker/outbox"
	remindersWorker "github.com/m04kA/kumelen-agenda/internal/worker/reminders"
	"github.com/m04kA/kumelen-agenda/pkg/dbmetrics"
	"github.com/m04kA/kumelen-agenda/pkg/logger"
	"github.com/m04kA/kumelen-agenda/pkg/metrics"
	"github.com/m04kA/kumelen-agenda/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting kumelen-agenda...")
	log.Info("Configuration loaded from config.toml")

	calendar, err := cfg.Calendar()
	if err != nil {
		log.Fatal("Invalid business calendar: %v", err)
	}
	log.Info("Business calendar: timezone=%s, hours=%s-%s, policy=%s",
		calendar.Timezone(), cfg.Business.DayStart, cfg.Business.DayEnd, cfg.Business.AssignmentPolicy)

	// Инициализируем метрики (если включены); nil коллектор отключает инструментирование
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	therapistRepository := therapistRepo.NewRepository(wrappedDB)
	catalogRepository := catalogRepo.NewRepository(wrappedDB)
	customerRepository := customerRepo.NewRepository(wrappedDB)
	outboxRepository := outboxRepo.NewRepository(wrappedDB)
	auditRepository := auditLogRepo.NewRepository(wrappedDB)

	// Отправка писем
	sender, err := newEmailSender(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize email sender: %v", err)
	}
	log.Info("Email provider: %s", cfg.Notifications.Provider)

	// Инициализируем use cases и сервисы
	resolver := resolveTherapistUC.NewUseCase(
		therapistRepository,
		calendar,
		cfg.Business.AssignmentPolicy,
		metricsCollector,
		log,
	)
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		catalogRepository,
		therapistRepository,
		calendar,
		log,
	)
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		appointmentRepository,
		catalogRepository,
		customerRepository,
		therapistRepository,
		resolver,
		outboxRepository,
		auditRepository,
		txMgr,
		log,
	)
	updateAppointmentUseCase := updateAppointmentUC.NewUseCase(
		appointmentRepository,
		catalogRepository,
		therapistRepository,
		auditRepository,
		txMgr,
		log,
	)
	appointmentSvc := appointmentsService.NewService(
		appointmentRepository,
		auditRepository,
		txMgr,
		log,
	)

	// Фоновые воркеры: доставка outbox и напоминания
	emailNotifier := notifier.NewNotifier(appointmentRepository, sender, calendar, notifier.Config{
		BusinessEmail: cfg.Notifications.BusinessEmail,
		ContactEmail:  cfg.Notifications.ContactEmail,
		WebsiteURL:    cfg.Notifications.WebsiteURL,
	}, log)
	dispatcher := outboxWorker.NewDispatcher(outboxRepository, emailNotifier, txMgr, metricsCollector, log, outboxWorker.Config{
		PollInterval: time.Duration(cfg.Notifications.OutboxPollInterval) * time.Second,
		BatchSize:    cfg.Notifications.OutboxBatchSize,
		MaxAttempts:  cfg.Notifications.OutboxMaxAttempts,
		BaseBackoff:  time.Duration(cfg.Notifications.OutboxBaseBackoff) * time.Second,
		MaxBackoff:   time.Duration(cfg.Notifications.OutboxMaxBackoff) * time.Second,
	})
	scheduler := remindersWorker.NewScheduler(appointmentRepository, outboxRepository, txMgr, log, remindersWorker.Config{
		Interval: time.Duration(cfg.Notifications.ReminderInterval) * time.Second,
		Lead:     time.Duration(cfg.Notifications.ReminderLeadHours) * time.Hour,
	})

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		dispatcher.Run(workersCtx)
	}()
	go func() {
		defer workers.Done()
		scheduler.Run(workersCtx)
	}()

	// Инициализируем handlers
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	createPublicAppointment := createPublicAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	updateAppointment := updateAppointmentHandler.NewHandler(updateAppointmentUseCase, log)
	updateAppointmentStatus := updateAppointmentStatusHandler.NewHandler(appointmentSvc, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentSvc, calendar, log)
	deleteAppointment := deleteAppointmentHandler.NewHandler(appointmentSvc, log)
	health := healthHandler.NewHandler(db, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации, с ограничением частоты)
	// ============================================================

	public := api.PathPrefix("/public").Subrouter()

	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis is not reachable at %s: %v (fail_open=%t)", cfg.Redis.Addr, err, cfg.RateLimit.FailOpen)
		}
		cancelPing()

		limiter := middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
			Limit:    cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window(),
			FailOpen: cfg.RateLimit.FailOpen,
		}, log)
		public.Use(limiter.Middleware)
		log.Info("Rate limiting enabled for public routes: %d requests per %s",
			cfg.RateLimit.Requests, cfg.RateLimit.Window())
	}

	// Свободные интервалы на день
	public.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)

	// Запись из публичного виджета
	public.HandleFunc("/appointments", createPublicAppointment.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют Bearer JWT)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(middleware.AuthConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	}, log))

	// --- Записи ---
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", listAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", getAppointment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", updateAppointment.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{id}/status", updateAppointmentStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{id}", deleteAppointment.Handle).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем воркеры после HTTP: новые записи больше не появятся
	stopWorkers()
	workers.Wait()
	log.Info("Background workers stopped")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("Failed to close redis client: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}

// newEmailSender выбирает провайдера писем по конфигурации
func newEmailSender(cfg *config.Config, log *logger.Logger) (notifier.EmailSender, error) {
	n := cfg.Notifications
	switch n.Provider {
	case config.ProviderSendGrid:
		return notifier.NewSendGridSender(n.SendGridAPIKey, n.FromEmail, n.FromName, log), nil

	case config.ProviderSES:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return notifier.NewSESSender(sesv2.NewFromConfig(awsCfg), n.FromEmail, n.FromName, log), nil

	default:
		return notifier.NewStubSender(log), nil
	}
}
