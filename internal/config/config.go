package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	"github.com/m04kA/kumelen-agenda/pkg/types"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

// Провайдеры отправки писем
const (
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderStub     = "stub"
)

// Config конфигурация сервиса
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Business      BusinessConfig      `toml:"business"`
	Auth          AuthConfig          `toml:"auth"`
	Notifications NotificationsConfig `toml:"notifications"`
	Redis         RedisConfig         `toml:"redis"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
	AWS           AWSConfig           `toml:"aws"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL строка подключения для golang-migrate
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// BusinessConfig часовой пояс и часы работы центра
type BusinessConfig struct {
	Timezone         string           `toml:"timezone"`
	DayStart         types.TimeString `toml:"day_start"` // "08:00"
	DayEnd           types.TimeString `toml:"day_end"`   // "20:00"
	AssignmentPolicy string           `toml:"assignment_policy"`
}

// AuthConfig настройки проверки JWT
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

// NotificationsConfig настройки писем, outbox и напоминаний
type NotificationsConfig struct {
	Provider       string `toml:"provider"`
	SendGridAPIKey string `toml:"sendgrid_api_key"`
	FromEmail      string `toml:"from_email"`
	FromName       string `toml:"from_name"`
	BusinessEmail  string `toml:"business_email"`
	ContactEmail   string `toml:"contact_email"`
	WebsiteURL     string `toml:"website_url"`

	OutboxPollInterval int `toml:"outbox_poll_interval"` // секунды
	OutboxBatchSize    int `toml:"outbox_batch_size"`
	OutboxMaxAttempts  int `toml:"outbox_max_attempts"`
	OutboxBaseBackoff  int `toml:"outbox_base_backoff"` // секунды
	OutboxMaxBackoff   int `toml:"outbox_max_backoff"`  // секунды

	ReminderInterval  int `toml:"reminder_interval"`   // секунды
	ReminderLeadHours int `toml:"reminder_lead_hours"` // часы
}

// RedisConfig подключение к Redis
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RateLimitConfig ограничение публичных маршрутов
type RateLimitConfig struct {
	Enabled       bool `toml:"enabled"`
	Requests      int  `toml:"requests"`
	WindowSeconds int  `toml:"window_seconds"`
	FailOpen      bool `toml:"fail_open"`
}

// Window длина окна ограничения
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// AWSConfig настройки SES
type AWSConfig struct {
	Region string `toml:"region"`
}

// Load читает TOML файл, затем .env (если есть) и переменные окружения с секретами
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	// .env не обязателен: в контейнере секреты приходят из окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{HTTPPort: 8080, ReadTimeout: 15, WriteTimeout: 15, IdleTimeout: 60, ShutdownTimeout: 30},
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, SSLMode: "disable",
			MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: 300,
		},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{Path: "/metrics", ServiceName: "kumelen-agenda"},
		Business: BusinessConfig{
			Timezone:         "America/Santiago",
			DayStart:         "08:00",
			DayEnd:           "20:00",
			AssignmentPolicy: domain.PolicyFirstAvailable,
		},
		Notifications: NotificationsConfig{
			Provider:           ProviderStub,
			OutboxPollInterval: 5,
			OutboxBatchSize:    20,
			OutboxMaxAttempts:  8,
			OutboxBaseBackoff:  30,
			OutboxMaxBackoff:   3600,
			ReminderInterval:   300,
			ReminderLeadHours:  domain.DefaultReminderLeadHour,
		},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		RateLimit: RateLimitConfig{Requests: 60, WindowSeconds: 60, FailOpen: true},
	}
}

// applyEnv переопределяет секреты и адреса из окружения
func applyEnv(cfg *Config) error {
	overrides := map[string]*string{
		"DATABASE_HOST":     &cfg.Database.Host,
		"DATABASE_USER":     &cfg.Database.User,
		"DATABASE_PASSWORD": &cfg.Database.Password,
		"DATABASE_NAME":     &cfg.Database.DBName,
		"JWT_SECRET":        &cfg.Auth.JWTSecret,
		"SENDGRID_API_KEY":  &cfg.Notifications.SendGridAPIKey,
		"REDIS_ADDR":        &cfg.Redis.Addr,
		"REDIS_PASSWORD":    &cfg.Redis.Password,
		"AWS_REGION":        &cfg.AWS.Region,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}

	if v, ok := os.LookupEnv("DATABASE_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_PORT %q: %w", v, err)
		}
		cfg.Database.Port = port
	}
	return nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if _, err := c.Calendar(); err != nil {
		return err
	}

	switch c.Business.AssignmentPolicy {
	case domain.PolicyFirstAvailable, domain.PolicyLeastLoaded:
	default:
		return fmt.Errorf("unknown business.assignment_policy %q", c.Business.AssignmentPolicy)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) is required")
	}

	switch c.Notifications.Provider {
	case ProviderStub:
	case ProviderSendGrid:
		if c.Notifications.SendGridAPIKey == "" {
			return errors.New("notifications.sendgrid_api_key (or SENDGRID_API_KEY) is required for sendgrid")
		}
	case ProviderSES:
		if c.AWS.Region == "" {
			return errors.New("aws.region is required for ses")
		}
	default:
		return fmt.Errorf("unknown notifications.provider %q", c.Notifications.Provider)
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0) {
		return errors.New("rate_limit.requests and rate_limit.window_seconds must be positive")
	}
	return nil
}

// Calendar строит календарь центра из [business]
func (c *Config) Calendar() (worktime.Calendar, error) {
	start, err := c.Business.DayStart.Minutes()
	if err != nil {
		return worktime.Calendar{}, fmt.Errorf("invalid business.day_start %q: %w", c.Business.DayStart, err)
	}
	end, err := c.Business.DayEnd.Minutes()
	if err != nil {
		return worktime.Calendar{}, fmt.Errorf("invalid business.day_end %q: %w", c.Business.DayEnd, err)
	}
	if start >= end {
		return worktime.Calendar{}, fmt.Errorf("business.day_start %s must be before day_end %s", c.Business.DayStart, c.Business.DayEnd)
	}

	cal, err := worktime.New(c.Business.Timezone, start, end)
	if err != nil {
		return worktime.Calendar{}, fmt.Errorf("invalid business.timezone %q: %w", c.Business.Timezone, err)
	}
	return cal, nil
}
