package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/kumelen-agenda/internal/api/handlers"
)

const msgRateLimited = "demasiadas solicitudes, intenta nuevamente más tarde"

// Фиксированное окно: INCR и PEXPIRE на первом запросе окна выполняются атомарно
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimitConfig параметры ограничения частоты запросов
type RateLimitConfig struct {
	Limit    int           // запросов в окно на один IP
	Window   time.Duration // длина окна
	Prefix   string        // префикс ключей в Redis
	FailOpen bool          // пропускать запросы, если Redis недоступен
}

// RateLimiter ограничивает частоту запросов к публичным маршрутам по IP клиента
type RateLimiter struct {
	client redis.Scripter
	cfg    RateLimitConfig
	logger Logger
}

// NewRateLimiter создает ограничитель на Redis
func NewRateLimiter(client redis.Scripter, cfg RateLimitConfig, logger Logger) *RateLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "agenda:ratelimit"
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{client: client, cfg: cfg, logger: logger}
}

// Allow увеличивает счётчик ключа и сообщает, укладывается ли запрос в лимит
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("%s:%s:%d", l.cfg.Prefix, key, time.Now().UnixMilli()/l.cfg.Window.Milliseconds())

	res, err := fixedWindowScript.Run(ctx, l.client, []string{windowKey}, l.cfg.Window.Milliseconds()).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}

	var count int64
	switch v := res.(type) {
	case int64:
		count = v
	case string:
		count, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false, fmt.Errorf("rate limit result %q: %w", v, err)
		}
	default:
		return false, fmt.Errorf("unexpected rate limit result type %T", res)
	}

	return count <= int64(l.cfg.Limit), nil
}

// Middleware отвечает 429, когда клиент превысил лимит
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		allowed, err := l.Allow(r.Context(), ip)
		if err != nil {
			if l.cfg.FailOpen {
				l.logger.Warn("%s %s - Rate limiter unavailable, allowing request: %v", r.Method, r.URL.Path, err)
				next.ServeHTTP(w, r)
				return
			}
			l.logger.Error("%s %s - Rate limiter unavailable: %v", r.Method, r.URL.Path, err)
			handlers.RespondInternalError(w)
			return
		}

		if !allowed {
			l.logger.Warn("%s %s - Rate limit exceeded: ip=%s", r.Method, r.URL.Path, ip)
			w.Header().Set("Retry-After", strconv.Itoa(int(l.cfg.Window.Seconds())))
			handlers.RespondError(w, http.StatusTooManyRequests, handlers.CodeRateLimited, msgRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP берёт первый адрес из X-Forwarded-For (сервис стоит за прокси), иначе RemoteAddr
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
