package photoblog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter counts hits per key inside fixed windows. The first Increment
// for a key opens a window; the count resets once the window has elapsed.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// MemoryCounter is a process-local Counter. Expired windows are pruned on
// every call.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*counterWindow
	now     func() time.Time
}

type counterWindow struct {
	count int64
	start time.Time
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: make(map[string]*counterWindow),
		now:     time.Now,
	}
}

func (m *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, w := range m.windows {
		if now.Sub(w.start) >= window {
			delete(m.windows, k)
		}
	}
	w, ok := m.windows[key]
	if !ok {
		w = &counterWindow{start: now}
		m.windows[key] = w
	}
	w.count++
	return w.count, nil
}

// Len returns the number of open windows.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// RedisCounter shares windows between instances through Redis.
type RedisCounter struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCounter connects to the Redis server at url (redis://...).
func NewRedisCounter(url string) (*RedisCounter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCounter{rdb: redis.NewClient(opts), prefix: "photoblog:"}, nil
}

func (r *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := r.prefix + key
	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, k, window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	return n, nil
}

func (r *RedisCounter) Close() error {
	return r.rdb.Close()
}

// RateLimiter is an echo RateLimiterStore allowing max requests per window
// for each identifier. Counter failures let the request through.
type RateLimiter struct {
	counter Counter
	max     int64
	window  time.Duration
	l       *zap.Logger
}

// NewRateLimiter creates a RateLimiter on top of counter.
func NewRateLimiter(counter Counter, max int64, window time.Duration, l *zap.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, max: max, window: window, l: l}
}

// Allow records a hit for identifier and reports whether it is within the limit.
func (rl *RateLimiter) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n, err := rl.counter.Increment(ctx, "ratelimit:"+identifier, rl.window)
	if err != nil {
		rl.l.Warn("rate limit counter failed", zap.String("identifier", identifier), zap.Error(err))
		return true, nil
	}
	return n <= rl.max, nil
}

// ClientIP returns a best-effort client address: the first X-Forwarded-For
// entry, else X-Real-IP, else "unknown".
func ClientIP(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

func (a *App) rateLimitMiddleware() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: NewRateLimiter(a.counter, a.Config.RateLimit.Max, a.Config.RateLimit.Window, a.l),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return ClientIP(c.Request().Header), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return jsonError(c, http.StatusForbidden, "Forbidden")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return jsonError(c, http.StatusTooManyRequests, "Too many requests")
		},
	})
}
