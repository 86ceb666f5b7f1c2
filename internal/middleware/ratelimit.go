package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/logger"
	"github.com/noah-isme/calendar-booking-api/pkg/response"
)

// WindowCounter increments the hit count of key within a fixed window.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitConfig tunes RateLimit.
type RateLimitConfig struct {
	Limit    int
	Window   time.Duration
	Prefix   string
	FailOpen bool
}

// RateLimit rejects clients that exceed cfg.Limit requests per window.
// When the counter errors the request passes if FailOpen is set.
func RateLimit(counter WindowCounter, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		cfg.Prefix = "rl"
	}
	return func(c *gin.Context) {
		key := cfg.Prefix + ":" + c.ClientIP()
		count, err := counter.Incr(c.Request.Context(), key, cfg.Window)
		if err != nil {
			logger.FromContext(c, log).Warn("rate limiter error", zap.Error(err))
			if cfg.FailOpen {
				c.Next()
				return
			}
			response.Error(c, appErrors.New("RATE_LIMITER_UNAVAILABLE", http.StatusServiceUnavailable, "rate limiter unavailable"))
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(cfg.Limit) {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisWindowCounter shares windows across every API instance.
type RedisWindowCounter struct {
	rdb *redis.Client
}

// NewRedisWindowCounter wraps a Redis client.
func NewRedisWindowCounter(rdb *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{rdb: rdb}
}

// Incr runs the fixed-window script for key.
func (r *RedisWindowCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = time.Minute.Milliseconds()
	}
	res, err := redisFixedWindowScript.Run(ctx, r.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, err
	}
	return scriptCount(res)
}

func scriptCount(res interface{}) (int64, error) {
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

// MemoryWindowCounter is the single-instance fallback when Redis is not configured.
type MemoryWindowCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int64
	resetAt time.Time
}

// NewMemoryWindowCounter constructs an empty counter.
func NewMemoryWindowCounter() *MemoryWindowCounter {
	return &MemoryWindowCounter{windows: map[string]*window{}, now: time.Now}
}

// Incr counts one hit for key in its current window.
func (m *MemoryWindowCounter) Incr(_ context.Context, key string, length time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	w := m.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(length)}
		m.windows[key] = w
		m.sweep(now)
	}
	w.count++
	return w.count, nil
}

// sweep drops expired windows so idle clients do not accumulate.
func (m *MemoryWindowCounter) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
