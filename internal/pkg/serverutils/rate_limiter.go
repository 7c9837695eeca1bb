package serverutils

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per client key. A bucket left idle for
// the idle TTL is evicted and starts full on the client's next request.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return newRateLimiter(perSecond, burst, limiterIdleTTL)
}

func newRateLimiter(perSecond float64, burst int, idle time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: cache.New(idle, 2*idle),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// Re-set on every hit so the idle TTL slides.
	l.limiters.Set(key, limiter, cache.DefaultExpiration)
	return limiter.(*rate.Limiter)
}

// Middleware rejects a client with 429 once its bucket is empty. A
// non-positive rate lets every request through.
func (l *RateLimiter) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if l.limit <= 0 {
			return ctx.Next()
		}
		if !l.limiter(ctx.IP()).Allow() {
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(ErrorResponse(fiber.StatusTooManyRequests, "Too many requests, slow down"))
		}
		return ctx.Next()
	}
}
