package http

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/auth"
	apperrors "github.com/spec-kit/contacts-service/pkg/util/errorutil"
)

// Counter is the part of the go-redis client the limiter uses. *redis.Client satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter enforces fixed-window request quotas per caller in Redis.
// When Redis is unavailable requests are let through.
type RateLimiter struct {
	counter Counter
	logger  *zap.Logger
	now     func() time.Time
}

// NewRateLimiter constructs a limiter. A nil counter disables limiting.
func NewRateLimiter(counter Counter, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{counter: counter, logger: logger, now: time.Now}
}

// Limit allows max requests per window for the named bucket. The caller is
// the resolved user when present, otherwise the client IP.
func (l *RateLimiter) Limit(bucket string, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil || l.counter == nil {
			return c.Next()
		}

		caller := "ip:" + c.IP()
		if user, ok := auth.UserFromContext(c); ok {
			caller = "user:" + user.ID
		}
		slot := l.now().UnixNano() / int64(window)
		key := fmt.Sprintf("ratelimit:%s:%s:%d", bucket, caller, slot)

		ctx := c.UserContext()
		count, err := l.counter.Incr(ctx, key).Result()
		if err != nil {
			l.logger.Warn("rate limiter unavailable; allowing request", zap.String("bucket", bucket), zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := l.counter.Expire(ctx, key, window).Err(); err != nil {
				l.logger.Warn("rate limiter expire failed", zap.String("key", key), zap.Error(err))
			}
		}

		remaining := int64(max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(max))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(max) {
			retry := window - time.Duration(l.now().UnixNano()%int64(window))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry.Seconds())+1))
			return apperrors.NewTooManyRequests("Too many requests")
		}
		return c.Next()
	}
}
