package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/response"
)

// RateLimitRecorder counts rejected requests.
type RateLimitRecorder interface {
	RecordRateLimited(scope string)
}

// RateLimiter is a fixed-window per-IP counter kept in Redis.
type RateLimiter struct {
	client   *redis.Client
	recorder RateLimitRecorder
	logger   *zap.Logger
}

// NewRateLimiter builds a limiter. A nil client disables limiting.
func NewRateLimiter(client *redis.Client, recorder RateLimitRecorder, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{client: client, recorder: recorder, logger: logger}
}

// Limit allows at most limit requests per client IP within window for the named scope.
// Redis errors let the request through.
func (rl *RateLimiter) Limit(scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.client == nil || limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s:%s", scope, c.ClientIP())

		count, err := rl.hit(ctx, key, window)
		if err != nil {
			rl.logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			if ttl, err := rl.client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			if rl.recorder != nil {
				rl.recorder.RecordRateLimited(scope)
			}
			response.Error(c, appErrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// hit increments the window counter and arms its expiry whenever the key has none,
// so a failed EXPIRE on an earlier request cannot leave the counter without a TTL.
func (rl *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := rl.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, err
	}
	if ttl.Val() < 0 {
		if err := rl.client.Expire(ctx, key, window).Err(); err != nil {
			rl.logger.Warn("rate limiter expire failed", zap.String("key", key), zap.Error(err))
		}
	}
	return incr.Val(), nil
}
