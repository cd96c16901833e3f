package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const rateLimitTimeout = 500 * time.Millisecond

// RateLimiter is a fixed-window limiter keyed by the authenticated user,
// falling back to the client address. It fails open: without a client or
// when redis errors, requests pass.
type RateLimiter struct {
	logger      zerolog.Logger
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

func NewRateLimiter(logger zerolog.Logger, client *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		logger:      logger,
		client:      client,
		maxRequests: maxRequests,
		window:      window,
	}
}

func (l *RateLimiter) Handle(c *gin.Context) {
	if l.client == nil {
		c.Next()
		return
	}

	ident := getUserID(c)
	if ident == "" {
		ident = "ip:" + c.ClientIP()
	}
	key := "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + ident

	ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitTimeout)
	defer cancel()

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn().
			Err(err).
			Msg("rate limiter unavailable")
		c.Header("X-RateLimit-Error", "redis-error")
		c.Next()
		return
	}
	if count == 1 {
		err = l.client.Expire(ctx, key, l.window).Err()
		if err != nil {
			l.logger.Warn().
				Err(err).
				Str("key", key).
				Msg("failed to set rate limit window")
		}
	}

	remaining := int64(l.maxRequests) - count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

	if count > int64(l.maxRequests) {
		rateLimitBlocked.WithLabelValues(c.FullPath()).Inc()
		abort(c, newAPIError(http.StatusTooManyRequests, "rate limit exceeded"))
		return
	}
	rateLimitRequests.WithLabelValues(c.FullPath()).Inc()
	c.Next()
}
