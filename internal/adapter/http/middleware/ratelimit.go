package middleware

import (
	"fmt"
	"strconv"
	"time"

	"offline-pay/config"
	redisStore "offline-pay/internal/adapter/storage/redis"
	"offline-pay/pkg/apperror"
	"offline-pay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// RateLimitRules returns per-group limits. The sync group (the hot path,
// every device submits through it) is tunable via config; the rest are fixed.
func RateLimitRules(cfg config.RateLimitConfig) map[string]RateLimitRule {
	syncRule := RateLimitRule{Limit: int64(cfg.Requests), Window: cfg.Window}
	if syncRule.Limit <= 0 {
		syncRule = RateLimitRule{Limit: 60, Window: time.Minute}
	}
	return map[string]RateLimitRule{
		"sync":     syncRule,
		"wallets":  {Limit: 30, Window: time.Minute},
		"preload":  {Limit: 20, Window: time.Minute},
		"receipts": {Limit: 60, Window: time.Minute},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := extractIdentifier(c)
		key := fmt.Sprintf("%s:%s", identifier, group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier determines the rate limit key source. Authenticated
// requests are keyed by device, anonymous ones by client IP.
func extractIdentifier(c *gin.Context) string {
	if did, exists := c.Get(CtxDeviceID); exists {
		return fmt.Sprintf("%v", did)
	}
	return c.ClientIP()
}
