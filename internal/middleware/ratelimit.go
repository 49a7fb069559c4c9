package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/ratelimit"
)

// RateLimitRule is one named limit shared by every request it applies to.
type RateLimitRule struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

// RateLimit limits requests per client IP. When the limiter itself fails the
// request is let through.
func RateLimit(limiter ratelimit.Limiter, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return rateLimit(limiter, rule, log, func(*gin.Context) bool { return true })
}

// WriteRateLimit applies rule only to requests that change state.
func WriteRateLimit(limiter ratelimit.Limiter, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return rateLimit(limiter, rule, log, isWrite)
}

func isWrite(c *gin.Context) bool {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func rateLimit(limiter ratelimit.Limiter, rule RateLimitRule, log zerolog.Logger, applies func(*gin.Context) bool) gin.HandlerFunc {
	log = log.With().Str("limiter", rule.Name).Logger()

	return func(c *gin.Context) {
		if !applies(c) {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		result, err := limiter.Allow(c.Request.Context(), rule.Name+":"+clientIP, rule.Limit, rule.Window)
		if err != nil {
			log.Error().Err(err).Str("client_ip", clientIP).Msg("rate limit check failed")
			c.Next()
			return
		}

		now := time.Now()
		c.Header("RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(result.RetryAfter(now)))

		if !result.Allowed {
			retryAfter := result.RetryAfter(now)
			log.Warn().
				Str("client_ip", clientIP).
				Int("limit", result.Limit).
				Time("reset_at", result.ResetAt).
				Msg("rate limit exceeded")

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			apperrors.TooManyRequests(c, rule.Message, retryAfter)
			return
		}

		c.Next()
	}
}
