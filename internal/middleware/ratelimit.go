package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/devconnect/backend/internal/metrics"
)

// Atomic INCR that starts the window on the first hit.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// rateLimitKey limits per authenticated user, falling back to client IP.
func rateLimitKey(c echo.Context) string {
	if id, ok := CurrentUserID(c); ok {
		return "rl:user:" + id.Hex()
	}
	return "rl:ip:" + c.RealIP()
}

// RateLimit caps write requests (anything but GET, HEAD and OPTIONS) to max
// per window. When Redis is unavailable requests are let through.
func RateLimit(rdb *redis.Client, max int, window time.Duration, logger logrus.FieldLogger) echo.MiddlewareFunc {
	if rdb == nil || max <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			ctx := c.Request().Context()
			key := rateLimitKey(c)

			count, err := incrExpireScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int()
			if err != nil {
				metrics.RedisErrorsTotal.WithLabelValues("rate_limit").Inc()
				logger.WithError(err).Warn("rate limiter unavailable, allowing request")
				return next(c)
			}

			ttl, err := rdb.PTTL(ctx, key).Result()
			if err != nil {
				metrics.RedisErrorsTotal.WithLabelValues("rate_limit_ttl").Inc()
				logger.WithError(err).Warn("rate limiter could not read window ttl")
			}
			resetSec := 0
			if ttl > 0 {
				resetSec = int((ttl + time.Second - 1) / time.Second)
			}
			remaining := max - count
			if remaining < 0 {
				remaining = 0
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if count > max {
				if resetSec > 0 {
					h.Set("Retry-After", strconv.Itoa(resetSec))
				}
				metrics.RateLimitedTotal.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
