package api

import (
	"math"
	"strconv"

	"OsloScan/internal/service/ratelimit"
	xhttp "OsloScan/pkg/http"
	xlogger "OsloScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RateLimit rejects requests once the client IP has no tokens left.
// A nil limiter disables limiting.
func RateLimit(l *ratelimit.Limiter, logger *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if l == nil {
			return next
		}
		return func(c echo.Context) error {
			key := c.RealIP()
			if l.Allow(key) {
				return next(c)
			}

			secs := int(math.Ceil(l.RetryAfter(key).Seconds()))
			if secs < 1 {
				secs = 1
			}
			logger.Debug("rate limited", xlogger.String("ip", key), xlogger.String("path", c.Path()))
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			return xhttp.AppErrorResponse(c, xhttp.RateLimitedError(secs))
		}
	}
}
