package middleware

import (
	"time"

	"OsloScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests.
func RequestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.Info("http request",
				logger.String("method", req.Method),
				logger.String("uri", req.RequestURI),
				logger.String("remote_ip", c.RealIP()),
				logger.Int("status", res.Status),
				logger.Int64("bytes", res.Size),
				logger.Duration("latency_ms", time.Since(start)),
			)

			return nil
		}
	}
}
