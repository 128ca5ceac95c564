package middleware

import (
	"errors"
	"strconv"
	"sync"
	"time"

	applogger "OsloScan/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "osloscan_http_requests_total",
		Help: "HTTP requests by route template, method and status.",
	}, []string{"route", "method", "status"})

	// screener requests can take tens of seconds, hence the long tail buckets
	requestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "osloscan_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"route", "method", "class"})

	inFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "osloscan_http_in_flight_requests",
		Help: "Requests currently being served.",
	}, []string{"route"})

	responseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "osloscan_http_response_size_bytes",
		Help:    "Response body size.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 7),
	}, []string{"route", "class"})

	registerOnce sync.Once
)

// Metrics records request metrics labelled by the route template
// (c.Path()), never the raw URL. Server errors are logged at error level
// and requests slower than slow at warn.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, requestSeconds, inFlight, responseBytes)
	})
	if l == nil {
		l = applogger.Nop()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			gauge := inFlight.WithLabelValues(route)
			gauge.Inc()
			start := time.Now()

			err := next(c)

			gauge.Dec()
			elapsed := time.Since(start)
			code := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}
			class := statusClass(code)

			requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			requestSeconds.WithLabelValues(route, method, class).Observe(elapsed.Seconds())
			responseBytes.WithLabelValues(route, class).Observe(float64(c.Response().Size))

			switch {
			case code >= 500:
				l.Error("http request failed", requestFields(route, method, code, elapsed)...)
			case slow > 0 && elapsed >= slow:
				l.Warn("http request slow", requestFields(route, method, code, elapsed)...)
			}
			return err
		}
	}
}

func requestFields(route, method string, code int, d time.Duration) []applogger.Field {
	return []applogger.Field{
		applogger.String("route", route),
		applogger.String("method", method),
		applogger.Int("status", code),
		applogger.Duration("duration_ms", d),
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
