package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"OsloScan/internal/domain/models"
	"OsloScan/internal/service/ratelimit"
	"OsloScan/internal/usecase"
	xhttp "OsloScan/pkg/http"
	xlogger "OsloScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Screener runs screener requests. Implemented by usecase.ScreenerUseCase.
type Screener interface {
	Scan(ctx context.Context, source string, req *models.ScreenerRequest, fn usecase.ProgressFunc) (*models.ScreenerReport, error)
}

// Indicators serves indicator snapshots. Implemented by usecase.IndicatorsUseCase.
type Indicators interface {
	Snapshot(ctx context.Context, ticker string) (*models.IndicatorSnapshot, error)
}

// HealthInfo is reported as-is by /health.
type HealthInfo struct {
	TalibAvailable bool
	Engine         string
	Provider       string
}

type healthResponse struct {
	Status         string `json:"status"`
	TalibAvailable bool   `json:"talib_available"`
	Engine         string `json:"engine"`
	Provider       string `json:"provider"`
}

// Handler serves the screener API.
type Handler struct {
	logger     *xlogger.Logger
	screener   Screener
	indicators Indicators
	health     HealthInfo
	limiter    *ratelimit.Limiter
}

func NewHandler(logger *xlogger.Logger, screener Screener, indicators Indicators, health HealthInfo, limiter *ratelimit.Limiter) *Handler {
	return &Handler{
		logger:     logger,
		screener:   screener,
		indicators: indicators,
		health:     health,
		limiter:    limiter,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	limited := RateLimit(h.limiter, h.logger)

	e.GET("/health", h.Health)
	e.GET("/indicators/:ticker", h.Indicators)
	e.POST("/screener", h.Screener, limited)
	e.GET("/ws/screener", h.ScreenerWS, limited)
}

func (h *Handler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, healthResponse{
		Status:         "healthy",
		TalibAvailable: h.health.TalibAvailable,
		Engine:         h.health.Engine,
		Provider:       h.health.Provider,
	})
}

func (h *Handler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}
	ticker := strings.TrimSpace(req.Ticker)
	if ticker == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ticker is required"))
	}

	res, err := h.indicators.Snapshot(c.Request().Context(), ticker)
	if err != nil {
		return h.snapshotError(c, ticker, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) snapshotError(c echo.Context, ticker string, err error) error {
	switch {
	case errors.Is(err, models.ErrNoDataAvailable):
		return xhttp.AppErrorResponse(c, xhttp.NoDataError(ticker))
	case errors.Is(err, models.ErrUpstream):
		h.logger.Warn("indicators upstream error", xlogger.String("ticker", ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UpstreamError(err))
	default:
		h.logger.Error("indicators usecase error", xlogger.String("ticker", ticker), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}

func (h *Handler) Screener(c echo.Context) error {
	req := &models.ScreenerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	res, err := h.screener.Scan(c.Request().Context(), "http", req, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// client went away
			return c.NoContent(499)
		}
		h.logger.Error("screener usecase error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.JSONResponse(c, http.StatusOK, res)
}
