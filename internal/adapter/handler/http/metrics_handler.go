package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/reliefworks/donation-service/internal/usecase"
	"go.uber.org/zap"
)

// MetricsHandler serves the public campaign metrics endpoints. Responses are
// wrapped in a {success, data, timestamp} envelope and carry CDN-friendly
// Cache-Control headers.
type MetricsHandler struct {
	metricsService *usecase.MetricsService
	logger         *zap.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(metricsService *usecase.MetricsService, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		metricsService: metricsService,
		logger:         logger,
	}
}

// GetSummary returns the campaign-wide aggregates
func (h *MetricsHandler) GetSummary(c echo.Context) error {
	data, err := h.metricsService.Summary(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get metrics summary", zap.Error(err))
		return h.internalError(c)
	}

	c.Response().Header().Set("Cache-Control", "public, s-maxage=60, stale-while-revalidate=120")
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetRecentDonations returns the public donation ticker
func (h *MetricsHandler) GetRecentDonations(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "Invalid limit parameter",
			})
		}
		limit = parsed
	}

	data, err := h.metricsService.RecentDonations(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get recent donations", zap.Error(err))
		return h.internalError(c)
	}

	c.Response().Header().Set("Cache-Control", "public, s-maxage=30, stale-while-revalidate=60")
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"data":      data,
		"count":     len(data),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetKPI returns the stored snapshot for a date (default: today, UTC)
func (h *MetricsHandler) GetKPI(c echo.Context) error {
	date := time.Now().UTC()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "Invalid date parameter, expected YYYY-MM-DD",
			})
		}
		date = parsed
	}

	data, err := h.metricsService.KPI(c.Request().Context(), date)
	if err != nil {
		if errors.Is(err, usecase.ErrSnapshotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"success": false,
				"error":   "No KPI snapshot found for this date",
			})
		}
		h.logger.Error("Failed to get KPI snapshot", zap.Error(err))
		return h.internalError(c)
	}

	c.Response().Header().Set("Cache-Control", "public, s-maxage=3600, stale-while-revalidate=7200")
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetLeaderboard returns the ranked referral ambassadors
func (h *MetricsHandler) GetLeaderboard(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   "Invalid limit parameter",
			})
		}
		limit = parsed
	}

	data, err := h.metricsService.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get referral leaderboard", zap.Error(err))
		return h.internalError(c)
	}

	c.Response().Header().Set("Cache-Control", "public, s-maxage=300, stale-while-revalidate=600")
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"data":      data,
		"count":     len(data),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetProgress returns the fundraising thermometer
func (h *MetricsHandler) GetProgress(c echo.Context) error {
	data, err := h.metricsService.Progress(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get fundraising progress", zap.Error(err))
		return h.internalError(c)
	}

	c.Response().Header().Set("Cache-Control", "public, s-maxage=60, stale-while-revalidate=120")
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound lists the available metrics endpoints for unknown paths
func (h *MetricsHandler) NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{
		"success": false,
		"error":   "Unknown metrics endpoint",
		"endpoints": []string{
			"/api/v1/metrics/summary",
			"/api/v1/metrics/recent-donations",
			"/api/v1/metrics/kpi",
			"/api/v1/metrics/leaderboard",
			"/api/v1/metrics/progress",
		},
	})
}

func (h *MetricsHandler) internalError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"error":   "Internal server error",
	})
}
