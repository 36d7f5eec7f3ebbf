package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/reliefworks/donation-service/internal/domain/model"
	"github.com/reliefworks/donation-service/internal/usecase"
)

const testGoalCents = int64(10000000000)

func newMetricsHandlerTest(metricsRepo *MockMetricsRepository, donationRepo *MockDonationRepository) *MetricsHandler {
	logger := zap.NewNop()
	service := usecase.NewMetricsService(metricsRepo, donationRepo, nil, testGoalCents, logger)
	return NewMetricsHandler(service, logger)
}

func performMetricsGet(target string, handle echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handle(c)
	return rec
}

func TestMetricsHandler_GetSummary(t *testing.T) {
	metricsRepo := new(MockMetricsRepository)
	handler := newMetricsHandlerTest(metricsRepo, new(MockDonationRepository))

	metricsRepo.On("CampaignMetrics", mock.Anything).Return(&model.CampaignMetrics{
		TotalRaisedCents: 5000000000,
		DonorsCount:      1200,
	}, nil)

	rec := performMetricsGet("/api/v1/metrics/summary", handler.GetSummary)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, s-maxage=60, stale-while-revalidate=120", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"total_raised":"50000000.00"`)
}

func TestMetricsHandler_GetRecentDonations(t *testing.T) {
	t.Run("returns ticker entries with count", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		handler := newMetricsHandlerTest(new(MockMetricsRepository), donationRepo)

		donationRepo.On("RecentSucceeded", mock.Anything, 5).Return([]model.Donation{
			{
				AmountCents: 2500,
				Currency:    "USD",
				Frequency:   model.FrequencyOneTime,
				DonatedAt:   time.Now().UTC(),
				Donor:       &model.Donor{FirstName: "Sarah", LastName: "Johnson"},
			},
		}, nil)

		rec := performMetricsGet("/api/v1/metrics/recent-donations?limit=5", handler.GetRecentDonations)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "public, s-maxage=30, stale-while-revalidate=60", rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), `"count":1`)
		assert.Contains(t, rec.Body.String(), `"name":"Sarah J."`)
	})

	t.Run("rejects non-numeric limit", func(t *testing.T) {
		handler := newMetricsHandlerTest(new(MockMetricsRepository), new(MockDonationRepository))

		rec := performMetricsGet("/api/v1/metrics/recent-donations?limit=abc", handler.GetRecentDonations)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid limit parameter")
	})
}

func TestMetricsHandler_GetKPI(t *testing.T) {
	t.Run("returns snapshot for explicit date", func(t *testing.T) {
		metricsRepo := new(MockMetricsRepository)
		handler := newMetricsHandlerTest(metricsRepo, new(MockDonationRepository))

		date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
		metricsRepo.On("SnapshotByDate", mock.Anything, date).Return(&model.KPISnapshot{
			SnapshotDate:     date,
			TotalRaisedCents: 123456789,
		}, nil)

		rec := performMetricsGet("/api/v1/metrics/kpi?date=2026-08-27", handler.GetKPI)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "public, s-maxage=3600, stale-while-revalidate=7200", rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), `"snapshot_date":"2026-08-27"`)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		handler := newMetricsHandlerTest(new(MockMetricsRepository), new(MockDonationRepository))

		rec := performMetricsGet("/api/v1/metrics/kpi?date=27-08-2026", handler.GetKPI)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing snapshot yields 404", func(t *testing.T) {
		metricsRepo := new(MockMetricsRepository)
		handler := newMetricsHandlerTest(metricsRepo, new(MockDonationRepository))

		metricsRepo.On("SnapshotByDate", mock.Anything, mock.Anything).Return(nil, nil)

		rec := performMetricsGet("/api/v1/metrics/kpi?date=2026-01-01", handler.GetKPI)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No KPI snapshot found for this date")
	})
}

func TestMetricsHandler_GetLeaderboard(t *testing.T) {
	metricsRepo := new(MockMetricsRepository)
	handler := newMetricsHandlerTest(metricsRepo, new(MockDonationRepository))

	metricsRepo.On("Leaderboard", mock.Anything, 10).Return([]model.LeaderboardEntry{
		{ReferralCode: "AMB001", FirstName: "Sarah", LastName: "Johnson", TotalReferrals: 12, ConvertedReferrals: 8, TotalReferredCents: 250000},
	}, nil)

	rec := performMetricsGet("/api/v1/metrics/leaderboard", handler.GetLeaderboard)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, s-maxage=300, stale-while-revalidate=600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"rank":1`)
	assert.Contains(t, rec.Body.String(), `"name":"Sarah J."`)
}

func TestMetricsHandler_GetProgress(t *testing.T) {
	metricsRepo := new(MockMetricsRepository)
	handler := newMetricsHandlerTest(metricsRepo, new(MockDonationRepository))

	metricsRepo.On("CampaignMetrics", mock.Anything).Return(&model.CampaignMetrics{
		TotalRaisedCents: 5000000000,
		DonorsCount:      1200,
	}, nil)

	rec := performMetricsGet("/api/v1/metrics/progress", handler.GetProgress)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"percentage":"50.00"`)
	assert.Contains(t, rec.Body.String(), `"current":"$50,000,000"`)
	assert.Contains(t, rec.Body.String(), `"goal":"$100,000,000"`)
}

func TestMetricsHandler_NotFound(t *testing.T) {
	handler := newMetricsHandlerTest(new(MockMetricsRepository), new(MockDonationRepository))

	rec := performMetricsGet("/api/v1/metrics/unknown", handler.NotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/metrics/summary")
}
