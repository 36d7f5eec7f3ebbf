package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stripe/stripe-go/v79"
	handlers "github.com/reliefworks/donation-service/internal/adapter/handler/http"
	"github.com/reliefworks/donation-service/internal/config"
	"github.com/reliefworks/donation-service/internal/domain/repository"
	"github.com/reliefworks/donation-service/internal/infrastructure/database"
	"github.com/reliefworks/donation-service/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
	cache  repository.CacheRepository
}

// NewServer builds the HTTP server. cache may be nil, in which case metrics
// responses are served straight from the database.
func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories, cache repository.CacheRepository) *Server {
	e := echo.New()

	// Initialize Stripe
	stripe.Key = cfg.Service.StripeSecretKey

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	// Metrics endpoints are a public read surface consumed by static sites.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	e.Validator = NewValidator()

	return &Server{
		config: cfg,
		logger: logger,
		echo:   e,
		repos:  repos,
		cache:  cache,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize services
	ingestService := usecase.NewIngestService(s.repos.Donor, s.repos.Donation, s.repos.Referral, s.logger)
	metricsService := usecase.NewMetricsService(s.repos.Metrics, s.repos.Donation, s.cache, s.config.Fundraising.GoalCents, s.logger)

	// Initialize handlers
	stripeWebhookHandler := handlers.NewStripeWebhookHandler(ingestService, s.repos.Webhook, s.config.Service.StripeWebhookSecret, s.logger)
	donorboxWebhookHandler := handlers.NewDonorboxWebhookHandler(ingestService, s.repos.Webhook, s.config.Service.DonorboxWebhookSecret, s.logger)
	checkoutHandler := handlers.NewCheckoutHandler(s.logger, s.config.Service.ClientURL, s.config.Service.CampaignName)
	metricsHandler := handlers.NewMetricsHandler(metricsService, s.logger)

	// Webhook routes (outside API versioning)
	s.echo.POST("/webhooks/stripe", stripeWebhookHandler.HandleWebhook)
	s.echo.POST("/webhooks/donorbox", donorboxWebhookHandler.HandleWebhook)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	v1.POST("/checkout/session", checkoutHandler.CreateSession)

	metrics := v1.Group("/metrics")
	metrics.GET("/summary", metricsHandler.GetSummary)
	metrics.GET("/recent-donations", metricsHandler.GetRecentDonations)
	metrics.GET("/kpi", metricsHandler.GetKPI)
	metrics.GET("/leaderboard", metricsHandler.GetLeaderboard)
	metrics.GET("/progress", metricsHandler.GetProgress)
	metrics.GET("", metricsHandler.NotFound)
	metrics.GET("/*", metricsHandler.NotFound)
}
