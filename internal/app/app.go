package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/config"
	"github.com/atelierlabs/muse/internal/database"
	"github.com/atelierlabs/muse/internal/handlers"
	"github.com/atelierlabs/muse/internal/middleware"
	"github.com/atelierlabs/muse/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	// Initialize database connections
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	// Initialize services
	services, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	// Initialize handlers
	app.handlers = handlers.New(app.logger, services)

	// Setup router
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if err := a.services.MessageBus.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing message bus")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health check endpoint
	router.GET("/health", a.handlers.Health.Check)

	// Prometheus metrics endpoint
	if a.config.Monitoring.Enabled {
		router.GET(a.config.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	// API routes
	api := router.Group("/api/v1")
	{
		api.Use(middleware.RateLimit(a.services.RateLimit, a.logger))

		// Recommendation routes
		recommendations := api.Group("/recommendations")
		{
			recommendations.POST("/artworks", a.handlers.Recommendation.GetArtworks)
			recommendations.GET("/trending", a.handlers.Recommendation.GetTrending)
			recommendations.POST("/feedback", a.handlers.Recommendation.PostFeedback)
		}

		// Similarity routes
		artworks := api.Group("/artworks")
		{
			artworks.POST("/similar", a.handlers.Similarity.SearchByVector)
			artworks.GET("/:artworkId/similar", a.handlers.Similarity.SearchByArtwork)
		}

		// Analytics routes
		analytics := api.Group("/analytics")
		{
			analytics.GET("/recommendations/performance", a.handlers.Analytics.GetRecommendationPerformance)
			analytics.GET("/users/:userId/behavior", a.handlers.Analytics.GetUserBehavior)
		}
	}

	a.router = router
}
