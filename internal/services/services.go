package services

import (
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/config"
	"github.com/atelierlabs/muse/internal/database"
	"github.com/atelierlabs/muse/internal/messaging"
)

type Services struct {
	Health           *HealthService
	RateLimit        *RateLimitService
	MessageBus       *messaging.MessageBus
	Metrics          *MetricsCollector
	Engine           *RecommendationEngine
	UserProfile      *UserProfileService
	Recommendation   *RecommendationService
	SimilaritySearch *SimilaritySearchService
	Analytics        *AnalyticsService
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	healthService := NewHealthService(cfg, logger, db)
	rateLimitService := NewRateLimitService(cfg, logger, db.Redis.Hot)
	metrics := NewMetricsCollector()

	messageBus, err := messaging.NewMessageBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	engine, err := NewRecommendationEngine(&cfg.Engine, logger)
	if err != nil {
		return nil, err
	}

	userProfileService := NewUserProfileService(db.PG, logger)
	similaritySearchService := NewSimilaritySearchService(db.PG, db.Redis.Warm, &cfg.Engine, logger)
	analyticsService := NewAnalyticsService(db.PG, logger)

	recommendationService := NewRecommendationService(
		db.PG, db.Redis.Hot, engine, userProfileService, messageBus, metrics,
		&cfg.Engine, logger,
	)

	return &Services{
		Health:           healthService,
		RateLimit:        rateLimitService,
		MessageBus:       messageBus,
		Metrics:          metrics,
		Engine:           engine,
		UserProfile:      userProfileService,
		Recommendation:   recommendationService,
		SimilaritySearch: similaritySearchService,
		Analytics:        analyticsService,
	}, nil
}
