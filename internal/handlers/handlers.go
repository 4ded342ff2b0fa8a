package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Similarity     *SimilarityHandler
	Analytics      *AnalyticsHandler
}

func New(logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.Recommendation, logger),
		Similarity:     NewSimilarityHandler(services.SimilaritySearch, services.Metrics, logger),
		Analytics:      NewAnalyticsHandler(services.Analytics, logger),
	}
}
