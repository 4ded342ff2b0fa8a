package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtworkRecommendation is one ranked entry of a recommendation batch.
// Position is 1-based within the batch.
type ArtworkRecommendation struct {
	Artwork  *Artwork `json:"artwork"`
	Score    float64  `json:"score"`
	Position int      `json:"position"`
	Reason   string   `json:"reason,omitempty"`
}

type RecommendationRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	Limit    int       `json:"limit" validate:"omitempty,min=1,max=100"`
	Category *string   `json:"category,omitempty"`
	Style    *string   `json:"style,omitempty"`
}

type RecommendationResponse struct {
	UserID           uuid.UUID               `json:"user_id"`
	BatchID          uuid.UUID               `json:"batch_id"`
	AlgorithmVersion string                  `json:"algorithm_version"`
	Recommendations  []ArtworkRecommendation `json:"recommendations"`
	Degraded         bool                    `json:"degraded"`
	GeneratedAt      time.Time               `json:"generated_at"`
	CacheHit         bool                    `json:"cache_hit"`
}

type TrendingResponse struct {
	Recommendations []ArtworkRecommendation `json:"recommendations"`
	GeneratedAt     time.Time               `json:"generated_at"`
}
