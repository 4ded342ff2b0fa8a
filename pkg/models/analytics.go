package models

import (
	"time"

	"github.com/google/uuid"
)

type CategoryStat struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// RecommendationMetrics summarises recommendation performance over a
// time window.
type RecommendationMetrics struct {
	TotalRecommendations int            `json:"total_recommendations"`
	ClickThroughRate     float64        `json:"click_through_rate"`
	ConversionRate       float64        `json:"conversion_rate"`
	AverageScore         float64        `json:"average_score"`
	TopCategories        []CategoryStat `json:"top_categories"`
	StartDate            time.Time      `json:"start_date"`
	EndDate              time.Time      `json:"end_date"`
}

// UserBehavior is the per-user analytics summary, including the derived
// engagement score in [0,1].
type UserBehavior struct {
	UserID             uuid.UUID          `json:"user_id"`
	TotalInteractions  int                `json:"total_interactions"`
	FavoriteCategories []string           `json:"favorite_categories"`
	FavoriteStyles     []string           `json:"favorite_styles"`
	EngagementScore    float64            `json:"engagement_score"`
	Summary            InteractionSummary `json:"summary"`
}
