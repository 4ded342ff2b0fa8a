package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback signal kinds accepted on the feedback endpoint.
const (
	FeedbackLike    = "like"
	FeedbackDislike = "dislike"
	FeedbackClick   = "click"
	FeedbackView    = "view"
)

// UserLike is the explicit like/dislike record for a (user, artwork) pair.
// The latest signal wins: recording feedback for an existing pair updates
// IsLike in place rather than appending.
type UserLike struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" validate:"required"`
	ArtworkID uuid.UUID `json:"artwork_id" db:"artwork_id" validate:"required"`
	IsLike    bool      `json:"is_like" db:"is_like"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LikedArtwork carries the artwork attributes needed to build a preference
// profile from a positive like.
type LikedArtwork struct {
	ArtworkID uuid.UUID `json:"artwork_id"`
	Category  *string   `json:"category,omitempty"`
	Style     *string   `json:"style,omitempty"`
	LikedAt   time.Time `json:"liked_at"`
}

// RecommendationRecord is the audit row written for every artwork served in
// a recommendation batch. Click/view flags are updated by feedback events;
// nothing else is mutated after creation.
type RecommendationRecord struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	ArtworkID        uuid.UUID  `json:"artwork_id" db:"artwork_id"`
	BatchID          uuid.UUID  `json:"batch_id" db:"batch_id"`
	AlgorithmVersion string     `json:"algorithm_version" db:"algorithm_version"`
	Position         int        `json:"position" db:"position"`
	Score            float64    `json:"score" db:"score"`
	WasClicked       bool       `json:"was_clicked" db:"was_clicked"`
	WasViewed        bool       `json:"was_viewed" db:"was_viewed"`
	ClickedAt        *time.Time `json:"clicked_at,omitempty" db:"clicked_at"`
	ViewedAt         *time.Time `json:"viewed_at,omitempty" db:"viewed_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

type FeedbackRequest struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	ArtworkID    uuid.UUID `json:"artwork_id" validate:"required"`
	FeedbackType string    `json:"feedback_type" validate:"required,oneof=like dislike click view"`
}

// InteractionSummary aggregates a user's interaction history for
// engagement scoring.
type InteractionSummary struct {
	TotalLikes           int `json:"total_likes"`
	PositiveLikes        int `json:"positive_likes"`
	TotalRecommendations int `json:"total_recommendations"`
	TotalClicks          int `json:"total_clicks"`
}
