package models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureVectorDimensions is the canonical length of artwork content
// feature vectors used by the similarity search pool.
const FeatureVectorDimensions = 512

type Artwork struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ArtistID      uuid.UUID `json:"artist_id" db:"artist_id"`
	Title         string    `json:"title" db:"title" validate:"required,min=1,max=255"`
	Category      *string   `json:"category,omitempty" db:"category"`
	Style         *string   `json:"style,omitempty" db:"style"`
	Tags          []string  `json:"tags,omitempty" db:"tags"`
	FeatureVector []float64 `json:"-" db:"feature_vector"`
	IsPortfolio   bool      `json:"is_portfolio" db:"is_portfolio"`
	IsPublic      bool      `json:"is_public" db:"is_public"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// VectorEntry is one element of a similarity search pool.
type VectorEntry struct {
	ArtworkID uuid.UUID `json:"artwork_id"`
	Vector    []float64 `json:"vector"`
}

// SimilarityMatch is a single similarity search hit. Similarity is a
// cosine similarity in [-1, 1].
type SimilarityMatch struct {
	ArtworkID  uuid.UUID `json:"artwork_id"`
	Similarity float64   `json:"similarity"`
}

type SimilaritySearchRequest struct {
	Features  []float64 `json:"features" validate:"required"`
	Threshold *float64  `json:"threshold,omitempty" validate:"omitempty,min=-1,max=1"`
	Limit     int       `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

type SimilaritySearchResponse struct {
	Matches     []SimilarityMatch `json:"matches"`
	GeneratedAt time.Time         `json:"generated_at"`
}
