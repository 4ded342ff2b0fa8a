package services

import (
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierlabs/muse/internal/config"
	"github.com/atelierlabs/muse/pkg/models"
)

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		AlgorithmVersion: "v1.0",
		Weights: config.ScoreWeights{
			Content:       0.5,
			Collaborative: 0.3,
			Popularity:    0.2,
		},
		ColdStartWeights: config.ScoreWeights{
			Content:       0.3,
			Collaborative: 0.2,
			Popularity:    0.5,
		},
		ColdStartThreshold: 0.3,
		CandidateOverFetch: 3,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEngine(t *testing.T) *RecommendationEngine {
	t.Helper()
	engine, err := NewRecommendationEngine(testEngineConfig(), testLogger())
	require.NoError(t, err)
	engine.rng = rand.New(rand.NewSource(1))
	return engine
}

func strPtr(s string) *string {
	return &s
}

func TestNewRecommendationEngine_RejectsInvalidWeights(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Weights.Content = 0.6 // sum is now 1.1

	_, err := NewRecommendationEngine(cfg, testLogger())
	assert.Error(t, err)
}

func TestScoreWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights config.ScoreWeights
		wantErr bool
	}{
		{"default triple", config.ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}, false},
		{"cold start triple", config.ScoreWeights{Content: 0.3, Collaborative: 0.2, Popularity: 0.5}, false},
		{"within tolerance", config.ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2 + 5e-10}, false},
		{"sums to 0.9", config.ScoreWeights{Content: 0.4, Collaborative: 0.3, Popularity: 0.2}, true},
		{"sums to 1.1", config.ScoreWeights{Content: 0.6, Collaborative: 0.3, Popularity: 0.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContentScorer_Score(t *testing.T) {
	scorer := &ContentScorer{}

	profile := &models.UserProfile{
		PreferredCategories: map[string]int{"anime": 8},
		PreferredStyles:     map[string]int{"digital": 5},
		TotalLikes:          10,
	}

	t.Run("category match only", func(t *testing.T) {
		artwork := &models.Artwork{Category: strPtr("anime")}
		assert.InDelta(t, 0.48, scorer.Score(profile, artwork), 1e-9)
	})

	t.Run("category and style match", func(t *testing.T) {
		artwork := &models.Artwork{Category: strPtr("anime"), Style: strPtr("digital")}
		assert.InDelta(t, 0.48+0.2, scorer.Score(profile, artwork), 1e-9)
	})

	t.Run("no match", func(t *testing.T) {
		artwork := &models.Artwork{Category: strPtr("photography"), Style: strPtr("noir")}
		assert.Equal(t, 0.0, scorer.Score(profile, artwork))
	})

	t.Run("nil category and style", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Score(profile, &models.Artwork{}))
	})

	t.Run("empty profile", func(t *testing.T) {
		empty := &models.UserProfile{
			PreferredCategories: map[string]int{},
			PreferredStyles:     map[string]int{},
		}
		artwork := &models.Artwork{Category: strPtr("anime")}
		assert.Equal(t, 0.0, scorer.Score(empty, artwork))
	})

	t.Run("clamped to 1", func(t *testing.T) {
		// Every like shares one category and style, so the raw sum is exactly 1.
		saturated := &models.UserProfile{
			PreferredCategories: map[string]int{"anime": 10},
			PreferredStyles:     map[string]int{"digital": 10},
			TotalLikes:          10,
		}
		artwork := &models.Artwork{Category: strPtr("anime"), Style: strPtr("digital")}
		score := scorer.Score(saturated, artwork)
		assert.LessOrEqual(t, score, 1.0)
		assert.InDelta(t, 1.0, score, 1e-9)
	})
}

func TestNeutralCollaborativeScorer_Score(t *testing.T) {
	scorer := &NeutralCollaborativeScorer{}
	assert.Equal(t, 0.5, scorer.Score(&models.UserProfile{}, &models.Artwork{}))
	assert.Equal(t, 0.5, scorer.Score(nil, &models.Artwork{}))
}

func TestPopularityScorer_Score(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	scorer := &PopularityScorer{Now: func() time.Time { return now }}

	tests := []struct {
		name      string
		ageDays   int
		portfolio bool
		want      float64
	}{
		{"recent", 10, false, 0.6},
		{"recent portfolio", 10, true, 0.8},
		{"mid age", 50, false, 0.55},
		{"mid age portfolio", 50, true, 0.75},
		{"old", 200, false, 0.5},
		{"old portfolio", 200, true, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artwork := &models.Artwork{
				CreatedAt:   now.AddDate(0, 0, -tt.ageDays),
				IsPortfolio: tt.portfolio,
			}
			assert.InDelta(t, tt.want, scorer.Score(nil, artwork), 1e-9)
		})
	}
}

func TestRecommendationEngine_SelectWeights(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("cold start below threshold", func(t *testing.T) {
		profile := &models.UserProfile{ProfileStrength: 0.29}
		weights := engine.selectWeights(profile)
		assert.Equal(t, config.ScoreWeights{Content: 0.3, Collaborative: 0.2, Popularity: 0.5}, weights)
	})

	t.Run("default at threshold", func(t *testing.T) {
		profile := &models.UserProfile{ProfileStrength: 0.3}
		weights := engine.selectWeights(profile)
		assert.Equal(t, config.ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}, weights)
	})

	t.Run("default above threshold", func(t *testing.T) {
		profile := &models.UserProfile{ProfileStrength: 1.0}
		weights := engine.selectWeights(profile)
		assert.Equal(t, config.ScoreWeights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}, weights)
	})
}

func TestRecommendationEngine_RankCandidates(t *testing.T) {
	engine := newTestEngine(t)

	profile := &models.UserProfile{
		UserID:              uuid.New(),
		PreferredCategories: map[string]int{"anime": 8},
		PreferredStyles:     map[string]int{"digital": 5},
		TotalLikes:          10,
		ProfileStrength:     1.0,
	}

	now := time.Now()
	makeArtwork := func(category string, ageDays int, portfolio bool) *models.Artwork {
		return &models.Artwork{
			ID:          uuid.New(),
			Category:    strPtr(category),
			CreatedAt:   now.AddDate(0, 0, -ageDays),
			IsPortfolio: portfolio,
		}
	}

	t.Run("sorted descending with positions", func(t *testing.T) {
		candidates := []*models.Artwork{
			makeArtwork("photography", 200, false),
			makeArtwork("anime", 10, true),
			makeArtwork("anime", 200, false),
		}

		result := engine.RankCandidates(profile, candidates, 10)

		require.False(t, result.Degraded)
		require.Len(t, result.Recommendations, 3)
		for i, rec := range result.Recommendations {
			assert.Equal(t, i+1, rec.Position)
			assert.GreaterOrEqual(t, rec.Score, 0.0)
			assert.LessOrEqual(t, rec.Score, 1.0)
			if i > 0 {
				assert.LessOrEqual(t, rec.Score, result.Recommendations[i-1].Score)
			}
		}
		assert.Equal(t, candidates[1].ID, result.Recommendations[0].Artwork.ID)
	})

	t.Run("truncates to limit", func(t *testing.T) {
		candidates := []*models.Artwork{
			makeArtwork("anime", 10, false),
			makeArtwork("anime", 20, false),
			makeArtwork("anime", 40, false),
			makeArtwork("anime", 50, false),
		}

		result := engine.RankCandidates(profile, candidates, 2)

		require.Len(t, result.Recommendations, 2)
		assert.Equal(t, 1, result.Recommendations[0].Position)
		assert.Equal(t, 2, result.Recommendations[1].Position)
	})

	t.Run("stable tie break keeps candidate order", func(t *testing.T) {
		first := makeArtwork("anime", 10, false)
		second := makeArtwork("anime", 10, false)
		third := makeArtwork("anime", 10, false)

		result := engine.RankCandidates(profile, []*models.Artwork{first, second, third}, 10)

		require.Len(t, result.Recommendations, 3)
		assert.Equal(t, first.ID, result.Recommendations[0].Artwork.ID)
		assert.Equal(t, second.ID, result.Recommendations[1].Artwork.ID)
		assert.Equal(t, third.ID, result.Recommendations[2].Artwork.ID)
	})

	t.Run("empty candidate pool", func(t *testing.T) {
		result := engine.RankCandidates(profile, nil, 10)
		assert.False(t, result.Degraded)
		assert.Empty(t, result.Recommendations)
	})

	t.Run("shorter pool than limit", func(t *testing.T) {
		candidates := []*models.Artwork{makeArtwork("anime", 10, false)}
		result := engine.RankCandidates(profile, candidates, 10)
		assert.Len(t, result.Recommendations, 1)
	})
}

type panickingScorer struct{}

func (s *panickingScorer) Score(profile *models.UserProfile, artwork *models.Artwork) float64 {
	panic("model unavailable")
}

func TestRecommendationEngine_DegradedFallback(t *testing.T) {
	engine := newTestEngine(t)
	engine.collaborative = &panickingScorer{}

	profile := &models.UserProfile{
		UserID:              uuid.New(),
		PreferredCategories: map[string]int{},
		PreferredStyles:     map[string]int{},
		ProfileStrength:     1.0,
	}

	candidates := make([]*models.Artwork, 5)
	for i := range candidates {
		candidates[i] = &models.Artwork{ID: uuid.New(), CreatedAt: time.Now()}
	}

	result := engine.RankCandidates(profile, candidates, 3)

	assert.True(t, result.Degraded)
	require.Len(t, result.Recommendations, 3)
	for i, rec := range result.Recommendations {
		assert.Equal(t, 0.5, rec.Score)
		assert.Equal(t, i+1, rec.Position)
	}
}
