package services

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/config"
	"github.com/atelierlabs/muse/pkg/models"
)

// Scorer maps a (profile, candidate) pair to a score in [0, 1]. The three
// built-in scorers are pure; any replacement that panics is absorbed by the
// ranker's degraded fallback instead of reaching the caller.
type Scorer interface {
	Score(profile *models.UserProfile, artwork *models.Artwork) float64
}

// RankResult is the outcome of one ranking pass. Degraded marks batches
// produced by the shuffle fallback after a scoring failure; the list is
// still valid for display, just not personalized.
type RankResult struct {
	Recommendations []models.ArtworkRecommendation
	Degraded        bool
}

type RecommendationEngine struct {
	content       Scorer
	collaborative Scorer
	popularity    Scorer

	weights            config.ScoreWeights
	coldStartWeights   config.ScoreWeights
	coldStartThreshold float64

	rng    *rand.Rand
	logger *logrus.Logger
}

func NewRecommendationEngine(cfg *config.EngineConfig, logger *logrus.Logger) (*RecommendationEngine, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("default weights: %w", err)
	}
	if err := cfg.ColdStartWeights.Validate(); err != nil {
		return nil, fmt.Errorf("cold start weights: %w", err)
	}

	return &RecommendationEngine{
		content:            &ContentScorer{},
		collaborative:      &NeutralCollaborativeScorer{},
		popularity:         &PopularityScorer{Now: time.Now},
		weights:            cfg.Weights,
		coldStartWeights:   cfg.ColdStartWeights,
		coldStartThreshold: cfg.ColdStartThreshold,
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:             logger,
	}, nil
}

// RankCandidates scores every candidate, blends the signals with the weight
// triple selected for this profile, and returns the top candidates sorted by
// descending score with 1-based positions. Ties keep candidate order. A
// scoring failure never propagates; the batch degrades to a shuffled list at
// a uniform neutral score instead.
func (e *RecommendationEngine) RankCandidates(profile *models.UserProfile, candidates []*models.Artwork, limit int) RankResult {
	if len(candidates) == 0 {
		return RankResult{Recommendations: []models.ArtworkRecommendation{}}
	}
	if limit <= 0 {
		return RankResult{Recommendations: []models.ArtworkRecommendation{}}
	}

	scores, err := e.scoreCandidates(profile, candidates)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"user_id":    profile.UserID,
			"candidates": len(candidates),
			"error":      err.Error(),
		}).Warn("Scoring failed, falling back to shuffled candidates")
		return e.degradedFallback(candidates, limit)
	}

	recs := make([]models.ArtworkRecommendation, len(candidates))
	for i, artwork := range candidates {
		recs[i] = models.ArtworkRecommendation{
			Artwork: artwork,
			Score:   scores[i],
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	for i := range recs {
		recs[i].Position = i + 1
	}

	return RankResult{Recommendations: recs}
}

// scoreCandidates computes the blended score for every candidate. A panic in
// any scorer is converted to an error so the caller can degrade.
func (e *RecommendationEngine) scoreCandidates(profile *models.UserProfile, candidates []*models.Artwork) (scores []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			scores = nil
			err = fmt.Errorf("scorer panicked: %v", r)
		}
	}()

	weights := e.selectWeights(profile)
	scores = make([]float64, len(candidates))
	for i, artwork := range candidates {
		blended := weights.Content*e.content.Score(profile, artwork) +
			weights.Collaborative*e.collaborative.Score(profile, artwork) +
			weights.Popularity*e.popularity.Score(profile, artwork)
		scores[i] = clampScore(blended)
	}
	return scores, nil
}

// selectWeights picks the weight triple for one batch. Thin-history users
// lean on popularity; the boundary is inclusive on the default side.
func (e *RecommendationEngine) selectWeights(profile *models.UserProfile) config.ScoreWeights {
	if profile.ProfileStrength < e.coldStartThreshold {
		return e.coldStartWeights
	}
	return e.weights
}

// degradedFallback shuffles a copy of the candidate pool and serves the first
// limit entries at a uniform neutral score. Callers always get a usable list
// when candidates exist.
func (e *RecommendationEngine) degradedFallback(candidates []*models.Artwork, limit int) RankResult {
	shuffled := make([]*models.Artwork, len(candidates))
	copy(shuffled, candidates)
	e.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}

	recs := make([]models.ArtworkRecommendation, len(shuffled))
	for i, artwork := range shuffled {
		recs[i] = models.ArtworkRecommendation{
			Artwork:  artwork,
			Score:    neutralScore,
			Position: i + 1,
		}
	}

	return RankResult{Recommendations: recs, Degraded: true}
}

// neutralScore is the midpoint score used for unpersonalized signals: the
// collaborative placeholder and the degraded fallback.
const neutralScore = 0.5

// ContentScorer scores a candidate by how strongly its category and style
// show up in the user's liked artworks. Tag and feature-vector similarity
// terms are reserved extension points and contribute nothing yet; any future
// additive term stays behind the same [0, 1] clamp.
type ContentScorer struct{}

func (s *ContentScorer) Score(profile *models.UserProfile, artwork *models.Artwork) float64 {
	if profile.TotalLikes == 0 {
		return 0
	}

	total := float64(profile.TotalLikes)
	score := 0.0
	if artwork.Category != nil {
		score += 0.6 * float64(profile.PreferredCategories[*artwork.Category]) / total
	}
	if artwork.Style != nil {
		score += 0.4 * float64(profile.PreferredStyles[*artwork.Style]) / total
	}

	return clampScore(score)
}

// NeutralCollaborativeScorer is the collaborative placeholder. It returns
// the neutral midpoint for every candidate until a real model is plugged in
// behind the Scorer interface.
type NeutralCollaborativeScorer struct{}

func (s *NeutralCollaborativeScorer) Score(profile *models.UserProfile, artwork *models.Artwork) float64 {
	return neutralScore
}

// PopularityScorer favors recent and portfolio artworks. Only the tightest
// recency band applies.
type PopularityScorer struct {
	Now func() time.Time
}

func (s *PopularityScorer) Score(profile *models.UserProfile, artwork *models.Artwork) float64 {
	score := 0.5

	age := s.Now().Sub(artwork.CreatedAt)
	switch {
	case age < 30*24*time.Hour:
		score += 0.1
	case age < 90*24*time.Hour:
		score += 0.05
	}

	if artwork.IsPortfolio {
		score += 0.2
	}

	return clampScore(score)
}

func clampScore(score float64) float64 {
	return math.Max(0.0, math.Min(1.0, score))
}
