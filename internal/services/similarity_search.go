package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/atelierlabs/muse/internal/config"
	"github.com/atelierlabs/muse/pkg/models"
)

const vectorPoolCacheKey = "similarity:vector_pool"

// DimensionMismatchError reports feature vectors whose length differs from
// the query vector. When ArtworkIDs is non-empty the error accompanies a
// partial result: the offending pool entries were excluded, everything else
// was searched normally.
type DimensionMismatchError struct {
	Expected   int
	Actual     int
	ArtworkIDs []uuid.UUID
}

func (e *DimensionMismatchError) Error() string {
	if len(e.ArtworkIDs) > 0 {
		return fmt.Sprintf("feature vector dimension mismatch: %d pool entries excluded (expected %d dimensions)",
			len(e.ArtworkIDs), e.Expected)
	}
	return fmt.Sprintf("query vector has %d dimensions, expected %d", e.Actual, e.Expected)
}

// SearchVectors computes cosine similarity between the query vector and every
// pool entry, keeps matches at or above threshold, and returns them sorted by
// descending similarity with stable tie-break by pool order, truncated to
// limit. An empty pool yields an empty result, not an error. Pool entries
// whose vector length differs from the query are excluded and reported via a
// *DimensionMismatchError alongside the remaining matches.
func SearchVectors(query []float64, pool []models.VectorEntry, threshold float64, limit int) ([]models.SimilarityMatch, error) {
	matches := []models.SimilarityMatch{}
	var mismatched []uuid.UUID

	for _, entry := range pool {
		if len(entry.Vector) != len(query) {
			mismatched = append(mismatched, entry.ArtworkID)
			continue
		}

		similarity := cosineSimilarity(query, entry.Vector)
		if similarity >= threshold {
			matches = append(matches, models.SimilarityMatch{
				ArtworkID:  entry.ArtworkID,
				Similarity: similarity,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	if len(mismatched) > 0 {
		return matches, &DimensionMismatchError{Expected: len(query), ArtworkIDs: mismatched}
	}
	return matches, nil
}

// cosineSimilarity returns the normalized dot product of two equal-length
// vectors in [-1, 1]. Zero vectors have no defined direction; treat as 0.
func cosineSimilarity(a, b []float64) float64 {
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}

// SimilaritySearchService serves nearest-neighbor queries over the artwork
// feature-vector pool, with a warm Redis cache in front of Postgres.
type SimilaritySearchService struct {
	db     DatabaseQuerier
	cache  *redis.Client
	cfg    config.SimilarityConfig
	ttl    time.Duration
	logger *logrus.Logger
}

func NewSimilaritySearchService(db DatabaseQuerier, cache *redis.Client, cfg *config.EngineConfig, logger *logrus.Logger) *SimilaritySearchService {
	return &SimilaritySearchService{
		db:     db,
		cache:  cache,
		cfg:    cfg.Similarity,
		ttl:    cfg.Caching.VectorPoolTTL,
		logger: logger,
	}
}

// SearchByVector runs a similarity search for an externally supplied query
// vector. The query must match the configured pool dimensionality; that is a
// hard error. Pool-side mismatches are logged and excluded without failing
// the search.
func (s *SimilaritySearchService) SearchByVector(ctx context.Context, features []float64, threshold *float64, limit int) ([]models.SimilarityMatch, error) {
	if len(features) != s.cfg.Dimensions {
		return nil, &DimensionMismatchError{Expected: s.cfg.Dimensions, Actual: len(features)}
	}

	pool, err := s.loadVectorPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector pool: %w", err)
	}

	return s.search(features, pool, threshold, limit, uuid.Nil)
}

// SearchByArtwork uses the stored feature vector of the seed artwork as the
// query and excludes the seed from the results.
func (s *SimilaritySearchService) SearchByArtwork(ctx context.Context, artworkID uuid.UUID, threshold *float64, limit int) ([]models.SimilarityMatch, error) {
	var features []float64
	query := `SELECT feature_vector FROM artworks WHERE id = $1 AND feature_vector IS NOT NULL`
	if err := s.db.QueryRow(ctx, query, artworkID).Scan(&features); err != nil {
		return nil, fmt.Errorf("failed to fetch seed artwork vector: %w", err)
	}

	pool, err := s.loadVectorPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector pool: %w", err)
	}

	return s.search(features, pool, threshold, limit, artworkID)
}

func (s *SimilaritySearchService) search(features []float64, pool []models.VectorEntry, threshold *float64, limit int, exclude uuid.UUID) ([]models.SimilarityMatch, error) {
	t := s.cfg.Threshold
	if threshold != nil {
		t = *threshold
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	if exclude != uuid.Nil {
		filtered := make([]models.VectorEntry, 0, len(pool))
		for _, entry := range pool {
			if entry.ArtworkID != exclude {
				filtered = append(filtered, entry)
			}
		}
		pool = filtered
	}

	matches, err := SearchVectors(features, pool, t, limit)
	var mismatch *DimensionMismatchError
	if errors.As(err, &mismatch) {
		s.logger.WithFields(logrus.Fields{
			"excluded_entries": len(mismatch.ArtworkIDs),
			"expected_dims":    mismatch.Expected,
		}).Warn("Excluded pool entries with mismatched vector dimensions")
		return matches, nil
	}
	return matches, err
}

func (s *SimilaritySearchService) loadVectorPool(ctx context.Context) ([]models.VectorEntry, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, vectorPoolCacheKey).Result(); err == nil {
			var pool []models.VectorEntry
			if err := json.Unmarshal([]byte(cached), &pool); err == nil {
				return pool, nil
			}
		}
	}

	query := `
		SELECT id, feature_vector
		FROM artworks
		WHERE is_public = true AND feature_vector IS NOT NULL
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []models.VectorEntry
	for rows.Next() {
		var entry models.VectorEntry
		if err := rows.Scan(&entry.ArtworkID, &entry.Vector); err != nil {
			return nil, err
		}
		pool = append(pool, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(pool); err == nil {
			s.cache.Set(ctx, vectorPoolCacheKey, data, s.ttl)
		}
	}

	return pool, nil
}
