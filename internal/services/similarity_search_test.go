package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierlabs/muse/pkg/models"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0.0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSearchVectors(t *testing.T) {
	idA := uuid.New()
	idB := uuid.New()
	idC := uuid.New()

	pool := []models.VectorEntry{
		{ArtworkID: idA, Vector: []float64{1, 0}},
		{ArtworkID: idB, Vector: []float64{0, 1}},
		{ArtworkID: idC, Vector: []float64{0.9, 0.1}},
	}

	t.Run("threshold filter and descending order", func(t *testing.T) {
		matches, err := SearchVectors([]float64{1, 0}, pool, 0.8, 10)

		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, idA, matches[0].ArtworkID)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
		assert.Equal(t, idC, matches[1].ArtworkID)
		assert.InDelta(t, 0.9939, matches[1].Similarity, 1e-3)
	})

	t.Run("no match below threshold", func(t *testing.T) {
		for _, match := range mustSearch(t, []float64{1, 0}, pool, 0.8, 10) {
			assert.GreaterOrEqual(t, match.Similarity, 0.8)
		}
	})

	t.Run("truncates to limit", func(t *testing.T) {
		matches, err := SearchVectors([]float64{1, 0}, pool, -1, 2)
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("empty pool returns empty result", func(t *testing.T) {
		matches, err := SearchVectors([]float64{1, 0}, nil, 0.8, 10)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("dimension mismatch excludes only the bad entry", func(t *testing.T) {
		badID := uuid.New()
		mixed := append([]models.VectorEntry{
			{ArtworkID: badID, Vector: []float64{1, 0, 0}},
		}, pool...)

		matches, err := SearchVectors([]float64{1, 0}, mixed, 0.8, 10)

		var mismatch *DimensionMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, []uuid.UUID{badID}, mismatch.ArtworkIDs)
		assert.Equal(t, 2, mismatch.Expected)

		require.Len(t, matches, 2)
		assert.Equal(t, idA, matches[0].ArtworkID)
		assert.Equal(t, idC, matches[1].ArtworkID)
	})

	t.Run("stable tie break by pool order", func(t *testing.T) {
		dup1 := uuid.New()
		dup2 := uuid.New()
		tied := []models.VectorEntry{
			{ArtworkID: dup1, Vector: []float64{2, 0}},
			{ArtworkID: dup2, Vector: []float64{3, 0}},
		}

		matches, err := SearchVectors([]float64{1, 0}, tied, 0.8, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, dup1, matches[0].ArtworkID)
		assert.Equal(t, dup2, matches[1].ArtworkID)
	})
}

func mustSearch(t *testing.T, query []float64, pool []models.VectorEntry, threshold float64, limit int) []models.SimilarityMatch {
	t.Helper()
	matches, err := SearchVectors(query, pool, threshold, limit)
	require.NoError(t, err)
	return matches
}

func TestDimensionMismatchError_Error(t *testing.T) {
	queryErr := &DimensionMismatchError{Expected: 512, Actual: 3}
	assert.Contains(t, queryErr.Error(), "512")
	assert.Contains(t, queryErr.Error(), "3")

	poolErr := &DimensionMismatchError{Expected: 2, ArtworkIDs: []uuid.UUID{uuid.New()}}
	assert.Contains(t, poolErr.Error(), "1 pool entries excluded")
}

func TestSimilaritySearchService_SearchByVector_QueryDimensionMismatch(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Similarity.Dimensions = 512
	cfg.Similarity.Threshold = 0.8
	cfg.Similarity.DefaultLimit = 10

	service := NewSimilaritySearchService(nil, nil, cfg, testLogger())

	_, err := service.SearchByVector(context.Background(), []float64{1, 0}, nil, 10)

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 512, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Actual)
}
