package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierlabs/muse/pkg/models"
)

func TestScoreEngagement(t *testing.T) {
	tests := []struct {
		name    string
		summary models.InteractionSummary
		want    float64
	}{
		{
			name: "typical history",
			summary: models.InteractionSummary{
				TotalLikes:           10,
				PositiveLikes:        6,
				TotalRecommendations: 10,
				TotalClicks:          3,
			},
			// 0.4*0.6 + 0.4*0.3 + 0.2*min(9/50, 1) = 0.396
			want: 0.396,
		},
		{
			name:    "no activity",
			summary: models.InteractionSummary{},
			want:    0.0,
		},
		{
			name: "all positive, saturated activity",
			summary: models.InteractionSummary{
				TotalLikes:           100,
				PositiveLikes:        100,
				TotalRecommendations: 100,
				TotalClicks:          100,
			},
			want: 1.0,
		},
		{
			name: "likes only",
			summary: models.InteractionSummary{
				TotalLikes:    5,
				PositiveLikes: 5,
			},
			want: 0.4 + 0.2*0.1,
		},
		{
			name: "dislikes drag the ratio but not activity",
			summary: models.InteractionSummary{
				TotalLikes:           20,
				PositiveLikes:        5,
				TotalRecommendations: 0,
				TotalClicks:          0,
			},
			want: 0.4*0.25 + 0.2*0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreEngagement(tt.summary)
			assert.InDelta(t, tt.want, score, 1e-9)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestScoreEngagement_WorkedExample(t *testing.T) {
	summary := models.InteractionSummary{
		TotalLikes:           10,
		PositiveLikes:        6,
		TotalRecommendations: 10,
		TotalClicks:          3,
	}
	// like_ratio 0.6, click_ratio 0.3, activity min(9/50,1)=0.18
	assert.InDelta(t, 0.396, ScoreEngagement(summary), 1e-9)
}

func TestAnalyticsService_GetUserBehavior(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	service := NewAnalyticsService(mockDB, testLogger())
	userID := uuid.New()

	summaryRows := pgxmock.NewRows([]string{"total_likes", "positive_likes", "total_recommendations", "total_clicks"}).
		AddRow(10, 6, 10, 3)
	mockDB.ExpectQuery("SELECT").WithArgs(userID).WillReturnRows(summaryRows)

	categoryRows := pgxmock.NewRows([]string{"category"}).
		AddRow("anime").
		AddRow("photography")
	mockDB.ExpectQuery("SELECT a.category").WithArgs(userID).WillReturnRows(categoryRows)

	styleRows := pgxmock.NewRows([]string{"style"}).
		AddRow("digital")
	mockDB.ExpectQuery("SELECT a.style").WithArgs(userID).WillReturnRows(styleRows)

	behavior, err := service.GetUserBehavior(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, userID, behavior.UserID)
	assert.Equal(t, 13, behavior.TotalInteractions)
	assert.Equal(t, []string{"anime", "photography"}, behavior.FavoriteCategories)
	assert.Equal(t, []string{"digital"}, behavior.FavoriteStyles)
	assert.InDelta(t, 0.396, behavior.EngagementScore, 1e-9)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestAnalyticsService_GetRecommendationMetrics(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	service := NewAnalyticsService(mockDB, testLogger())

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	aggregateRows := pgxmock.NewRows([]string{"count", "clicked", "converted", "avg_score"}).
		AddRow(200, 40, 10, 0.62)
	mockDB.ExpectQuery("SELECT").
		WithArgs(start, end, "v1.0").
		WillReturnRows(aggregateRows)

	categoryRows := pgxmock.NewRows([]string{"category", "count", "avg_score"}).
		AddRow("anime", 120, 0.7).
		AddRow("photography", 50, 0.55)
	mockDB.ExpectQuery("SELECT a.category").
		WithArgs(start, end, "v1.0").
		WillReturnRows(categoryRows)

	metrics, err := service.GetRecommendationMetrics(context.Background(), start, end, "v1.0")

	require.NoError(t, err)
	assert.Equal(t, 200, metrics.TotalRecommendations)
	assert.InDelta(t, 0.2, metrics.ClickThroughRate, 1e-9)
	assert.InDelta(t, 0.05, metrics.ConversionRate, 1e-9)
	assert.InDelta(t, 0.62, metrics.AverageScore, 1e-9)
	require.Len(t, metrics.TopCategories, 2)
	assert.Equal(t, "anime", metrics.TopCategories[0].Category)
	require.NoError(t, mockDB.ExpectationsWereMet())
}
