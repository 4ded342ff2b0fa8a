package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/pkg/models"
)

// ScoreEngagement folds a user's interaction history into one engagement
// metric in [0, 1]: 40% like ratio, 40% click-through ratio, 20% activity
// volume saturating at 50 combined positive likes and clicks. Pure and
// deterministic.
func ScoreEngagement(summary models.InteractionSummary) float64 {
	likeRatio := 0.0
	if summary.TotalLikes > 0 {
		likeRatio = float64(summary.PositiveLikes) / float64(summary.TotalLikes)
	}

	clickRatio := 0.0
	if summary.TotalRecommendations > 0 {
		clickRatio = float64(summary.TotalClicks) / float64(summary.TotalRecommendations)
	}

	activityLevel := math.Min(float64(summary.PositiveLikes+summary.TotalClicks)/50.0, 1.0)

	return 0.4*likeRatio + 0.4*clickRatio + 0.2*activityLevel
}

type AnalyticsService struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewAnalyticsService(db DatabaseQuerier, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		db:     db,
		logger: logger,
	}
}

// GetRecommendationMetrics aggregates recommendation performance over a time
// window: click-through rate, conversion rate (recommended artworks the user
// went on to like), average served score, and the top categories served.
func (s *AnalyticsService) GetRecommendationMetrics(ctx context.Context, startDate, endDate time.Time, algorithmVersion string) (*models.RecommendationMetrics, error) {
	metrics := &models.RecommendationMetrics{
		StartDate: startDate,
		EndDate:   endDate,
	}

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE r.was_clicked),
			COUNT(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM user_likes ul
				WHERE ul.user_id = r.user_id AND ul.artwork_id = r.artwork_id
				AND ul.is_like = true AND ul.updated_at >= r.created_at
			)),
			COALESCE(AVG(r.score), 0)
		FROM recommendations r
		WHERE r.created_at BETWEEN $1 AND $2 AND r.algorithm_version = $3
	`

	var total, clicked, converted int
	var avgScore float64
	err := s.db.QueryRow(ctx, query, startDate, endDate, algorithmVersion).
		Scan(&total, &clicked, &converted, &avgScore)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate recommendation metrics: %w", err)
	}

	metrics.TotalRecommendations = total
	metrics.AverageScore = avgScore
	if total > 0 {
		metrics.ClickThroughRate = float64(clicked) / float64(total)
		metrics.ConversionRate = float64(converted) / float64(total)
	}

	topCategories, err := s.fetchTopCategories(ctx, startDate, endDate, algorithmVersion)
	if err != nil {
		return nil, err
	}
	metrics.TopCategories = topCategories

	return metrics, nil
}

func (s *AnalyticsService) fetchTopCategories(ctx context.Context, startDate, endDate time.Time, algorithmVersion string) ([]models.CategoryStat, error) {
	query := `
		SELECT a.category, COUNT(*), COALESCE(AVG(r.score), 0)
		FROM recommendations r
		JOIN artworks a ON a.id = r.artwork_id
		WHERE r.created_at BETWEEN $1 AND $2 AND r.algorithm_version = $3
		AND a.category IS NOT NULL
		GROUP BY a.category
		ORDER BY COUNT(*) DESC
		LIMIT 5
	`

	rows, err := s.db.Query(ctx, query, startDate, endDate, algorithmVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top categories: %w", err)
	}
	defer rows.Close()

	var stats []models.CategoryStat
	for rows.Next() {
		var stat models.CategoryStat
		if err := rows.Scan(&stat.Category, &stat.Count, &stat.AverageScore); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// GetUserBehavior summarises a user's interaction history and derives the
// engagement score from it.
func (s *AnalyticsService) GetUserBehavior(ctx context.Context, userID uuid.UUID) (*models.UserBehavior, error) {
	summary, err := s.fetchInteractionSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interaction summary: %w", err)
	}

	categories, styles, err := s.fetchFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorites: %w", err)
	}

	behavior := &models.UserBehavior{
		UserID:             userID,
		TotalInteractions:  summary.TotalLikes + summary.TotalClicks,
		FavoriteCategories: categories,
		FavoriteStyles:     styles,
		EngagementScore:    ScoreEngagement(summary),
		Summary:            summary,
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":          userID,
		"engagement_score": behavior.EngagementScore,
	}).Debug("User behavior computed")

	return behavior, nil
}

func (s *AnalyticsService) fetchInteractionSummary(ctx context.Context, userID uuid.UUID) (models.InteractionSummary, error) {
	var summary models.InteractionSummary

	query := `
		SELECT
			(SELECT COUNT(*) FROM user_likes WHERE user_id = $1),
			(SELECT COUNT(*) FROM user_likes WHERE user_id = $1 AND is_like = true),
			(SELECT COUNT(*) FROM recommendations WHERE user_id = $1),
			(SELECT COUNT(*) FROM recommendations WHERE user_id = $1 AND was_clicked = true)
	`

	err := s.db.QueryRow(ctx, query, userID).Scan(
		&summary.TotalLikes,
		&summary.PositiveLikes,
		&summary.TotalRecommendations,
		&summary.TotalClicks,
	)
	return summary, err
}

func (s *AnalyticsService) fetchFavorites(ctx context.Context, userID uuid.UUID) ([]string, []string, error) {
	categories, err := s.fetchTopLabels(ctx, userID, "category")
	if err != nil {
		return nil, nil, err
	}
	styles, err := s.fetchTopLabels(ctx, userID, "style")
	if err != nil {
		return nil, nil, err
	}
	return categories, styles, nil
}

func (s *AnalyticsService) fetchTopLabels(ctx context.Context, userID uuid.UUID, column string) ([]string, error) {
	// column is one of two fixed identifiers, never user input.
	query := fmt.Sprintf(`
		SELECT a.%s
		FROM user_likes ul
		JOIN artworks a ON a.id = ul.artwork_id
		WHERE ul.user_id = $1 AND ul.is_like = true AND a.%s IS NOT NULL
		GROUP BY a.%s
		ORDER BY COUNT(*) DESC
		LIMIT 3
	`, column, column, column)

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}
