package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/atelierlabs/muse/internal/config"
	"github.com/atelierlabs/muse/pkg/models"
)

// EventPublisher publishes feedback events to the message bus. A nil
// publisher disables publication without disabling feedback recording.
type EventPublisher interface {
	PublishFeedback(ctx context.Context, req models.FeedbackRequest) error
}

// RecommendationService glues the ranking engine to its collaborators:
// profile building, candidate retrieval with seen-artwork exclusion, batch
// recording, caching, and feedback handling.
type RecommendationService struct {
	db        DatabaseQuerier
	cache     *redis.Client
	engine    *RecommendationEngine
	profiles  *UserProfileService
	publisher EventPublisher
	metrics   *MetricsCollector
	cfg       *config.EngineConfig
	logger    *logrus.Logger
}

func NewRecommendationService(
	db DatabaseQuerier,
	cache *redis.Client,
	engine *RecommendationEngine,
	profiles *UserProfileService,
	publisher EventPublisher,
	metrics *MetricsCollector,
	cfg *config.EngineConfig,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		db:        db,
		cache:     cache,
		engine:    engine,
		profiles:  profiles,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// GetRecommendations produces one ranked batch for a user. Candidates are
// over-fetched beyond the requested limit, exclude everything the user has
// already seen through likes or prior batches, and are ranked by the engine.
// The served batch is recorded for auditing and click/view tracking.
func (s *RecommendationService) GetRecommendations(ctx context.Context, req models.RecommendationRequest) (*models.RecommendationResponse, error) {
	start := time.Now()

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	category := normalizeLabel(req.Category)
	style := normalizeLabel(req.Style)

	cacheKey := s.recommendationCacheKey(req.UserID, limit, category, style)
	if cached := s.getCachedResponse(ctx, cacheKey); cached != nil {
		cached.CacheHit = true
		return cached, nil
	}

	profile, err := s.profiles.BuildProfile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to build user profile: %w", err)
	}

	seen, err := s.fetchSeenArtworks(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seen artworks: %w", err)
	}

	candidates, err := s.fetchCandidates(ctx, seen, category, style, limit*s.cfg.CandidateOverFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	result := s.engine.RankCandidates(profile, candidates, limit)
	for i := range result.Recommendations {
		result.Recommendations[i].Reason = buildReason(profile, result.Recommendations[i].Artwork)
	}

	response := &models.RecommendationResponse{
		UserID:           req.UserID,
		BatchID:          uuid.New(),
		AlgorithmVersion: s.cfg.AlgorithmVersion,
		Recommendations:  result.Recommendations,
		Degraded:         result.Degraded,
		GeneratedAt:      time.Now().UTC(),
	}

	if err := s.recordBatch(ctx, response); err != nil {
		// The batch is still served; only click/view tracking is lost.
		s.logger.WithFields(logrus.Fields{
			"user_id":  req.UserID,
			"batch_id": response.BatchID,
			"error":    err.Error(),
		}).Warn("Failed to record recommendation batch")
	}

	if !result.Degraded {
		s.setCachedResponse(ctx, cacheKey, response)
	}

	s.metrics.ObserveBatch(result.Degraded, time.Since(start).Seconds())

	s.logger.WithFields(logrus.Fields{
		"user_id":  req.UserID,
		"batch_id": response.BatchID,
		"count":    len(response.Recommendations),
		"degraded": response.Degraded,
	}).Info("Recommendation batch generated")

	return response, nil
}

// GetTrending ranks recent public artworks by the popularity signal alone.
// No profile is involved, so the result is shareable across users.
func (s *RecommendationService) GetTrending(ctx context.Context, limit int, category *string) (*models.TrendingResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	candidates, err := s.fetchCandidates(ctx, nil, normalizeLabel(category), nil, limit*s.cfg.CandidateOverFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending candidates: %w", err)
	}

	scorer := &PopularityScorer{Now: time.Now}
	recs := make([]models.ArtworkRecommendation, len(candidates))
	for i, artwork := range candidates {
		recs[i] = models.ArtworkRecommendation{
			Artwork: artwork,
			Score:   scorer.Score(nil, artwork),
		}
	}

	result := rankByScore(recs, limit)

	return &models.TrendingResponse{
		Recommendations: result,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// RecordFeedback applies one feedback event. Like and dislike upsert the
// per-pair record with last-write-wins semantics; click and view flip the
// flags on the latest matching recommendation row. The user's cached batches
// are invalidated and the event is published to the bus.
func (s *RecommendationService) RecordFeedback(ctx context.Context, req models.FeedbackRequest) error {
	switch req.FeedbackType {
	case models.FeedbackLike, models.FeedbackDislike:
		if err := s.upsertLike(ctx, req.UserID, req.ArtworkID, req.FeedbackType == models.FeedbackLike); err != nil {
			return fmt.Errorf("failed to record %s: %w", req.FeedbackType, err)
		}
	case models.FeedbackClick, models.FeedbackView:
		if err := s.markRecommendation(ctx, req); err != nil {
			return fmt.Errorf("failed to record %s: %w", req.FeedbackType, err)
		}
	default:
		return fmt.Errorf("unknown feedback type: %s", req.FeedbackType)
	}

	s.invalidateUserCache(ctx, req.UserID)
	s.metrics.ObserveFeedback(req.FeedbackType)

	if s.publisher != nil {
		if err := s.publisher.PublishFeedback(ctx, req); err != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id":    req.UserID,
				"artwork_id": req.ArtworkID,
				"type":       req.FeedbackType,
				"error":      err.Error(),
			}).Warn("Failed to publish feedback event")
		}
	}

	return nil
}

func (s *RecommendationService) upsertLike(ctx context.Context, userID, artworkID uuid.UUID, isLike bool) error {
	query := `
		INSERT INTO user_likes (id, user_id, artwork_id, is_like, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, artwork_id)
		DO UPDATE SET is_like = EXCLUDED.is_like, updated_at = NOW()
	`
	_, err := s.db.Exec(ctx, query, uuid.New(), userID, artworkID, isLike)
	return err
}

func (s *RecommendationService) markRecommendation(ctx context.Context, req models.FeedbackRequest) error {
	var query string
	if req.FeedbackType == models.FeedbackClick {
		query = `
			UPDATE recommendations
			SET was_clicked = true, clicked_at = NOW()
			WHERE id = (
				SELECT id FROM recommendations
				WHERE user_id = $1 AND artwork_id = $2
				ORDER BY created_at DESC
				LIMIT 1
			)
		`
	} else {
		query = `
			UPDATE recommendations
			SET was_viewed = true, viewed_at = NOW()
			WHERE id = (
				SELECT id FROM recommendations
				WHERE user_id = $1 AND artwork_id = $2
				ORDER BY created_at DESC
				LIMIT 1
			)
		`
	}
	_, err := s.db.Exec(ctx, query, req.UserID, req.ArtworkID)
	return err
}

// fetchSeenArtworks returns the union of artworks the user has liked or
// disliked and artworks already served in prior batches.
func (s *RecommendationService) fetchSeenArtworks(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT artwork_id FROM user_likes WHERE user_id = $1
		UNION
		SELECT artwork_id FROM recommendations WHERE user_id = $1
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seen []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seen = append(seen, id)
	}

	return seen, rows.Err()
}

func (s *RecommendationService) fetchCandidates(ctx context.Context, exclude []uuid.UUID, category, style *string, limit int) ([]*models.Artwork, error) {
	query := `
		SELECT id, artist_id, title, category, style, tags, is_portfolio, is_public, created_at, updated_at
		FROM artworks
		WHERE is_public = true
	`
	args := []interface{}{}

	if len(exclude) > 0 {
		args = append(args, exclude)
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}
	if category != nil {
		args = append(args, *category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if style != nil {
		args = append(args, *style)
		query += fmt.Sprintf(" AND style = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*models.Artwork
	for rows.Next() {
		artwork := &models.Artwork{}
		err := rows.Scan(
			&artwork.ID, &artwork.ArtistID, &artwork.Title, &artwork.Category,
			&artwork.Style, &artwork.Tags, &artwork.IsPortfolio, &artwork.IsPublic,
			&artwork.CreatedAt, &artwork.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, artwork)
	}

	return candidates, rows.Err()
}

func (s *RecommendationService) recordBatch(ctx context.Context, response *models.RecommendationResponse) error {
	query := `
		INSERT INTO recommendations
			(id, user_id, artwork_id, batch_id, algorithm_version, position, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	for _, rec := range response.Recommendations {
		_, err := s.db.Exec(ctx, query,
			uuid.New(), response.UserID, rec.Artwork.ID, response.BatchID,
			response.AlgorithmVersion, rec.Position, rec.Score,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *RecommendationService) recommendationCacheKey(userID uuid.UUID, limit int, category, style *string) string {
	key := fmt.Sprintf("recommendations:%s:%d", userID, limit)
	if category != nil {
		key += ":c=" + *category
	}
	if style != nil {
		key += ":s=" + *style
	}
	return key
}

func (s *RecommendationService) getCachedResponse(ctx context.Context, key string) *models.RecommendationResponse {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var response models.RecommendationResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return nil
	}
	return &response
}

func (s *RecommendationService) setCachedResponse(ctx context.Context, key string, response *models.RecommendationResponse) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(response)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, data, s.cfg.Caching.RecommendationsTTL)
}

func (s *RecommendationService) invalidateUserCache(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("recommendations:%s:*", userID)
	iter := s.cache.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		s.cache.Del(ctx, iter.Val())
	}
}

// normalizeLabel canonicalizes a category or style label from request input:
// NFC normalization, trimmed, lowercased. Empty labels collapse to nil.
func normalizeLabel(label *string) *string {
	if label == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(norm.NFC.String(*label)))
	if normalized == "" {
		return nil
	}
	return &normalized
}

// buildReason explains which preference dimensions matched. Presentation
// only; deterministic given the profile and artwork, no effect on ranking.
func buildReason(profile *models.UserProfile, artwork *models.Artwork) string {
	var matched []string
	if artwork.Category != nil && profile.PreferredCategories[*artwork.Category] > 0 {
		matched = append(matched, fmt.Sprintf("you liked %s artworks", *artwork.Category))
	}
	if artwork.Style != nil && profile.PreferredStyles[*artwork.Style] > 0 {
		matched = append(matched, fmt.Sprintf("you enjoy the %s style", *artwork.Style))
	}
	if len(matched) == 0 {
		return "popular with the community"
	}
	return "Recommended because " + strings.Join(matched, " and ")
}

// rankByScore sorts recommendations by descending score with stable
// tie-break, truncates, and assigns 1-based positions.
func rankByScore(recs []models.ArtworkRecommendation, limit int) []models.ArtworkRecommendation {
	sorted := make([]models.ArtworkRecommendation, len(recs))
	copy(sorted, recs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	for i := range sorted {
		sorted[i].Position = i + 1
	}
	return sorted
}
