package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/pkg/models"
)

// DatabaseQuerier abstracts the pgx pool so services can be tested against
// pgxmock.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type UserProfileService struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewUserProfileService(db DatabaseQuerier, logger *logrus.Logger) *UserProfileService {
	return &UserProfileService{
		db:     db,
		logger: logger,
	}
}

// BuildProfile loads the user's positive likes with the liked artworks'
// category and style, and folds them into a preference profile. The profile
// is ephemeral; it is rebuilt on every request and never written back.
func (s *UserProfileService) BuildProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	likes, err := s.fetchLikedArtworks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch liked artworks: %w", err)
	}

	profile := BuildProfileFromLikes(userID, likes)

	s.logger.WithFields(logrus.Fields{
		"user_id":          userID,
		"total_likes":      profile.TotalLikes,
		"profile_strength": profile.ProfileStrength,
	}).Debug("User profile built")

	return profile, nil
}

func (s *UserProfileService) fetchLikedArtworks(ctx context.Context, userID uuid.UUID) ([]models.LikedArtwork, error) {
	query := `
		SELECT a.id, a.category, a.style, ul.updated_at
		FROM user_likes ul
		JOIN artworks a ON a.id = ul.artwork_id
		WHERE ul.user_id = $1 AND ul.is_like = true
		ORDER BY ul.updated_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []models.LikedArtwork
	for rows.Next() {
		var like models.LikedArtwork
		if err := rows.Scan(&like.ArtworkID, &like.Category, &like.Style, &like.LikedAt); err != nil {
			return nil, err
		}
		likes = append(likes, like)
	}

	return likes, rows.Err()
}

// BuildProfileFromLikes counts category and style occurrences among liked
// artworks. Profile strength is min(total_likes/10, 1.0). Deterministic
// given the input set.
func BuildProfileFromLikes(userID uuid.UUID, likes []models.LikedArtwork) *models.UserProfile {
	profile := &models.UserProfile{
		UserID:              userID,
		PreferredCategories: make(map[string]int),
		PreferredStyles:     make(map[string]int),
		TotalLikes:          len(likes),
	}

	for _, like := range likes {
		if like.Category != nil {
			profile.PreferredCategories[*like.Category]++
		}
		if like.Style != nil {
			profile.PreferredStyles[*like.Style]++
		}
	}

	profile.ProfileStrength = math.Min(float64(profile.TotalLikes)/10.0, 1.0)

	return profile
}
