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

func TestBuildProfileFromLikes(t *testing.T) {
	userID := uuid.New()

	t.Run("counts categories and styles", func(t *testing.T) {
		likes := []models.LikedArtwork{
			{ArtworkID: uuid.New(), Category: strPtr("anime"), Style: strPtr("digital")},
			{ArtworkID: uuid.New(), Category: strPtr("anime"), Style: strPtr("digital")},
			{ArtworkID: uuid.New(), Category: strPtr("anime"), Style: strPtr("watercolor")},
			{ArtworkID: uuid.New(), Category: strPtr("photography"), Style: nil},
			{ArtworkID: uuid.New(), Category: nil, Style: strPtr("digital")},
		}

		profile := BuildProfileFromLikes(userID, likes)

		assert.Equal(t, userID, profile.UserID)
		assert.Equal(t, 5, profile.TotalLikes)
		assert.Equal(t, map[string]int{"anime": 3, "photography": 1}, profile.PreferredCategories)
		assert.Equal(t, map[string]int{"digital": 3, "watercolor": 1}, profile.PreferredStyles)
		assert.InDelta(t, 0.5, profile.ProfileStrength, 1e-9)
	})

	t.Run("no likes", func(t *testing.T) {
		profile := BuildProfileFromLikes(userID, nil)

		assert.Equal(t, 0, profile.TotalLikes)
		assert.Empty(t, profile.PreferredCategories)
		assert.Empty(t, profile.PreferredStyles)
		assert.Equal(t, 0.0, profile.ProfileStrength)
	})

	t.Run("strength saturates at ten likes", func(t *testing.T) {
		likes := make([]models.LikedArtwork, 25)
		for i := range likes {
			likes[i] = models.LikedArtwork{ArtworkID: uuid.New(), Category: strPtr("anime")}
		}

		profile := BuildProfileFromLikes(userID, likes)

		assert.Equal(t, 1.0, profile.ProfileStrength)
	})

	t.Run("strength below saturation", func(t *testing.T) {
		likes := []models.LikedArtwork{
			{ArtworkID: uuid.New(), Category: strPtr("anime")},
			{ArtworkID: uuid.New(), Category: strPtr("anime")},
		}

		profile := BuildProfileFromLikes(userID, likes)

		assert.InDelta(t, 0.2, profile.ProfileStrength, 1e-9)
	})
}

func TestUserProfileService_BuildProfile(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	service := NewUserProfileService(mockDB, testLogger())
	userID := uuid.New()

	t.Run("builds profile from stored likes", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "category", "style", "updated_at"}).
			AddRow(uuid.New(), strPtr("anime"), strPtr("digital"), time.Now()).
			AddRow(uuid.New(), strPtr("anime"), nil, time.Now())

		mockDB.ExpectQuery("SELECT a.id, a.category, a.style").
			WithArgs(userID).
			WillReturnRows(rows)

		profile, err := service.BuildProfile(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 2, profile.TotalLikes)
		assert.Equal(t, 2, profile.PreferredCategories["anime"])
		assert.Equal(t, 1, profile.PreferredStyles["digital"])
		assert.InDelta(t, 0.2, profile.ProfileStrength, 1e-9)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("empty history yields cold profile", func(t *testing.T) {
		mockDB.ExpectQuery("SELECT a.id, a.category, a.style").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "category", "style", "updated_at"}))

		profile, err := service.BuildProfile(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 0, profile.TotalLikes)
		assert.Equal(t, 0.0, profile.ProfileStrength)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}
