package models

import "github.com/google/uuid"

// UserProfile is the per-request preference summary derived from a user's
// positive likes. It is rebuilt on every recommendation request and never
// persisted.
type UserProfile struct {
	UserID              uuid.UUID      `json:"user_id"`
	PreferredCategories map[string]int `json:"preferred_categories"`
	PreferredStyles     map[string]int `json:"preferred_styles"`
	TotalLikes          int            `json:"total_likes"`
	ProfileStrength     float64        `json:"profile_strength"` // [0,1]
}
