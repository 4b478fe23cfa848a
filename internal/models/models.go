package models

import "time"

// User represents a product user with their discovery progress
type User struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	ProductRole     string    `json:"product_role"`
	ExperienceLevel string    `json:"experience_level"`
	DiscoveryScore  float64   `json:"discovery_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// Feature represents a product feature that users can discover
type Feature struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Complexity  int      `json:"complexity"`
	Keywords    []string `json:"keywords"`
	Popularity  float64  `json:"popularity"`
}

// Interaction tracks one user's engagement with one feature
type Interaction struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	FeatureID       int64     `json:"feature_id"`
	DiscoveryStatus float64   `json:"discovery_status"`
	TutorialViews   int       `json:"tutorial_views"`
	AutomationUses  int       `json:"automation_uses"`
	Rating          *int      `json:"rating,omitempty"`
	Feedback        string    `json:"feedback,omitempty"`
	LastInteraction time.Time `json:"last_interaction"`
}

// ContextSnapshot is one stored page-context extraction, tied to a user.
// Snapshots are append-only; nothing updates or deletes them.
type ContextSnapshot struct {
	ID        string      `json:"id"`
	UserID    int64       `json:"user_id"`
	URL       string      `json:"url"`
	Query     string      `json:"query,omitempty"`
	Context   PageContext `json:"context"`
	CreatedAt time.Time   `json:"created_at"`
}
