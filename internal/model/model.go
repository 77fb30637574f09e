package model

import (
	"encoding/json"
	"time"
)

// User represents a registered user. Accounts come from an OAuth provider
// or, in demo deployments, from local email/password registration.
type User struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"`
	ProviderID   string    `json:"provider_id"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Game represents a hosted game of Cradle of Civilization.
type Game struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	CreatorID      string       `json:"creator_id"`
	Status         string       `json:"status"` // waiting, active, finished
	Winner         string       `json:"winner,omitempty"`
	TurnDuration   string       `json:"turn_duration"`
	CreatedAt      time.Time    `json:"created_at"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	FinishedAt     *time.Time   `json:"finished_at,omitempty"`
	Players        []GamePlayer `json:"players,omitempty"`
	SubmittedCount int          `json:"submitted_count,omitempty"`
}

// GamePlayer represents a user's membership in a game and the
// civilization they play.
type GamePlayer struct {
	GameID       string    `json:"game_id"`
	UserID       string    `json:"user_id"`
	Civilization string    `json:"civilization,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Turn is the durable record of one engine turn. StateBefore holds the
// flattened engine snapshot the turn opened with; StateAfter is filled in
// when the turn resolves.
type Turn struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	TurnNumber  int             `json:"turn_number"`
	Year        int             `json:"year"`
	Season      string          `json:"season"`
	Phase       string          `json:"phase"`
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
