package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/drquandary/COC/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	CreateLocal(ctx context.Context, email, passwordHash, displayName string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID, turnDur string) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID, civilization string) error
	PlayerCount(ctx context.Context, gameID string) (int, error)
	UpdatePlayerCivilization(ctx context.Context, gameID, userID, civilization string) error
	AssignCivilizations(ctx context.Context, gameID string, assignments map[string]string) error
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
}

// TurnRepository defines turn history data operations.
type TurnRepository interface {
	CreateTurn(ctx context.Context, gameID string, turnNumber, year int, season, phase string, stateBefore json.RawMessage, deadline time.Time) (*model.Turn, error)
	CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error)
	ListTurns(ctx context.Context, gameID string) ([]model.Turn, error)
	ResolveTurn(ctx context.Context, turnID string, stateAfter json.RawMessage) error
	ListExpired(ctx context.Context) ([]model.Turn, error)
}

// StateStore holds the live engine snapshot and the turn deadline timer
// for each active game. Backed by Redis in durable deployments and by an
// in-memory store in demo mode.
type StateStore interface {
	SetSnapshot(ctx context.Context, gameID string, state json.RawMessage) error
	GetSnapshot(ctx context.Context, gameID string) (json.RawMessage, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	DeleteGame(ctx context.Context, gameID string) error
}
