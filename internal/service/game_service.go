package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drquandary/COC/internal/model"
	"github.com/drquandary/COC/internal/repository"
	"github.com/drquandary/COC/pkg/engine"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameNotWaiting    = errors.New("game is not in waiting status")
	ErrGameNotActive     = errors.New("game is not active")
	ErrGameFull          = errors.New("game is full")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrNotCreator        = errors.New("only the creator can do that")
	ErrAlreadyJoined     = errors.New("already joined this game")
	ErrNotInGame         = errors.New("you are not in this game")
	ErrInvalidCiv        = errors.New("invalid civilization")
	ErrCivilizationTaken = errors.New("civilization already taken by another player")
)

// GameService handles game lifecycle operations.
type GameService struct {
	gameRepo repository.GameRepository
	turnRepo repository.TurnRepository
	userRepo repository.UserRepository
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, userRepo repository.UserRepository) *GameService {
	return &GameService{gameRepo: gameRepo, turnRepo: turnRepo, userRepo: userRepo}
}

// CreateGame creates a new game in "waiting" status. The creator joins
// automatically, optionally with a preferred civilization.
func (s *GameService) CreateGame(ctx context.Context, name, creatorID, turnDur, civilization string) (*model.Game, error) {
	turnDur = toPgInterval(turnDur, "24 hours")
	if civilization != "" && !validCivilization(civilization) {
		return nil, ErrInvalidCiv
	}

	game, err := s.gameRepo.Create(ctx, name, creatorID, turnDur)
	if err != nil {
		return nil, err
	}
	if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID, civilization); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame adds a player to a waiting game, optionally with a preferred
// civilization.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID, civilization string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}

	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
	}

	count, err := s.gameRepo.PlayerCount(ctx, gameID)
	if err != nil {
		return err
	}
	if count >= engine.MaxPlayers {
		return ErrGameFull
	}

	if civilization != "" {
		if !validCivilization(civilization) {
			return ErrInvalidCiv
		}
		for _, p := range game.Players {
			if p.Civilization == civilization {
				return ErrCivilizationTaken
			}
		}
	}

	return s.gameRepo.JoinGame(ctx, gameID, userID, civilization)
}

// UpdatePlayerCivilization sets a player's own civilization in the lobby.
func (s *GameService) UpdatePlayerCivilization(ctx context.Context, gameID, userID, civilization string) error {
	if !validCivilization(civilization) {
		return ErrInvalidCiv
	}

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}

	inGame := false
	for _, p := range game.Players {
		if p.UserID == userID {
			inGame = true
		} else if p.Civilization == civilization {
			return ErrCivilizationTaken
		}
	}
	if !inGame {
		return ErrNotInGame
	}

	return s.gameRepo.UpdatePlayerCivilization(ctx, gameID, userID, civilization)
}

// StartGame assigns civilizations, builds the initial engine state, and
// creates the first turn. Players keep any civilization they chose in the
// lobby; unassigned players get a random remaining one. Returns the
// started game, the initial state JSON, and the first deadline.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, json.RawMessage, time.Time, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	if game == nil {
		return nil, nil, time.Time{}, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, nil, time.Time{}, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, nil, time.Time{}, ErrNotCreator
	}
	if len(game.Players) < engine.MinPlayers {
		return nil, nil, time.Time{}, ErrNotEnoughPlayers
	}

	assignments := make(map[string]string)
	used := make(map[string]bool)
	for _, p := range game.Players {
		if p.Civilization != "" {
			assignments[p.UserID] = p.Civilization
			used[p.Civilization] = true
		}
	}
	var available []string
	for _, civ := range engine.AncientMap().CivilizationIDs() {
		if !used[civ] {
			available = append(available, civ)
		}
	}
	rand.Shuffle(len(available), func(i, j int) { available[i], available[j] = available[j], available[i] })
	idx := 0
	for _, p := range game.Players {
		if p.Civilization == "" {
			assignments[p.UserID] = available[idx]
			idx++
		}
	}

	if err := s.gameRepo.AssignCivilizations(ctx, gameID, assignments); err != nil {
		return nil, nil, time.Time{}, err
	}

	game, err = s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return nil, nil, time.Time{}, fmt.Errorf("reload started game: %w", err)
	}

	// Build the initial engine state with players seeded in join order.
	e := engine.New(engine.WithLogger(log.Logger))
	e.InitializeGame(engine.Meta{ID: gameID, Name: game.Name})
	for _, p := range game.Players {
		if _, err := e.AddPlayer(enginePlayerID(p.Civilization), p.Civilization, p.UserID); err != nil {
			return nil, nil, time.Time{}, fmt.Errorf("seed player %s: %w", p.UserID, err)
		}
	}

	snap := e.GameState()
	stateJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("marshal initial state: %w", err)
	}

	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	_, err = s.turnRepo.CreateTurn(ctx, gameID, snap.Turn, snap.Year, string(snap.Season), string(snap.Phase), stateJSON, deadline)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	return game, stateJSON, deadline, nil
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns open games, the user's games, or finished games.
func (s *GameService) ListGames(ctx context.Context, userID string, filter string) ([]model.Game, error) {
	switch filter {
	case "my":
		return s.gameRepo.ListByUser(ctx, userID)
	case "finished":
		return s.gameRepo.ListFinished(ctx)
	default:
		return s.gameRepo.ListOpen(ctx)
	}
}

// StopGame ends an active game with no winner. Only the game creator can stop a game.
func (s *GameService) StopGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if err := s.gameRepo.SetFinished(ctx, gameID, ""); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

// DeleteGame removes a waiting game. Only the game creator can delete a game.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	return s.gameRepo.Delete(ctx, gameID)
}

// validCivilization reports whether the civilization exists on the map.
func validCivilization(id string) bool {
	return engine.AncientMap().Civilization(id) != nil
}

// enginePlayerID derives the engine-side player ID for a civilization.
// Deterministic, so a rebuilt engine addresses the same players.
func enginePlayerID(civilization string) string {
	return "player_" + civilization
}

// toPgInterval converts Go-style duration strings (e.g. "5m", "1h") to
// PostgreSQL interval format (e.g. "5 minutes", "1 hours"). Returns
// defaultVal if input is empty.
func toPgInterval(s, defaultVal string) string {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%d seconds", totalSeconds)
	}
	return fmt.Sprintf("%d minutes", totalSeconds/60)
}

// parseDuration converts Postgres interval strings like "24:00:00" or
// "30 minutes", or Go duration strings like "5m", to time.Duration.
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	// Try HH:MM:SS format from PostgreSQL
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		h, e1 := strconv.Atoi(parts[0])
		m, e2 := strconv.Atoi(parts[1])
		sec, e3 := strconv.Atoi(parts[2])
		if e1 == nil && e2 == nil && e3 == nil {
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
		}
	}
	// Try "N seconds" / "N minutes" / "N hours" interval words
	fields := strings.Fields(s)
	if len(fields) == 2 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			switch strings.TrimSuffix(fields[1], "s") {
			case "second":
				return time.Duration(n) * time.Second
			case "minute":
				return time.Duration(n) * time.Minute
			case "hour":
				return time.Duration(n) * time.Hour
			}
		}
	}
	return 24 * time.Hour
}
