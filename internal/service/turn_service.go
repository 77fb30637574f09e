package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drquandary/COC/internal/model"
	"github.com/drquandary/COC/internal/repository"
	"github.com/drquandary/COC/pkg/engine"
)

var ErrNoCurrentTurn = errors.New("game has no current turn")

// TurnService orchestrates turn submission and resolution: it rebuilds the
// engine from the stored snapshot, applies orders, and advances the game.
type TurnService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	store       repository.StateStore
	broadcaster Broadcaster

	// gameLocks prevents concurrent resolution for the same game.
	// Both the keyspace listener and poller can fire simultaneously;
	// without locking, both resolve the same turn creating duplicate next turns.
	gameLocks sync.Map
}

// NewTurnService creates a TurnService.
func NewTurnService(
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	store repository.StateStore,
	broadcaster Broadcaster,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TurnService{
		gameRepo:    gameRepo,
		turnRepo:    turnRepo,
		store:       store,
		broadcaster: broadcaster,
	}
}

// gameLock returns the mutex for a given game ID.
func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// InitializeGame seeds the state store and timer when a game starts.
// Called after StartGame assigns civilizations and creates the first turn.
func (s *TurnService) InitializeGame(ctx context.Context, gameID string, state json.RawMessage, deadline time.Time) error {
	if err := s.store.SetSnapshot(ctx, gameID, state); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	if err := s.store.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}
	return nil
}

// RecoverActiveGames rehydrates store state for all active games from
// Postgres. Called on server startup to restore snapshots and timers lost
// during a restart.
func (s *TurnService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		turn, err := s.turnRepo.CurrentTurn(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current turn during recovery")
			continue
		}
		if turn == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no current turn, skipping")
			continue
		}

		if err := s.store.SetSnapshot(ctx, game.ID, turn.StateBefore); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore snapshot")
			continue
		}

		// Restore timer if deadline is still in the future. Expired
		// deadlines are picked up by the poller.
		if time.Now().Before(turn.Deadline) {
			if err := s.store.SetTimer(ctx, game.ID, turn.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		log.Info().Str("gameId", game.ID).Int("turn", turn.TurnNumber).
			Int("year", turn.Year).Str("season", turn.Season).Str("phase", turn.Phase).
			Time("deadline", turn.Deadline).
			Msg("Recovered game state")
	}

	return nil
}

// SubmitStatus reports submission progress after a player's orders land.
type SubmitStatus struct {
	Submitted    int  `json:"submitted"`
	Total        int  `json:"total"`
	AllSubmitted bool `json:"all_submitted"`
}

// SubmitOrders validates and registers a player's complete order set for
// the current turn. Resubmission replaces the previous set. Validation
// failures reject the whole batch and leave prior orders intact.
func (s *TurnService) SubmitOrders(ctx context.Context, gameID, userID string, inputs []engine.OrderInput) (*SubmitStatus, error) {
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

	civilization := ""
	for _, p := range game.Players {
		if p.UserID == userID {
			civilization = p.Civilization
			break
		}
	}
	if civilization == "" {
		return nil, ErrNotInGame
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if turn == nil {
		return nil, ErrNoCurrentTurn
	}

	e, err := s.loadEngine(ctx, gameID, turn)
	if err != nil {
		return nil, err
	}

	if err := e.SubmitOrders(enginePlayerID(civilization), inputs); err != nil {
		return nil, err
	}

	snap := e.GameState()
	stateJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal state after submit: %w", err)
	}
	if err := s.store.SetSnapshot(ctx, gameID, stateJSON); err != nil {
		return nil, fmt.Errorf("save snapshot after submit: %w", err)
	}

	status := &SubmitStatus{Total: len(snap.Players), AllSubmitted: true}
	for _, p := range snap.Players {
		if p.HasSubmittedOrders {
			status.Submitted++
		} else {
			status.AllSubmitted = false
		}
	}

	log.Info().Str("gameId", gameID).Str("civilization", civilization).
		Int("orders", len(inputs)).
		Int("submitted", status.Submitted).Int("total", status.Total).
		Msg("Orders submitted")

	return status, nil
}

// SubmittedCount returns how many players have submitted orders this turn.
func (s *TurnService) SubmittedCount(ctx context.Context, gameID string) (int, error) {
	stateJSON, err := s.store.GetSnapshot(ctx, gameID)
	if err != nil || stateJSON == nil {
		return 0, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(stateJSON, &snap); err != nil {
		return 0, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	count := 0
	for _, p := range snap.Players {
		if p.HasSubmittedOrders {
			count++
		}
	}
	return count, nil
}

// GameSnapshot returns the live snapshot JSON for a game, falling back to
// the current turn's starting state if the store is empty.
func (s *TurnService) GameSnapshot(ctx context.Context, gameID string) (json.RawMessage, error) {
	stateJSON, err := s.store.GetSnapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if stateJSON != nil {
		return stateJSON, nil
	}
	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if turn == nil {
		return nil, ErrNoCurrentTurn
	}
	return turn.StateBefore, nil
}

// ResolveTurn performs the full turn resolution cycle when the deadline passes:
// 1. Rebuild the engine from the stored snapshot
// 2. Adjudicate the turn
// 3. Save the result to Postgres
// 4. Check for victory, or create the next turn with a new timer
func (s *TurnService) ResolveTurn(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, false)
}

// ResolveTurnEarly is called when all players have submitted before the deadline.
func (s *TurnService) ResolveTurnEarly(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, true)
}

func (s *TurnService) resolveTurnInternal(ctx context.Context, gameID string, early bool) error {
	// Per-game lock prevents concurrent resolution from keyspace + poller
	// or from early-resolution goroutines racing with timer expiry.
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return nil
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil || turn == nil {
		return fmt.Errorf("get current turn: %w", err)
	}

	// Guard against resolving a turn whose deadline hasn't passed yet
	// (unless triggered by all players having submitted).
	if !early && time.Now().Before(turn.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", turn.Deadline).Msg("Turn deadline not yet reached, skipping")
		return nil
	}

	log.Info().Str("gameId", gameID).Str("turnId", turn.ID).
		Bool("early", early).Int("turn", turn.TurnNumber).
		Int("year", turn.Year).Str("season", turn.Season).Str("phase", turn.Phase).
		Msg("Resolving turn")

	e, err := s.loadEngine(ctx, gameID, turn)
	if err != nil {
		return err
	}

	ownersBefore := make(map[string]string)
	for _, sc := range e.GameState().SupplyCenters {
		ownersBefore[sc.ID] = sc.Owner
	}

	if err := e.ResolveTurn(); err != nil {
		return fmt.Errorf("adjudicate: %w", err)
	}

	snapAfter := e.GameState()
	stateAfterJSON, err := json.Marshal(snapAfter)
	if err != nil {
		return fmt.Errorf("marshal state after: %w", err)
	}
	if err := s.turnRepo.ResolveTurn(ctx, turn.ID, stateAfterJSON); err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}

	var captured []map[string]string
	for _, sc := range snapAfter.SupplyCenters {
		if prev := ownersBefore[sc.ID]; prev != sc.Owner {
			captured = append(captured, map[string]string{
				"region":         sc.ID,
				"previous_owner": prev,
				"new_owner":      sc.Owner,
			})
		}
	}

	s.broadcaster.BroadcastGameEvent(gameID, "turn_resolved", map[string]any{
		"turn":     turn.TurnNumber,
		"year":     turn.Year,
		"season":   turn.Season,
		"phase":    turn.Phase,
		"captured": captured,
	})

	if snapAfter.Status == engine.StatusCompleted {
		return s.finishGame(ctx, gameID, snapAfter)
	}

	// Create the next turn and restart the timer.
	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	_, err = s.turnRepo.CreateTurn(ctx, gameID, snapAfter.Turn, snapAfter.Year,
		string(snapAfter.Season), string(snapAfter.Phase), stateAfterJSON, deadline)
	if err != nil {
		return fmt.Errorf("create next turn: %w", err)
	}

	if err := s.store.SetSnapshot(ctx, gameID, stateAfterJSON); err != nil {
		return fmt.Errorf("set new snapshot: %w", err)
	}
	if err := s.store.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	log.Info().
		Str("gameId", gameID).
		Int("turn", snapAfter.Turn).
		Int("year", snapAfter.Year).
		Str("season", string(snapAfter.Season)).
		Str("phase", string(snapAfter.Phase)).
		Time("deadline", deadline).
		Int("unitCount", len(snapAfter.Units)).
		Msg("Game advanced to next turn")

	s.broadcaster.BroadcastGameEvent(gameID, "phase_changed", map[string]any{
		"turn":     snapAfter.Turn,
		"year":     snapAfter.Year,
		"season":   string(snapAfter.Season),
		"phase":    string(snapAfter.Phase),
		"deadline": deadline.Format(time.RFC3339),
	})

	return nil
}

// finishGame records the winner and tears down live state.
func (s *TurnService) finishGame(ctx context.Context, gameID string, snap engine.Snapshot) error {
	winner := ""
	for _, p := range snap.Players {
		if len(p.SupplyCenters) >= engine.VictorySupplyCenters {
			winner = p.CivilizationID
			break
		}
	}

	log.Info().Str("gameId", gameID).Str("winner", winner).Msg("Game won")
	if err := s.gameRepo.SetFinished(ctx, gameID, winner); err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner": winner,
	})
	return s.store.DeleteGame(ctx, gameID)
}

// CleanupStoppedGame broadcasts the game_ended event and clears live game data.
func (s *TurnService) CleanupStoppedGame(ctx context.Context, gameID string) error {
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner": "",
		"reason": "stopped",
	})
	return s.store.DeleteGame(ctx, gameID)
}

// loadEngine rebuilds an engine from the stored snapshot, falling back to
// the turn's starting state if the store is empty.
func (s *TurnService) loadEngine(ctx context.Context, gameID string, turn *model.Turn) (*engine.Engine, error) {
	stateJSON, err := s.store.GetSnapshot(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if stateJSON == nil {
		stateJSON = turn.StateBefore
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(stateJSON, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	e := engine.New(engine.WithLogger(log.Logger))
	if err := e.Restore(snap); err != nil {
		return nil, fmt.Errorf("restore engine: %w", err)
	}
	return e, nil
}
