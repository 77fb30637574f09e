package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Engine adjudicates a single game. It owns exactly one GameState and
// provides no internal locking; callers must serialize operations on one
// Engine instance. Separate games need separate Engine instances.
type Engine struct {
	world *WorldMap
	log   zerolog.Logger
	now   func() time.Time
	state *GameState
	seq   int // order ID counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMap overrides the world map, for tests that need a custom graph.
func WithMap(m *WorldMap) Option {
	return func(e *Engine) { e.world = m }
}

// WithClock overrides the time source used for unit IDs and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine on the ancient Middle East map with no game loaded.
// Call InitializeGame or Restore before anything else.
func New(opts ...Option) *Engine {
	e := &Engine{
		world: AncientMap(),
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Map returns the world map the engine adjudicates on.
func (e *Engine) Map() *WorldMap {
	return e.world
}

// Meta carries the caller-assigned identity of a new game.
type Meta struct {
	ID   string
	Name string
}

// InitializeGame creates a fresh game at year 1, spring orders, seeding
// one supply center per supply-center region with its founding
// civilization as initial owner. Calling it again replaces any previous
// state outright.
func (e *Engine) InitializeGame(meta Meta) *GameState {
	now := e.now()
	gs := &GameState{
		ID:            meta.ID,
		Name:          meta.Name,
		Status:        StatusActive,
		Phase:         PhaseSpringOrders,
		Season:        Spring,
		Year:          1,
		Turn:          1,
		Players:       make(map[string]*Player),
		Units:         make(map[string]*Unit),
		Orders:        make(map[string]*Order),
		SupplyCenters: make(map[string]*SupplyCenter),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, id := range e.world.RegionIDs() {
		r := e.world.Region(id)
		if !r.IsSupplyCenter {
			continue
		}
		gs.SupplyCenters[id] = &SupplyCenter{ID: id, Owner: r.Civilization}
		gs.centerSeq = append(gs.centerSeq, id)
	}
	e.state = gs
	e.seq = 0
	return gs
}

// State returns the live game state. Callers must not mutate it.
func (e *Engine) State() *GameState {
	return e.state
}

// AddPlayer registers a player for the given civilization and seeds that
// civilization's starting units. The player's initial supply-center list
// is the intersection of the civilization's starting regions and the
// map's supply centers.
func (e *Engine) AddPlayer(playerID, civilizationID, userID string) (*Player, error) {
	civ := e.world.Civilization(civilizationID)
	if civ == nil {
		return nil, orderErrorf(CodeInvalidCivilization, "unknown civilization %q", civilizationID)
	}

	p := &Player{
		ID:             playerID,
		UserID:         userID,
		CivilizationID: civilizationID,
	}
	for _, regionID := range civ.StartingRegions {
		r := e.world.Region(regionID)
		if r != nil && r.IsSupplyCenter {
			p.SupplyCenters = append(p.SupplyCenters, regionID)
		}
	}
	e.state.Players[playerID] = p
	e.state.playerSeq = append(e.state.playerSeq, playerID)

	e.seedUnits(p, civ)
	e.touch()
	return p, nil
}

// seedUnits places a player's starting units. Starting regions missing
// from the map are skipped, not failed: historical data-entry errors must
// not block game creation. Each skip is logged for observability.
func (e *Engine) seedUnits(p *Player, civ *Civilization) {
	for _, regionID := range civ.StartingRegions {
		r := e.world.Region(regionID)
		if r == nil {
			e.log.Warn().
				Str("gameId", e.state.ID).
				Str("playerId", p.ID).
				Str("civilization", civ.ID).
				Str("region", regionID).
				Msg("Skipping unknown starting region during unit seeding")
			continue
		}
		e.createUnit(p, UnitTypeFor(r.Type), regionID)
	}
}

// createUnit constructs and registers a unit, keeping Region and the
// legacy RegionID duplicate in sync from birth.
func (e *Engine) createUnit(p *Player, ut UnitType, regionID string) *Unit {
	u := &Unit{
		ID:       fmt.Sprintf("%s_%s_%s_%d", p.ID, ut, regionID, e.now().UnixMilli()),
		Type:     ut,
		Region:   regionID,
		RegionID: regionID,
		PlayerID: p.ID,
	}
	e.state.Units[u.ID] = u
	e.state.unitSeq = append(e.state.unitSeq, u.ID)
	p.Units = append(p.Units, u.ID)
	return u
}

// removeUnit deletes a unit from the global collection, the insertion
// index, and its owner's unit list.
func (e *Engine) removeUnit(unitID string) {
	u := e.state.Units[unitID]
	if u == nil {
		return
	}
	delete(e.state.Units, unitID)
	for i, id := range e.state.unitSeq {
		if id == unitID {
			e.state.unitSeq = append(e.state.unitSeq[:i], e.state.unitSeq[i+1:]...)
			break
		}
	}
	if p := e.state.Players[u.PlayerID]; p != nil {
		for i, id := range p.Units {
			if id == unitID {
				p.Units = append(p.Units[:i], p.Units[i+1:]...)
				break
			}
		}
	}
}

// AllPlayersSubmitted reports whether every player still in the game has
// submitted orders this phase. Eliminated players have no orders to give
// and do not block readiness. It is the engine's only readiness signal;
// deadline policy lives in the hosting layer.
func (e *Engine) AllPlayersSubmitted() bool {
	for _, p := range e.state.Players {
		if p.Eliminated {
			continue
		}
		if !p.HasSubmittedOrders {
			return false
		}
	}
	return true
}

// ValidateGameState runs non-fatal pre-flight checks and returns
// human-readable violations. An empty slice means the state is sound.
func (e *Engine) ValidateGameState() []string {
	var violations []string
	n := len(e.state.Players)
	if n < MinPlayers || n > MaxPlayers {
		violations = append(violations,
			fmt.Sprintf("player count %d outside allowed range [%d, %d]", n, MinPlayers, MaxPlayers))
	}
	if got := len(e.state.SupplyCenters); got != TotalSupplyCenters {
		violations = append(violations,
			fmt.Sprintf("supply center count %d does not match expected total %d", got, TotalSupplyCenters))
	}
	return violations
}

// clearPlayerOrders drops all registered orders for one player. Other
// players' orders are untouched.
func (e *Engine) clearPlayerOrders(playerID string) {
	kept := e.state.orderSeq[:0]
	for _, id := range e.state.orderSeq {
		o := e.state.Orders[id]
		if o != nil && o.PlayerID == playerID {
			delete(e.state.Orders, id)
			continue
		}
		kept = append(kept, id)
	}
	e.state.orderSeq = kept
}

// clearOrders drops every registered order and resets submission flags.
func (e *Engine) clearOrders() {
	e.state.Orders = make(map[string]*Order)
	e.state.orderSeq = nil
	for _, p := range e.state.Players {
		p.HasSubmittedOrders = false
	}
}

func (e *Engine) registerOrder(o *Order) {
	e.state.Orders[o.ID] = o
	e.state.orderSeq = append(e.state.orderSeq, o.ID)
}

func (e *Engine) nextOrderID() string {
	e.seq++
	return fmt.Sprintf("order_%d_%d", e.state.Turn, e.seq)
}

func (e *Engine) touch() {
	e.state.UpdatedAt = e.now()
}
