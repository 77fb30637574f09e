package engine

import (
	"fmt"
	"time"
)

// Snapshot is the flattened, externally consumable form of a game state.
// Every id-keyed collection becomes an ordered list of records and every
// field of the live entities appears in it, so a snapshot can be stored,
// reloaded, and rehydrated without loss.
type Snapshot struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Status        Status         `json:"status"`
	Phase         Phase          `json:"phase"`
	Season        Season         `json:"season"`
	Year          int            `json:"year"`
	Turn          int            `json:"turn"`
	Players       []Player       `json:"players"`
	Units         []Unit         `json:"units"`
	Orders        []Order        `json:"orders"`
	SupplyCenters []SupplyCenter `json:"supplyCenters"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	OrderSeq      int            `json:"orderSeq"`
}

// GameState flattens the live state into a Snapshot. Collections are
// emitted in insertion order.
func (e *Engine) GameState() Snapshot {
	gs := e.state
	snap := Snapshot{
		ID:            gs.ID,
		Name:          gs.Name,
		Status:        gs.Status,
		Phase:         gs.Phase,
		Season:        gs.Season,
		Year:          gs.Year,
		Turn:          gs.Turn,
		Players:       make([]Player, 0, len(gs.playerSeq)),
		Units:         make([]Unit, 0, len(gs.unitSeq)),
		Orders:        make([]Order, 0, len(gs.orderSeq)),
		SupplyCenters: make([]SupplyCenter, 0, len(gs.centerSeq)),
		CreatedAt:     gs.CreatedAt,
		UpdatedAt:     gs.UpdatedAt,
		OrderSeq:      e.seq,
	}
	for _, id := range gs.playerSeq {
		p := *gs.Players[id]
		p.SupplyCenters = append([]string(nil), p.SupplyCenters...)
		p.Units = append([]string(nil), p.Units...)
		snap.Players = append(snap.Players, p)
	}
	for _, id := range gs.unitSeq {
		snap.Units = append(snap.Units, *gs.Units[id])
	}
	for _, id := range gs.orderSeq {
		snap.Orders = append(snap.Orders, *gs.Orders[id])
	}
	for _, id := range gs.centerSeq {
		snap.SupplyCenters = append(snap.SupplyCenters, *gs.SupplyCenters[id])
	}
	return snap
}

// Restore rehydrates the engine from a flattened snapshot, replacing any
// previously loaded game. Flatten, restore, and flatten again yields
// content-equal snapshots.
func (e *Engine) Restore(snap Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("restore: snapshot has no game id")
	}
	gs := &GameState{
		ID:            snap.ID,
		Name:          snap.Name,
		Status:        snap.Status,
		Phase:         snap.Phase,
		Season:        snap.Season,
		Year:          snap.Year,
		Turn:          snap.Turn,
		Players:       make(map[string]*Player, len(snap.Players)),
		Units:         make(map[string]*Unit, len(snap.Units)),
		Orders:        make(map[string]*Order, len(snap.Orders)),
		SupplyCenters: make(map[string]*SupplyCenter, len(snap.SupplyCenters)),
		CreatedAt:     snap.CreatedAt,
		UpdatedAt:     snap.UpdatedAt,
	}
	for i := range snap.Players {
		p := snap.Players[i]
		p.SupplyCenters = append([]string(nil), p.SupplyCenters...)
		p.Units = append([]string(nil), p.Units...)
		gs.Players[p.ID] = &p
		gs.playerSeq = append(gs.playerSeq, p.ID)
	}
	for i := range snap.Units {
		u := snap.Units[i]
		if u.RegionID != u.Region {
			return fmt.Errorf("restore: unit %s region mismatch (%q vs %q)", u.ID, u.Region, u.RegionID)
		}
		gs.Units[u.ID] = &u
		gs.unitSeq = append(gs.unitSeq, u.ID)
	}
	for i := range snap.Orders {
		o := snap.Orders[i]
		gs.Orders[o.ID] = &o
		gs.orderSeq = append(gs.orderSeq, o.ID)
	}
	for i := range snap.SupplyCenters {
		sc := snap.SupplyCenters[i]
		gs.SupplyCenters[sc.ID] = &sc
		gs.centerSeq = append(gs.centerSeq, sc.ID)
	}
	e.state = gs
	e.seq = snap.OrderSeq
	return nil
}
