package engine

// advanceTurn moves the state machine to the next order-submission phase.
// Spring leads to Fall of the same year, Fall to Winter, Winter to Spring
// of the next year. The turn number increments and all orders and
// submission flags reset on every advance.
func (e *Engine) advanceTurn() {
	gs := e.state
	switch gs.Season {
	case Spring:
		gs.Season = Fall
		gs.Phase = PhaseFallOrders
	case Fall:
		gs.Season = Winter
		gs.Phase = PhaseWinterAdjustments
	case Winter:
		gs.Season = Spring
		gs.Phase = PhaseSpringOrders
		gs.Year++
	}
	gs.Turn++
	e.clearOrders()
	e.touch()
}

// resolveAdjustments runs winter build/disband processing for every
// player. A player over their center count must disband down to it; a
// player under it may build up to it. Orders beyond the allowed count are
// left pending and simply never executed.
func (e *Engine) resolveAdjustments() error {
	for _, pid := range e.state.playerSeq {
		p := e.state.Players[pid]
		diff := len(p.SupplyCenters) - len(p.Units)
		if diff > 0 {
			e.processBuildOrders(p, diff)
		} else if diff < 0 {
			e.processDisbandOrders(p, -diff)
		}
	}
	return nil
}

// processBuildOrders executes up to allowed pending build orders for the
// player, in submission order, creating a unit per executed order.
func (e *Engine) processBuildOrders(p *Player, allowed int) {
	built := 0
	for _, id := range e.state.orderSeq {
		if built >= allowed {
			return
		}
		o := e.state.Orders[id]
		if o.PlayerID != p.ID || o.Type != OrderBuild || o.Status != OrderPending {
			continue
		}
		e.createUnit(p, o.BuildType, o.Region)
		o.Status = OrderSuccessful
		built++
	}
}

// processDisbandOrders executes up to required pending disband orders for
// the player, in submission order, removing the referenced units.
func (e *Engine) processDisbandOrders(p *Player, required int) {
	removed := 0
	for _, id := range e.state.orderSeq {
		if removed >= required {
			return
		}
		o := e.state.Orders[id]
		if o.PlayerID != p.ID || o.Type != OrderDisband || o.Status != OrderPending {
			continue
		}
		if e.state.Units[o.UnitID] == nil {
			continue
		}
		e.removeUnit(o.UnitID)
		o.Status = OrderSuccessful
		removed++
	}
}

// checkVictory marks the game completed if any player has reached the
// victory supply-center threshold.
func (e *Engine) checkVictory() bool {
	for _, pid := range e.state.playerSeq {
		p := e.state.Players[pid]
		if len(p.SupplyCenters) >= VictorySupplyCenters {
			e.state.Status = StatusCompleted
			e.state.Phase = PhaseCompleted
			e.log.Info().
				Str("gameId", e.state.ID).
				Str("playerId", p.ID).
				Str("civilization", p.CivilizationID).
				Int("supplyCenters", len(p.SupplyCenters)).
				Msg("Victory condition met")
			return true
		}
	}
	return false
}
