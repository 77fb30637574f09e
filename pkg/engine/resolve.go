package engine

import "fmt"

// ResolveTurn resolves the current phase and advances the state machine.
// It is the sequencer's single entry point: movement phases run the
// conflict resolver, winter runs build/disband processing, and victory is
// checked after every resolution step. Unexpected internal errors are
// logged with full turn context and returned; the turn is left
// unresolved in that case.
func (e *Engine) ResolveTurn() error {
	gs := e.state
	if gs.Status == StatusCompleted {
		return orderErrorf(CodeGameCompleted, "game %s is already completed", gs.ID)
	}

	var err error
	switch gs.Phase {
	case PhaseSpringOrders:
		gs.Phase = PhaseSpringResolution
		err = e.resolveMovement()
	case PhaseFallOrders:
		gs.Phase = PhaseFallResolution
		if err = e.resolveMovement(); err == nil {
			e.updateSupplyCenterOwnership()
		}
	case PhaseWinterAdjustments:
		err = e.resolveAdjustments()
	default:
		err = orderErrorf(CodeWrongPhase, "phase %s is not resolvable", gs.Phase)
	}

	if err != nil {
		wrapped := fmt.Errorf("resolve turn %d (%s, year %d): %w", gs.Turn, gs.Season, gs.Year, err)
		e.log.Error().Err(err).
			Str("gameId", gs.ID).
			Int("turn", gs.Turn).
			Str("phase", string(gs.Phase)).
			Str("season", string(gs.Season)).
			Msg("Turn resolution failed")
		return wrapped
	}

	if e.checkVictory() {
		// The turn does not advance, but resolved orders and submission
		// flags are still cleared so the final snapshot carries none.
		e.clearOrders()
		e.touch()
		return nil
	}
	e.advanceTurn()
	return nil
}

// resolveMovement adjudicates all registered move orders for the phase.
// Moves are grouped by destination: an unopposed move always succeeds; a
// contested destination goes to the unique strongest mover, or to nobody
// on a tie (standoff). Dislodgement, convoy-path legality, and retreats
// are not modeled.
func (e *Engine) resolveMovement() error {
	var destSeq []string
	byDest := make(map[string][]*Order)
	for _, id := range e.state.orderSeq {
		o := e.state.Orders[id]
		if o.Type != OrderMove {
			continue
		}
		if _, seen := byDest[o.Target]; !seen {
			destSeq = append(destSeq, o.Target)
		}
		byDest[o.Target] = append(byDest[o.Target], o)
	}

	for _, dest := range destSeq {
		contenders := byDest[dest]
		if len(contenders) == 1 {
			if err := e.executeMove(contenders[0]); err != nil {
				return err
			}
			continue
		}
		if err := e.resolveConflict(dest, contenders); err != nil {
			return err
		}
	}
	return nil
}

// resolveConflict adjudicates two or more moves into the same destination.
func (e *Engine) resolveConflict(dest string, contenders []*Order) error {
	maxStrength := 0
	winners := 0
	var winner *Order
	for _, o := range contenders {
		s := e.strengthOf(o.UnitID, dest)
		switch {
		case s > maxStrength:
			maxStrength = s
			winner = o
			winners = 1
		case s == maxStrength:
			winners++
		}
	}

	if winners > 1 {
		// Standoff: nobody moves, occupancy unchanged.
		for _, o := range contenders {
			o.Status = OrderFailed
		}
		return nil
	}

	for _, o := range contenders {
		if o != winner {
			o.Status = OrderFailed
		}
	}
	return e.executeMove(winner)
}

// strengthOf computes a unit's strength for a move into dest: 1 base plus
// every support order naming this unit and this destination.
func (e *Engine) strengthOf(unitID, dest string) int {
	strength := 1
	for _, id := range e.state.orderSeq {
		o := e.state.Orders[id]
		if o.Type == OrderSupport && o.SupportedUnit == unitID && o.SupportTarget == dest {
			strength++
		}
	}
	return strength
}

// executeMove relocates the unit and marks the order successful. Region
// and the legacy RegionID duplicate are updated together so no consumer
// ever observes a mismatch.
func (e *Engine) executeMove(o *Order) error {
	u := e.state.Units[o.UnitID]
	if u == nil {
		return fmt.Errorf("move order %s references missing unit %s", o.ID, o.UnitID)
	}
	u.Region = o.Target
	u.RegionID = o.Target
	o.Status = OrderSuccessful
	return nil
}

// updateSupplyCenterOwnership transfers each supply center to the
// civilization of the unit occupying it, if any. Runs once per year,
// after fall movement resolves and before winter adjustments.
func (e *Engine) updateSupplyCenterOwnership() {
	for _, scID := range e.state.centerSeq {
		sc := e.state.SupplyCenters[scID]
		occupant := e.unitIn(scID)
		if occupant == nil {
			continue
		}
		newOwner := e.state.Players[occupant.PlayerID]
		if newOwner == nil || newOwner.CivilizationID == sc.Owner {
			continue
		}

		if sc.Owner != "" {
			if old := e.playerForCivilization(sc.Owner); old != nil {
				old.SupplyCenters = removeString(old.SupplyCenters, scID)
			}
		}
		sc.Owner = newOwner.CivilizationID
		if !containsString(newOwner.SupplyCenters, scID) {
			newOwner.SupplyCenters = append(newOwner.SupplyCenters, scID)
		}

		e.log.Info().
			Str("gameId", e.state.ID).
			Str("region", scID).
			Str("owner", sc.Owner).
			Msg("Supply center captured")
	}
}

// unitIn returns the first unit occupying the region in creation order,
// or nil. Two units sharing a region is not expected after resolution.
func (e *Engine) unitIn(regionID string) *Unit {
	for _, id := range e.state.unitSeq {
		if u := e.state.Units[id]; u.Region == regionID {
			return u
		}
	}
	return nil
}

func (e *Engine) playerForCivilization(civID string) *Player {
	for _, id := range e.state.playerSeq {
		if p := e.state.Players[id]; p.CivilizationID == civID {
			return p
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
