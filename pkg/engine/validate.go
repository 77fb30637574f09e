package engine

// OrderInput is a raw order intent as received from a client, before
// validation. Fields beyond Type are interpreted per order type.
type OrderInput struct {
	Type          OrderType `json:"type"`
	UnitID        string    `json:"unitId,omitempty"`
	Target        string    `json:"target,omitempty"`
	SupportedUnit string    `json:"supportedUnit,omitempty"`
	SupportTarget string    `json:"supportTarget,omitempty"`
	ConvoyFrom    string    `json:"convoyFrom,omitempty"`
	ConvoyTo      string    `json:"convoyTo,omitempty"`
	BuildType     UnitType  `json:"buildType,omitempty"`
	BuildRegion   string    `json:"buildRegion,omitempty"`
}

// submissionPhases are the phases during which players may register orders.
var submissionPhases = map[Phase]bool{
	PhaseSpringOrders:      true,
	PhaseFallOrders:        true,
	PhaseWinterAdjustments: true,
}

// SubmitOrders validates and registers a player's order batch for the
// current phase. Submission is whole-batch replace: the player's previous
// orders are cleared first, and if any order in the new batch fails
// validation, nothing from the batch is registered and the previous
// orders stay cleared. On success the player's submission flag is set.
func (e *Engine) SubmitOrders(playerID string, inputs []OrderInput) error {
	if !submissionPhases[e.state.Phase] {
		return orderErrorf(CodeWrongPhase, "orders cannot be submitted during %s", e.state.Phase)
	}
	p := e.state.Players[playerID]
	if p == nil {
		return orderErrorf(CodePlayerNotFound, "player %q is not in this game", playerID)
	}

	e.clearPlayerOrders(playerID)
	p.HasSubmittedOrders = false

	validated := make([]*Order, 0, len(inputs))
	for _, in := range inputs {
		o, err := e.validateOrder(p, in)
		if err != nil {
			return err
		}
		validated = append(validated, o)
	}

	for _, o := range validated {
		e.registerOrder(o)
	}
	p.HasSubmittedOrders = true
	e.touch()
	return nil
}

// validateOrder converts one raw intent into a pending Order or fails
// with a typed error. It never mutates game state.
func (e *Engine) validateOrder(p *Player, in OrderInput) (*Order, error) {
	if in.Type == OrderBuild {
		return e.validateBuild(p, in)
	}

	u := e.state.Units[in.UnitID]
	if u == nil || u.PlayerID != p.ID {
		return nil, orderErrorf(CodeInvalidUnit, "unit %q not found or not owned by player %s", in.UnitID, p.ID)
	}

	o := &Order{
		ID:       e.nextOrderID(),
		PlayerID: p.ID,
		Type:     in.Type,
		UnitID:   u.ID,
		Region:   u.Region,
		Status:   OrderPending,
	}

	switch in.Type {
	case OrderHold, OrderDisband:
		return o, nil
	case OrderMove:
		return e.validateMove(o, u, in)
	case OrderSupport:
		return e.validateSupport(o, in)
	case OrderConvoy:
		return e.validateConvoy(o, u, in)
	default:
		return nil, orderErrorf(CodeInvalidUnit, "unknown order type %q", in.Type)
	}
}

func (e *Engine) validateMove(o *Order, u *Unit, in OrderInput) (*Order, error) {
	target := e.world.Region(in.Target)
	if target == nil {
		return nil, orderErrorf(CodeInvalidTarget, "target region %q does not exist", in.Target)
	}
	if !e.world.Adjacent(u.Region, in.Target) {
		return nil, orderErrorf(CodeNonAdjacentMove, "%s is not adjacent to %s", in.Target, u.Region)
	}
	if !TerrainAllows(u.Type, target.Type) {
		return nil, orderErrorf(CodeIncompatibleTerrain, "%s cannot enter %s region %s", u.Type, target.Type, in.Target)
	}
	o.Target = in.Target
	return o, nil
}

// validateSupport checks the support's references exist but deliberately
// not the supporting unit's range: an out-of-range support is accepted as
// pending and simply contributes nothing at resolution.
func (e *Engine) validateSupport(o *Order, in OrderInput) (*Order, error) {
	if in.SupportedUnit == "" || in.SupportTarget == "" {
		return nil, orderErrorf(CodeMissingSupportFields, "support requires a supported unit and a support target")
	}
	if e.state.Units[in.SupportedUnit] == nil {
		return nil, orderErrorf(CodeSupportedUnitNotFound, "supported unit %q does not exist", in.SupportedUnit)
	}
	if e.world.Region(in.SupportTarget) == nil {
		return nil, orderErrorf(CodeInvalidSupportTarget, "support target region %q does not exist", in.SupportTarget)
	}
	o.SupportedUnit = in.SupportedUnit
	o.SupportTarget = in.SupportTarget
	return o, nil
}

func (e *Engine) validateConvoy(o *Order, u *Unit, in OrderInput) (*Order, error) {
	if u.Type != Fleet {
		return nil, orderErrorf(CodeInvalidConvoyUnit, "only fleets can convoy")
	}
	r := e.world.Region(u.Region)
	if r == nil || r.Type != Sea {
		return nil, orderErrorf(CodeConvoyNotAtSea, "convoying fleet must be in a sea region, is in %s", u.Region)
	}
	o.ConvoyFrom = in.ConvoyFrom
	o.ConvoyTo = in.ConvoyTo
	return o, nil
}

// validateBuild checks capacity against current counts, not a precomputed
// allotment: repeated validation of a batch caps the build count
// implicitly, and adjustment resolution enforces the final cap again.
func (e *Engine) validateBuild(p *Player, in OrderInput) (*Order, error) {
	if e.state.Phase != PhaseWinterAdjustments {
		return nil, orderErrorf(CodeWrongPhaseForBuild, "builds are only allowed during winter adjustments, current phase is %s", e.state.Phase)
	}
	if len(p.Units) >= len(p.SupplyCenters) {
		return nil, orderErrorf(CodeNoBuildCapacity, "player %s has %d units and %d supply centers", p.ID, len(p.Units), len(p.SupplyCenters))
	}
	bt := in.BuildType
	if bt == "" {
		bt = Army
	}
	return &Order{
		ID:        e.nextOrderID(),
		PlayerID:  p.ID,
		Type:      OrderBuild,
		Region:    in.BuildRegion,
		BuildType: bt,
		Status:    OrderPending,
	}, nil
}
