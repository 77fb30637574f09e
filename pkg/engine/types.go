package engine

import "time"

// Season represents a game season.
type Season string

const (
	Spring Season = "spring"
	Fall   Season = "fall"
	Winter Season = "winter"
)

// Phase represents the current phase of a game.
type Phase string

const (
	PhaseSpringOrders      Phase = "spring_orders"
	PhaseSpringResolution  Phase = "spring_resolution"
	PhaseFallOrders        Phase = "fall_orders"
	PhaseFallResolution    Phase = "fall_resolution"
	PhaseWinterAdjustments Phase = "winter_adjustments"
	PhaseCompleted         Phase = "completed"
)

// Status represents the overall game status.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// UnitType represents the type of a military unit.
type UnitType string

const (
	Army  UnitType = "army"
	Fleet UnitType = "fleet"
)

// OrderType represents the type of order a unit can be given.
type OrderType string

const (
	OrderHold    OrderType = "hold"
	OrderMove    OrderType = "move"
	OrderSupport OrderType = "support"
	OrderConvoy  OrderType = "convoy"
	OrderBuild   OrderType = "build"
	OrderDisband OrderType = "disband"
)

// OrderStatus tracks an order through submission and resolution.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderSuccessful OrderStatus = "successful"
	OrderFailed     OrderStatus = "failed"
)

// Player is one participant in a game.
type Player struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"userId"`
	CivilizationID     string   `json:"civilization"`
	SupplyCenters      []string `json:"supplyCenters"`
	Units              []string `json:"units"`
	HasSubmittedOrders bool     `json:"hasSubmittedOrders"`
	Eliminated         bool     `json:"eliminated"`
}

// Unit is a single military unit on the board. Region and RegionID always
// hold the same value; RegionID is a legacy duplicate that downstream
// consumers still read, so every move updates both.
type Unit struct {
	ID           string   `json:"id"`
	Type         UnitType `json:"type"`
	Region       string   `json:"region"`
	RegionID     string   `json:"regionId"`
	PlayerID     string   `json:"playerId"`
	CanRetreat   bool     `json:"canRetreat"`
	IsRetreating bool     `json:"isRetreating"`
	MustRetreat  bool     `json:"mustRetreat"`
	Dislodged    bool     `json:"dislodged"`
}

// SupplyCenter tracks ownership of a supply-center region. The ID is the
// region ID. Contested is reserved for contested-center detection, which
// no resolver step computes yet; it stays false.
type SupplyCenter struct {
	ID        string `json:"id"`
	Owner     string `json:"owner,omitempty"` // civilization ID, "" if unowned
	Contested bool   `json:"contested"`
}

// Order is a fully validated order registered against the current phase.
// Orders never persist across phases.
type Order struct {
	ID            string      `json:"id"`
	PlayerID      string      `json:"playerId"`
	Type          OrderType   `json:"type"`
	UnitID        string      `json:"unitId,omitempty"` // empty for build
	Region        string      `json:"region,omitempty"` // origin (build: placement region)
	Target        string      `json:"target,omitempty"`
	SupportedUnit string      `json:"supportedUnit,omitempty"`
	SupportTarget string      `json:"supportTarget,omitempty"`
	ConvoyFrom    string      `json:"convoyFrom,omitempty"`
	ConvoyTo      string      `json:"convoyTo,omitempty"`
	BuildType     UnitType    `json:"buildType,omitempty"`
	Status        OrderStatus `json:"status"`
}

// GameState is the aggregate root for one game instance. It is owned
// exclusively by the Engine holding it and mutated only through Engine
// operations.
type GameState struct {
	ID            string
	Name          string
	Status        Status
	Phase         Phase
	Season        Season
	Year          int
	Turn          int
	Players       map[string]*Player
	Units         map[string]*Unit
	Orders        map[string]*Order
	SupplyCenters map[string]*SupplyCenter
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Insertion-order indexes. Map iteration order is random; resolution
	// and snapshots need stable ordering (builds and disbands execute in
	// submission order).
	playerSeq []string
	unitSeq   []string
	orderSeq  []string
	centerSeq []string
}
