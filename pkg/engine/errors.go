package engine

import "fmt"

// ErrorCode identifies why an order or state operation was rejected.
type ErrorCode string

const (
	// Input errors (client-correctable).
	CodeInvalidCivilization   ErrorCode = "invalid_civilization"
	CodeInvalidUnit           ErrorCode = "invalid_unit"
	CodeInvalidTarget         ErrorCode = "invalid_target"
	CodeNonAdjacentMove       ErrorCode = "non_adjacent_move"
	CodeIncompatibleTerrain   ErrorCode = "incompatible_terrain"
	CodeMissingSupportFields  ErrorCode = "missing_support_fields"
	CodeSupportedUnitNotFound ErrorCode = "supported_unit_not_found"
	CodeInvalidSupportTarget  ErrorCode = "invalid_support_target"
	CodeInvalidConvoyUnit     ErrorCode = "invalid_convoy_unit"
	CodeConvoyNotAtSea        ErrorCode = "convoy_not_at_sea"
	CodeWrongPhaseForBuild    ErrorCode = "wrong_phase_for_build"
	CodeNoBuildCapacity       ErrorCode = "no_build_capacity"

	// State errors (caller misuse).
	CodePlayerNotFound ErrorCode = "player_not_found"
	CodeWrongPhase     ErrorCode = "wrong_phase"
	CodeGameCompleted  ErrorCode = "game_completed"
)

// OrderError describes why an order or state operation was rejected.
// It is raised before any state mutation.
type OrderError struct {
	Code    ErrorCode
	Message string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func orderErrorf(code ErrorCode, format string, args ...any) *OrderError {
	return &OrderError{Code: code, Message: fmt.Sprintf(format, args...)}
}
