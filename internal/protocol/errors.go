package protocol

// Stable error codes carried on rejected action results. The human-readable
// message may change; these strings may not.
const (
	// Timeflow / boundary layer.
	ErrBoundaryLocked   = "E_BOUNDARY_LOCKED"
	ErrBoundaryConflict = "E_BOUNDARY_CONFLICT"
	ErrBoundaryDup      = "E_BOUNDARY_DUP"
	ErrCadence          = "E_CADENCE"

	// Manager phase layer.
	ErrPhase        = "E_PHASE"
	ErrPlanEnvelope = "E_PLAN_ENVELOPE"

	// Gameplay/resource layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNoGold        = "E_NO_GOLD"
	ErrNoStock       = "E_NO_STOCK"
	ErrNoMarket      = "E_NO_MARKET"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrLastStaff     = "E_LAST_STAFF"
	ErrTravelBusy    = "E_TRAVEL_BUSY"

	// Save/load layer.
	ErrSaveVersion = "E_SAVE_VERSION"
	ErrSaveShape   = "E_SAVE_SHAPE"
)

var knownCodes = map[string]struct{}{
	ErrBoundaryLocked:   {},
	ErrBoundaryConflict: {},
	ErrBoundaryDup:      {},
	ErrCadence:          {},
	ErrPhase:            {},
	ErrPlanEnvelope:     {},
	ErrBadRequest:       {},
	ErrNoGold:           {},
	ErrNoStock:          {},
	ErrNoMarket:         {},
	ErrInvalidTarget:    {},
	ErrLastStaff:        {},
	ErrTravelBusy:       {},
	ErrSaveVersion:      {},
	ErrSaveShape:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
