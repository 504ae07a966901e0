package budget

import "errors"

// Sentinel kinds for unit cost configuration errors.
var (
	ErrMissingUnitCost = errors.New("missing unit cost")
	ErrInvalidUnitCost = errors.New("invalid unit cost")
)
