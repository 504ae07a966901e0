package scoring

import "errors"

// Sentinel kinds for threshold configuration errors.
var (
	ErrMissingThreshold = errors.New("missing scoring threshold")
	ErrInvalidThreshold = errors.New("invalid scoring threshold")
)
