package metrics

import "errors"

// ErrObserveFailed wraps failures to gather the registry.
var ErrObserveFailed = errors.New("metrics observe failed")
