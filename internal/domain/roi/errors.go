package roi

import "errors"

// ErrUnknownFormat is returned when an ROI format name is not recognised.
var ErrUnknownFormat = errors.New("unknown roi format")
