package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotStarted     = errors.New("service not started")
	ErrNarration      = errors.New("narration failed")
)
