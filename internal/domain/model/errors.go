package model

import "errors"

// Sentinel kinds for domain validation errors.
var (
	ErrSelfPair       = errors.New("comparison requires two distinct items")
	ErrUnknownOutcome = errors.New("unknown comparison outcome")
)
