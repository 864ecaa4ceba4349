package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrEmptyName         = errors.New("name must not be empty")
	ErrNotEnoughItems    = errors.New("collection needs at least two items")
	ErrUnsupportedExport = errors.New("unsupported export envelope")
	ErrMalformedExport   = errors.New("malformed export envelope")
)
