package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrItemNotFound = errors.New("item not found in snapshot")
)
