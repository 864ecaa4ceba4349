package matchup

import "errors"

// Sentinel kinds for matchup errors.
var (
	ErrItemNotInCollection = errors.New("item does not belong to the collection")
)
