package triangle

import "errors"

var (
	// ErrItemNotFound is returned when one of the triple's items does
	// not exist in the snapshot.
	ErrItemNotFound = errors.New("triangle: item not found")

	// ErrIncompleteTriple is returned when the triple is missing one
	// of its three pairwise comparisons.
	ErrIncompleteTriple = errors.New("triangle: triple is missing a comparison")

	// ErrInvalidOrdering is returned when a resolution ordering is not
	// a permutation of the positions 1 through 3.
	ErrInvalidOrdering = errors.New("triangle: ordering must assign positions 1..3 exactly once")
)
