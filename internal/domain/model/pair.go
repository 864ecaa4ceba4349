package model

// Pair is the canonical unordered item pair: Low < High always holds.
// Every place that keys or compares pairs goes through NewPair or
// Orient so the invariant cannot drift.
type Pair struct {
	Low  int64
	High int64
}

// NewPair builds a canonical pair from two item ids in any order.
// Returns ErrSelfPair when both ids are equal.
func NewPair(a, b int64) (Pair, error) {
	if a == b {
		return Pair{}, ErrSelfPair
	}
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}, nil
}

// Orient canonicalizes a pair submitted as (a, b) together with an
// outcome expressed relative to that submission order. When the pair
// swaps to satisfy Low < High the outcome flips with it.
func Orient(a, b int64, outcome Outcome) (Pair, Outcome, error) {
	p, err := NewPair(a, b)
	if err != nil {
		return Pair{}, "", err
	}
	if a > b {
		outcome = outcome.Flip()
	}
	return p, outcome, nil
}

// Other returns the opposite endpoint of the pair, or 0 when the id is
// not part of it.
func (p Pair) Other(itemID int64) int64 {
	switch itemID {
	case p.Low:
		return p.High
	case p.High:
		return p.Low
	}
	return 0
}
