// Package model contains domain entities passed between layers.
package model

import "time"

// Outcome records the result of a comparison relative to the canonical
// pair order: "item1" means the low-id item won, "item2" the high-id item.
type Outcome string

// Outcome values. The wire strings match the stored representation.
const (
	OutcomeFirst  Outcome = "item1"
	OutcomeSecond Outcome = "item2"
	OutcomeTie    Outcome = "tie"
)

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeFirst, OutcomeSecond, OutcomeTie:
		return true
	}
	return false
}

// Flip swaps the winner when the endpoints of a pair are swapped.
// Ties are unaffected.
func (o Outcome) Flip() Outcome {
	switch o {
	case OutcomeFirst:
		return OutcomeSecond
	case OutcomeSecond:
		return OutcomeFirst
	}
	return o
}

// Collection owns an item set and a comparison set.
type Collection struct {
	ID           int64
	Name         string
	SearchPrefix string
	CreatedAt    time.Time
}

// Item is a ranked entity within a collection. Points is a cached
// derived value (wins minus losses over decisive comparisons); the
// ledger keeps it consistent and the auditor verifies it against a
// from-scratch recomputation.
type Item struct {
	ID           int64
	CollectionID int64
	Name         string
	MediaLink    string
	Points       int
	CreatedAt    time.Time
}

// Comparison stores one recorded outcome for a canonical pair.
type Comparison struct {
	ID           int64
	CollectionID int64
	Pair         Pair
	Outcome      Outcome
	CreatedAt    time.Time
}

// Involves reports whether the comparison touches the given item.
func (c *Comparison) Involves(itemID int64) bool {
	return c.Pair.Low == itemID || c.Pair.High == itemID
}

// WinnerID returns the winning item id, or 0 for a tie.
func (c *Comparison) WinnerID() int64 {
	switch c.Outcome {
	case OutcomeFirst:
		return c.Pair.Low
	case OutcomeSecond:
		return c.Pair.High
	}
	return 0
}

// LoserID returns the losing item id, or 0 for a tie.
func (c *Comparison) LoserID() int64 {
	switch c.Outcome {
	case OutcomeFirst:
		return c.Pair.High
	case OutcomeSecond:
		return c.Pair.Low
	}
	return 0
}
