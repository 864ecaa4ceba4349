// Package ledger maintains the cached per-item point totals as
// comparisons are recorded, changed, and removed. Every point mutation
// in the system flows through Apply or RemoveAllForItem so the
// invariant points == wins - losses holds at all times.
package ledger

import (
	"github.com/okian/ranqr/internal/domain/model"
)

// Apply upserts the outcome for a canonical pair, reversing the point
// effect of any previously recorded outcome first. Submitting the same
// outcome twice is a no-op on points. The returned comparison is the
// upserted record (ID zero when newly created).
func Apply(snap *model.Snapshot, pair model.Pair, outcome model.Outcome) (*model.Comparison, error) {
	if !outcome.Valid() {
		return nil, model.ErrUnknownOutcome
	}
	low, ok := snap.Item(pair.Low)
	if !ok {
		return nil, ErrItemNotFound
	}
	high, ok := snap.Item(pair.High)
	if !ok {
		return nil, ErrItemNotFound
	}

	comp, exists := snap.Comparison(pair)
	if exists {
		reverse(low, high, comp.Outcome)
		comp.Outcome = outcome
	} else {
		comp = &model.Comparison{
			CollectionID: low.CollectionID,
			Pair:         pair,
			Outcome:      outcome,
		}
		snap.Upsert(comp)
	}
	apply(low, high, outcome)
	return comp, nil
}

// RemoveAllForItem reverses and deletes every comparison touching the
// item, returning the number removed. The item itself is left in place
// with zero accumulated points from those comparisons.
func RemoveAllForItem(snap *model.Snapshot, itemID int64) (int, error) {
	if _, ok := snap.Item(itemID); !ok {
		return 0, ErrItemNotFound
	}
	var doomed []*model.Comparison
	for _, c := range snap.Comparisons {
		if c.Involves(itemID) {
			doomed = append(doomed, c)
		}
	}
	for _, c := range doomed {
		low, _ := snap.Item(c.Pair.Low)
		high, _ := snap.Item(c.Pair.High)
		if low != nil && high != nil {
			reverse(low, high, c.Outcome)
		}
		snap.Remove(c.Pair)
	}
	return len(doomed), nil
}

// Recompute derives every item's points from scratch over the given
// comparisons. The auditor and tests use it to verify the cached
// values; it never consults Item.Points.
func Recompute(items []*model.Item, comparisons []*model.Comparison) map[int64]int {
	points := make(map[int64]int, len(items))
	for _, it := range items {
		points[it.ID] = 0
	}
	for _, c := range comparisons {
		if c.Outcome == model.OutcomeTie {
			continue
		}
		if w := c.WinnerID(); w != 0 {
			points[w]++
			points[c.LoserID()]--
		}
	}
	return points
}

// apply adds the point effect of outcome to the pair's endpoints.
func apply(low, high *model.Item, outcome model.Outcome) {
	switch outcome {
	case model.OutcomeFirst:
		low.Points++
		high.Points--
	case model.OutcomeSecond:
		low.Points--
		high.Points++
	}
}

// reverse undoes the point effect of a previously applied outcome.
func reverse(low, high *model.Item, outcome model.Outcome) {
	switch outcome {
	case model.OutcomeFirst:
		low.Points--
		high.Points++
	case model.OutcomeSecond:
		low.Points++
		high.Points--
	}
}
