package model

// Snapshot is the frozen entity graph for one collection: every domain
// computation is a pure function of one snapshot. Mutating operations
// (ledger, triangle resolution) modify the snapshot in place and leave
// persistence to the caller.
type Snapshot struct {
	Items       []*Item
	Comparisons []*Comparison

	itemsByID map[int64]*Item
	byPair    map[Pair]*Comparison
}

// NewSnapshot indexes the given entities. Items and comparisons are
// expected in id order (the stored order); the slices are retained.
func NewSnapshot(items []*Item, comparisons []*Comparison) *Snapshot {
	s := &Snapshot{
		Items:       items,
		Comparisons: comparisons,
		itemsByID:   make(map[int64]*Item, len(items)),
		byPair:      make(map[Pair]*Comparison, len(comparisons)),
	}
	for _, it := range items {
		s.itemsByID[it.ID] = it
	}
	for _, c := range comparisons {
		s.byPair[c.Pair] = c
	}
	return s
}

// Item returns the item with the given id, if present.
func (s *Snapshot) Item(id int64) (*Item, bool) {
	it, ok := s.itemsByID[id]
	return it, ok
}

// Comparison returns the recorded comparison for a canonical pair.
func (s *Snapshot) Comparison(p Pair) (*Comparison, bool) {
	c, ok := s.byPair[p]
	return c, ok
}

// Upsert records a comparison in the snapshot, replacing any previous
// entry for the same pair.
func (s *Snapshot) Upsert(c *Comparison) {
	if prev, exists := s.byPair[c.Pair]; exists {
		if prev != c {
			for i, old := range s.Comparisons {
				if old == prev {
					s.Comparisons[i] = c
					break
				}
			}
		}
	} else {
		s.Comparisons = append(s.Comparisons, c)
	}
	s.byPair[c.Pair] = c
}

// Remove deletes the comparison for a pair, if present.
func (s *Snapshot) Remove(p Pair) {
	if _, ok := s.byPair[p]; !ok {
		return
	}
	delete(s.byPair, p)
	kept := s.Comparisons[:0]
	for _, c := range s.Comparisons {
		if c.Pair != p {
			kept = append(kept, c)
		}
	}
	s.Comparisons = kept
}
