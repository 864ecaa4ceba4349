// Package triangle detects 3-cycles among decisive comparison outcomes
// and enumerates the consistent orderings that would resolve them. A
// triangle is three items where A beats B, B beats C, and C beats A:
// no transitive ranking can honor all three recorded outcomes at once.
package triangle

import (
	"sort"

	"github.com/okian/ranqr/internal/domain/ledger"
	"github.com/okian/ranqr/internal/domain/model"
)

// Triangle is one detected 3-cycle. Items are reported in ascending id
// order; Dissonance weighs how strongly the cycle contradicts the
// score-implied ordering.
type Triangle struct {
	A, B, C    *model.Item
	Dissonance float64
}

// Ordering assigns each of the three items a rank position from 1
// (best) to 3. A resolution is one of the six possible orderings.
type Ordering struct {
	A int `json:"item_a_order"`
	B int `json:"item_b_order"`
	C int `json:"item_c_order"`
}

func (o Ordering) valid() bool {
	seen := [4]bool{}
	for _, p := range [3]int{o.A, o.B, o.C} {
		if p < 1 || p > 3 || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// Change is one comparison rewrite implied by a resolution.
type Change struct {
	Pair model.Pair
	From model.Outcome
	To   model.Outcome
}

// Option is one of the six enumerated resolutions with its effect on
// the triple's dissonance.
type Option struct {
	Ordering         Ordering
	Changes          []Change
	DissonanceChange float64
	NewDissonance    float64
}

// Find returns every triangle in the comparison graph, each unordered
// triple reported once. Only triples with all three pairwise
// comparisons recorded and decisive can cycle.
func Find(items []*model.Item, comparisons []*model.Comparison) []Triangle {
	sorted := make([]*model.Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byPair := make(map[model.Pair]*model.Comparison, len(comparisons))
	for _, c := range comparisons {
		byPair[c.Pair] = c
	}

	var out []Triangle
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			for k := j + 1; k < len(sorted); k++ {
				a, b, c := sorted[i], sorted[j], sorted[k]
				if isCycle(a.ID, b.ID, c.ID, byPair) {
					out = append(out, Triangle{
						A:          a,
						B:          b,
						C:          c,
						Dissonance: Dissonance(a.Points, b.Points, c.Points),
					})
				}
			}
		}
	}
	return out
}

// Dissonance is the sum of the two largest pairwise absolute score
// differences, which is the total pairwise difference minus the
// smallest one.
func Dissonance(pa, pb, pc int) float64 {
	dab := absInt(pa - pb)
	dbc := absInt(pb - pc)
	dca := absInt(pc - pa)
	smallest := dab
	if dbc < smallest {
		smallest = dbc
	}
	if dca < smallest {
		smallest = dca
	}
	return float64(dab + dbc + dca - smallest)
}

// Options enumerates all six resolutions for the triple (a, b, c),
// each with the comparison rewrites it implies and the dissonance the
// triple would have after the rewritten outcomes adjusted the scores.
func Options(snap *model.Snapshot, aID, bID, cID int64) ([]Option, error) {
	items, comps, err := triple(snap, aID, bID, cID)
	if err != nil {
		return nil, err
	}
	current := Dissonance(items[0].Points, items[1].Points, items[2].Points)

	out := make([]Option, 0, len(orderings))
	for _, ord := range orderings {
		points := map[int64]int{
			aID: items[0].Points,
			bID: items[1].Points,
			cID: items[2].Points,
		}
		var changes []Change
		for idx, comp := range comps {
			to := impliedOutcome(comp.Pair, rankOf(ord, idx, aID, bID, cID))
			adjust(points, comp.Pair, comp.Outcome, to)
			if to != comp.Outcome {
				changes = append(changes, Change{Pair: comp.Pair, From: comp.Outcome, To: to})
			}
		}
		after := Dissonance(points[aID], points[bID], points[cID])
		out = append(out, Option{
			Ordering:         ord,
			Changes:          changes,
			DissonanceChange: after - current,
			NewDissonance:    after,
		})
	}
	return out, nil
}

// Resolve rewrites the triple's three comparisons to the outcomes the
// chosen ordering implies, routing every point mutation through the
// ledger. All three implied outcomes are computed before any apply, so
// invalid input mutates nothing.
func Resolve(snap *model.Snapshot, aID, bID, cID int64, ord Ordering) ([]*model.Comparison, error) {
	if !ord.valid() {
		return nil, ErrInvalidOrdering
	}
	_, comps, err := triple(snap, aID, bID, cID)
	if err != nil {
		return nil, err
	}
	outcomes := make([]model.Outcome, len(comps))
	for idx, comp := range comps {
		outcomes[idx] = impliedOutcome(comp.Pair, rankOf(ord, idx, aID, bID, cID))
	}
	affected := make([]*model.Comparison, 0, len(comps))
	for idx, comp := range comps {
		applied, err := ledger.Apply(snap, comp.Pair, outcomes[idx])
		if err != nil {
			return nil, err
		}
		affected = append(affected, applied)
	}
	return affected, nil
}

// orderings lists all 3! rank assignments.
var orderings = []Ordering{
	{A: 1, B: 2, C: 3},
	{A: 1, B: 3, C: 2},
	{A: 2, B: 1, C: 3},
	{A: 2, B: 3, C: 1},
	{A: 3, B: 1, C: 2},
	{A: 3, B: 2, C: 1},
}

// pairsOf fixes the iteration order of a triple's pairs: (a,b), (b,c), (a,c).
func pairsOf(aID, bID, cID int64) [3][2]int64 {
	return [3][2]int64{{aID, bID}, {bID, cID}, {aID, cID}}
}

// triple resolves the three items and their three comparisons, in the
// pair order from pairsOf.
func triple(snap *model.Snapshot, aID, bID, cID int64) ([3]*model.Item, [3]*model.Comparison, error) {
	var items [3]*model.Item
	for idx, id := range [3]int64{aID, bID, cID} {
		it, ok := snap.Item(id)
		if !ok {
			return items, [3]*model.Comparison{}, ErrItemNotFound
		}
		items[idx] = it
	}
	var comps [3]*model.Comparison
	for idx, ends := range pairsOf(aID, bID, cID) {
		pair, err := model.NewPair(ends[0], ends[1])
		if err != nil {
			return items, comps, err
		}
		comp, ok := snap.Comparison(pair)
		if !ok {
			return items, comps, ErrIncompleteTriple
		}
		comps[idx] = comp
	}
	return items, comps, nil
}

// rankOf maps comparison index idx (pair order from pairsOf) to the
// rank positions of that pair's two endpoints under ord.
func rankOf(ord Ordering, idx int, aID, bID, cID int64) map[int64]int {
	ranks := map[int64]int{aID: ord.A, bID: ord.B, cID: ord.C}
	ends := pairsOf(aID, bID, cID)[idx]
	return map[int64]int{ends[0]: ranks[ends[0]], ends[1]: ranks[ends[1]]}
}

// impliedOutcome converts "the earlier-ranked endpoint wins" into a
// canonical outcome for the pair.
func impliedOutcome(pair model.Pair, ranks map[int64]int) model.Outcome {
	if ranks[pair.Low] < ranks[pair.High] {
		return model.OutcomeFirst
	}
	return model.OutcomeSecond
}

// adjust applies the point delta of rewriting a comparison from one
// outcome to another, restricted to the tracked items.
func adjust(points map[int64]int, pair model.Pair, from, to model.Outcome) {
	switch from {
	case model.OutcomeFirst:
		points[pair.Low]--
		points[pair.High]++
	case model.OutcomeSecond:
		points[pair.Low]++
		points[pair.High]--
	}
	switch to {
	case model.OutcomeFirst:
		points[pair.Low]++
		points[pair.High]--
	case model.OutcomeSecond:
		points[pair.Low]--
		points[pair.High]++
	}
}

// isCycle reports whether the triple's decisive outcomes form a 3-cycle
// rather than a transitive chain: in a cycle every member wins exactly
// one of its two comparisons.
func isCycle(a, b, c int64, byPair map[model.Pair]*model.Comparison) bool {
	wins := map[int64]int{a: 0, b: 0, c: 0}
	for _, ends := range pairsOf(a, b, c) {
		pair, err := model.NewPair(ends[0], ends[1])
		if err != nil {
			return false
		}
		comp, ok := byPair[pair]
		if !ok || comp.Outcome == model.OutcomeTie {
			return false
		}
		wins[comp.WinnerID()]++
	}
	return wins[a] == 1 && wins[b] == 1 && wins[c] == 1
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
