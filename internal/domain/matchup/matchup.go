// Package matchup chooses the next uncompared pair to present. The
// heuristic concentrates comparisons inside the largest group of items
// sharing a score, where ranking uncertainty is highest, and spreads
// coverage toward items with fewer recorded comparisons.
package matchup

import (
	"math/rand"
	"sort"
	"time"

	"github.com/okian/ranqr/internal/domain/model"
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRand sets the random source used for final tie-breaks. Tests
// inject a seeded source; the default is time-seeded.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// Selector picks matchups. Safe for single-goroutine use per call site;
// callers serialize per collection as with every mutating path.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a selector with configuration options.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection bias avoidance, not cryptography
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next pair to compare, or false when every unordered
// pair already has a recorded comparison.
func (s *Selector) Next(items []*model.Item, comparisons []*model.Comparison) (model.Pair, bool) {
	if len(items) < 2 {
		return model.Pair{}, false
	}
	compared := make(map[model.Pair]bool, len(comparisons))
	perItem := make(map[int64]int, len(items))
	for _, c := range comparisons {
		compared[c.Pair] = true
		perItem[c.Pair.Low]++
		perItem[c.Pair.High]++
	}

	group := chooseGroup(items)
	candidates := uncomparedPairs(group, compared)
	if len(candidates) == 0 {
		// The chosen cluster is fully compared; fall back to the first
		// open pair anywhere, in id order.
		pair, ok := firstUncompared(items, compared)
		return pair, ok
	}

	// Rank by (max endpoint comparisons, total endpoint comparisons)
	// ascending and draw uniformly among the best.
	type scored struct {
		pair       model.Pair
		maxC, sumC int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		ca, cb := perItem[p.Low], perItem[p.High]
		m := ca
		if cb > m {
			m = cb
		}
		ranked = append(ranked, scored{pair: p, maxC: m, sumC: ca + cb})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].maxC != ranked[j].maxC {
			return ranked[i].maxC < ranked[j].maxC
		}
		return ranked[i].sumC < ranked[j].sumC
	})
	best := ranked[:1]
	for _, r := range ranked[1:] {
		if r.maxC == ranked[0].maxC && r.sumC == ranked[0].sumC {
			best = append(best, r)
			continue
		}
		break
	}
	return best[s.rng.Intn(len(best))].pair, true
}

// Direct validates a caller-specified pair: both items must belong to
// the item set and be distinct. The returned pair is canonical.
func Direct(items []*model.Item, a, b int64) (model.Pair, error) {
	pair, err := model.NewPair(a, b)
	if err != nil {
		return model.Pair{}, err
	}
	found := 0
	for _, it := range items {
		if it.ID == pair.Low || it.ID == pair.High {
			found++
		}
	}
	if found != 2 {
		return model.Pair{}, ErrItemNotInCollection
	}
	return pair, nil
}

// chooseGroup returns the same-score group with the most members.
// Equal-size groups are broken by score magnitude ascending with
// positive scores preferred over the equal-magnitude negative, so the
// preference order is 0, +1, -1, +2, -2, and so on.
func chooseGroup(items []*model.Item) []*model.Item {
	byScore := make(map[int][]*model.Item)
	var scores []int
	for _, it := range items {
		if _, seen := byScore[it.Points]; !seen {
			scores = append(scores, it.Points)
		}
		byScore[it.Points] = append(byScore[it.Points], it)
	}
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if len(byScore[a]) != len(byScore[b]) {
			return len(byScore[a]) > len(byScore[b])
		}
		am, bm := abs(a), abs(b)
		if am != bm {
			return am < bm
		}
		return a > b // positive before the equal-magnitude negative
	})
	return byScore[scores[0]]
}

// uncomparedPairs enumerates every pair within the group lacking a
// recorded comparison, in id order.
func uncomparedPairs(group []*model.Item, compared map[model.Pair]bool) []model.Pair {
	sorted := make([]*model.Item, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []model.Pair
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			p := model.Pair{Low: sorted[i].ID, High: sorted[j].ID}
			if !compared[p] {
				out = append(out, p)
			}
		}
	}
	return out
}

// firstUncompared scans all items in id order for the first open pair.
func firstUncompared(items []*model.Item, compared map[model.Pair]bool) (model.Pair, bool) {
	sorted := make([]*model.Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			p := model.Pair{Low: sorted[i].ID, High: sorted[j].ID}
			if !compared[p] {
				return p, true
			}
		}
	}
	return model.Pair{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
