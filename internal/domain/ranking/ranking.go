// Package ranking produces the tie-broken total order over a
// collection's items. Ties on points are broken by a sub-score computed
// only from comparisons inside the tied group, applied recursively
// until groups reach size one or stop distinguishing their members.
package ranking

import (
	"sort"

	"github.com/okian/ranqr/internal/domain/model"
)

// Ranked is one row of the ordered ranking. SubScores starts with the
// item's main score and carries one extra value per tie-breaking level
// that distinguished it; it has length one when no tie-breaking applied.
type Ranked struct {
	Item      *model.Item
	SubScores []int
}

// Order sorts items by points descending, breaking ties recursively by
// intra-group sub-scores. Items are expected in stored (id) order; that
// order is kept wherever no comparison distinguishes two items.
func Order(items []*model.Item, comparisons []*model.Comparison) []Ranked {
	out := make([]Ranked, 0, len(items))
	for _, group := range groupByScore(items, func(it *model.Item) int { return it.Points }) {
		out = append(out, orderGroup(group.members, comparisons, []int{group.score})...)
	}
	return out
}

// Histogram returns the score distribution one level below the given
// path. An empty path yields the top-level points histogram. A path
// that matches no group, or lands on a group of size one or with no
// sub-score variance, yields an empty map.
func Histogram(items []*model.Item, comparisons []*model.Comparison, path []int) map[int]int {
	if len(path) == 0 {
		hist := make(map[int]int, len(items))
		for _, it := range items {
			hist[it.Points]++
		}
		return hist
	}

	group := membersWith(items, path[0], func(it *model.Item) int { return it.Points })
	for _, want := range path[1:] {
		sub, ok := distinguishing(group, comparisons)
		if !ok {
			return map[int]int{}
		}
		group = membersWith(group, want, func(it *model.Item) int { return sub[it.ID] })
	}

	sub, ok := distinguishing(group, comparisons)
	if !ok {
		return map[int]int{}
	}
	hist := make(map[int]int, len(group))
	for _, it := range group {
		hist[sub[it.ID]]++
	}
	return hist
}

// orderGroup sorts one equal-score group by recursive sub-score. path
// is the score path accumulated so far, ending with this group's score.
func orderGroup(group []*model.Item, comparisons []*model.Comparison, path []int) []Ranked {
	if len(group) == 1 {
		return []Ranked{{Item: group[0], SubScores: path}}
	}
	sub, ok := distinguishing(group, comparisons)
	if !ok {
		// Nothing separates the members; keep the stable incoming order.
		out := make([]Ranked, 0, len(group))
		for _, it := range group {
			out = append(out, Ranked{Item: it, SubScores: path})
		}
		return out
	}

	sorted := make([]*model.Item, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := sub[sorted[i].ID], sub[sorted[j].ID]
		if si != sj {
			return si > sj
		}
		return sorted[i].ID > sorted[j].ID
	})

	out := make([]Ranked, 0, len(group))
	for _, g := range groupByScore(sorted, func(it *model.Item) int { return sub[it.ID] }) {
		next := append(append(make([]int, 0, len(path)+1), path...), g.score)
		out = append(out, orderGroup(g.members, comparisons, next)...)
	}
	return out
}

// subScores computes wins minus losses per member counting only
// comparisons whose both endpoints are in the group.
func subScores(group []*model.Item, comparisons []*model.Comparison) map[int64]int {
	within := make(map[int64]bool, len(group))
	scores := make(map[int64]int, len(group))
	for _, it := range group {
		within[it.ID] = true
		scores[it.ID] = 0
	}
	for _, c := range comparisons {
		if c.Outcome == model.OutcomeTie || !within[c.Pair.Low] || !within[c.Pair.High] {
			continue
		}
		scores[c.WinnerID()]++
		scores[c.LoserID()]--
	}
	return scores
}

// distinguishing returns the group's sub-scores when they vary across
// members; groups of size one or with uniform sub-scores carry no
// further ranking information.
func distinguishing(group []*model.Item, comparisons []*model.Comparison) (map[int64]int, bool) {
	if len(group) <= 1 {
		return nil, false
	}
	sub := subScores(group, comparisons)
	first := sub[group[0].ID]
	for _, it := range group[1:] {
		if sub[it.ID] != first {
			return sub, true
		}
	}
	return nil, false
}

// scoreGroup is one run of items sharing a score at some level.
type scoreGroup struct {
	score   int
	members []*model.Item
}

// groupByScore partitions items by the given score function, ordering
// groups by score descending and keeping member order stable.
func groupByScore(items []*model.Item, score func(*model.Item) int) []scoreGroup {
	byScore := make(map[int][]*model.Item)
	var keys []int
	for _, it := range items {
		s := score(it)
		if _, seen := byScore[s]; !seen {
			keys = append(keys, s)
		}
		byScore[s] = append(byScore[s], it)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	groups := make([]scoreGroup, 0, len(keys))
	for _, s := range keys {
		groups = append(groups, scoreGroup{score: s, members: byScore[s]})
	}
	return groups
}

// membersWith filters items whose score under the given function equals
// want, preserving order.
func membersWith(items []*model.Item, want int, score func(*model.Item) int) []*model.Item {
	var out []*model.Item
	for _, it := range items {
		if score(it) == want {
			out = append(out, it)
		}
	}
	return out
}
