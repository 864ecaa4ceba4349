// Package controversy scores recorded comparisons against the
// standings they helped produce. A comparison is controversial when
// its outcome disagrees with the current point totals: an upset win,
// or a tie between items that no longer score equally.
package controversy

import (
	"fmt"
	"sort"

	"github.com/okian/ranqr/internal/domain/model"
)

// Entry is one controversial comparison. Score is the absolute point
// gap between the two items; the bigger the gap, the more the recorded
// outcome contradicts the standings.
type Entry struct {
	Comparison  *model.Comparison
	Item1       *model.Item
	Item2       *model.Item
	Score       float64
	Description string
}

// Report aggregates the collection's controversy. TotalControversy is
// the sum of squared entry scores over every controversial comparison,
// so a single large upset outweighs many near-misses. Top holds the
// highest-scoring entries up to the requested limit.
type Report struct {
	TotalControversy float64
	TotalCount       int
	Top              []Entry
}

// Build scans every comparison and returns the controversy report.
// Entries are ordered by descending score; comparisons scoring equal
// keep their input order.
func Build(items []*model.Item, comparisons []*model.Comparison, limit int) Report {
	byID := make(map[int64]*model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var entries []Entry
	var total float64
	for _, comp := range comparisons {
		low, ok := byID[comp.Pair.Low]
		if !ok {
			continue
		}
		high, ok := byID[comp.Pair.High]
		if !ok {
			continue
		}
		if !contradicts(comp.Outcome, low.Points, high.Points) {
			continue
		}
		score := float64(absInt(low.Points - high.Points))
		total += score * score
		entries = append(entries, Entry{
			Comparison:  comp,
			Item1:       low,
			Item2:       high,
			Score:       score,
			Description: describe(comp.Outcome, low, high),
		})
	}

	count := len(entries)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return Report{
		TotalControversy: total,
		TotalCount:       count,
		Top:              entries,
	}
}

// contradicts reports whether the recorded outcome disagrees with the
// sign of the current point gap. Equal scores make any decisive
// outcome unremarkable, and a tie is only controversial once the
// scores diverge.
func contradicts(outcome model.Outcome, lowPoints, highPoints int) bool {
	switch outcome {
	case model.OutcomeFirst:
		return lowPoints < highPoints
	case model.OutcomeSecond:
		return lowPoints > highPoints
	case model.OutcomeTie:
		return lowPoints != highPoints
	}
	return false
}

// describe renders the recorded outcome as "winner > loser", or
// "a = b" for a tie.
func describe(outcome model.Outcome, low, high *model.Item) string {
	switch outcome {
	case model.OutcomeFirst:
		return fmt.Sprintf("%s > %s", low.Name, high.Name)
	case model.OutcomeSecond:
		return fmt.Sprintf("%s > %s", high.Name, low.Name)
	}
	return fmt.Sprintf("%s = %s", low.Name, high.Name)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
