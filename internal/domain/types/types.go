// Package types contains the API-facing view types shared between the
// service and its transports.
package types

import "time"

// Collection is a collection list entry.
type Collection struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	SearchPrefix    string    `json:"search_prefix"`
	ItemCount       int       `json:"item_count"`
	ComparisonCount int       `json:"comparison_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Item is an item with its current standing. SubScores is present only
// when tie-break scores were needed to distinguish the item from its
// score group; SubScores[0] repeats Points.
type Item struct {
	ID           int64  `json:"id"`
	CollectionID int64  `json:"collection_id"`
	Name         string `json:"name"`
	MediaLink    string `json:"media_link,omitempty"`
	Points       int    `json:"points"`
	SubScores    []int  `json:"sub_scores,omitempty"`
}

// CollectionDetail is a collection with its ranked items.
type CollectionDetail struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	SearchPrefix    string    `json:"search_prefix"`
	Items           []Item    `json:"items"`
	ComparisonCount int       `json:"comparison_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Matchup is a pair of items offered for voting.
type Matchup struct {
	Item1 Item `json:"item1"`
	Item2 Item `json:"item2"`
}

// Vote is one recorded comparison from an item's point of view.
type Vote struct {
	ID              int64     `json:"id"`
	Item1ID         int64     `json:"item1_id"`
	Item2ID         int64     `json:"item2_id"`
	Item1Name       string    `json:"item1_name"`
	Item2Name       string    `json:"item2_name"`
	Result          string    `json:"result"`
	VoteDescription string    `json:"vote_description"`
	CreatedAt       time.Time `json:"created_at"`
}

// Triangle is a detected intransitive triple.
type Triangle struct {
	ItemA      Item    `json:"item_a"`
	ItemB      Item    `json:"item_b"`
	ItemC      Item    `json:"item_c"`
	Dissonance float64 `json:"dissonance"`
}

// Resolution assigns rank positions 1..3 to a triangle's items.
type Resolution struct {
	ItemAOrder int `json:"item_a_order"`
	ItemBOrder int `json:"item_b_order"`
	ItemCOrder int `json:"item_c_order"`
}

// VoteChange is one comparison rewrite implied by a resolution.
type VoteChange struct {
	Item1ID int64  `json:"item1_id"`
	Item2ID int64  `json:"item2_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// TriangleOption is one candidate resolution with its effect on the
// triple's dissonance.
type TriangleOption struct {
	Resolution       Resolution   `json:"resolution"`
	Changes          []VoteChange `json:"changes"`
	DissonanceChange float64      `json:"dissonance_change"`
	NewDissonance    float64      `json:"new_dissonance"`
}

// ControversialVote is one comparison that contradicts the standings.
type ControversialVote struct {
	VoteID           int64   `json:"vote_id"`
	Item1ID          int64   `json:"item1_id"`
	Item2ID          int64   `json:"item2_id"`
	Item1Name        string  `json:"item1_name"`
	Item2Name        string  `json:"item2_name"`
	Item1Points      int     `json:"item1_points"`
	Item2Points      int     `json:"item2_points"`
	Result           string  `json:"result"`
	VoteDescription  string  `json:"vote_description"`
	ControversyScore float64 `json:"controversy_score"`
}

// ControversyReport aggregates a collection's controversial votes.
type ControversyReport struct {
	TotalControversy float64             `json:"total_controversy"`
	TotalCount       int                 `json:"total_count"`
	TopVotes         []ControversialVote `json:"top_controversial_votes"`
}

// SubScoreCount counts items at one sub-score within a score group.
type SubScoreCount struct {
	SubScore int `json:"sub_score"`
	Count    int `json:"count"`
}

// ScoreBucket counts items at one score. SubScoreDistribution is
// present only when the group's members differ on the next tie-break
// level.
type ScoreBucket struct {
	Score                int             `json:"score"`
	Count                int             `json:"count"`
	SubScoreDistribution []SubScoreCount `json:"sub_score_distribution,omitempty"`
}

// ScoreDistribution counts items per score at one tie-break depth.
// Path selects the level: empty for main points, then one sub-score
// per element to descend into. Buckets are ordered by score descending.
type ScoreDistribution struct {
	Path         []int         `json:"path"`
	Distribution []ScoreBucket `json:"distribution"`
}

// Export types: collections travel by item name so they can be
// re-imported into a store with different ids.

// ExportedItem is an item in an export envelope.
type ExportedItem struct {
	Name      string `json:"name"`
	MediaLink string `json:"media_link,omitempty"`
	Points    int    `json:"points"`
}

// ExportedVote is a comparison in an export envelope, keyed by name.
type ExportedVote struct {
	Item1Name string `json:"item1_name"`
	Item2Name string `json:"item2_name"`
	Result    string `json:"result"`
}

// Export is a portable snapshot of one collection.
type Export struct {
	Version      int            `json:"version"`
	ExportID     string         `json:"export_id"`
	ExportedAt   time.Time      `json:"exported_at"`
	Name         string         `json:"name"`
	SearchPrefix string         `json:"search_prefix"`
	Items        []ExportedItem `json:"items"`
	Votes        []ExportedVote `json:"votes"`
}
