// Package repository defines the persistence interface for collections,
// items, and comparisons, plus the SQLite and in-memory
// implementations behind it.
package repository

import (
	"context"

	"github.com/okian/ranqr/internal/domain/model"
)

// CollectionSummary is a collection row with its aggregate counts,
// used by listings that do not need the full item set.
type CollectionSummary struct {
	Collection      *model.Collection
	ItemCount       int
	ComparisonCount int
}

// NewItem is the payload for creating an item.
type NewItem struct {
	Name      string
	MediaLink string
	Points    int
}

// ItemUpdate carries the mutable item fields. Nil fields are left
// unchanged.
type ItemUpdate struct {
	Name      *string
	MediaLink *string
}

// CollectionUpdate carries the mutable collection fields. Nil fields
// are left unchanged.
type CollectionUpdate struct {
	Name         *string
	SearchPrefix *string
}

// Store provides read/write access to the ranking state.
type Store interface {
	// CreateCollection persists a new collection and assigns its id.
	// Returns ErrConflict when the name is already taken.
	CreateCollection(ctx context.Context, name, searchPrefix string) (*model.Collection, error)
	// Collection returns one collection, or ErrNotFound.
	Collection(ctx context.Context, id int64) (*model.Collection, error)
	// Collections lists every collection with aggregate counts,
	// ordered by id.
	Collections(ctx context.Context) ([]CollectionSummary, error)
	// UpdateCollection applies the non-nil fields of upd.
	UpdateCollection(ctx context.Context, id int64, upd CollectionUpdate) (*model.Collection, error)
	// DeleteCollection removes the collection and everything under it.
	DeleteCollection(ctx context.Context, id int64) error

	// AddItems persists the given items under a collection, skipping
	// names it already holds. Returns the created items.
	AddItems(ctx context.Context, collectionID int64, items []NewItem) ([]*model.Item, error)
	// Item returns one item, or ErrNotFound.
	Item(ctx context.Context, id int64) (*model.Item, error)
	// Items lists the collection's items ordered by id.
	Items(ctx context.Context, collectionID int64) ([]*model.Item, error)
	// UpdateItem applies the non-nil fields of upd.
	UpdateItem(ctx context.Context, id int64, upd ItemUpdate) (*model.Item, error)
	// UpdatePoints overwrites the cached point totals for the given
	// items.
	UpdatePoints(ctx context.Context, points map[int64]int) error
	// DeleteItem removes the item and its comparisons.
	DeleteItem(ctx context.Context, id int64) error

	// Comparisons lists a collection's comparisons ordered by id.
	Comparisons(ctx context.Context, collectionID int64) ([]*model.Comparison, error)
	// ComparisonsInvolving lists the comparisons touching one item,
	// ordered by id.
	ComparisonsInvolving(ctx context.Context, itemID int64) ([]*model.Comparison, error)
	// UpsertComparison records the outcome for a pair, replacing any
	// previous outcome.
	UpsertComparison(ctx context.Context, c *model.Comparison) error
	// DeleteComparisons removes the given pairs from a collection and
	// returns how many existed.
	DeleteComparisons(ctx context.Context, collectionID int64, pairs []model.Pair) (int, error)

	// Close releases the underlying resources.
	Close() error
}
