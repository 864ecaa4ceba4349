package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/ranqr/internal/domain/model"
)

// MemStore is an in-memory Store. It backs tests and ephemeral runs
// where a database file is unwanted.
type MemStore struct {
	mu          sync.RWMutex
	collections map[int64]*model.Collection
	items       map[int64]*model.Item
	comparisons map[int64]*model.Comparison
	nextColl    int64
	nextItem    int64
	nextComp    int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		collections: make(map[int64]*model.Collection),
		items:       make(map[int64]*model.Item),
		comparisons: make(map[int64]*model.Comparison),
	}
}

func (s *MemStore) CreateCollection(_ context.Context, name, searchPrefix string) (*model.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.collections {
		if c.Name == name {
			return nil, fmt.Errorf("collection %q: %w", name, ErrConflict)
		}
	}
	s.nextColl++
	c := &model.Collection{
		ID:           s.nextColl,
		Name:         name,
		SearchPrefix: searchPrefix,
		CreatedAt:    time.Now().UTC(),
	}
	s.collections[c.ID] = c
	return c, nil
}

func (s *MemStore) Collection(_ context.Context, id int64) (*model.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) Collections(_ context.Context) ([]CollectionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CollectionSummary, 0, len(s.collections))
	for _, c := range s.collections {
		cp := *c
		sum := CollectionSummary{Collection: &cp}
		for _, it := range s.items {
			if it.CollectionID == c.ID {
				sum.ItemCount++
			}
		}
		for _, cmp := range s.comparisons {
			if cmp.CollectionID == c.ID {
				sum.ComparisonCount++
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Collection.ID < out[j].Collection.ID })
	return out, nil
}

func (s *MemStore) UpdateCollection(_ context.Context, id int64, upd CollectionUpdate) (*model.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, fmt.Errorf("collection %d: %w", id, ErrNotFound)
	}
	if upd.Name != nil {
		for _, other := range s.collections {
			if other.ID != id && other.Name == *upd.Name {
				return nil, fmt.Errorf("collection %d: %w", id, ErrConflict)
			}
		}
		c.Name = *upd.Name
	}
	if upd.SearchPrefix != nil {
		c.SearchPrefix = *upd.SearchPrefix
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) DeleteCollection(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[id]; !ok {
		return fmt.Errorf("collection %d: %w", id, ErrNotFound)
	}
	delete(s.collections, id)
	for itemID, it := range s.items {
		if it.CollectionID == id {
			delete(s.items, itemID)
		}
	}
	for compID, c := range s.comparisons {
		if c.CollectionID == id {
			delete(s.comparisons, compID)
		}
	}
	return nil
}

func (s *MemStore) AddItems(_ context.Context, collectionID int64, items []NewItem) ([]*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collectionID]; !ok {
		return nil, ErrNotFound
	}
	taken := make(map[string]bool)
	for _, it := range s.items {
		if it.CollectionID == collectionID {
			taken[it.Name] = true
		}
	}
	var created []*model.Item
	for _, in := range items {
		if taken[in.Name] {
			continue
		}
		taken[in.Name] = true
		s.nextItem++
		it := &model.Item{
			ID:           s.nextItem,
			CollectionID: collectionID,
			Name:         in.Name,
			MediaLink:    in.MediaLink,
			Points:       in.Points,
			CreatedAt:    time.Now().UTC(),
		}
		s.items[it.ID] = it
		cp := *it
		created = append(created, &cp)
	}
	return created, nil
}

func (s *MemStore) Item(_ context.Context, id int64) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *MemStore) Items(_ context.Context, collectionID int64) ([]*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Item
	for _, it := range s.items {
		if it.CollectionID == collectionID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) UpdateItem(_ context.Context, id int64, upd ItemUpdate) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if upd.Name != nil {
		for _, other := range s.items {
			if other.ID != id && other.CollectionID == it.CollectionID && other.Name == *upd.Name {
				return nil, fmt.Errorf("item %d: %w", id, ErrConflict)
			}
		}
		it.Name = *upd.Name
	}
	if upd.MediaLink != nil {
		it.MediaLink = *upd.MediaLink
	}
	cp := *it
	return &cp, nil
}

func (s *MemStore) UpdatePoints(_ context.Context, points map[int64]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pts := range points {
		if it, ok := s.items[id]; ok {
			it.Points = pts
		}
	}
	return nil
}

func (s *MemStore) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	for compID, c := range s.comparisons {
		if c.Pair.Low == id || c.Pair.High == id {
			delete(s.comparisons, compID)
		}
	}
	return nil
}

func (s *MemStore) Comparisons(_ context.Context, collectionID int64) ([]*model.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Comparison
	for _, c := range s.comparisons {
		if c.CollectionID == collectionID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ComparisonsInvolving(_ context.Context, itemID int64) ([]*model.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Comparison
	for _, c := range s.comparisons {
		if c.Pair.Low == itemID || c.Pair.High == itemID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) UpsertComparison(_ context.Context, c *model.Comparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.comparisons {
		if existing.Pair == c.Pair {
			existing.Outcome = c.Outcome
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	s.nextComp++
	c.ID = s.nextComp
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	s.comparisons[c.ID] = &cp
	return nil
}

func (s *MemStore) DeleteComparisons(_ context.Context, collectionID int64, pairs []model.Pair) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, p := range pairs {
		for compID, c := range s.comparisons {
			if c.CollectionID == collectionID && c.Pair == p {
				delete(s.comparisons, compID)
				deleted++
			}
		}
	}
	return deleted, nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }
