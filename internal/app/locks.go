package service

import "sync"

// collectionLocks serializes mutations per collection so votes,
// deletions, and audits never interleave on the same state. Locks are
// created on first use and never discarded; the registry grows with
// the number of collections, which stays small.
type collectionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newCollectionLocks() *collectionLocks {
	return &collectionLocks{locks: make(map[int64]*sync.Mutex)}
}

func (c *collectionLocks) get(id int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// Lock acquires the collection's mutex.
func (c *collectionLocks) Lock(id int64) {
	c.get(id).Lock()
}

// Unlock releases the collection's mutex.
func (c *collectionLocks) Unlock(id int64) {
	c.get(id).Unlock()
}
