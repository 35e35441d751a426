package dedup

import (
	"context"
	"fmt"
	"sync"
)

// Index caches content_hash -> article id. It is never authoritative: a miss
// falls through to the store's unique constraint.
type Index interface {
	Lookup(ctx context.Context, hash string) (int64, bool)
	Remember(ctx context.Context, hash string, id int64)
}

// HashSource enumerates persisted hashes to rebuild an index.
type HashSource interface {
	EachHash(ctx context.Context, fn func(hash string, id int64) error) error
}

type MemoryIndex struct {
	mu     sync.RWMutex
	hashes map[string]int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{hashes: make(map[string]int64)}
}

func (m *MemoryIndex) Lookup(_ context.Context, hash string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.hashes[hash]
	return id, ok
}

func (m *MemoryIndex) Remember(_ context.Context, hash string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[hash] = id
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hashes)
}

// Load rebuilds the index from persisted hashes and returns how many were loaded.
func (m *MemoryIndex) Load(ctx context.Context, src HashSource) (int, error) {
	loaded := make(map[string]int64)
	err := src.EachHash(ctx, func(hash string, id int64) error {
		loaded[hash] = id
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load hashes: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for h, id := range loaded {
		m.hashes[h] = id
	}
	return len(loaded), nil
}

// Tiered consults indexes in order and writes through to all of them.
type Tiered []Index

func (t Tiered) Lookup(ctx context.Context, hash string) (int64, bool) {
	for i, idx := range t {
		if id, ok := idx.Lookup(ctx, hash); ok {
			for _, upper := range t[:i] {
				upper.Remember(ctx, hash, id)
			}
			return id, true
		}
	}
	return 0, false
}

func (t Tiered) Remember(ctx context.Context, hash string, id int64) {
	for _, idx := range t {
		idx.Remember(ctx, hash, id)
	}
}
