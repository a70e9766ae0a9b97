package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps collections in process memory in insertion order.
// It is safe for concurrent use and hands out copies of its records.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[Collection][]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[Collection][]Record)}
}

func (s *MemoryStore) List(_ context.Context, c Collection, q Query) ([]Record, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Record, 0)
	for _, rec := range s.rows[c] {
		if matches(rec, q.Where) {
			out = append(out, maps.Clone(rec))
		}
	}
	s.mu.RUnlock()

	if len(q.OrderBy) > 0 {
		slices.SortStableFunc(out, func(a, b Record) int {
			for _, o := range q.OrderBy {
				cmp, ok := compare(a[o.Field], b[o.Field])
				if !ok || cmp == 0 {
					continue
				}
				if o.Desc {
					return -cmp
				}
				return cmp
			}
			return 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, c Collection, rec Record) (Record, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	id := rec.ID()
	if id == "" {
		return nil, fmt.Errorf("create %s: id is required", c)
	}
	for k := range rec {
		if err := checkField(k); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows[c] {
		if existing.ID() == id {
			return nil, fmt.Errorf("create %s %s: %w", c, id, ErrDuplicate)
		}
	}
	stored := maps.Clone(rec)
	s.rows[c] = append(s.rows[c], stored)
	return maps.Clone(stored), nil
}

func (s *MemoryStore) Update(_ context.Context, c Collection, id string, fields Record) (Record, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	for k := range fields {
		if err := checkField(k); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows[c] {
		if existing.ID() != id {
			continue
		}
		for k, v := range fields {
			if k == "id" {
				continue
			}
			existing[k] = v
		}
		return maps.Clone(existing), nil
	}
	return nil, fmt.Errorf("update %s %s: %w", c, id, ErrNotFound)
}

// Seed inserts records without duplicate checks. Intended for fixtures.
func (s *MemoryStore) Seed(c Collection, recs ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		s.rows[c] = append(s.rows[c], maps.Clone(r))
	}
}
