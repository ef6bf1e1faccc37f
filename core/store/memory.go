package store

import (
	"context"
	"sync"

	"github.com/sushant-115/pagewindow/core/pagemap"
)

// MemoryStore keeps the collection in a slice. It is the default driver and
// the one used by tests.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []*pagemap.Item
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) TotalCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.items), nil
}

func (s *MemoryStore) LoadPage(ctx context.Context, page, pageSize int) ([]pagemap.Record, error) {
	if err := checkPageArgs(page, pageSize); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	start := (page - 1) * pageSize
	if start >= len(s.items) {
		return []pagemap.Record{}, nil
	}
	end := min(start+pageSize, len(s.items))
	out := make([]pagemap.Record, 0, end-start)
	for _, it := range s.items[start:end] {
		out = append(out, it)
	}
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, items []*pagemap.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.items = append(s.items, items...)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
