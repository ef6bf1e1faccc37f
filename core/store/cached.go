package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/sushant-115/pagewindow/core/pagemap"
)

// CachedStore caches the pages and the total count of another store. The
// cost of a page is its number of records, so maxCost bounds the number of
// cached records.
type CachedStore struct {
	inner Store
	pages *ristretto.Cache[string, []pagemap.Record]

	mu         sync.Mutex
	count      int
	countValid bool
}

func NewCachedStore(inner Store, maxCost int64) (*CachedStore, error) {
	if inner == nil || maxCost < 1 {
		return nil, fmt.Errorf("%w: cached store needs a store and a positive max cost", pagemap.ErrInvalidArgument)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []pagemap.Record]{
		NumCounters:        max(maxCost*10, 100),
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	return &CachedStore{inner: inner, pages: cache}, nil
}

func pageKey(page, pageSize int) string {
	return fmt.Sprintf("%d/%d", pageSize, page)
}

func (s *CachedStore) TotalCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countValid {
		return s.count, nil
	}
	n, err := s.inner.TotalCount(ctx)
	if err != nil {
		return 0, err
	}
	s.count, s.countValid = n, true
	return n, nil
}

func (s *CachedStore) LoadPage(ctx context.Context, page, pageSize int) ([]pagemap.Record, error) {
	if err := checkPageArgs(page, pageSize); err != nil {
		return nil, err
	}
	key := pageKey(page, pageSize)
	if records, ok := s.pages.Get(key); ok {
		return slices.Clone(records), nil
	}

	records, err := s.inner.LoadPage(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	// partially filled pages grow with appends and are not cached
	if len(records) == pageSize {
		s.pages.Set(key, slices.Clone(records), int64(len(records)))
		s.pages.Wait()
	}
	return records, nil
}

// Append writes through and drops the cached count.
func (s *CachedStore) Append(ctx context.Context, items []*pagemap.Item) error {
	if err := s.inner.Append(ctx, items); err != nil {
		return err
	}
	s.mu.Lock()
	s.countValid = false
	s.mu.Unlock()
	return nil
}

// Invalidate drops every cached page and the cached count.
func (s *CachedStore) Invalidate() {
	s.pages.Clear()
	s.mu.Lock()
	s.countValid = false
	s.mu.Unlock()
}

func (s *CachedStore) Close() error {
	s.pages.Close()
	return s.inner.Close()
}
