package feed

import (
	"fmt"
	"slices"

	"github.com/google/btree"
	"github.com/sushant-115/pagewindow/core/pagemap"
)

// Feeder manages the feeds of one PageMap. It implements pagemap.FeedSource
// so it can be handed to the range and move operations.
type Feeder struct {
	pageMap *pagemap.PageMap
	feeds   map[int]*Feed
	keys    *btree.BTreeG[int]
}

var _ pagemap.FeedSource = (*Feeder)(nil)

func NewFeeder(m *pagemap.PageMap) (*Feeder, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: page map is required", pagemap.ErrInvalidArgument)
	}
	return &Feeder{
		pageMap: m,
		feeds:   make(map[int]*Feed),
		keys:    btree.NewOrderedG[int](16),
	}, nil
}

func (fd *Feeder) PageMap() *pagemap.PageMap { return fd.pageMap }

// FeedAt returns the feed stored under page. The result is an untyped nil if
// there is none, so callers can compare against nil.
func (fd *Feeder) FeedAt(page int) pagemap.EdgeBuffer {
	if f, ok := fd.feeds[page]; ok {
		return f
	}
	return nil
}

// Feed is FeedAt returning the concrete type.
func (fd *Feeder) Feed(page int) (*Feed, bool) {
	f, ok := fd.feeds[page]
	return f, ok
}

func (fd *Feeder) FeedPages() []int {
	out := make([]int, 0, fd.keys.Len())
	fd.keys.Ascend(func(p int) bool {
		out = append(out, p)
		return true
	})
	return out
}

// CreateFeedAt creates the feed for page linked to target, which must be a
// loaded neighbour of page. An existing feed with the same linkage is
// returned as is.
func (fd *Feeder) CreateFeedAt(page, target int) (*Feed, error) {
	if err := fd.checkLinkage(page, target); err != nil {
		return nil, err
	}
	if fd.pageMap.HasPage(page) {
		return nil, fmt.Errorf("%w: unexpected page at %d", pagemap.ErrInvalidArgument, page)
	}

	previous, next := 0, 0
	if target < page {
		previous = target
	} else {
		next = target
	}
	if f, ok := fd.feeds[page]; ok {
		if f.previous == previous && f.next == next {
			return f, nil
		}
		return nil, fmt.Errorf("%w: the computed linkage (previous=%d, next=%d) of page %d conflicts with the existing feed (previous=%d, next=%d)",
			ErrFeedExists, previous, next, page, f.previous, f.next)
	}

	f, err := New(fd.pageMap.PageSize(), previous, next)
	if err != nil {
		return nil, err
	}
	fd.feeds[page] = f
	fd.keys.ReplaceOrInsert(page)
	return f, nil
}

func (fd *Feeder) checkLinkage(page, target int) error {
	if page < 1 || target < 1 {
		return fmt.Errorf("%w: page (%d) and targetPage (%d) must be greater than 0", pagemap.ErrInvalidArgument, page, target)
	}
	if target != page-1 && target != page+1 {
		return fmt.Errorf("%w: targetPage %d must be a direct neighbour of page %d", pagemap.ErrInvalidArgument, target, page)
	}
	if !fd.pageMap.HasPage(target) {
		return fmt.Errorf("%w: at least one neighbour page of %d must exist, %d is not loaded", pagemap.ErrInvalidArgument, page, target)
	}
	return nil
}

// SwapMapToFeed turns the loaded page into a feed linked to target. The
// records keep their order; their reverse index entries are dropped.
func (fd *Feeder) SwapMapToFeed(page, target int) (*Feed, error) {
	records, ok := fd.pageMap.Page(page)
	if !ok {
		return nil, fmt.Errorf("%w: page %d does not exist", pagemap.ErrNotFound, page)
	}
	if _, exists := fd.feeds[page]; exists {
		return nil, fmt.Errorf("%w: feed at %d already exists", ErrFeedExists, page)
	}
	if err := fd.checkLinkage(page, target); err != nil {
		return nil, err
	}

	fd.pageMap.RemovePage(page)
	f, err := fd.CreateFeedAt(page, target)
	if err != nil {
		return nil, err
	}
	if err := f.Fill(records); err != nil {
		return nil, err
	}
	return f, nil
}

// SwapFeedToMap turns the feed at page into a loaded page.
func (fd *Feeder) SwapFeedToMap(page int) error {
	f, ok := fd.feeds[page]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrFeedNotFound, page)
	}
	if fd.pageMap.HasPage(page) {
		return fmt.Errorf("%w: page %d is already loaded", pagemap.ErrInconsistentState, page)
	}
	if err := fd.pageMap.SetPage(page, f.Records()); err != nil {
		return err
	}
	fd.RemoveFeedAt(page)
	return nil
}

// FillFeed adds records at the edge of the feed at page.
func (fd *Feeder) FillFeed(page int, records []pagemap.Record) error {
	f, ok := fd.feeds[page]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrFeedNotFound, page)
	}
	return f.Fill(records)
}

func (fd *Feeder) RemoveFeedAt(page int) bool {
	if _, ok := fd.feeds[page]; !ok {
		return false
	}
	delete(fd.feeds, page)
	fd.keys.Delete(page)
	return true
}

// HasPreviousFeed reports whether a feed in front of page is linked to it.
func (fd *Feeder) HasPreviousFeed(page int) bool {
	f, ok := fd.feeds[page-1]
	return ok && f.next == page
}

// HasNextFeed reports whether a feed after page is linked to it.
func (fd *Feeder) HasNextFeed(page int) bool {
	f, ok := fd.feeds[page+1]
	return ok && f.previous == page
}

// IsPageCandidate reports whether the feed at page is full and could be
// turned into a page.
func (fd *Feeder) IsPageCandidate(page int) bool {
	f, ok := fd.feeds[page]
	return ok && f.IsFull()
}

// FindInFeeds looks rec up in the feeds only.
func (fd *Feeder) FindInFeeds(rec pagemap.Record) (pagemap.RecordPosition, bool) {
	if rec == nil {
		return pagemap.RecordPosition{}, false
	}
	for _, page := range fd.FeedPages() {
		if offset := fd.feeds[page].IndexOf(rec.ID()); offset != -1 {
			return pagemap.MustPosition(page, offset), true
		}
	}
	return pagemap.RecordPosition{}, false
}

// RecordAt looks up the record at pos in the page map and the feeds.
func (fd *Feeder) RecordAt(pos pagemap.RecordPosition) (pagemap.Record, bool, error) {
	return pagemap.RecordAt(pos, fd.pageMap, fd)
}

// GroupWithFeeds partitions pages and feeds into contiguous runs.
func (fd *Feeder) GroupWithFeeds() [][]int {
	return pagemap.GroupWithFeeds(fd.pageMap, fd)
}

// GroupWithFeedsForPage returns the runs starting at page: the run page is
// part of, cut off in front of page, followed by every run to its right. nil
// is returned if page is neither loaded nor a feed.
func (fd *Feeder) GroupWithFeedsForPage(page int) [][]int {
	groups := fd.GroupWithFeeds()
	for i, g := range groups {
		at := slices.Index(g, page)
		if at == -1 {
			continue
		}
		out := [][]int{slices.Clone(g[at:])}
		return append(out, groups[i+1:]...)
	}
	return nil
}
