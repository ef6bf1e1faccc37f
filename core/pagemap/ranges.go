package pagemap

import (
	"fmt"
	"slices"
)

// Neighbours returns the run of directly subsequent page numbers in pages
// that contains pivot, in ascending order. pages does not need to be sorted.
// pivot must be part of pages; nil is returned otherwise.
func Neighbours(pages []int, pivot int) []int {
	sorted := sortedUnique(pages)
	at, found := slices.BinarySearch(sorted, pivot)
	if !found {
		return nil
	}
	lo, hi := at, at
	for lo > 0 && sorted[lo-1] == sorted[lo]-1 {
		lo--
	}
	for hi < len(sorted)-1 && sorted[hi+1] == sorted[hi]+1 {
		hi++
	}
	return append([]int(nil), sorted[lo:hi+1]...)
}

// GroupIndices partitions pages into runs of directly subsequent numbers,
// ordered ascending: [1, 2, 4, 5, 8] -> [[1, 2], [4, 5], [8]].
func GroupIndices(pages []int) [][]int {
	sorted := sortedUnique(pages)
	var groups [][]int
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1]+1 {
			groups = append(groups, []int{p})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], p)
	}
	return groups
}

func sortedUnique(pages []int) []int {
	sorted := slices.Clone(pages)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// GroupWithFeeds partitions the pages of m and the buffers of fs into runs
// that can be treated as contiguous. A buffer joins the run of the real page
// it is linked to and terminates that run on its unlinked side:
//
//	[1, 2] (3:prev 2) (4:next 5) [5] (6:prev 5) [8, 9] (10:prev 9)
//	-> [1, 2, 3] [4, 5, 6] [8, 9, 10]
func GroupWithFeeds(m *PageMap, fs FeedSource) [][]int {
	keys := m.PageNumbers()
	if fs != nil {
		keys = sortedUnique(append(keys, fs.FeedPages()...))
	}
	var groups [][]int
	for i, k := range keys {
		if i == 0 || !joined(m, fs, keys[i-1], k) {
			groups = append(groups, []int{k})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], k)
	}
	return groups
}

// joined reports whether the keys left and right form one contiguous run.
func joined(m *PageMap, fs FeedSource, left, right int) bool {
	if right != left+1 {
		return false
	}
	if f := feedAt(fs, left); f != nil {
		if f.Next() != right {
			return false
		}
	} else if !m.HasPage(left) {
		return false
	}
	if f := feedAt(fs, right); f != nil {
		return f.Previous() == left
	}
	return m.HasPage(right)
}

// PageRangeForRecord returns the range of pages which are direct neighbours
// of the page rec is found in. With a FeedSource, buffers are considered both
// when looking the record up and when computing the run.
func PageRangeForRecord(rec Record, m *PageMap, fs FeedSource) (*PageRange, error) {
	pages, _, err := rangeForRecord(rec, m, fs)
	if err != nil {
		return nil, err
	}
	return NewPageRange(pages)
}

// RightSideRange returns the pages of the record's range that are greater
// than or equal to the record's own page.
func RightSideRange(rec Record, m *PageMap) (*PageRange, error) {
	pages, pos, err := rangeForRecord(rec, m, nil)
	if err != nil {
		return nil, err
	}
	right := make([]int, 0, len(pages))
	for _, p := range pages {
		if p >= pos.page {
			right = append(right, p)
		}
	}
	return NewPageRange(right)
}

func rangeForRecord(rec Record, m *PageMap, fs FeedSource) ([]int, RecordPosition, error) {
	if rec == nil || m == nil {
		return nil, RecordPosition{}, fmt.Errorf("%w: record and page map must be set", ErrInvalidArgument)
	}
	pos, ok := FindRecord(rec, m, fs)
	if !ok {
		return nil, RecordPosition{}, fmt.Errorf("%w: record %s cannot be found in current data sets", ErrNotFound, rec.ID())
	}
	if fs == nil {
		return Neighbours(m.PageNumbers(), pos.page), pos, nil
	}
	for _, group := range GroupWithFeeds(m, fs) {
		if slices.Contains(group, pos.page) {
			return group, pos, nil
		}
	}
	return nil, pos, fmt.Errorf("%w: page %d of record %s is not part of any group", ErrInconsistentState, pos.page, rec.ID())
}

// AvailablePageRanges returns the ranges currently loaded in m, ordered from
// lowest to highest.
func AvailablePageRanges(m *PageMap) []*PageRange {
	return toPageRanges(GroupIndices(m.PageNumbers()))
}

// AvailableRanges is AvailablePageRanges considering the buffers of fs.
func AvailableRanges(m *PageMap, fs FeedSource) []*PageRange {
	return toPageRanges(GroupWithFeeds(m, fs))
}

func toPageRanges(groups [][]int) []*PageRange {
	ranges := make([]*PageRange, 0, len(groups))
	for _, g := range groups {
		// groups are built from sorted runs, construction cannot fail
		r, _ := NewPageRange(g)
		ranges = append(ranges, r)
	}
	return ranges
}

// PageRangeForPage returns the range page is part of, or nil if page is not
// loaded.
func PageRangeForPage(page int, m *PageMap) (*PageRange, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be greater than 0, got %d", ErrInvalidArgument, page)
	}
	var found []*PageRange
	for _, r := range AvailablePageRanges(m) {
		if r.Contains(page) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %d ranges claim page %d", ErrInconsistentState, len(found), page)
	}
}

// RightSidePageRangesForPage returns the ranges right of the range page is
// part of, excluding that range. nil is returned if there are none.
func RightSidePageRangesForPage(page int, m *PageMap) ([]*PageRange, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be greater than 0, got %d", ErrInvalidArgument, page)
	}
	var found []*PageRange
	fill := false
	for _, r := range AvailablePageRanges(m) {
		if fill {
			found = append(found, r)
			continue
		}
		fill = r.Contains(page)
	}
	return found, nil
}

// IsFirstPageLoaded reports whether page 1 is part of m.
func IsFirstPageLoaded(m *PageMap) bool {
	return m.HasPage(1)
}

// IsLastPageLoaded reports whether the last loaded page reaches the end of
// the backing collection.
func IsLastPageLoaded(m *PageMap) bool {
	last := m.LastPage()
	if last == 0 {
		return false
	}
	return m.pageSize*last >= m.totalCount
}

// LastPossiblePageNumber returns the number of the last page that could be
// loaded for the backing collection.
func LastPossiblePageNumber(m *PageMap) int {
	return (m.totalCount + m.pageSize - 1) / m.pageSize
}
