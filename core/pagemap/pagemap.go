package pagemap

import (
	"fmt"

	"github.com/google/btree"
)

const pageKeyDegree = 16

// PageMap holds the pages currently loaded into the window. Pages are kept
// per page number; page numbers may be sparse. Next to the pages it keeps a
// reverse index from record identity to the logical index of the record in
// the backing collection, so IndexOf is O(1).
//
// PageMap is not safe for concurrent use. The window manager hands it out to
// one writer at a time.
type PageMap struct {
	pageSize   int
	totalCount int

	pages map[int][]Record
	keys  *btree.BTreeG[int] // ordered set of the page numbers in pages
	index map[RecordID]int
}

// NewPageMap creates an empty PageMap for a backing collection of totalCount
// records split into pages of pageSize records.
func NewPageMap(pageSize, totalCount int) (*PageMap, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page size must be greater than 0, got %d", ErrInvalidArgument, pageSize)
	}
	if totalCount < 0 {
		return nil, fmt.Errorf("%w: total count must not be negative, got %d", ErrInvalidArgument, totalCount)
	}
	return &PageMap{
		pageSize:   pageSize,
		totalCount: totalCount,
		pages:      make(map[int][]Record),
		keys:       btree.NewOrderedG[int](pageKeyDegree),
		index:      make(map[RecordID]int),
	}, nil
}

func (m *PageMap) PageSize() int   { return m.pageSize }
func (m *PageMap) TotalCount() int { return m.totalCount }

// SetTotalCount updates the size of the backing collection, e.g. after the
// store reported a new count.
func (m *PageMap) SetTotalCount(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: total count must not be negative, got %d", ErrInvalidArgument, n)
	}
	m.totalCount = n
	return nil
}

// Len returns the number of loaded pages.
func (m *PageMap) Len() int { return len(m.pages) }

func (m *PageMap) HasPage(page int) bool {
	_, ok := m.pages[page]
	return ok
}

// Page returns a copy of the records on page.
func (m *PageMap) Page(page int) ([]Record, bool) {
	values, ok := m.pages[page]
	if !ok {
		return nil, false
	}
	return append(make([]Record, 0, len(values)), values...), true
}

// PageNumbers returns the loaded page numbers in ascending order.
func (m *PageMap) PageNumbers() []int {
	out := make([]int, 0, m.keys.Len())
	m.keys.Ascend(func(p int) bool {
		out = append(out, p)
		return true
	})
	return out
}

// LastPage returns the greatest loaded page number, or 0 for an empty map.
func (m *PageMap) LastPage() int {
	p, ok := m.keys.Max()
	if !ok {
		return 0
	}
	return p
}

// CheckPage reports the error SetPage(page, records) would return without
// changing m. Records currently held by one of the released pages count as
// free.
func (m *PageMap) CheckPage(page int, records []Record, released ...int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be greater than 0, got %d", ErrInvalidArgument, page)
	}
	if len(records) > m.pageSize {
		return fmt.Errorf("%w: page %d holds %d records, page size is %d", ErrOutOfBounds, page, len(records), m.pageSize)
	}
	free := make(map[RecordID]struct{}, len(m.pages[page]))
	for _, p := range append([]int{page}, released...) {
		for _, rec := range m.pages[p] {
			free[rec.ID()] = struct{}{}
		}
	}
	seen := make(map[RecordID]struct{}, len(records))
	for i, rec := range records {
		if rec == nil {
			return fmt.Errorf("%w: record %d of page %d is nil", ErrInvalidArgument, i, page)
		}
		id := rec.ID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: record %s appears twice on page %d", ErrInvalidArgument, id, page)
		}
		seen[id] = struct{}{}
		if _, ok := free[id]; ok {
			continue
		}
		if idx, ok := m.index[id]; ok {
			return fmt.Errorf("%w: record %s is already held at index %d", ErrInvalidArgument, id, idx)
		}
	}
	return nil
}

// SetPage stores records as the content of page and indexes them. An existing
// page is replaced. A record that is already held by another page is rejected.
func (m *PageMap) SetPage(page int, records []Record) error {
	if err := m.CheckPage(page, records); err != nil {
		return err
	}

	m.RemovePage(page)
	m.pages[page] = append(make([]Record, 0, m.pageSize), records...)
	m.keys.ReplaceOrInsert(page)
	m.reindexPage(page)
	return nil
}

// RemovePage drops page and the index entries of its records.
func (m *PageMap) RemovePage(page int) bool {
	values, ok := m.pages[page]
	if !ok {
		return false
	}
	for _, rec := range values {
		delete(m.index, rec.ID())
	}
	delete(m.pages, page)
	m.keys.Delete(page)
	return true
}

// IndexOf returns the logical index of the record with id, or -1.
func (m *PageMap) IndexOf(id RecordID) int {
	if idx, ok := m.index[id]; ok {
		return idx
	}
	return -1
}

// PageFromIndex returns the page number a logical index belongs to.
func (m *PageMap) PageFromIndex(index int) int {
	return index/m.pageSize + 1
}

// IndexToPosition is IndexToPosition bound to this map's page size and count.
func (m *PageMap) IndexToPosition(index int) (RecordPosition, error) {
	return IndexToPosition(index, m.pageSize, m.totalCount)
}

// PositionToIndex is PositionToIndex bound to this map's page size.
func (m *PageMap) PositionToIndex(pos RecordPosition) (int, error) {
	return PositionToIndex(pos, m.pageSize)
}

func (m *PageMap) reindexPage(page int) {
	idx := (page - 1) * m.pageSize
	for _, rec := range m.pages[page] {
		m.index[rec.ID()] = idx
		idx++
	}
}

// values gives the engine direct access to the backing slice of page.
func (m *PageMap) values(page int) ([]Record, bool) {
	v, ok := m.pages[page]
	return v, ok
}

func (m *PageMap) setValues(page int, values []Record) {
	m.pages[page] = values
}

func (m *PageMap) unindex(id RecordID) {
	delete(m.index, id)
}
