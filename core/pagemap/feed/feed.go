// Package feed implements overflow buffers for a PageMap. A Feed holds records
// for a page number that is not a fully loaded page, e.g. the remainder of a
// page whose neighbour was evicted. Feeds are linked to exactly one real page
// and grow and shrink at the edge facing that page.
package feed

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sushant-115/pagewindow/core/pagemap"
)

var (
	ErrFeedExists   = fmt.Errorf("%w: feed already exists", pagemap.ErrInvalidArgument)
	ErrFeedNotFound = fmt.Errorf("%w: feed does not exist", pagemap.ErrNotFound)
	ErrNoFreeSpace  = fmt.Errorf("%w: feed has no free space", pagemap.ErrOutOfBounds)
	ErrBadLinkage   = errors.New("feed must be linked to exactly one page")
)

// Feed is a fixed capacity buffer addressed with page-relative offsets. A
// feed linked to its previous page holds the head of a page (offsets
// [0, Len)), a feed linked to its next page holds the tail (offsets
// [size-Len, size)).
type Feed struct {
	size     int
	previous int
	next     int
	data     []pagemap.Record
}

var _ pagemap.EdgeBuffer = (*Feed)(nil)

// New creates an empty feed of the given size. Exactly one of previous and
// next must be set.
func New(size, previous, next int) (*Feed, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size must be greater than 0, got %d", pagemap.ErrInvalidArgument, size)
	}
	if (previous > 0) == (next > 0) || previous < 0 || next < 0 {
		return nil, fmt.Errorf("%w: previous=%d next=%d", ErrBadLinkage, previous, next)
	}
	return &Feed{
		size:     size,
		previous: previous,
		next:     next,
		data:     make([]pagemap.Record, 0, size),
	}, nil
}

func (f *Feed) Size() int      { return f.size }
func (f *Feed) Previous() int  { return f.previous }
func (f *Feed) Next() int      { return f.next }
func (f *Feed) Len() int       { return len(f.data) }
func (f *Feed) FreeSpace() int { return f.size - len(f.data) }
func (f *Feed) IsFull() bool   { return len(f.data) == f.size }
func (f *Feed) IsEmpty() bool  { return len(f.data) == 0 }

// Records returns a copy of the feed's records in page order.
func (f *Feed) Records() []pagemap.Record {
	return slices.Clone(f.data)
}

func (f *Feed) headAligned() bool { return f.previous > 0 }

// dataIndex maps a page-relative offset to an index into data.
func (f *Feed) dataIndex(offset int) int {
	if f.headAligned() {
		return offset
	}
	return offset - (f.size - len(f.data))
}

func (f *Feed) At(offset int) (pagemap.Record, bool) {
	if offset < 0 || offset >= f.size {
		return nil, false
	}
	i := f.dataIndex(offset)
	if i < 0 || i >= len(f.data) {
		return nil, false
	}
	return f.data[i], true
}

func (f *Feed) RemoveAt(offset int) (pagemap.Record, bool) {
	rec, ok := f.At(offset)
	if !ok {
		return nil, false
	}
	i := f.dataIndex(offset)
	f.data = slices.Delete(f.data, i, i+1)
	return rec, true
}

// InsertAt inserts records in front of the record currently found at offset.
// For a tail feed the records in front of offset move towards the head, so
// the first inserted record ends up one slot before offset.
func (f *Feed) InsertAt(records []pagemap.Record, offset int) error {
	if len(records) > f.FreeSpace() {
		return fmt.Errorf("%w: inserting %d records, %d free", ErrNoFreeSpace, len(records), f.FreeSpace())
	}
	if offset < 0 || offset >= f.size {
		return fmt.Errorf("%w: offset %d, size %d", pagemap.ErrOutOfBounds, offset, f.size)
	}
	i := max(0, min(f.dataIndex(offset), len(f.data)))
	f.data = slices.Insert(f.data, i, records...)
	return nil
}

// Extract removes up to count records from the edge facing the linked page
// and returns them in page order.
func (f *Feed) Extract(count int) []pagemap.Record {
	count = max(0, min(count, len(f.data)))
	if count == 0 {
		return nil
	}
	var out []pagemap.Record
	if f.headAligned() {
		out = slices.Clone(f.data[:count])
		f.data = slices.Delete(f.data, 0, count)
	} else {
		out = slices.Clone(f.data[len(f.data)-count:])
		f.data = f.data[:len(f.data)-count]
	}
	return out
}

// Fill adds records, in page order, at the edge facing the linked page.
func (f *Feed) Fill(records []pagemap.Record) error {
	if len(records) > f.FreeSpace() {
		return fmt.Errorf("%w: filling %d records, %d free", ErrNoFreeSpace, len(records), f.FreeSpace())
	}
	if f.headAligned() {
		f.data = slices.Insert(f.data, 0, records...)
	} else {
		f.data = append(f.data, records...)
	}
	return nil
}

func (f *Feed) IndexOf(id pagemap.RecordID) int {
	for i, rec := range f.data {
		if rec.ID() == id {
			if f.headAligned() {
				return i
			}
			return i + f.size - len(f.data)
		}
	}
	return -1
}
