package pagemap

import "fmt"

// RecordPosition addresses a slot inside the window: the page number (1-based)
// and the offset of the record within that page (0-based).
type RecordPosition struct {
	page   int
	offset int
}

// NewRecordPosition validates and creates a RecordPosition. Whether offset
// fits the page size is checked by the operations that know the page size.
func NewRecordPosition(page, offset int) (RecordPosition, error) {
	if page < 1 {
		return RecordPosition{}, fmt.Errorf("%w: page must be greater than 0, got %d", ErrInvalidArgument, page)
	}
	if offset < 0 {
		return RecordPosition{}, fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidArgument, offset)
	}
	return RecordPosition{page: page, offset: offset}, nil
}

// MustPosition is NewRecordPosition for literals known to be valid.
func MustPosition(page, offset int) RecordPosition {
	pos, err := NewRecordPosition(page, offset)
	if err != nil {
		panic(err)
	}
	return pos
}

func (p RecordPosition) Page() int   { return p.page }
func (p RecordPosition) Offset() int { return p.offset }

// IsValid is false for the zero value.
func (p RecordPosition) IsValid() bool { return p.page >= 1 && p.offset >= 0 }

func (p RecordPosition) Equal(other RecordPosition) bool {
	return p.page == other.page && p.offset == other.offset
}

func (p RecordPosition) String() string {
	return fmt.Sprintf("(%d, %d)", p.page, p.offset)
}

// IndexRange holds the positions of a start and an end index, start never
// being behind end.
type IndexRange struct {
	Start RecordPosition
	End   RecordPosition
}
