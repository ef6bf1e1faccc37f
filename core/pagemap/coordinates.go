package pagemap

import "fmt"

// IndexToPosition computes the position that the logical index maps to. The
// position is not guaranteed to currently hold a record.
func IndexToPosition(index, pageSize, totalCount int) (RecordPosition, error) {
	if index < 0 {
		return RecordPosition{}, fmt.Errorf("%w: index must be a number greater than -1, got %d", ErrInvalidArgument, index)
	}
	if pageSize < 1 {
		return RecordPosition{}, fmt.Errorf("%w: page size must be greater than 0, got %d", ErrInvalidArgument, pageSize)
	}
	if index >= totalCount {
		return RecordPosition{}, fmt.Errorf("%w: index %d exceeds the total count %d", ErrOutOfBounds, index, totalCount)
	}
	return RecordPosition{page: index/pageSize + 1, offset: index % pageSize}, nil
}

// PositionToIndex computes the logical index a position represents. The index
// is not guaranteed to currently hold a record.
func PositionToIndex(pos RecordPosition, pageSize int) (int, error) {
	if !pos.IsValid() {
		return -1, fmt.Errorf("%w: position %s is not valid", ErrInvalidArgument, pos)
	}
	if pos.offset >= pageSize {
		return -1, fmt.Errorf("%w: offset of position %s exceeds the page size %d", ErrOutOfBounds, pos, pageSize)
	}
	return (pos.page-1)*pageSize + pos.offset, nil
}

// IndexRangeFromBounds returns the positions of start and end.
func IndexRangeFromBounds(start, end, pageSize, totalCount int) (IndexRange, error) {
	if start < 0 || end < 0 {
		return IndexRange{}, fmt.Errorf("%w: start (%d) and end (%d) must be greater than or equal to 0", ErrInvalidArgument, start, end)
	}
	if start > end {
		return IndexRange{}, fmt.Errorf("%w: start (%d) must be less than or equal to end (%d)", ErrInvalidArgument, start, end)
	}
	s, err := IndexToPosition(start, pageSize, totalCount)
	if err != nil {
		return IndexRange{}, err
	}
	e, err := IndexToPosition(end, pageSize, totalCount)
	if err != nil {
		return IndexRange{}, err
	}
	return IndexRange{Start: s, End: e}, nil
}
