package pagemap

import "fmt"

// RecordAt returns the record found at pos. The page map is consulted first,
// then the buffer stored under the position's page. The bool is false if
// neither holds a record at pos.
func RecordAt(pos RecordPosition, m *PageMap, fs FeedSource) (Record, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("%w: page map must be set", ErrInvalidArgument)
	}
	if !pos.IsValid() {
		return nil, false, fmt.Errorf("%w: position %s is not valid", ErrInvalidArgument, pos)
	}
	if pos.offset >= m.pageSize {
		return nil, false, fmt.Errorf("%w: offset of position %s exceeds the page size %d", ErrOutOfBounds, pos, m.pageSize)
	}
	if values, ok := m.values(pos.page); ok && pos.offset < len(values) {
		return values[pos.offset], true, nil
	}
	if f := feedAt(fs, pos.page); f != nil {
		if rec, ok := f.At(pos.offset); ok {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

// FindRecord returns the position of rec in m or, if fs is set, in one of
// its buffers.
func FindRecord(rec Record, m *PageMap, fs FeedSource) (RecordPosition, bool) {
	if pos, ok := m.locate(rec.ID()); ok {
		return pos, true
	}
	if fs == nil {
		return RecordPosition{}, false
	}
	for _, page := range fs.FeedPages() {
		f := fs.FeedAt(page)
		if f == nil {
			continue
		}
		if offset := f.IndexOf(rec.ID()); offset != -1 {
			return RecordPosition{page: page, offset: offset}, true
		}
	}
	return RecordPosition{}, false
}

// locate resolves id through the reverse index. Partially filled pages in
// front of a record shift its index away from its nominal page, in which case
// the loaded pages are searched.
func (m *PageMap) locate(id RecordID) (RecordPosition, bool) {
	idx, ok := m.index[id]
	if !ok {
		return RecordPosition{}, false
	}
	page := m.PageFromIndex(idx)
	if offset := offsetIn(m.pages[page], id); offset != -1 {
		return RecordPosition{page: page, offset: offset}, true
	}
	for _, p := range m.PageNumbers() {
		if offset := offsetIn(m.pages[p], id); offset != -1 {
			return RecordPosition{page: p, offset: offset}, true
		}
	}
	return RecordPosition{}, false
}

func offsetIn(values []Record, id RecordID) int {
	for i, rec := range values {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}
