package pagemap

import (
	"fmt"
	"slices"
)

// slot is the content of one page number during a move: either a real page of
// the PageMap or a buffer.
type slot interface {
	removeAt(offset int) (Record, bool)
	insertAt(rec Record, offset int) error
	// popLeading and pushLeading work on the edge facing lower page numbers,
	// popTrailing and pushTrailing on the edge facing higher page numbers.
	popLeading() (Record, bool)
	popTrailing() (Record, bool)
	pushLeading(rec Record) error
	pushTrailing(rec Record) error
	real() bool
}

type realPage struct {
	m    *PageMap
	page int
}

func (s realPage) removeAt(offset int) (Record, bool) {
	values, _ := s.m.values(s.page)
	if offset < 0 || offset >= len(values) {
		return nil, false
	}
	rec := values[offset]
	s.m.setValues(s.page, slices.Delete(values, offset, offset+1))
	return rec, true
}

func (s realPage) insertAt(rec Record, offset int) error {
	values, _ := s.m.values(s.page)
	offset = max(0, min(offset, len(values)))
	s.m.setValues(s.page, slices.Insert(values, offset, rec))
	return nil
}

func (s realPage) popLeading() (Record, bool) { return s.removeAt(0) }

func (s realPage) popTrailing() (Record, bool) {
	values, _ := s.m.values(s.page)
	return s.removeAt(len(values) - 1)
}

func (s realPage) pushLeading(rec Record) error { return s.insertAt(rec, 0) }

func (s realPage) pushTrailing(rec Record) error {
	values, _ := s.m.values(s.page)
	s.m.setValues(s.page, append(values, rec))
	return nil
}

func (s realPage) real() bool { return true }

// bufferedPage delegates to an EdgeBuffer. A buffer only has one edge, the one
// facing its linked page, so leading and trailing are the same operation.
type bufferedPage struct {
	f EdgeBuffer
}

func (s bufferedPage) removeAt(offset int) (Record, bool) { return s.f.RemoveAt(offset) }

func (s bufferedPage) insertAt(rec Record, offset int) error {
	return s.f.InsertAt([]Record{rec}, offset)
}

func (s bufferedPage) popLeading() (Record, bool)    { return s.pop() }
func (s bufferedPage) popTrailing() (Record, bool)   { return s.pop() }
func (s bufferedPage) pushLeading(rec Record) error  { return s.f.Fill([]Record{rec}) }
func (s bufferedPage) pushTrailing(rec Record) error { return s.f.Fill([]Record{rec}) }
func (s bufferedPage) real() bool                    { return false }

func (s bufferedPage) pop() (Record, bool) {
	out := s.f.Extract(1)
	if len(out) == 0 {
		return nil, false
	}
	return out[0], true
}

func slotFor(page int, m *PageMap, fs FeedSource) (slot, error) {
	if f := feedAt(fs, page); f != nil {
		return bufferedPage{f: f}, nil
	}
	if m.HasPage(page) {
		return realPage{m: m, page: page}, nil
	}
	return nil, fmt.Errorf("%w: page %d is neither loaded nor buffered", ErrInconsistentState, page)
}

// MoveRecord moves the record at from to to. Both positions must hold a
// record and must be part of the same page range. Records between the two
// positions are shifted by one slot across page boundaries and the reverse
// index of every real page touched is repaired afterwards. Records shifted
// into a buffer are dropped from the reverse index; buffers track their own
// positions.
//
//	1: [a, b, c, d]            1: [k, a, b, c]
//	2: [e, f, g, h]  (3,2)->(1,0)  2: [d, e, f, g]
//	3: [i, j, k, l]            3: [h, i, j, l]
//
// The record does not necessarily end up at to: it is removed from its source
// slot before it is inserted, so for moves towards higher positions the
// records following the source already moved down by one. Only the order of
// the records relative to each other is guaranteed.
func MoveRecord(from, to RecordPosition, m *PageMap, fs FeedSource) (bool, error) {
	if m == nil {
		return false, fmt.Errorf("%w: page map must be set", ErrInvalidArgument)
	}
	if !from.IsValid() || !to.IsValid() {
		return false, fmt.Errorf("%w: positions %s and %s must be valid", ErrInvalidArgument, from, to)
	}
	if from.Equal(to) {
		return true, nil
	}

	fromRecord, ok, err := RecordAt(from, m, fs)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: no record at source position %s", ErrRecordNotResolvable, from)
	}
	toRecord, ok, err := RecordAt(to, m, fs)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: no record at target position %s", ErrRecordNotResolvable, to)
	}

	fromRange, err := PageRangeForRecord(fromRecord, m, fs)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRecordNotResolvable, err)
	}
	toRange, err := PageRangeForRecord(toRecord, m, fs)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRecordNotResolvable, err)
	}
	if same, _ := toRange.EqualTo(fromRange); !same {
		return false, fmt.Errorf("%w: source range %s, target range %s", ErrCrossRangeMove, fromRange, toRange)
	}

	fromPage, toPage := from.page, to.page
	slots := make(map[int]slot, abs(toPage-fromPage)+1)
	for p := min(fromPage, toPage); p <= max(fromPage, toPage); p++ {
		s, err := slotFor(p, m, fs)
		if err != nil {
			return false, err
		}
		slots[p] = s
	}

	// Validation is complete, the page map is mutated from here on.
	var touched []int
	var buffered []Record
	track := func(page int, rec Record) {
		if slots[page].real() {
			touched = append(touched, page)
		} else if rec != nil {
			buffered = append(buffered, rec)
		}
	}

	rec, ok := slots[fromPage].removeAt(from.offset)
	if !ok {
		return false, fmt.Errorf("%w: record at %s vanished before it could be moved", ErrInconsistentState, from)
	}
	if slots[fromPage].real() {
		touched = append(touched, fromPage)
	}

	// e.g. 4 -> 7: the leading record of 7 goes to the end of 6, 6 to 5, 5 to 4
	for i := toPage; i > fromPage; i-- {
		pop, ok := slots[i].popLeading()
		track(i, nil)
		if !ok {
			continue
		}
		if err := slots[i-1].pushTrailing(pop); err != nil {
			return false, fmt.Errorf("%w: shifting into page %d: %w", ErrInconsistentState, i-1, err)
		}
		track(i-1, pop)
	}

	// e.g. 5 -> 2: the trailing record of 2 goes to the front of 3, 3 to 4, 4 to 5
	for i := toPage; i < fromPage; i++ {
		pop, ok := slots[i].popTrailing()
		track(i, nil)
		if !ok {
			continue
		}
		if err := slots[i+1].pushLeading(pop); err != nil {
			return false, fmt.Errorf("%w: shifting into page %d: %w", ErrInconsistentState, i+1, err)
		}
		track(i+1, pop)
	}

	toIndex := to.offset
	if slots[toPage].real() && ((fromPage == toPage && from.offset < to.offset) || fromPage < toPage) {
		toIndex--
	}
	if err := slots[toPage].insertAt(rec, toIndex); err != nil {
		return false, fmt.Errorf("%w: inserting into page %d: %w", ErrInconsistentState, toPage, err)
	}
	track(toPage, rec)

	for _, r := range buffered {
		m.unindex(r.ID())
	}
	if len(touched) > 0 {
		rng, err := PageRangeFor(slices.Min(touched), slices.Max(touched))
		if err != nil {
			return false, err
		}
		if err := MaintainIndex(rng, m); err != nil {
			return false, err
		}
	}
	return true, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
