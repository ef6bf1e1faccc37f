package pagemap

import "fmt"

// MaintainIndex recomputes the reverse index for every page in rng so that
// IndexOf keeps working after records were shifted. Every page of rng must be
// loaded. The actual length of each page is used rather than the page size,
// since the pages at the edges of the window may not be completely filled.
func MaintainIndex(rng *PageRange, m *PageMap) error {
	if rng == nil || m == nil {
		return fmt.Errorf("%w: page range and page map must be set", ErrInvalidArgument)
	}
	for p := rng.First(); p <= rng.Last(); p++ {
		if !m.HasPage(p) {
			return fmt.Errorf("%w: page %d of range %s does not exist in the page map", ErrInconsistentState, p, rng)
		}
	}

	idx := (rng.First() - 1) * m.pageSize
	for p := rng.First(); p <= rng.Last(); p++ {
		for _, rec := range m.pages[p] {
			m.index[rec.ID()] = idx
			idx++
		}
	}
	return nil
}
