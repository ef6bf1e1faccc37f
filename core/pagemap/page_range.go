package pagemap

import (
	"fmt"
	"strconv"
	"strings"
)

// PageRange is an ordered run of subsequent page numbers, e.g. [3, 4, 5].
// The pages can only be set once; a PageRange is a value object and never
// changes after construction.
//
//	r, _ := NewPageRange([]int{3, 4, 5})
//	r.First() // 3
//	r.Last()  // 5
//	r.Len()   // 3
//	r.SetPages([]int{6, 7}) // ErrAlreadyInitialized
type PageRange struct {
	pages []int
}

// NewPageRange creates a PageRange for pages. pages must not be empty, must
// start at 1 or above and every entry must be exactly one greater than its
// predecessor.
func NewPageRange(pages []int) (*PageRange, error) {
	r := &PageRange{}
	if err := r.SetPages(pages); err != nil {
		return nil, err
	}
	return r, nil
}

// PageRangeOf is the variadic form of NewPageRange. A slice can be passed
// with PageRangeOf(pages...).
func PageRangeOf(pages ...int) (*PageRange, error) {
	return NewPageRange(pages)
}

// PageRangeFor creates the range first..last, both inclusive.
func PageRangeFor(first, last int) (*PageRange, error) {
	if last < first {
		return nil, fmt.Errorf("%w: last page %d is less than first page %d", ErrInvalidArgument, last, first)
	}
	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return NewPageRange(pages)
}

// SetPages initializes the range. It fails with ErrAlreadyInitialized if the
// range already holds pages.
func (r *PageRange) SetPages(pages []int) error {
	if r.pages != nil {
		return fmt.Errorf("%w: pages were already defined as %v", ErrAlreadyInitialized, r.pages)
	}
	if len(pages) == 0 {
		return fmt.Errorf("%w: pages must not be empty", ErrInvalidArgument)
	}
	if pages[0] < 1 {
		return fmt.Errorf("%w: a page range's first page must not be less than 1, got %v", ErrInvalidArgument, pages)
	}
	for i := 1; i < len(pages); i++ {
		if pages[i]-pages[i-1] != 1 {
			return fmt.Errorf("%w: pages %v are not an ordered list of subsequent pages", ErrInvalidArgument, pages)
		}
	}

	r.pages = append(make([]int, 0, len(pages)), pages...)
	return nil
}

func (r *PageRange) First() int { return r.pages[0] }
func (r *PageRange) Last() int  { return r.pages[len(r.pages)-1] }
func (r *PageRange) Len() int   { return len(r.pages) }

// Contains reports whether page is part of the range.
func (r *PageRange) Contains(page int) bool {
	return len(r.pages) > 0 && page >= r.First() && page <= r.Last()
}

// EqualTo reports whether other represents the same pages as r.
func (r *PageRange) EqualTo(other *PageRange) (bool, error) {
	if other == nil {
		return false, fmt.Errorf("%w: target must be a PageRange", ErrInvalidArgument)
	}
	if r == other {
		return true, nil
	}
	if len(r.pages) != len(other.pages) {
		return false, nil
	}
	for i, p := range r.pages {
		if other.pages[i] != p {
			return false, nil
		}
	}
	return true, nil
}

// ToArray returns a copy of the pages; changing it does not affect r.
func (r *PageRange) ToArray() []int {
	return append(make([]int, 0, len(r.pages)), r.pages...)
}

func (r *PageRange) String() string {
	parts := make([]string, len(r.pages))
	for i, p := range r.pages {
		parts[i] = strconv.Itoa(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
