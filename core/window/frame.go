package window

import (
	"container/list"
	"time"
)

// frame tracks a loaded page of the window: its pin count and its place in
// the LRU list. The records themselves live in the PageMap.
type frame struct {
	page       int
	pinCount   uint32
	lruElement *list.Element
	loadedAt   time.Time
}

func newFrame(page int) *frame {
	return &frame{page: page, loadedAt: time.Now()}
}

func (f *frame) Pin() { f.pinCount++ }
func (f *frame) Unpin() {
	if f.pinCount > 0 {
		f.pinCount--
	}
}
func (f *frame) IsPinned() bool { return f.pinCount > 0 }
