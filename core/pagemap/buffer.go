package pagemap

// EdgeBuffer is an overflow buffer ("feed") holding records for a page number
// that is not a fully loaded page. A buffer is linked to exactly one real
// page, either the page before it (Previous) or the page after it (Next). Its
// edge is the side facing that page: Extract and Fill operate on the edge.
type EdgeBuffer interface {
	// At returns the record at the page-relative offset.
	At(offset int) (Record, bool)
	// RemoveAt removes and returns the record at offset.
	RemoveAt(offset int) (Record, bool)
	// InsertAt inserts records starting at offset.
	InsertAt(records []Record, offset int) error
	// Extract removes up to count records from the edge.
	Extract(count int) []Record
	// Fill adds records at the edge.
	Fill(records []Record) error
	// Previous is the linked page before the buffer, 0 if none.
	Previous() int
	// Next is the linked page after the buffer, 0 if none.
	Next() int
	FreeSpace() int
	Len() int
	// IndexOf returns the page-relative offset of the record, or -1.
	IndexOf(id RecordID) int
}

// FeedSource exposes the buffers attached to a PageMap. A nil FeedSource
// means the window has no buffers.
type FeedSource interface {
	FeedAt(page int) EdgeBuffer
	// FeedPages returns the page numbers buffers are stored under, ascending.
	FeedPages() []int
}

func feedAt(fs FeedSource, page int) EdgeBuffer {
	if fs == nil {
		return nil
	}
	return fs.FeedAt(page)
}
