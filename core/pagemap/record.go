package pagemap

import (
	"fmt"

	"github.com/google/uuid"
)

// RecordID is the stable identity of a record. It is assigned once when the
// record is created and never changes while the record travels between pages
// and feeds.
type RecordID uuid.UUID

// NilRecordID is the zero identity; no valid record carries it.
var NilRecordID = RecordID(uuid.Nil)

// NewRecordID returns a fresh random identity.
func NewRecordID() RecordID {
	return RecordID(uuid.New())
}

// ParseRecordID parses the canonical string form produced by String.
func ParseRecordID(s string) (RecordID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilRecordID, fmt.Errorf("%w: record id %q: %w", ErrInvalidArgument, s, err)
	}
	return RecordID(id), nil
}

// RecordIDFromBytes converts a 16 byte slice back into a RecordID.
func RecordIDFromBytes(b []byte) (RecordID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return NilRecordID, fmt.Errorf("%w: record id bytes: %w", ErrInvalidArgument, err)
	}
	return RecordID(id), nil
}

func (id RecordID) String() string { return uuid.UUID(id).String() }
func (id RecordID) Bytes() []byte  { b := uuid.UUID(id); return b[:] }
func (id RecordID) IsNil() bool    { return id == NilRecordID }

// Record is anything that can be held by a page. Identity is all the page map
// needs; the payload is opaque.
type Record interface {
	ID() RecordID
}

// Item is the record type produced by the stores in this module.
type Item struct {
	RecordID RecordID
	Payload  []byte
}

// NewItem creates an Item with a fresh identity.
func NewItem(payload []byte) *Item {
	return &Item{RecordID: NewRecordID(), Payload: payload}
}

func (i *Item) ID() RecordID { return i.RecordID }

func (i *Item) String() string { return string(i.Payload) }
