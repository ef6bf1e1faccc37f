package pagemap

import "errors"

// --- Error Definitions ---

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrOutOfBounds         = errors.New("value out of bounds")
	ErrAlreadyInitialized  = errors.New("value object already initialized")
	ErrNotFound            = errors.New("record or page not found")
	ErrRecordNotResolvable = errors.New("record at position could not be resolved")
	ErrCrossRangeMove      = errors.New("source and target positions are not in the same page range")
	ErrInconsistentState   = errors.New("page map is in an inconsistent state")
)
