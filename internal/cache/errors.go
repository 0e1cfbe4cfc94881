package cache

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist or cannot
// be decoded, and when a sample is requested from a store with no valid
// records.
var ErrNotFound = errors.New("quiz not found")

// ErrRecordTooLarge is returned by Append for a record whose encoded line
// would exceed the store's line limit.
var ErrRecordTooLarge = errors.New("quiz record too large")

var errLineTooLong = errors.New("line exceeds size limit")

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("quiz store closed")

// IOError wraps a filesystem failure on the backing file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("quiz store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
