package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotAscending and ErrDuplicateTimestamp are the two structural
// precondition violations. Per-record data gaps are never errors; they
// degrade the affected timestep to LevelUnknown instead.
var (
	ErrNotAscending       = errors.New("observations not in ascending time order")
	ErrDuplicateTimestamp = errors.New("duplicate observation timestamp")
)

// OrderingError reports where an input series violated the strictly
// ascending, unique timestamp precondition. The engine refuses to process
// such input rather than re-sorting it, so an upstream collaborator bug
// surfaces instead of being masked.
type OrderingError struct {
	Index int
	Prev  time.Time
	Cur   time.Time
	Err   error
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("%v at index %d: %s followed by %s",
		e.Err, e.Index,
		e.Prev.Format(time.RFC3339), e.Cur.Format(time.RFC3339))
}

func (e *OrderingError) Unwrap() error {
	return e.Err
}

// CheckOrdering validates the ascending/unique timestamp precondition for
// a pair of adjacent timestamps, with cur at the given index.
func CheckOrdering(index int, prev, cur time.Time) error {
	if cur.Equal(prev) {
		return &OrderingError{Index: index, Prev: prev, Cur: cur, Err: ErrDuplicateTimestamp}
	}
	if cur.Before(prev) {
		return &OrderingError{Index: index, Prev: prev, Cur: cur, Err: ErrNotAscending}
	}
	return nil
}
