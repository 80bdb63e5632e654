package storage

import (
	"errors"

	"github.com/md-rashed-zaman/meetslot/libs/db"
)

var ErrNotFound = errors.New("not found")

// ErrSlotFull means the start time already holds as many confirmed bookings
// as the event type allows.
var ErrSlotFull = errors.New("slot is full")

// ErrSlotTaken means a unique index rejected the insert: either a concurrent
// one-guest booking won, or this guest already holds a seat.
var ErrSlotTaken = errors.New("slot already taken")

var ErrAlreadyCancelled = errors.New("booking already cancelled")

var ErrDuplicateSlug = errors.New("slug already in use")

// IsConflict reports a unique constraint violation or one of the conflict
// sentinels above.
func IsConflict(err error) bool {
	return db.IsUniqueViolation(err) || errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrDuplicateSlug)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || db.IsNotFound(err)
}
