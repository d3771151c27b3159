package store

import "github.com/go-faster/errors"

// ErrSlotEmpty is returned by a Slot when nothing has been written under the
// state key yet.
var ErrSlotEmpty = errors.New("state slot is empty")
