// Package keylock serializes work on a single identity key.
package keylock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before ctx ended
var ErrLockTimeout = errors.New("keylock: timed out waiting for lock")

// Locker grants exclusive access to a key until unlock is called
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
