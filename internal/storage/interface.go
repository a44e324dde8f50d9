package storage

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("timed out waiting for item lock")

// ItemLocker serializes rental transactions per item.
// Supports an in-process implementation and a Redis one for multi-instance deployments.
type ItemLocker interface {
	// Lock blocks until the caller holds the lock for itemID or ctx is done.
	// The returned func releases the lock and is safe to call once.
	Lock(ctx context.Context, itemID string) (unlock func(), err error)
}
