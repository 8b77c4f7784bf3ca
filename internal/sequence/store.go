package sequence

import (
	"context"
	"errors"
)

// Store is the durable counter behind the allocator.
type Store interface {
	// Read returns the next value to be issued without consuming it.
	Read(ctx context.Context) (int64, error)
	// IncrementAndGet atomically persists current+1 and returns current.
	IncrementAndGet(ctx context.Context) (int64, error)
	Close() error
}

// errCorrupt marks persisted state that cannot be parsed as a counter.
var errCorrupt = errors.New("corrupted counter state")
