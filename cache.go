package regcache

import (
	"context"
)

// Listener receives asynchronous change notifications for an entry.
//
// Changed is invoked on a worker pool goroutine with the entry key and a copy
// of the just-written values. A listener that calls back into the cache
// contends for the cache lock like any other caller.
type Listener interface {
	Changed(ctx context.Context, key string, values []uint16)
}

// ListenerFunc implements Listener with a function.
type ListenerFunc func(ctx context.Context, key string, values []uint16)

// Changed implements Listener.
func (f ListenerFunc) Changed(ctx context.Context, key string, values []uint16) {
	f(ctx, key, values)
}

// Store is a contract of a register cache instance.
type Store interface {
	// Contains reports whether an entry exists for the key.
	Contains(ctx context.Context, key string) bool

	// Add creates an entry with a copy of values and an optional listener.
	Add(ctx context.Context, key string, values []uint16, listener Listener) error

	// Remove deletes an entry.
	Remove(ctx context.Context, key string) error

	// Get copies entry values into out and returns the number of values copied.
	Get(ctx context.Context, key string, out []uint16) (int, error)

	// Values returns a copy of entry values.
	Values(ctx context.Context, key string) ([]uint16, error)

	// Set overwrites entry values, notifying the entry listener on change.
	Set(ctx context.Context, key string, values []uint16) error

	// Size returns entries count and total stored bytes.
	Size(ctx context.Context) (int, int, error)
}

// Walker calls function for every entry in cache in insertion order and
// fails on first error returned by that function.
//
// Count of processed entries is returned.
type Walker interface {
	Walk(func(key string, values []uint16) error) (int, error)
}
