package regcache

// SentinelError is an error.
type SentinelError string

const (
	// ErrInvalidName indicates an empty or over-long cache name or entry key.
	ErrInvalidName = SentinelError("invalid name")

	// ErrDuplicateKey indicates the key is already present in cache.
	ErrDuplicateKey = SentinelError("duplicate key")

	// ErrEmptyValues indicates an entry added without values.
	ErrEmptyValues = SentinelError("empty values")

	// ErrValueTooLong indicates the value count exceeds the configured maximum.
	ErrValueTooLong = SentinelError("value too long")

	// ErrNotFound indicates missing cache entry.
	ErrNotFound = SentinelError("missing cache entry")

	// ErrEmptyCache indicates a size query against a cache with no entries.
	ErrEmptyCache = SentinelError("empty cache")

	// ErrCountMismatch indicates a value update with a different count than the entry holds.
	ErrCountMismatch = SentinelError("value count mismatch")

	// ErrShortBuffer indicates the destination buffer can not hold the entry values.
	ErrShortBuffer = SentinelError("short buffer")

	// ErrPoolClosed indicates task submission to a closed worker pool.
	ErrPoolClosed = SentinelError("worker pool is closed")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}
