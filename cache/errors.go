package cache

import (
	"fmt"
	"time"
)

// LockTimeoutError reports that a bounded wait for a key's populate lock
// expired. The caller decides whether to retry, fail the query, or proceed
// without caching.
type LockTimeoutError struct {
	CacheID string
	Key     *Fingerprint
	Timeout time.Duration
}

// Error implements the error interface.
func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("cache %s: timed out after %s waiting for lock on key %s",
		e.CacheID, e.Timeout, e.Key)
}

// LockWaitError reports that a wait for a key's populate lock was cut short,
// typically by context cancellation. The underlying cause is available via
// errors.Unwrap.
type LockWaitError struct {
	CacheID string
	Key     *Fingerprint
	Cause   error
}

// Error implements the error interface.
func (e *LockWaitError) Error() string {
	return fmt.Sprintf("cache %s: interrupted while waiting for lock on key %s: %v",
		e.CacheID, e.Key, e.Cause)
}

// Unwrap exposes the interruption cause.
func (e *LockWaitError) Unwrap() error { return e.Cause }
