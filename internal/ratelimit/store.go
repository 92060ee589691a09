// Package ratelimit implements a fixed-window request limiter for the
// sensitive auth endpoints. The counting store is injectable: the in-memory
// store serves a single process, the storage backed store lets multiple
// processes share one window.
package ratelimit

import (
	"time"
)

// Window describes the state of a counting window after a hit.
type Window struct {
	// Count is the number of hits recorded in the current window,
	// including the one just made.
	Count int
	// ResetAt is when the current window ends and the count starts over.
	ResetAt time.Time
}

// Store counts hits per key in fixed windows. The window start is fixed at
// the first hit; concurrent hits near the boundary must not each restart it.
type Store interface {
	Hit(key string, window time.Duration, now time.Time) (Window, error)
}
