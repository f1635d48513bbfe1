package gate

import (
	"sync"
	"time"
)

// DestructiveLimiter caps how many destructive operations may run inside a
// rolling time window. It protects against a compromised or confused caller
// issuing rapid destructive bulk actions; read and reversible-write
// operations are not limited.
//
// The window is a rolling record of admission timestamps rather than a token
// bucket: the guarantee is "no more than N per window", not a sustained
// rate, so refill semantics would be the wrong model.
type DestructiveLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	times  []time.Time
	now    func() time.Time
}

// Defaults for the destructive-operation limiter.
const (
	DefaultDestructiveLimit  = 10
	DefaultDestructiveWindow = time.Minute
)

// NewDestructiveLimiter creates a limiter admitting at most limit operations
// per window. Non-positive arguments fall back to the defaults.
func NewDestructiveLimiter(limit int, window time.Duration) *DestructiveLimiter {
	if limit <= 0 {
		limit = DefaultDestructiveLimit
	}
	if window <= 0 {
		window = DefaultDestructiveWindow
	}
	return &DestructiveLimiter{
		window: window,
		limit:  limit,
		now:    time.Now,
	}
}

// Allow reports whether another destructive operation may run now, and
// records it if so. Denied attempts are not recorded, so a burst of refusals
// does not extend the lockout.
func (dl *DestructiveLimiter) Allow() bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	now := dl.now()
	cutoff := now.Add(-dl.window)

	// Drop entries that have aged out of the window.
	kept := dl.times[:0]
	for _, t := range dl.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	dl.times = kept

	if len(dl.times) >= dl.limit {
		return false
	}
	dl.times = append(dl.times, now)
	return true
}

// Remaining returns how many destructive operations the current window still
// admits.
func (dl *DestructiveLimiter) Remaining() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	cutoff := dl.now().Add(-dl.window)
	active := 0
	for _, t := range dl.times {
		if t.After(cutoff) {
			active++
		}
	}
	if active >= dl.limit {
		return 0
	}
	return dl.limit - active
}
