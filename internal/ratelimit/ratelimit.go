// Package ratelimit implements the per-owner sliding-window admission gate.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks request timestamps per owner within a trailing window.
// Windows are created lazily on first use and pruned before every check.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	windows map[string][]time.Time
}

// New creates a Limiter admitting maxRequests per owner per window
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		windows:     make(map[string][]time.Time),
	}
}

// Allow decides admission for one request at the given instant.
// Admins bypass the gate unconditionally. On rejection the returned
// duration is the time until the oldest tracked request expires; the
// owner's window is only mutated on admission.
func (l *Limiter) Allow(owner string, now time.Time, isAdmin bool) (bool, time.Duration) {
	if isAdmin {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := l.prune(owner, now)
	if len(pruned) >= l.maxRequests {
		retryAfter := pruned[0].Add(l.window).Sub(now)
		return false, retryAfter
	}

	l.windows[owner] = append(pruned, now)
	return true, 0
}

// Remaining returns how many admissions the owner has left in the window
func (l *Limiter) Remaining(owner string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.maxRequests - len(l.prune(owner, now))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Limit returns the configured admissions per window
func (l *Limiter) Limit() int {
	return l.maxRequests
}

// Window returns the configured window length
func (l *Limiter) Window() time.Duration {
	return l.window
}

// prune drops timestamps older than the trailing window. Caller holds mu.
func (l *Limiter) prune(owner string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	window := l.windows[owner]

	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		window = window[i:]
		if len(window) == 0 {
			delete(l.windows, owner)
		} else {
			l.windows[owner] = window
		}
	}
	return window
}
