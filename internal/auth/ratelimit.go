package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClientLocked is returned when a connection is locked out due to too many failed attempts.
var ErrClientLocked = errors.New("client locked out")

const (
	// DefaultMaxFailures is how many consecutive failures trigger a lockout.
	DefaultMaxFailures = 3

	// DefaultLockout is how long a locked connection must wait.
	DefaultLockout = 60 * time.Second

	// CleanupThreshold is how long to keep attempt trackers for inactive connections.
	CleanupThreshold = 5 * time.Minute

	// CleanupIntervalRateLimit is how often to clean up inactive connection trackers.
	CleanupIntervalRateLimit = 2 * time.Minute
)

// AttemptTracker tracks failed handshakes for a single connection.
type AttemptTracker struct {
	Count       int       // Number of consecutive failed attempts
	LastFailed  time.Time // Timestamp of last failed attempt
	LockedUntil time.Time // Timestamp when lockout expires (zero if not locked)
}

// isLocked reports whether the tracker is locked at now.
func (at *AttemptTracker) isLocked(now time.Time) bool {
	return now.Before(at.LockedUntil)
}

// RateLimiter locks a connection out after repeated handshake failures.
// The SRP core performs no rate limiting of its own.
type RateLimiter struct {
	maxFailures int
	lockout     time.Duration
	now         func() time.Time

	mu       sync.Mutex
	attempts map[string]*AttemptTracker // key: connection identifier
}

// NewRateLimiter creates a rate limiter that locks a connection for lockout
// once it reaches maxFailures consecutive failures. Non-positive values select
// the defaults.
func NewRateLimiter(maxFailures int, lockout time.Duration) *RateLimiter {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}

	return &RateLimiter{
		maxFailures: maxFailures,
		lockout:     lockout,
		now:         time.Now,
		attempts:    make(map[string]*AttemptTracker),
	}
}

// CheckLimit reports whether conn may attempt a handshake.
// A locked connection gets ErrClientLocked and the time left on its lockout.
func (rl *RateLimiter) CheckLimit(conn string) (retryAfter time.Duration, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tracker, exists := rl.attempts[conn]
	if !exists {
		return 0, nil
	}

	now := rl.now()
	if tracker.isLocked(now) {
		return tracker.LockedUntil.Sub(now), ErrClientLocked
	}

	return 0, nil
}

// RecordFailure records a failed handshake for conn.
// It returns the lockout duration if this failure locked the connection, else 0.
func (rl *RateLimiter) RecordFailure(conn string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tracker, exists := rl.attempts[conn]
	if !exists {
		tracker = &AttemptTracker{}
		rl.attempts[conn] = tracker
	}

	now := rl.now()
	tracker.Count++
	tracker.LastFailed = now

	if tracker.Count < rl.maxFailures {
		return 0
	}

	// Lock and start counting afresh once the lockout ends
	tracker.LockedUntil = now.Add(rl.lockout)
	tracker.Count = 0
	return rl.lockout
}

// RecordSuccess clears the failure count and any lockout for conn.
func (rl *RateLimiter) RecordSuccess(conn string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.attempts, conn)
}

// AttemptCount returns the current consecutive failure count for conn.
func (rl *RateLimiter) AttemptCount(conn string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if tracker, exists := rl.attempts[conn]; exists {
		return tracker.Count
	}
	return 0
}

// TrackedCount returns the number of connections currently being tracked.
func (rl *RateLimiter) TrackedCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return len(rl.attempts)
}

// Run removes trackers for inactive connections every interval until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

// Cleanup removes trackers that are unlocked and idle for CleanupThreshold.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-CleanupThreshold)

	removed := 0
	for conn, tracker := range rl.attempts {
		if tracker.LastFailed.Before(cutoff) && !tracker.isLocked(now) {
			delete(rl.attempts, conn)
			removed++
		}
	}
	return removed
}

// FormatRetryAfter formats a duration as whole seconds, rounded up.
func FormatRetryAfter(d time.Duration) int {
	seconds := int(d / time.Second)
	if d%time.Second > 0 {
		seconds++
	}
	return seconds
}
