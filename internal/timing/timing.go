// Package timing holds the pure wall-clock arithmetic for timed quiz
// attempts. Every function takes an explicit "now" so callers control the
// clock and tests stay deterministic.
package timing

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidTimeLimit signals a programmer error: a quiz with a
// non-positive time limit reached the timing layer.
var ErrInvalidTimeLimit = errors.New("time limit must be a positive number of minutes")

// RemainingSeconds returns how many whole seconds are left on the attempt.
// A nil startedAt means the attempt has not begun, so the full budget is
// still available. The result is floored at zero.
func RemainingSeconds(startedAt *time.Time, limitMinutes int, now time.Time) (int, error) {
	if limitMinutes <= 0 {
		return 0, ErrInvalidTimeLimit
	}

	budget := limitMinutes * 60
	if startedAt == nil {
		return budget, nil
	}

	remaining := int(math.Floor(float64(budget) - now.Sub(*startedAt).Seconds()))
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// IsExpired reports whether the attempt's time budget has run out.
// An unstarted attempt is never expired. The boundary is closed: an
// attempt checked exactly at startedAt + limit is already expired, which
// is consistent with RemainingSeconds reaching zero at that same instant.
func IsExpired(startedAt *time.Time, limitMinutes int, now time.Time) (bool, error) {
	if limitMinutes <= 0 {
		return false, ErrInvalidTimeLimit
	}

	if startedAt == nil {
		return false, nil
	}

	limit := time.Duration(limitMinutes) * time.Minute
	return now.Sub(*startedAt) >= limit, nil
}

// ExpirationInstant returns the instant at which the attempt expires, or
// nil if it has not been started yet.
func ExpirationInstant(startedAt *time.Time, limitMinutes int) (*time.Time, error) {
	if limitMinutes <= 0 {
		return nil, ErrInvalidTimeLimit
	}

	if startedAt == nil {
		return nil, nil
	}

	expiresAt := startedAt.Add(time.Duration(limitMinutes) * time.Minute)
	return &expiresAt, nil
}
