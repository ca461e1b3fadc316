package quill

import "time"

// Backoff computes how long to wait before the next attempt. Implementations
// must be pure: the retry loop owns all sleeping.
type Backoff interface {
	// Delay returns the wait duration after the attempt with the given
	// zero-based index failed.
	Delay(attempt int) time.Duration
}

// ExponentialBackoff doubles the wait on every attempt: attempt 0 waits one
// unit, attempt 1 two units, attempt 2 four, and so on. There is no jitter
// and no cap.
type ExponentialBackoff struct {
	// Unit is the duration of the first wait. Defaults to one second.
	Unit time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	unit := b.Unit
	if unit <= 0 {
		unit = time.Second
	}
	if attempt < 0 {
		attempt = 0
	}
	return unit << uint(attempt)
}
