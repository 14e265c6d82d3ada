package pipeline

import (
	"time"
)

// RetryPolicy describes linear backoff with jitter:
// after failed attempt n the fetcher waits BaseDelay*n + jitter*MaxJitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

// DefaultRetryPolicy is three attempts, 3s base, up to 1s jitter
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   3 * time.Second,
		MaxJitter:   time.Second,
	}
}

// Backoff returns the delay after the given failed attempt (1-based).
// jitter is expected in [0,1) and is clamped into that range.
func (p RetryPolicy) Backoff(attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if jitter < 0 {
		jitter = 0
	}
	if jitter >= 1 {
		jitter = 0.999999
	}
	return p.BaseDelay*time.Duration(attempt) + time.Duration(jitter*float64(p.MaxJitter))
}

// Attempts returns MaxAttempts, at least 1
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
