package webhooks

import "time"

// RetryPolicy controls how many dispatch attempts a delivery gets and how far
// apart retries are scheduled. It is passed in explicitly so tests and
// deployments can vary it without globals.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      int
	MaxDelay    time.Duration
}

// DefaultRetryPolicy: 5 attempts, 30s base, doubling, capped at an hour.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   30 * time.Second,
		Factor:      2,
		MaxDelay:    time.Hour,
	}
}

// Exhausted reports whether attempts (counted after the current increment)
// has reached the ceiling.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}

// NextDelay returns the backoff before the next attempt, given how many
// attempts have already run: base * factor^attempts, capped at MaxDelay.
func (p RetryPolicy) NextDelay(attempts int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempts; i++ {
		delay *= time.Duration(p.Factor)
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
