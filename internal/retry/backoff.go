package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// FixedBackoff waits the same delay before every retry attempt.
// This is the policy used around user operations: retries additional attempts
// after the first, each preceded by delay.
type FixedBackoff struct {
	retries int
	delay   time.Duration
}

// NewFixedBackoff creates a fixed-delay strategy allowing retries additional attempts.
func NewFixedBackoff(retries int, delay time.Duration) *FixedBackoff {
	return &FixedBackoff{retries: retries, delay: delay}
}

// NextDelay returns the configured delay regardless of attempt.
func (b *FixedBackoff) NextDelay(int) time.Duration {
	return b.delay
}

// MaxAttempts returns the number of retries after the initial attempt.
func (b *FixedBackoff) MaxAttempts() int {
	return b.retries
}

// ExponentialBackoff implements exponential backoff with jitter.
// Connectors use it while establishing connections.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64

	// -1 = unlimited, 0 = no retries
	maxAttempts int

	// +/- fraction of the delay (0.0-1.0)
	jitter     float64
	jitterFunc func() float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the initial delay for the first retry attempt.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between retry attempts.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxDelay = d
	}
}

// WithMultiplier sets the factor by which delay increases between attempts.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.multiplier = m
	}
}

// WithJitter sets the jitter factor (0.0-1.0) to add randomness to delays.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = j
	}
}

// WithJitterFunc sets a custom source of [0, 1) values for jitter.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitterFunc = f
	}
}

// NewExponentialBackoff creates an exponential strategy with connector defaults.
//
// Example:
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithInitialDelay(200 * time.Millisecond),
//	    retry.WithMaxDelay(5 * time.Second),
//	)
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: pgrows.DefaultConnectRetryInitialDelay,
		maxDelay:     pgrows.DefaultConnectRetryMaxDelay,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns initialDelay * multiplier^attempt, capped at maxDelay, with jitter applied.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delayMs := float64(b.initialDelay.Milliseconds()) * math.Pow(b.multiplier, float64(attempt))
	if capMs := float64(b.maxDelay.Milliseconds()); delayMs > capMs {
		delayMs = capMs
	}

	if b.jitter > 0 {
		next := b.jitterFunc
		if next == nil {
			next = rand.Float64
		}
		// map [0,1) to [-1,1)
		delayMs *= 1.0 + b.jitter*(next()-0.5)*2.0
	}

	return time.Duration(delayMs) * time.Millisecond
}

// MaxAttempts returns the maximum number of retry attempts.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

var (
	_ pgrows.BackoffStrategy = (*FixedBackoff)(nil)
	_ pgrows.BackoffStrategy = (*ExponentialBackoff)(nil)
)
