package retry

import (
	"context"
	"time"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Executor orchestrates retry attempts with backoff and error classification.
//
// The Executor is safe for concurrent use when calling Execute().
// WithOnRetry() returns a NEW instance; the original is unchanged.
type Executor struct {
	classifier pgrows.ErrorClassifier
	strategy   pgrows.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier pgrows.ErrorClassifier, strategy pgrows.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// WithOnRetry returns a new Executor that calls callback before each retry wait.
// attempt is zero-indexed: 0 is the first retry.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithLogger returns a new Executor that reports retries to logger.
func (e *Executor) WithLogger(logger pgrows.Logger) *Executor {
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Warn("Attempt %d failed: %v. Retrying in %v...", attempt+1, err, delay)
	})
}

// Execute runs the operation, retrying transient failures.
// The operation runs at most MaxAttempts()+1 times; the error of the last
// attempt is returned unchanged once retries are exhausted.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxAttempts := e.strategy.MaxAttempts()

	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	// negative maxAttempts retries indefinitely
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// Do runs call through the executor and returns the value and error of the
// last attempt. A value returned alongside an error is kept.
func Do[T any](ctx context.Context, e *Executor, call pgrows.Call[T]) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := call(ctx)
		result = v
		return err
	})
	return result, err
}
