package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes attempts and exponential backoff between them.
type Policy struct {
	Attempts     int           // total tries, including the first
	InitialDelay time.Duration // wait before the second try
	Multiplier   float64       // backoff growth per try
	MaxDelay     time.Duration // cap on a single wait, 0 means uncapped
	CallTimeout  time.Duration // per-try deadline, 0 means none
}

// Retryable decides whether an error warrants another try.
type Retryable func(error) bool

// Hook observes a failed try before the wait that follows it.
type Hook func(attempt int, delay time.Duration, err error)

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out, or ctx ends. The last error is returned wrapped.
func Do(ctx context.Context, p Policy, retryable Retryable, onRetry Hook, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry cancelled: %w", lastErr)
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}

		err := callOnce(ctx, p.CallTimeout, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", lastErr)
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("max attempts (%d) exceeded: %w", attempts, lastErr)
}

func callOnce(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(cctx)
}
