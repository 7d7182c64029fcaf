//go:build !integration

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func TestDo(t *testing.T) {
	fast := Policy{Attempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	t.Run("should succeed after transient failures", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, isFlaky, nil, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errFlaky
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("should stop at the attempt limit", func(t *testing.T) {
		calls := 0
		var delays []time.Duration
		err := Do(context.Background(), fast, isFlaky, func(_ int, d time.Duration, _ error) {
			delays = append(delays, d)
		}, func(ctx context.Context) error {
			calls++
			return errFlaky
		})
		if !errors.Is(err, errFlaky) {
			t.Fatalf("expected wrapped flaky error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
		if len(delays) != 2 || delays[1] != 2*delays[0] {
			t.Errorf("expected growing backoff, got %v", delays)
		}
	})

	t.Run("should not retry permanent errors", func(t *testing.T) {
		perm := errors.New("bad request")
		calls := 0
		err := Do(context.Background(), fast, isFlaky, nil, func(ctx context.Context) error {
			calls++
			return perm
		})
		if !errors.Is(err, perm) || calls != 1 {
			t.Errorf("expected one call returning permanent error, got %d calls, err %v", calls, err)
		}
	})

	t.Run("should apply a per-call deadline", func(t *testing.T) {
		p := Policy{Attempts: 1, CallTimeout: 10 * time.Millisecond}
		err := Do(context.Background(), p, nil, nil, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("should give up when the context is cancelled during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := Policy{Attempts: 3, InitialDelay: time.Hour, Multiplier: 1}
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := Do(ctx, p, isFlaky, nil, func(ctx context.Context) error { return errFlaky })
		if !errors.Is(err, errFlaky) {
			t.Errorf("expected last error to be kept, got %v", err)
		}
	})
}
