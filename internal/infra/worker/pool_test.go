//go:build !integration

package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"youtube-ai-summary/internal/domain"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestPool(t *testing.T) {
	t.Run("should run every submitted task", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := NewPool("test", 4, 16, newTestLogger())
		p.Start(ctx)
		defer p.Stop()

		var n int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			if err := p.Submit(func(ctx context.Context) error {
				defer wg.Done()
				atomic.AddInt32(&n, 1)
				return nil
			}); err != nil {
				t.Fatalf("unexpected submit error: %v", err)
			}
		}
		wg.Wait()
		if n != 10 {
			t.Errorf("expected 10 runs, got %d", n)
		}
	})

	t.Run("should reject work when the queue is full", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := NewPool("tiny", 1, 1, newTestLogger())
		p.Start(ctx)
		defer p.Stop()

		block := make(chan struct{})
		started := make(chan struct{})
		_ = p.Submit(func(ctx context.Context) error {
			close(started)
			<-block
			return nil
		})
		<-started
		if err := p.Submit(func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("expected queued task to be accepted, got %v", err)
		}
		err := p.Submit(func(ctx context.Context) error { return nil })
		if !errors.Is(err, domain.ErrQueueFull) {
			t.Errorf("expected ErrQueueFull, got %v", err)
		}
		close(block)
	})

	t.Run("should survive a panicking task", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := NewPool("panicky", 1, 4, newTestLogger())
		p.Start(ctx)
		defer p.Stop()

		_ = p.Submit(func(ctx context.Context) error { panic("boom") })
		done := make(chan struct{})
		_ = p.Submit(func(ctx context.Context) error { close(done); return nil })
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not survive the panic")
		}
	})

	t.Run("should refuse submissions after stop", func(t *testing.T) {
		p := NewPool("stopped", 1, 1, newTestLogger())
		p.Start(context.Background())
		p.Stop()
		if err := p.Submit(func(ctx context.Context) error { return nil }); err == nil {
			t.Error("expected error after stop")
		}
	})

	t.Run("should hand queued tasks a cancelled context on stop", func(t *testing.T) {
		p := NewPool("draining", 1, 8, newTestLogger())
		p.Start(context.Background())

		block := make(chan struct{})
		started := make(chan struct{})
		_ = p.Submit(func(ctx context.Context) error {
			close(started)
			<-block
			return nil
		})
		<-started

		var mu sync.Mutex
		var causes []error
		for i := 0; i < 3; i++ {
			if err := p.Submit(func(ctx context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				causes = append(causes, context.Cause(ctx))
				return nil
			}); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}

		stopped := make(chan struct{})
		go func() { p.Stop(); close(stopped) }()
		for !p.isClosed() {
			time.Sleep(time.Millisecond)
		}
		close(block)
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Fatal("stop did not return")
		}

		if len(causes) != 3 {
			t.Fatalf("expected 3 queued tasks to run, got %d", len(causes))
		}
		for _, c := range causes {
			if !errors.Is(c, ErrStopped) || !errors.Is(c, domain.ErrQueueFull) {
				t.Errorf("unexpected cause %v", c)
			}
		}
	})

	t.Run("should drain the queue when its context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := NewPool("cancelled", 1, 8, newTestLogger())
		p.Start(ctx)

		block := make(chan struct{})
		started := make(chan struct{})
		_ = p.Submit(func(ctx context.Context) error {
			close(started)
			<-block
			return nil
		})
		<-started
		ran := make(chan error, 1)
		_ = p.Submit(func(ctx context.Context) error {
			ran <- ctx.Err()
			return nil
		})

		cancel()
		close(block)
		select {
		case err := <-ran:
			if err == nil {
				t.Error("expected the queued task to see a cancelled context")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("queued task never ran")
		}
		p.Stop()
		if err := p.Submit(func(ctx context.Context) error { return nil }); !errors.Is(err, domain.ErrQueueFull) {
			t.Errorf("expected ErrQueueFull after cancel, got %v", err)
		}
	})

	t.Run("should drain an unstarted pool on stop", func(t *testing.T) {
		p := NewPool("idle", 1, 2, newTestLogger())
		ran := false
		_ = p.Submit(func(ctx context.Context) error { ran = ctx.Err() != nil; return nil })
		p.Stop()
		if !ran {
			t.Error("expected queued task to run cancelled")
		}
	})
}
