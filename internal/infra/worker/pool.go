// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/infra/metrics"

	"github.com/rs/zerolog"
)

type Task = func(ctx context.Context) error

// Pool is a fixed set of workers draining a bounded queue. Submit never
// blocks: a full queue is reported as domain.ErrQueueFull.
//
// Every accepted task runs exactly once. Tasks still queued when the pool
// stops run with a context already cancelled with ErrStopped as its cause.
type Pool struct {
	name string
	wg   sync.WaitGroup
	jobs chan Task
	n    int
	log  *zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	quit    chan struct{}
	done    chan struct{}
	stopped context.Context
}

// ErrStopped is the cancellation cause seen by tasks drained at shutdown.
var ErrStopped = fmt.Errorf("worker pool stopped: %w", domain.ErrQueueFull)

func NewPool(name string, workers, queue int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = workers * 4
	}
	l := logger.With().Str("component", "WorkerPool").Str("pool", name).Logger()
	p := &Pool{
		name: name,
		jobs: make(chan Task, queue),
		quit: make(chan struct{}),
		done: make(chan struct{}),
		n:    workers,
		log:  &l,
	}
	var cancel context.CancelCauseFunc
	p.stopped, cancel = context.WithCancelCause(context.Background())
	cancel(ErrStopped)
	return p
}

func (p *Pool) Name() string { return p.name }

func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.log.Info().Int("workers", p.n).Int("queue", cap(p.jobs)).Msg("starting worker pool")
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					metrics.SetPoolQueueDepth(p.name, len(p.jobs))
					if p.isClosed() {
						p.run(p.stopped, id, task)
						continue
					}
					p.run(ctx, id, task)
				}
			}
		}(i)
	}

	go func() {
		select {
		case <-ctx.Done():
			p.close()
		case <-p.quit:
		}
		p.wg.Wait()
		p.drain()
		close(p.done)
	}()
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// close stops new submissions. Safe to call more than once.
func (p *Pool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.quit)
}

// drain runs whatever is left in the queue with a cancelled context.
func (p *Pool) drain() {
	n := 0
	for {
		select {
		case task := <-p.jobs:
			n++
			p.run(p.stopped, -1, task)
		default:
			metrics.SetPoolQueueDepth(p.name, 0)
			if n > 0 {
				p.log.Warn().Int("tasks", n).Msg("queued tasks abandoned at shutdown")
			}
			return
		}
	}
}

// run executes one task; a panic is logged and counted, never propagated.
func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncPoolTask(p.name, "panic")
			p.log.Error().Int("worker", id).Interface("panic", rec).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		metrics.IncPoolTask(p.name, "error")
		p.log.Warn().Int("worker", id).Err(err).Msg("task error")
		return
	}
	metrics.IncPoolTask(p.name, "ok")
}

// Stop refuses new work, waits for running tasks and drains the queue.
func (p *Pool) Stop() {
	p.close()
	p.mu.RLock()
	started := p.started
	p.mu.RUnlock()
	if started {
		<-p.done
	} else {
		p.drain()
	}
	p.log.Info().Msg("worker pool stopped")
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("pool %s: %w", p.name, ErrStopped)
	}
	select {
	case p.jobs <- task:
		metrics.SetPoolQueueDepth(p.name, len(p.jobs))
		return nil
	default:
		metrics.IncPoolTask(p.name, "rejected")
		return fmt.Errorf("pool %s: %w", p.name, domain.ErrQueueFull)
	}
}
