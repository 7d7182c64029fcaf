package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/domain/ports/repository"
	"youtube-ai-summary/internal/infra/metrics"
)

var _ adapter.Notifier = (*Hub)(nil)

var (
	ErrReplaced     = errors.New("subscription replaced")
	ErrSlowConsumer = errors.New("subscriber too slow")
)

// Event is one named status snapshot on a job stream.
type Event struct {
	ID   string
	Name string
	Data any
}

// Subscription delivers events for one job until its channel is closed.
// Err tells how it ended: nil for complete or timeout, non-nil for error.
type Subscription struct {
	JobID string

	events chan Event
	mu     sync.Mutex
	closed bool
	err    error
	timer  *time.Timer
}

func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// send enqueues without blocking; false means the buffer is full.
func (s *Subscription) send(ev Event) (delivered bool, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, false
	}
	select {
	case s.events <- ev:
		return true, true
	default:
		return false, true
	}
}

func (s *Subscription) close(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	s.err = err
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.events)
	return true
}

type Options struct {
	IdleTimeout time.Duration
	Buffer      int
	// PendingMessage is the result text of the synthetic event sent for
	// jobs that have no record yet.
	PendingMessage string
}

// Hub keeps at most one live subscription per job.
type Hub struct {
	mu   sync.Mutex
	subs map[string]*Subscription

	jobs repository.JobRepository
	opts Options
	log  *zerolog.Logger
}

func NewHub(jobs repository.JobRepository, opts Options, logger *zerolog.Logger) *Hub {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Minute
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	if opts.PendingMessage == "" {
		opts.PendingMessage = "Awaiting job processing..."
	}
	l := logger.With().Str("component", "NotificationHub").Logger()
	return &Hub{subs: make(map[string]*Subscription), jobs: jobs, opts: opts, log: &l}
}

func newEvent(name string, data any) Event {
	return Event{ID: ulid.Make().String(), Name: name, Data: data}
}

// Subscribe registers a new subscription for jobID, replacing any previous
// one, and replays the current snapshot as its first event.
func (h *Hub) Subscribe(ctx context.Context, jobID string) *Subscription {
	sub := &Subscription{JobID: jobID, events: make(chan Event, h.opts.Buffer)}

	h.mu.Lock()
	old := h.subs[jobID]
	h.subs[jobID] = sub
	n := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscriptions(n)

	if old != nil {
		old.close(ErrReplaced)
		h.log.Debug().Str("job_id", jobID).Msg("subscription replaced")
	}

	sub.mu.Lock()
	sub.timer = time.AfterFunc(h.opts.IdleTimeout, func() { h.expire(sub) })
	sub.mu.Unlock()

	h.replay(ctx, sub)
	return sub
}

func (h *Hub) replay(ctx context.Context, sub *Subscription) {
	job, err := h.jobs.Get(ctx, sub.JobID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		pending := model.Job{ID: sub.JobID, Status: model.JobStatusPending, Result: h.opts.PendingMessage, UpdatedAt: time.Now()}
		h.deliver(sub, newEvent(model.EventPending, pending))
		return
	case err != nil:
		h.log.Error().Err(err).Str("job_id", sub.JobID).Msg("replay lookup failed")
		h.finish(sub, err)
		return
	}

	h.deliver(sub, newEvent(job.Status.EventName(), *job))
	switch job.Status {
	case model.JobStatusCompleted:
		h.finish(sub, nil)
	case model.JobStatusFailed:
		h.finish(sub, errors.New(job.Result))
	}
}

// Publish delivers to the live subscriber of jobID, if any.
func (h *Hub) Publish(jobID, event string, payload any) {
	h.mu.Lock()
	sub := h.subs[jobID]
	h.mu.Unlock()
	if sub == nil {
		metrics.IncStreamEvent(event, "no_subscriber")
		return
	}
	h.deliver(sub, newEvent(event, payload))
}

func (h *Hub) deliver(sub *Subscription, ev Event) {
	delivered, open := sub.send(ev)
	switch {
	case delivered:
		metrics.IncStreamEvent(ev.Name, "delivered")
	case open:
		metrics.IncStreamEvent(ev.Name, "dropped")
		h.log.Warn().Str("job_id", sub.JobID).Str("event", ev.Name).Msg("subscriber buffer full, dropping subscription")
		h.finish(sub, ErrSlowConsumer)
	}
}

func (h *Hub) Complete(jobID string) {
	if sub := h.take(jobID); sub != nil {
		sub.close(nil)
	}
}

func (h *Hub) Fail(jobID string, err error) {
	if err == nil {
		err = errors.New("job failed")
	}
	if sub := h.take(jobID); sub != nil {
		sub.close(err)
	}
}

// Unsubscribe is called by the transport when its consumer goes away.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.finish(sub, nil)
}

func (h *Hub) expire(sub *Subscription) {
	if h.finish(sub, nil) {
		h.log.Debug().Str("job_id", sub.JobID).Msg("subscription timed out")
	}
}

// finish removes sub if it is still the live one and closes it.
func (h *Hub) finish(sub *Subscription, err error) bool {
	h.mu.Lock()
	if h.subs[sub.JobID] == sub {
		delete(h.subs, sub.JobID)
	}
	n := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscriptions(n)
	return sub.close(err)
}

func (h *Hub) take(jobID string) *Subscription {
	h.mu.Lock()
	sub := h.subs[jobID]
	delete(h.subs, jobID)
	n := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscriptions(n)
	return sub
}

// Len reports live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
