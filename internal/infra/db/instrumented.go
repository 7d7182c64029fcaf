package db

import (
	"context"
	"errors"
	"time"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/repository"
	"youtube-ai-summary/internal/infra/metrics"
)

var _ repository.JobRepository = (*instrumentedRepo)(nil)

// instrumentedRepo records latency and outcome of every store call.
type instrumentedRepo struct {
	inner   repository.JobRepository
	backend string
}

func NewInstrumentedRepo(inner repository.JobRepository, backend string) repository.JobRepository {
	return &instrumentedRepo{inner: inner, backend: backend}
}

func (r *instrumentedRepo) observe(op string, start time.Time, err error) {
	ok := err == nil || errors.Is(err, domain.ErrNotFound)
	metrics.ObserveStoreOp(r.backend, op, float64(time.Since(start).Microseconds())/1000, ok)
}

func (r *instrumentedRepo) CreateIfAbsent(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	created, err := r.inner.CreateIfAbsent(ctx, id)
	r.observe("create", start, err)
	return created, err
}

func (r *instrumentedRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	start := time.Now()
	j, err := r.inner.Get(ctx, id)
	r.observe("get", start, err)
	return j, err
}

func (r *instrumentedRepo) Update(ctx context.Context, id string, status model.JobStatus, result string) error {
	start := time.Now()
	err := r.inner.Update(ctx, id, status, result)
	r.observe("update", start, err)
	return err
}

func (r *instrumentedRepo) Rearm(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	ok, err := r.inner.Rearm(ctx, id)
	r.observe("rearm", start, err)
	return ok, err
}
