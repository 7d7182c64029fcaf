package memory

import (
	"context"
	"sync"
	"time"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

// jobRepo keeps jobs for the life of the process.
type jobRepo struct {
	mu   sync.RWMutex
	jobs map[string]model.Job
}

func NewJobRepo() *jobRepo {
	return &jobRepo{jobs: make(map[string]model.Job)}
}

func (r *jobRepo) CreateIfAbsent(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; ok {
		return false, nil
	}
	r.jobs[id] = *model.NewJob(id)
	return true, nil
}

func (r *jobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}

func (r *jobRepo) Update(ctx context.Context, id string, status model.JobStatus, result string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = model.Job{ID: id, Status: status, Result: result, UpdatedAt: time.Now()}
	return nil
}

func (r *jobRepo) Rearm(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if j.Status != model.JobStatusFailed {
		return false, nil
	}
	r.jobs[id] = *model.NewJob(id)
	return true, nil
}
