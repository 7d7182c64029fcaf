package repository

import (
	"context"

	"youtube-ai-summary/internal/domain/model"
)

// JobRepository is the only cross-job shared state. Implementations must make
// CreateIfAbsent atomic: among concurrent callers for one id exactly one gets true.
type JobRepository interface {
	CreateIfAbsent(ctx context.Context, id string) (bool, error)
	// Get returns domain.ErrNotFound when no record exists.
	Get(ctx context.Context, id string) (*model.Job, error)
	// Update overwrites status and result; it does not police the state machine.
	Update(ctx context.Context, id string, status model.JobStatus, result string) error
	// Rearm moves a FAILED job back to PENDING. Only one concurrent caller
	// gets true, so a retry starts one pipeline run.
	Rearm(ctx context.Context, id string) (bool, error)
}
