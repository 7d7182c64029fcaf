package usecase

import (
	"context"

	"youtube-ai-summary/internal/domain/model"
)

// ProgressReporter is handed to pipeline stages so they can record their own
// progress states without knowing about the store or the stream hub.
type ProgressReporter interface {
	Progress(ctx context.Context, jobID string, status model.JobStatus, message string)
}

// JobManager extends ProgressReporter with the terminal writes.
type JobManager interface {
	ProgressReporter
	Complete(ctx context.Context, jobID, summary string)
	Fail(ctx context.Context, jobID, message string, cause error)
}
