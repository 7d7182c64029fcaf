// File: internal/usecase/job_manager_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/domain/ports/repository"
	"youtube-ai-summary/internal/domain/ports/usecase"
	"youtube-ai-summary/internal/infra/metrics"
)

var _ usecase.JobManager = (*jobManager)(nil)

// jobManager writes the store first and then tells the hub, so a subscriber
// that replays after an event never sees an older snapshot than the event.
type jobManager struct {
	jobs     repository.JobRepository
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewJobManager(jobs repository.JobRepository, notifier adapter.Notifier, logger *zerolog.Logger) *jobManager {
	l := logger.With().Str("component", "JobManager").Logger()
	return &jobManager{jobs: jobs, notifier: notifier, log: &l}
}

func (m *jobManager) Progress(ctx context.Context, jobID string, status model.JobStatus, message string) {
	m.write(ctx, jobID, status, message)
	m.log.Debug().Str("job_id", jobID).Str("status", string(status)).Msg("job progress")
}

func (m *jobManager) Complete(ctx context.Context, jobID, summary string) {
	if !m.write(context.WithoutCancel(ctx), jobID, model.JobStatusCompleted, summary) {
		return
	}
	m.notifier.Complete(jobID)
	metrics.IncJob("completed")
	m.log.Info().Str("job_id", jobID).Int("summary_chars", model.CountChars(summary)).Msg("job completed")
}

// Fail stores only the short message; cause goes to the log.
func (m *jobManager) Fail(ctx context.Context, jobID, message string, cause error) {
	if !m.write(context.WithoutCancel(ctx), jobID, model.JobStatusFailed, message) {
		m.log.Warn().Err(cause).Str("job_id", jobID).Msg("failure after terminal state dropped")
		return
	}
	m.notifier.Fail(jobID, errors.New(message))
	metrics.IncJob("failed")
	m.log.Error().Err(cause).Str("job_id", jobID).Str("message", message).Msg("job failed")
}

// write refuses backward moves, such as FAILED after COMPLETED. Jobs the
// store does not know are written as before.
func (m *jobManager) write(ctx context.Context, jobID string, status model.JobStatus, result string) bool {
	if cur, err := m.jobs.Get(ctx, jobID); err == nil && cur.Status != status && !model.CanTransition(cur.Status, status) {
		m.log.Warn().Str("job_id", jobID).Str("from", string(cur.Status)).Str("to", string(status)).Msg("status change skipped")
		return false
	}
	if err := m.jobs.Update(ctx, jobID, status, result); err != nil {
		m.log.Error().Err(err).Str("job_id", jobID).Str("status", string(status)).Msg("job update failed")
	}
	snap := model.Job{ID: jobID, Status: status, Result: result, UpdatedAt: time.Now()}
	m.notifier.Publish(jobID, status.EventName(), snap)
	return true
}
