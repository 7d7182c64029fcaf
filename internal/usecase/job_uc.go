// File: internal/usecase/job_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/repository"
	"youtube-ai-summary/internal/domain/ports/usecase"
	"youtube-ai-summary/internal/infra/i18n"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

type JobUseCase interface {
	// Submit starts a pipeline for the video unless one already exists.
	// A FAILED job is re-armed and started again; a COMPLETED one is
	// returned as is.
	Submit(ctx context.Context, rawURL string) (*model.Job, error)
	Status(ctx context.Context, jobID string) (*model.Job, error)
}

type jobUC struct {
	jobs     repository.JobRepository
	orch     Orchestrator
	reporter usecase.ProgressReporter
	msgs     Messages
	log      *zerolog.Logger
}

func NewJobUseCase(jobs repository.JobRepository, orch Orchestrator, reporter usecase.ProgressReporter, msgs Messages, logger *zerolog.Logger) *jobUC {
	l := logger.With().Str("component", "JobUC").Logger()
	return &jobUC{jobs: jobs, orch: orch, reporter: reporter, msgs: msgs, log: &l}
}

func (u *jobUC) Submit(ctx context.Context, rawURL string) (*model.Job, error) {
	video, err := model.ParseVideo(rawURL)
	if err != nil {
		return nil, err
	}

	created, err := u.jobs.CreateIfAbsent(ctx, video.ID)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if created {
		u.log.Info().Str("job_id", video.ID).Msg("job created")
		return u.start(ctx, video)
	}

	job, err := u.jobs.Get(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	if job.CanRetry() {
		rearmed, err := u.jobs.Rearm(ctx, video.ID)
		if err != nil {
			return nil, fmt.Errorf("rearm job: %w", err)
		}
		if rearmed {
			u.log.Info().Str("job_id", video.ID).Msg("failed job re-armed")
			return u.start(ctx, video)
		}
		return u.jobs.Get(ctx, video.ID)
	}
	return job, nil
}

func (u *jobUC) start(ctx context.Context, video model.Video) (*model.Job, error) {
	u.reporter.Progress(ctx, video.ID, model.JobStatusPending, u.msgs.T(i18n.MsgJobPending))
	if err := u.orch.Run(ctx, video.ID, video); err != nil && !errors.Is(err, domain.ErrQueueFull) {
		return nil, err
	}
	// a rejected run is already recorded as FAILED
	return u.jobs.Get(ctx, video.ID)
}

func (u *jobUC) Status(ctx context.Context, jobID string) (*model.Job, error) {
	if jobID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.jobs.Get(ctx, jobID)
}
