// File: internal/usecase/orchestration_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/domain/ports/usecase"
	"youtube-ai-summary/internal/infra/i18n"
	"youtube-ai-summary/internal/infra/logging"
	"youtube-ai-summary/internal/infra/metrics"
)

// Compile-time check
var _ Orchestrator = (*orchestrationUC)(nil)

type Orchestrator interface {
	// Run schedules the pipeline for jobID and returns once stage 1 is
	// queued. A rejected submission is recorded as FAILED and returned.
	Run(ctx context.Context, jobID string, video model.Video) error
}

const (
	stageExtract   = "extract"
	stageSummarize = "summarize"
)

type orchestrationUC struct {
	subtitles adapter.SubtitleProvider
	engine    SummaryUseCase
	jobs      usecase.JobManager
	msgs      Messages
	ioPool    Pool
	pipeline  Pool
	log       *zerolog.Logger
}

func NewOrchestrator(subtitles adapter.SubtitleProvider, engine SummaryUseCase, jobs usecase.JobManager, msgs Messages, ioPool, pipeline Pool, logger *zerolog.Logger) *orchestrationUC {
	l := logger.With().Str("component", "Orchestrator").Logger()
	return &orchestrationUC{
		subtitles: subtitles,
		engine:    engine,
		jobs:      jobs,
		msgs:      msgs,
		ioPool:    ioPool,
		pipeline:  pipeline,
		log:       &l,
	}
}

func (o *orchestrationUC) Run(ctx context.Context, jobID string, video model.Video) error {
	// The pipeline outlives the request that started it.
	ctx = logging.WithJobID(context.WithoutCancel(ctx), jobID)

	err := o.ioPool.Submit(func(pctx context.Context) error {
		if err := abandoned(pctx); err != nil {
			o.fail(ctx, jobID, stageExtract, err)
			return err
		}
		o.extract(ctx, jobID, video)
		return nil
	})
	if err != nil {
		o.fail(ctx, jobID, stageExtract, err)
		return err
	}
	return nil
}

func (o *orchestrationUC) extract(ctx context.Context, jobID string, video model.Video) {
	defer o.recoverStage(ctx, jobID, stageExtract)
	ctx = logging.WithStage(ctx, stageExtract)

	start := time.Now()
	text, err := o.subtitles.FetchSubs(ctx, jobID, video)
	metrics.ObserveStage(stageExtract, time.Since(start).Seconds(), err == nil)
	if err != nil {
		o.fail(ctx, jobID, stageExtract, err)
		return
	}

	err = o.pipeline.Submit(func(pctx context.Context) error {
		if err := abandoned(pctx); err != nil {
			o.fail(ctx, jobID, stageSummarize, err)
			return err
		}
		o.summarize(ctx, jobID, text)
		return nil
	})
	if err != nil {
		o.fail(ctx, jobID, stageSummarize, err)
	}
}

func (o *orchestrationUC) summarize(ctx context.Context, jobID, text string) {
	defer o.recoverStage(ctx, jobID, stageSummarize)
	ctx = logging.WithStage(ctx, stageSummarize)
	defer logging.TraceDuration(logging.With(ctx, o.log), "Orchestrator.summarize")()

	start := time.Now()
	summary, err := o.engine.Summarize(ctx, jobID, text)
	metrics.ObserveStage(stageSummarize, time.Since(start).Seconds(), err == nil)
	if err != nil {
		o.fail(ctx, jobID, stageSummarize, err)
		return
	}
	o.jobs.Complete(ctx, jobID, summary)
}

// abandoned is non-nil when a pool hands its task a cancelled context, which
// happens to work still queued at shutdown.
func abandoned(pctx context.Context) error {
	if pctx.Err() == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrQueueFull, context.Cause(pctx))
}

// recoverStage must be deferred directly by a stage body.
func (o *orchestrationUC) recoverStage(ctx context.Context, jobID, stage string) {
	if rec := recover(); rec != nil {
		o.fail(ctx, jobID, stage, fmt.Errorf("%s stage panic: %v", stage, rec))
	}
}

func (o *orchestrationUC) fail(ctx context.Context, jobID, stage string, err error) {
	o.jobs.Fail(ctx, jobID, o.msgs.T(failureKey(stage, err)), fmt.Errorf("%s: %w", stage, err))
}

// failureKey maps an error class to the catalog key of its user message.
func failureKey(stage string, err error) string {
	switch {
	case errors.Is(err, domain.ErrNoSubtitles):
		return i18n.MsgErrNoSubtitles
	case errors.Is(err, domain.ErrQueueFull):
		return i18n.MsgErrServerBusy
	case errors.Is(err, domain.ErrEmptySummary):
		return i18n.MsgErrSummaryEmpty
	case stage == stageSummarize:
		return i18n.MsgErrSummary
	case domain.IsTransient(err):
		return i18n.MsgErrTransient
	default:
		return i18n.MsgErrInternal
	}
}
