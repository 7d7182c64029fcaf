// File: internal/usecase/summary_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/usecase"
	"youtube-ai-summary/internal/infra/i18n"
	"youtube-ai-summary/internal/infra/metrics"
)

// Compile-time check
var _ SummaryUseCase = (*summaryUC)(nil)

type SummaryUseCase interface {
	// Summarize reports SUMMARIZING_* progress for jobID and returns the
	// final summary. It never writes a terminal state.
	Summarize(ctx context.Context, jobID, text string) (string, error)
}

// Pool is the slice of a worker pool the use cases need.
type Pool interface {
	Submit(task func(ctx context.Context) error) error
}

type SummaryOptions struct {
	OptimalChunkChars int
	MaxChunks         int
}

type summaryUC struct {
	client   Summarizer
	reporter usecase.ProgressReporter
	pool     Pool
	msgs     Messages
	opts     SummaryOptions
	log      *zerolog.Logger
}

func NewSummaryUseCase(client Summarizer, reporter usecase.ProgressReporter, aiPool Pool, msgs Messages, opts SummaryOptions, logger *zerolog.Logger) *summaryUC {
	l := logger.With().Str("component", "SummaryUC").Logger()
	return &summaryUC{client: client, reporter: reporter, pool: aiPool, msgs: msgs, opts: opts, log: &l}
}

func (s *summaryUC) Summarize(ctx context.Context, jobID, text string) (string, error) {
	n := model.CountChars(text)
	strategy := model.DecideStrategy(n, s.opts.OptimalChunkChars, s.opts.MaxChunks)
	metrics.IncStrategy(string(strategy.Kind))
	s.log.Info().Str("job_id", jobID).Int("chars", n).Str("strategy", string(strategy.Kind)).
		Int("chunk_size", strategy.ChunkSize).Msg("summarization started")

	var (
		summary string
		err     error
	)
	if strategy.IsMapReduce() {
		summary, err = s.mapReduce(ctx, jobID, text, strategy.ChunkSize)
	} else {
		summary, err = s.final(ctx, jobID, text, SourceTranscript)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", domain.ErrEmptySummary
	}
	return summary, nil
}

func (s *summaryUC) final(ctx context.Context, jobID, content string, source SummarySource) (string, error) {
	s.reporter.Progress(ctx, jobID, model.JobStatusSummarizingFinal, s.msgs.T(i18n.MsgJobSummarizingFinal))

	ch := make(chan callResult, 1)
	err := s.pool.Submit(func(pctx context.Context) error {
		if err := abandoned(pctx); err != nil {
			ch <- callResult{err: err}
			return err
		}
		r := safeCall(0, func() (string, error) { return s.client.Final(ctx, content, source) })
		ch <- r
		return r.err
	})
	if err != nil {
		return "", fmt.Errorf("submit final summary: %w", err)
	}
	select {
	case r := <-ch:
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// mapReduce fans the chunks out to the AI pool and waits for every one of
// them. The first failure cancels the rest and fails the whole run. An
// accepted task always reports back, even when the pool stops first.
func (s *summaryUC) mapReduce(ctx context.Context, jobID, text string, size int) (string, error) {
	chunks := model.SplitText(text, size)
	s.log.Info().Str("job_id", jobID).Int("chunks", len(chunks)).Msg("text split")
	s.reporter.Progress(ctx, jobID, model.JobStatusSummarizingPartial, s.msgs.T(i18n.MsgJobSummarizingPartial, len(chunks)))

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan callResult, len(chunks))
	var firstErr error
	submitted := 0
	for i, chunk := range chunks {
		err := s.pool.Submit(func(pctx context.Context) error {
			if err := abandoned(pctx); err != nil {
				results <- callResult{idx: i, err: err}
				return err
			}
			r := safeCall(i, func() (string, error) { return s.client.Partial(cctx, chunk) })
			results <- r
			return r.err
		})
		if err != nil {
			firstErr = fmt.Errorf("submit chunk %d: %w", i, err)
			cancel()
			break
		}
		submitted++
	}

	partials := make([]string, len(chunks))
	for received := 0; received < submitted; received++ {
		select {
		case r := <-results:
			if r.err != nil && firstErr == nil {
				firstErr = fmt.Errorf("chunk %d: %w", r.idx, r.err)
				cancel()
			}
			partials[r.idx] = r.out
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if firstErr != nil {
		return "", firstErr
	}

	return s.final(ctx, jobID, strings.Join(partials, "\n\n"), SourceSummaries)
}

type callResult struct {
	idx int
	out string
	err error
}

// safeCall turns a panic in fn into an error so the waiting side always
// gets a result.
func safeCall(idx int, fn func() (string, error)) (r callResult) {
	r.idx = idx
	defer func() {
		if rec := recover(); rec != nil {
			r.err = fmt.Errorf("ai call panic: %v", rec)
		}
	}()
	r.out, r.err = fn()
	return r
}
