package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/config"
	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/infra/metrics"
	"youtube-ai-summary/internal/infra/retry"
	"youtube-ai-summary/internal/infra/tokens"
)

// Summarizer is the remote summarization collaborator of the engine.
type Summarizer interface {
	Partial(ctx context.Context, chunk string) (string, error)
	Final(ctx context.Context, content string, source SummarySource) (string, error)
}

var _ Summarizer = (*SummaryClient)(nil)

type SummaryClientOptions struct {
	Model     string
	Partial   retry.Policy
	Final     retry.Policy
	Estimator *tokens.Estimator // optional
}

// RetryPolicies builds the partial and final policies from config.
func RetryPolicies(cfg config.RetryConfig, callTimeout time.Duration) (partial, final retry.Policy) {
	partial = retry.Policy{
		Attempts:     cfg.Attempts,
		InitialDelay: cfg.PartialDelay,
		Multiplier:   cfg.PartialMultiplier,
		MaxDelay:     cfg.MaxDelay,
		CallTimeout:  callTimeout,
	}
	final = retry.Policy{
		Attempts:     cfg.Attempts,
		InitialDelay: cfg.FinalDelay,
		Multiplier:   cfg.FinalMultiplier,
		MaxDelay:     cfg.MaxDelay,
		CallTimeout:  callTimeout,
	}
	return partial, final
}

// SummaryClient wraps every AI call in the retry policy for its kind.
type SummaryClient struct {
	ai      adapter.AIServiceAdapter
	prompts *PromptManager
	opts    SummaryClientOptions
	log     *zerolog.Logger
}

func NewSummaryClient(ai adapter.AIServiceAdapter, prompts *PromptManager, opts SummaryClientOptions, logger *zerolog.Logger) *SummaryClient {
	l := logger.With().Str("component", "SummaryClient").Logger()
	return &SummaryClient{ai: ai, prompts: prompts, opts: opts, log: &l}
}

func (c *SummaryClient) Partial(ctx context.Context, chunk string) (string, error) {
	prompt, err := c.prompts.Partial(chunk)
	if err != nil {
		return "", err
	}
	return c.call(ctx, "partial", prompt, c.opts.Partial)
}

func (c *SummaryClient) Final(ctx context.Context, content string, source SummarySource) (string, error) {
	prompt, err := c.prompts.Final(content, source)
	if err != nil {
		return "", err
	}
	return c.call(ctx, "final_"+string(source), prompt, c.opts.Final)
}

func (c *SummaryClient) call(ctx context.Context, kind, prompt string, policy retry.Policy) (string, error) {
	msgs := []adapter.Message{
		{Role: adapter.RoleSystem, Content: c.prompts.System()},
		{Role: adapter.RoleUser, Content: prompt},
	}
	if c.opts.Estimator != nil {
		n := c.opts.Estimator.Count(prompt)
		metrics.ObserveEstimatedTokens(kind, n)
		c.log.Debug().Str("kind", kind).Int("est_tokens", n).Msg("ai call")
	}

	retryable := func(err error) bool {
		if domain.IsTransient(err) {
			return true
		}
		// a per-try deadline that fired while the caller is still alive
		return errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
	}
	onRetry := func(attempt int, delay time.Duration, err error) {
		metrics.IncAIRetry(kind)
		c.log.Warn().Err(err).Str("kind", kind).Int("attempt", attempt).Dur("backoff", delay).Msg("retrying ai call")
	}

	var out string
	err := retry.Do(ctx, policy, retryable, onRetry, func(ctx context.Context) error {
		reply, err := c.ai.Chat(ctx, c.opts.Model, msgs)
		if err != nil {
			return err
		}
		out = reply
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s summary: %w", kind, err)
	}
	return out, nil
}
