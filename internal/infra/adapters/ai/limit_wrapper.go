package ai

import (
	"context"

	"golang.org/x/time/rate"

	"youtube-ai-summary/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AIServiceAdapter = (*limitedAI)(nil)

// limitedAI caps concurrent provider calls and, optionally, their rate.
type limitedAI struct {
	inner adapter.AIServiceAdapter
	sem   chan struct{}
	rl    *rate.Limiter
}

func NewLimitedAI(inner adapter.AIServiceAdapter, maxConcurrent int, ratePerSecond float64) adapter.AIServiceAdapter {
	if maxConcurrent <= 0 && ratePerSecond <= 0 {
		return inner
	}
	l := &limitedAI{inner: inner}
	if maxConcurrent > 0 {
		l.sem = make(chan struct{}, maxConcurrent)
	}
	if ratePerSecond > 0 {
		burst := int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
		l.rl = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return l
}

// acquire waits for a rate token and a concurrency slot, or for ctx.
func (l *limitedAI) acquire(ctx context.Context) (func(), error) {
	if l.rl != nil {
		if err := l.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if l.sem == nil {
		return func() {}, nil
	}
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *limitedAI) ListModels(ctx context.Context) ([]string, error) {
	return l.inner.ListModels(ctx)
}

func (l *limitedAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return l.inner.GetModelInfo(model)
}

func (l *limitedAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return l.inner.Chat(ctx, model, messages)
}

func (l *limitedAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	defer release()
	return l.inner.ChatWithUsage(ctx, model, messages)
}

func (l *limitedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return l.inner.CountTokens(ctx, model, messages)
}
