package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/infra/tokens"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

const noopModel = "noop-ai-model"

// NoopAIAdapter is a local stand-in for dev runs. It "summarizes" by
// returning the first lines of the last user message.
type NoopAIAdapter struct {
	log   *zerolog.Logger
	delay time.Duration
	lines int
}

func NewNoopAIAdapter(logger *zerolog.Logger) *NoopAIAdapter {
	l := logger.With().Str("component", "NoopAI").Logger()
	return &NoopAIAdapter{log: &l, delay: 100 * time.Millisecond, lines: 5}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{noopModel}, nil
}

func (a *NoopAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{
		Name:        noopModel,
		Description: "Noop AI model for testing",
		MaxTokens:   1024,
		Supports:    []string{"chat"},
	}, nil
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += tokens.Heuristic(m.Content)
	}
	return n, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := a.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}

	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == adapter.RoleUser {
			last = messages[i].Content
			break
		}
	}
	var picked []string
	for _, line := range strings.Split(last, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			picked = append(picked, line)
		}
		if len(picked) == a.lines {
			break
		}
	}
	reply := strings.Join(picked, "\n")
	a.log.Debug().Int("in_chars", len(last)).Int("out_chars", len(reply)).Msg("noop chat")

	in, _ := a.CountTokens(ctx, model, messages)
	out := tokens.Heuristic(reply)
	return reply, adapter.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}, nil
}
