// File: internal/infra/adapters/ai/registry.go
package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/config"
	"youtube-ai-summary/internal/domain/ports/adapter"
)

// Factory builds one provider adapter from config.
type Factory func(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) (adapter.AIServiceAdapter, error)

// Registry maps ai.provider keys to factories. It is resolved once at startup.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("openai", func(ctx context.Context, cfg config.AIConfig, _ *zerolog.Logger) (adapter.AIServiceAdapter, error) {
		return NewOpenAIAdapter(cfg.OpenAIKey, cfg.BaseURL, cfg.DefaultModel, cfg.MaxOutputTokens)
	})
	r.Register("gemini", func(ctx context.Context, cfg config.AIConfig, _ *zerolog.Logger) (adapter.AIServiceAdapter, error) {
		return NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.DefaultModel, cfg.MaxOutputTokens)
	})
	r.Register("noop", func(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
		return NewNoopAIAdapter(logger), nil
	})
	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve builds the configured provider and wraps it in the concurrency
// and rate limits.
func (r *Registry) Resolve(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
	name := strings.ToLower(cfg.Provider)
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q (have %s)", cfg.Provider, strings.Join(r.Names(), ", "))
	}
	a, err := f(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init ai provider %s: %w", name, err)
	}
	logger.Info().Str("provider", name).Str("model", cfg.DefaultModel).Int("concurrency", cfg.ConcurrentLimit).
		Float64("rate", cfg.RatePerSecond).Msg("ai provider ready")
	return NewLimitedAI(a, cfg.ConcurrentLimit, cfg.RatePerSecond), nil
}
