package subtitle

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/config"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/domain/ports/usecase"
	"youtube-ai-summary/internal/infra/retry"
)

type Deps struct {
	Reporter usecase.ProgressReporter
	Messages Messages
	Logger   *zerolog.Logger
}

type Factory func(cfg config.SubtitleConfig, deps Deps) (adapter.SubtitleProvider, error)

var providers = map[string]Factory{
	"ytdlp": func(cfg config.SubtitleConfig, d Deps) (adapter.SubtitleProvider, error) {
		exec := NewExecutor(ExecutorOptions{
			Binary:      cfg.Binary,
			Proxy:       cfg.Proxy,
			CookiesFile: cfg.CookiesFile,
			Timeout:     cfg.CommandTimeout,
			Retry: retry.Policy{
				Attempts:     cfg.RetryAttempts,
				InitialDelay: cfg.RetryDelay,
				Multiplier:   2,
				MaxDelay:     30 * time.Second,
			},
		}, d.Logger)
		return NewYtDlpProvider(d.Reporter, exec, NewFileManager(cfg.TempDir, d.Logger), d.Messages, d.Logger), nil
	},
	"file": func(cfg config.SubtitleConfig, d Deps) (adapter.SubtitleProvider, error) {
		if cfg.FileDir == "" {
			return nil, fmt.Errorf("subtitle.file_dir is required for the file provider")
		}
		return NewFileProvider(d.Reporter, cfg.FileDir, d.Messages, d.Logger), nil
	},
}

// NewProvider resolves subtitle.provider once at startup.
func NewProvider(cfg config.SubtitleConfig, deps Deps) (adapter.SubtitleProvider, error) {
	f, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown subtitle provider %q", cfg.Provider)
	}
	return f(cfg, deps)
}
