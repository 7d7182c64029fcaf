package subtitle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/infra/metrics"
	"youtube-ai-summary/internal/infra/retry"
)

// commandResult is one finished process.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, err
	}
	return res, nil
}

type ExecutorOptions struct {
	Binary      string
	Proxy       string
	CookiesFile string
	Timeout     time.Duration
	// Retry repeats transient failures; zero attempts means a single try.
	Retry retry.Policy
}

// Executor runs yt-dlp. Any failure of the process itself is transient:
// YouTube throttling and network errors look the same from here.
type Executor struct {
	opts   ExecutorOptions
	runner commandRunner
	log    *zerolog.Logger
}

func NewExecutor(opts ExecutorOptions, logger *zerolog.Logger) *Executor {
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	l := logger.With().Str("component", "YtDlpExecutor").Logger()
	return &Executor{opts: opts, runner: execRunner{}, log: &l}
}

// DumpJSON returns the metadata document of videoID.
func (e *Executor) DumpJSON(ctx context.Context, videoID string) (string, error) {
	var res commandResult
	err := e.withRetry(ctx, "dump_json", func(ctx context.Context) error {
		var err error
		res, err = e.run(ctx, e.withCommon([]string{"--dump-json", "--no-warnings"}, videoID)...)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") {
			return line, nil
		}
	}
	return "", fmt.Errorf("yt-dlp printed no metadata for %s", videoID)
}

// Download writes the automatic captions of videoID in lang as VTT.
func (e *Executor) Download(ctx context.Context, videoID, lang, outputTemplate string) error {
	args := []string{
		"--write-auto-sub",
		"--sub-lang", lang,
		"--sub-format", "vtt",
		"--convert-subs", "vtt",
		"--skip-download",
		"-o", outputTemplate,
	}
	return e.withRetry(ctx, "download", func(ctx context.Context) error {
		_, err := e.run(ctx, e.withCommon(args, videoID)...)
		return err
	})
}

func (e *Executor) withRetry(ctx context.Context, command string, fn func(ctx context.Context) error) error {
	onRetry := func(attempt int, delay time.Duration, err error) {
		metrics.IncSubtitleRetry(command)
		e.log.Warn().Err(err).Str("command", command).Int("attempt", attempt).Dur("backoff", delay).Msg("retrying yt-dlp")
	}
	return retry.Do(ctx, e.opts.Retry, domain.IsTransient, onRetry, fn)
}

func (e *Executor) withCommon(args []string, videoID string) []string {
	if e.opts.Proxy != "" {
		args = append(args, "--proxy", e.opts.Proxy)
	}
	if e.opts.CookiesFile != "" {
		args = append(args, "--cookies", e.opts.CookiesFile)
	}
	// "--" keeps ids that start with '-' from being read as flags
	return append(args, "--", videoID)
}

func (e *Executor) run(ctx context.Context, args ...string) (commandResult, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := e.runner.Run(ctx, e.opts.Binary, args...)
	ev := e.log.Debug()
	if err != nil {
		ev = e.log.Warn().Err(err).Int("exit_code", res.ExitCode).Str("stderr", tail(res.Stderr, 500))
	}
	ev.Strs("args", args).Dur("took", time.Since(start)).Msg("yt-dlp finished")

	if err == nil {
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, domain.Transient(fmt.Errorf("yt-dlp timed out: %w", ctx.Err()))
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return res, ctx.Err()
	}
	return res, domain.Transient(fmt.Errorf("yt-dlp exited with code %d: %w", res.ExitCode, err))
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
