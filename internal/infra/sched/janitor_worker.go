package sched

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/infra/metrics"
)

// JanitorWorker periodically deletes staging files that outlived maxAge.
// Providers delete their own files; this catches what a killed yt-dlp or a
// crash left behind (.part, .ytdl, orphaned captions).
type JanitorWorker struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

func NewJanitorWorker(dir string, interval, maxAge time.Duration, logger *zerolog.Logger) *JanitorWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	l := logger.With().Str("component", "JanitorWorker").Logger()
	return &JanitorWorker{dir: dir, interval: interval, maxAge: maxAge, now: time.Now, log: &l}
}

func (w *JanitorWorker) Run(ctx context.Context) error {
	w.log.Info().Str("dir", w.dir).Dur("interval", w.interval).Msg("Starting janitor worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping janitor worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.Sweep()
			if err != nil {
				w.log.Error().Err(err).Msg("janitor sweep error")
			}
			if n > 0 {
				metrics.IncTempFilesRemoved(n)
				w.log.Info().Int("count", n).Msg("stale temp files removed")
			}
		}
	}
}

// Sweep removes regular files in dir older than maxAge and returns how
// many were removed. A missing dir is not an error.
func (w *JanitorWorker) Sweep() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := w.now().Add(-w.maxAge)
	removed := 0
	var firstErr error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}
