package subtitle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/domain/ports/usecase"
	"youtube-ai-summary/internal/infra/i18n"
	"youtube-ai-summary/internal/infra/logging"
)

var _ adapter.SubtitleProvider = (*FileProvider)(nil)

// FileProvider serves captions from <dir>/<videoID>.{vtt,srt,txt}. Used for
// local runs and tests where yt-dlp is not available.
type FileProvider struct {
	reporter usecase.ProgressReporter
	files    *FileManager
	proc     *Processor
	msgs     Messages
	log      *zerolog.Logger
}

func NewFileProvider(reporter usecase.ProgressReporter, dir string, msgs Messages, logger *zerolog.Logger) *FileProvider {
	l := logger.With().Str("component", "FileProvider").Logger()
	return &FileProvider{reporter: reporter, files: NewFileManager(dir, logger), proc: NewProcessor(), msgs: msgs, log: &l}
}

func (p *FileProvider) FetchSubs(ctx context.Context, jobID string, video model.Video) (string, error) {
	p.reporter.Progress(ctx, jobID, model.JobStatusExtracting, p.msgs.T(i18n.MsgJobExtracting))

	for _, ext := range []string{".vtt", ".srt", ".txt"} {
		raw, err := p.files.Read(filepath.Join(p.files.Dir(), video.ID+ext))
		if errors.Is(err, domain.ErrNoSubtitles) {
			continue
		}
		if err != nil {
			return "", err
		}

		text := strings.TrimSpace(raw)
		if ext != ".txt" {
			text = p.proc.Process(raw)
		}
		if text == "" {
			break
		}
		p.log.Debug().Str("job_id", jobID).Str("ext", ext).Msg("captions read from disk")
		p.reporter.Progress(ctx, jobID, model.JobStatusExtractionCompleted,
			p.msgs.T(i18n.MsgJobExtractionCompleted, logging.Preview(text, previewRunes)))
		return text, nil
	}
	return "", fmt.Errorf("no caption file for %s: %w", video.ID, domain.ErrNoSubtitles)
}
