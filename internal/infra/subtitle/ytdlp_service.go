package subtitle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/domain/ports/usecase"
	"youtube-ai-summary/internal/infra/i18n"
	"youtube-ai-summary/internal/infra/logging"
)

var _ adapter.SubtitleProvider = (*YtDlpProvider)(nil)

const previewRunes = 200

// Messages resolves user-facing text from the locale catalog.
type Messages interface {
	T(key string, args ...interface{}) string
}

type ytdlp interface {
	DumpJSON(ctx context.Context, videoID string) (string, error)
	Download(ctx context.Context, videoID, lang, outputTemplate string) error
}

// YtDlpProvider extracts automatic captions with yt-dlp.
type YtDlpProvider struct {
	reporter usecase.ProgressReporter
	exec     ytdlp
	files    *FileManager
	proc     *Processor
	msgs     Messages
	log      *zerolog.Logger
}

func NewYtDlpProvider(reporter usecase.ProgressReporter, exec *Executor, files *FileManager, msgs Messages, logger *zerolog.Logger) *YtDlpProvider {
	l := logger.With().Str("component", "YtDlpProvider").Logger()
	return &YtDlpProvider{reporter: reporter, exec: exec, files: files, proc: NewProcessor(), msgs: msgs, log: &l}
}

func (p *YtDlpProvider) FetchSubs(ctx context.Context, jobID string, video model.Video) (string, error) {
	log := logging.With(ctx, p.log)
	p.reporter.Progress(ctx, jobID, model.JobStatusExtracting, p.msgs.T(i18n.MsgJobExtracting))

	meta, err := p.exec.DumpJSON(ctx, video.ID)
	if err != nil {
		return "", fmt.Errorf("fetch metadata: %w", err)
	}
	lang, err := pickLanguage(meta)
	if err != nil {
		return "", err
	}
	log.Debug().Str("lang", lang).Msg("caption language chosen")

	if err := p.files.EnsureDir(); err != nil {
		return "", err
	}
	path := p.files.SubtitlePath(video.ID, lang)
	defer p.files.Delete(path)

	if err := p.exec.Download(ctx, video.ID, lang, p.files.OutputTemplate()); err != nil {
		return "", fmt.Errorf("download captions: %w", err)
	}
	raw, err := p.files.Read(path)
	if err != nil {
		return "", err
	}

	text := p.proc.Process(raw)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("captions contain no text: %w", domain.ErrNoSubtitles)
	}
	log.Info().Int("chars", model.CountChars(text)).Msg("captions extracted")
	p.reporter.Progress(ctx, jobID, model.JobStatusExtractionCompleted,
		p.msgs.T(i18n.MsgJobExtractionCompleted, logging.Preview(text, previewRunes)))
	return text, nil
}

// pickLanguage prefers Korean for Korean videos, then English, then the
// first available language in sorted order.
func pickLanguage(meta string) (string, error) {
	caps := gjson.Get(meta, "automatic_captions")
	if !caps.IsObject() {
		return "", fmt.Errorf("no automatic captions: %w", domain.ErrNoSubtitles)
	}
	available := caps.Map()
	if len(available) == 0 {
		return "", fmt.Errorf("no automatic captions: %w", domain.ErrNoSubtitles)
	}

	if gjson.Get(meta, "language").String() == "ko" {
		if _, ok := available["ko"]; ok {
			return "ko", nil
		}
	}
	if _, ok := available["en"]; ok {
		return "en", nil
	}
	langs := make([]string, 0, len(available))
	for k := range available {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs[0], nil
}
