package adapter

import (
	"context"

	"youtube-ai-summary/internal/domain/model"
)

// SubtitleProvider fetches cleaned subtitle text for a video.
// It reports EXTRACTING and EXTRACTION_COMPLETED itself and classifies
// failures with domain.ErrNoSubtitles or domain.ErrTransient.
type SubtitleProvider interface {
	FetchSubs(ctx context.Context, jobID string, video model.Video) (string, error)
}
