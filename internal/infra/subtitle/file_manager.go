package subtitle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
)

// FileManager owns the staging directory caption files are downloaded to.
type FileManager struct {
	dir string
	log *zerolog.Logger
}

func NewFileManager(dir string, logger *zerolog.Logger) *FileManager {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "yt-subtitles")
	}
	l := logger.With().Str("component", "FileManager").Logger()
	return &FileManager{dir: dir, log: &l}
}

func (f *FileManager) Dir() string { return f.dir }

func (f *FileManager) EnsureDir() error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	return nil
}

// OutputTemplate is the yt-dlp -o pattern for the staging directory.
func (f *FileManager) OutputTemplate() string {
	return filepath.Join(f.dir, "%(id)s.%(ext)s")
}

// SubtitlePath is where yt-dlp writes the captions of videoID in lang.
func (f *FileManager) SubtitlePath(videoID, lang string) string {
	return filepath.Join(f.dir, videoID+"."+lang+".vtt")
}

// Read returns domain.ErrNoSubtitles when the file is missing or empty.
func (f *FileManager) Read(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("subtitle file not written: %w", domain.ErrNoSubtitles)
	}
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("subtitle file empty: %w", domain.ErrNoSubtitles)
	}
	return string(b), nil
}

// Delete removes path; failures are only logged.
func (f *FileManager) Delete(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		f.log.Warn().Err(err).Str("path", path).Msg("temp subtitle delete failed")
	}
}
