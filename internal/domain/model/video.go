package model

import (
	"regexp"
	"strings"

	"youtube-ai-summary/internal/domain"
)

var videoIDPattern = regexp.MustCompile(`(?:youtu\.be/|v=)([A-Za-z0-9_-]{11})`)

type Video struct {
	ID  string
	URL string
}

// ParseVideo extracts the 11 character video id from a watch or short link.
func ParseVideo(rawURL string) (Video, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Video{}, domain.ErrInvalidVideoURL
	}
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return Video{}, domain.ErrInvalidVideoURL
	}
	return Video{ID: m[1], URL: rawURL}, nil
}

func (v Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}
