package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"youtube-ai-summary/internal/domain"
)

// transientStatus covers rate limiting and server side failures.
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// classifyStatus wraps an HTTP-level provider error.
func classifyStatus(provider string, code int, err error) error {
	wrapped := fmt.Errorf("%s http %d: %w", provider, code, err)
	if transientStatus(code) {
		return domain.Transient(wrapped)
	}
	return wrapped
}

// classifyTransport marks timeouts and network failures as transient.
// Cancellation by the caller stays permanent.
func classifyTransport(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &ne) {
		return domain.Transient(fmt.Errorf("%s: %w", provider, err))
	}
	return fmt.Errorf("%s: %w", provider, err)
}
