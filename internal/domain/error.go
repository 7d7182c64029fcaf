package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidVideoURL = errors.New("invalid video url")
	ErrNoSubtitles     = errors.New("no subtitles available")
	ErrTransient       = errors.New("transient failure")
	ErrQueueFull       = errors.New("worker queue full")
	ErrEmptySummary    = errors.New("empty summary")

	// Store errors
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// transientError tags a cause as retryable while keeping it reachable for errors.Is/As.
type transientError struct {
	err error
}

func (e *transientError) Error() string   { return e.err.Error() }
func (e *transientError) Unwrap() []error { return []error{ErrTransient, e.err} }

// Transient marks err as a transient transport failure. nil stays nil.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
