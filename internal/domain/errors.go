package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTurn          = errors.New("turn text is empty")
	ErrTurnInFlight       = errors.New("a turn is already in flight")
	ErrSpeechUnsupported  = errors.New("speech capture is not supported")
	ErrNotConfigured      = errors.New("assistant backend is not configured")
	ErrAssistantNotFound  = errors.New("assistant not found")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrMissingFileName    = errors.New("file name is required")
)

// BackendErrorKind categorizes a failed backend call.
type BackendErrorKind string

const (
	KindQuotaExceeded BackendErrorKind = "quota_exceeded"
	KindNetwork       BackendErrorKind = "network"
	KindUnclassified  BackendErrorKind = "unclassified"
	KindNotConfigured BackendErrorKind = "not_configured"
)

// BackendError is the categorized failure returned by an AssistantBackend.
type BackendError struct {
	Kind   BackendErrorKind
	Status int // HTTP-like status when the backend reported one, 0 otherwise
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("assistant backend %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("assistant backend %s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// BackendErrorKindOf returns the kind of a backend error and whether err is one.
func BackendErrorKindOf(err error) (BackendErrorKind, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	if errors.Is(err, ErrNotConfigured) {
		return KindNotConfigured, true
	}
	return "", false
}
