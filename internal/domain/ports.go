package domain

import (
	"context"
	"time"
)

// AssistantBackend sends one stateless query to the hosted model.
// Failures are returned as *BackendError.
type AssistantBackend interface {
	Query(ctx context.Context, userText string) (string, error)
}

// SpeechCapture wraps a speech-to-text engine.
// Stop is idempotent.
type SpeechCapture interface {
	Start(locale Locale) error
	Stop()
	Supported() bool
	Listening() bool
	Transcript() string
	// OnTranscript registers the handler that receives every live transcript update.
	OnTranscript(fn func(transcript string))
}

// Voice is one voice offered by a text-to-speech engine.
type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// Utterance is a request to speak text.
type Utterance struct {
	ID     string  `json:"utterance_id"`
	Text   string  `json:"text"`
	Locale Locale  `json:"locale"`
	Voice  string  `json:"voice,omitempty"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
}

// SpeechOutput wraps an exclusive text-to-speech engine.
// Cancel is idempotent; a cancelled utterance never fires its onComplete.
type SpeechOutput interface {
	Speak(u Utterance, onComplete func())
	Cancel()
	Speaking() bool
	Voices() []Voice
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Clock schedules the controller's fixed delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Rand is the injected random source (math/rand/v2 *rand.Rand satisfies it).
type Rand interface {
	IntN(n int) int
}
