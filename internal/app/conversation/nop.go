package conversation

import "github.com/PabloGalante/ai-accountant/internal/domain"

// unsupportedCapture stands in when no capture engine is wired.
type unsupportedCapture struct{}

func (unsupportedCapture) Start(domain.Locale) error {
	return domain.ErrSpeechUnsupported
}

func (unsupportedCapture) Stop() {}

func (unsupportedCapture) Supported() bool { return false }

func (unsupportedCapture) Listening() bool { return false }

func (unsupportedCapture) Transcript() string { return "" }

func (unsupportedCapture) OnTranscript(func(string)) {}

// silentOutput drops utterances; onComplete never fires.
type silentOutput struct{}

func (silentOutput) Speak(domain.Utterance, func()) {}

func (silentOutput) Cancel() {}

func (silentOutput) Speaking() bool { return false }

func (silentOutput) Voices() []domain.Voice { return nil }
