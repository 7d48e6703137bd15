// Package live connects a browser to a conversation controller over a
// WebSocket. The browser runs the speech engines; the Bridge stands in for
// them on the server side.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
)

var (
	_ domain.SpeechCapture = (*Bridge)(nil)
	_ domain.SpeechOutput  = (*Bridge)(nil)
)

var errNoController = errors.New("live bridge is not bound to a controller")

// Bridge is the remote speech engine of one assistant. At most one browser
// is attached at a time; a new connection replaces the previous one.
type Bridge struct {
	id domain.AssistantID

	mu          sync.Mutex
	ctrl        *conversation.Controller
	client      *client
	recognition bool
	voices      []domain.Voice
	listening   bool
	transcript  string
	onText      func(string)
	utterance   string // id of the utterance being spoken, "" when silent
	onSpoken    func()
}

func NewBridge(id domain.AssistantID) *Bridge {
	return &Bridge{id: id}
}

// Bind attaches the controller that browser intents are dispatched to.
func (b *Bridge) Bind(ctrl *conversation.Controller) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctrl = ctrl
}

func (b *Bridge) controller() *conversation.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctrl
}

// ─────────────────────────────────────────
// SpeechCapture
// ─────────────────────────────────────────

func (b *Bridge) Start(locale domain.Locale) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil || !b.recognition {
		return domain.ErrSpeechUnsupported
	}
	b.listening = true
	b.transcript = ""
	b.client.enqueue(signalFrame{Type: TypeStartListening, Locale: locale})
	return nil
}

func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.listening {
		return
	}
	b.listening = false
	if b.client != nil {
		b.client.enqueue(signalFrame{Type: TypeStopListening})
	}
}

func (b *Bridge) Supported() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil && b.recognition
}

func (b *Bridge) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

func (b *Bridge) Transcript() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transcript
}

func (b *Bridge) OnTranscript(fn func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onText = fn
}

// ─────────────────────────────────────────
// SpeechOutput
// ─────────────────────────────────────────

// Speak sends the utterance to the browser. With no browser attached there is
// nothing to wait for and onComplete runs immediately.
func (b *Bridge) Speak(u domain.Utterance, onComplete func()) {
	b.mu.Lock()
	if b.client == nil {
		b.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return
	}
	b.utterance = u.ID
	b.onSpoken = onComplete
	b.client.enqueue(speakFrame{Type: TypeSpeak, Utterance: u})
	b.mu.Unlock()
}

func (b *Bridge) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.utterance == "" {
		return
	}
	b.utterance = ""
	b.onSpoken = nil
	if b.client != nil {
		b.client.enqueue(signalFrame{Type: TypeCancelSpeech})
	}
}

func (b *Bridge) Speaking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.utterance != ""
}

func (b *Bridge) Voices() []domain.Voice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Voice(nil), b.voices...)
}

// ─────────────────────────────────────────
// Browser events
// ─────────────────────────────────────────

func (b *Bridge) attach(cl *client) {
	b.mu.Lock()
	prev := b.client
	b.client = cl
	b.recognition = false
	b.voices = nil
	b.mu.Unlock()

	if prev != nil {
		prev.close()
	}
}

// detach forgets cl if it is still the attached client. Capture and speech in
// progress on it are abandoned; their callbacks never fire.
func (b *Bridge) detach(cl *client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != cl {
		return
	}
	b.client = nil
	b.recognition = false
	b.listening = false
	b.utterance = ""
	b.onSpoken = nil
}

func (b *Bridge) setCapabilities(recognition bool, voices []domain.Voice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recognition = recognition
	b.voices = append([]domain.Voice(nil), voices...)
}

func (b *Bridge) deliverTranscript(text string) {
	b.mu.Lock()
	if !b.listening {
		b.mu.Unlock()
		return
	}
	b.transcript = text
	fn := b.onText
	b.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

func (b *Bridge) speechDone(utteranceID string) {
	b.mu.Lock()
	if utteranceID == "" || utteranceID != b.utterance {
		b.mu.Unlock()
		return
	}
	done := b.onSpoken
	b.utterance = ""
	b.onSpoken = nil
	b.mu.Unlock()

	if done != nil {
		done()
	}
}

// handle applies one browser frame.
func (b *Bridge) handle(ctx context.Context, cl *client, f ClientFrame) error {
	ctrl := b.controller()
	if ctrl == nil {
		return errNoController
	}

	switch f.Type {
	case TypeCapabilities:
		b.setCapabilities(f.Recognition, f.Voices)
		cl.enqueue(snapshotFrame{Type: TypeSnapshot, Snapshot: ctrl.Snapshot()})
	case TypeSubmit:
		return ctrl.SubmitTurn(ctx, f.Text)
	case TypeInput:
		ctrl.SetInput(f.Text)
	case TypeMic:
		return ctrl.ToggleMic(ctx)
	case TypeCoPilot:
		if f.Enabled == nil {
			return fmt.Errorf("copilot frame needs \"enabled\"")
		}
		ctrl.SetCoPilot(*f.Enabled)
	case TypeLanguage:
		ctrl.ToggleLanguage()
	case TypeTranscript:
		b.deliverTranscript(f.Text)
	case TypeSpeechDone:
		b.speechDone(f.UtteranceID)
	case TypeStartChat:
		ctrl.StartChat(ctx)
	case TypeEndChat:
		ctrl.EndSession(ctx)
	case TypeDismissToast:
		ctrl.DismissToast()
	case TypeAnalyzeMap:
		return ctrl.AnalyzeMap(ctx, f.FileName)
	default:
		return fmt.Errorf("unknown frame type %q", f.Type)
	}
	return nil
}

func (b *Bridge) logger(ctx context.Context) *slog.Logger {
	return observability.LoggerFromContext(ctx).With("assistant_id", b.id)
}
