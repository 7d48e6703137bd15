package live

import (
	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// Client → server frame types.
const (
	TypeCapabilities = "capabilities"
	TypeSubmit       = "submit"
	TypeInput        = "input"
	TypeMic          = "mic"
	TypeCoPilot      = "copilot"
	TypeLanguage     = "language"
	TypeTranscript   = "transcript"
	TypeSpeechDone   = "speech_done"
	TypeStartChat    = "start_chat"
	TypeEndChat      = "end_chat"
	TypeDismissToast = "dismiss_toast"
	TypeAnalyzeMap   = "analyze_map"
)

// Server → client frame types.
const (
	TypeSnapshot       = "snapshot"
	TypeSpeak          = "speak"
	TypeCancelSpeech   = "cancel_speech"
	TypeStartListening = "start_listening"
	TypeStopListening  = "stop_listening"
	TypeError          = "error"
)

// ClientFrame is any frame a browser sends. Only the fields its Type uses are set.
type ClientFrame struct {
	Type        string         `json:"type"`
	Text        string         `json:"text,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	FileName    string         `json:"file_name,omitempty"`
	UtteranceID string         `json:"utterance_id,omitempty"`
	Recognition bool           `json:"recognition,omitempty"`
	Voices      []domain.Voice `json:"voices,omitempty"`
}

type snapshotFrame struct {
	Type     string                `json:"type"`
	Snapshot conversation.Snapshot `json:"snapshot"`
}

type speakFrame struct {
	Type string `json:"type"`
	domain.Utterance
}

// signalFrame carries the speech engine commands.
type signalFrame struct {
	Type   string        `json:"type"`
	Locale domain.Locale `json:"locale,omitempty"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
