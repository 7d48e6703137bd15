package domain

// RichKind names a renderable component the presentation layer knows how to draw.
type RichKind string

const (
	RichHydrogeologicalChart RichKind = "hydrogeological_analysis_chart"
)

// RichContent is an opaque renderable payload shown instead of text.
type RichContent struct {
	Kind RichKind       `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

// ChatMessage is one entry of a conversation transcript.
// User messages always carry Text; assistant messages carry exactly one of Text or Rich.
type ChatMessage struct {
	ID        MessageID    `json:"id"`
	Role      Role         `json:"role"`
	Text      string       `json:"text,omitempty"`
	Rich      *RichContent `json:"rich,omitempty"`
	CreatedAt Timestamp    `json:"created_at"`
}

// Toast is the single transient notification slot.
type Toast struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Visible  bool     `json:"visible"`
}

// MicState is the state of the microphone state machine.
type MicState string

const (
	MicIdle                 MicState = "idle"
	MicAnnouncing           MicState = "announcing" // Idle, waiting for the announcement to finish
	MicListening            MicState = "listening"
	MicListeningForFollowUp MicState = "listening_for_follow_up"
)

// Listening reports whether capture is running in this state.
func (s MicState) Listening() bool {
	return s == MicListening || s == MicListeningForFollowUp
}

// VoiceLoopState is the voice side of a conversation.
// AwaitingFollowUp implies CoPilotEnabled and Listening.
type VoiceLoopState struct {
	CoPilotEnabled   bool   `json:"co_pilot_enabled"`
	Listening        bool   `json:"listening"`
	AwaitingFollowUp bool   `json:"awaiting_follow_up"`
	Language         Locale `json:"language"`
}
