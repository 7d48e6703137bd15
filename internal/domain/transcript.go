package domain

// Transcript is the archived copy of a conversation that was ended.
type Transcript struct {
	ID          TranscriptID  `json:"id"`
	AssistantID AssistantID   `json:"assistant_id"`
	UserID      UserID        `json:"user_id"`
	StartedAt   Timestamp     `json:"started_at"`
	EndedAt     Timestamp     `json:"ended_at"`
	Messages    []ChatMessage `json:"messages"`
}

// TranscriptStore defines the minimum operations to archive transcripts
type TranscriptStore interface {
	ArchiveTranscript(t *Transcript) error
	GetTranscript(id TranscriptID) (*Transcript, error)
	ListTranscriptsByUser(userID UserID, limit int) ([]*Transcript, error)
}
