package memory

import (
	"fmt"
	"sync"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// TranscriptStore is an in-memory domain.TranscriptStore.
// It is NOT persistent and is only suitable for development / local mode.
type TranscriptStore struct {
	mu          sync.RWMutex
	transcripts map[domain.TranscriptID]*domain.Transcript
	byUserID    map[domain.UserID][]domain.TranscriptID
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		transcripts: make(map[domain.TranscriptID]*domain.Transcript),
		byUserID:    make(map[domain.UserID][]domain.TranscriptID),
	}
}

func (s *TranscriptStore) ArchiveTranscript(t *domain.Transcript) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("transcript id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transcripts[t.ID]; exists {
		return fmt.Errorf("transcript %s already archived", t.ID)
	}

	s.transcripts[t.ID] = t
	s.byUserID[t.UserID] = append(s.byUserID[t.UserID], t.ID)
	return nil
}

func (s *TranscriptStore) GetTranscript(id domain.TranscriptID) (*domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transcripts[id]
	if !ok {
		return nil, domain.ErrTranscriptNotFound
	}
	return t, nil
}

// ListTranscriptsByUser returns the user's latest transcripts, newest first.
// If limit <= 0, returns all.
func (s *TranscriptStore) ListTranscriptsByUser(userID domain.UserID, limit int) ([]*domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUserID[userID]
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}

	out := make([]*domain.Transcript, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		if t, ok := s.transcripts[ids[i]]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
