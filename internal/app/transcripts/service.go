package transcripts

import (
	"context"

	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
)

// DefaultLimit is the number of transcripts listed when no limit is given.
const DefaultLimit = 20

// Service reads archived conversation transcripts.
type Service struct {
	store domain.TranscriptStore
}

func NewService(store domain.TranscriptStore) *Service {
	return &Service{store: store}
}

// ListByUser returns the user's latest `limit` transcripts, newest first.
// If limit <= 0, DefaultLimit is used.
func (s *Service) ListByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Transcript, error) {
	if s.store == nil {
		return []*domain.Transcript{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	out, err := s.store.ListTranscriptsByUser(userID, limit)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list transcripts", "user_id", userID, "err", err)
		return nil, err
	}
	if out == nil {
		out = []*domain.Transcript{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.TranscriptID) (*domain.Transcript, error) {
	if s.store == nil {
		return nil, domain.ErrTranscriptNotFound
	}
	return s.store.GetTranscript(id)
}
