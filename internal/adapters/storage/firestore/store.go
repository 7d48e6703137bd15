package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (ACCOUNTANT_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) transcriptsCol() *firestore.CollectionRef {
	return s.client.Collection("transcripts")
}

func (s *Store) transcriptDoc(id domain.TranscriptID) *firestore.DocumentRef {
	return s.transcriptsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type transcriptDoc struct {
	AssistantID string       `firestore:"assistant_id"`
	UserID      string       `firestore:"user_id"`
	StartedAt   time.Time    `firestore:"started_at"`
	EndedAt     time.Time    `firestore:"ended_at"`
	Messages    []messageDoc `firestore:"messages"`
}

type messageDoc struct {
	ID        string         `firestore:"id"`
	Role      string         `firestore:"role"`
	Text      string         `firestore:"text,omitempty"`
	RichKind  string         `firestore:"rich_kind,omitempty"`
	RichData  map[string]any `firestore:"rich_data,omitempty"`
	CreatedAt time.Time      `firestore:"created_at"`
}

func toDoc(t *domain.Transcript) transcriptDoc {
	doc := transcriptDoc{
		AssistantID: string(t.AssistantID),
		UserID:      string(t.UserID),
		StartedAt:   t.StartedAt,
		EndedAt:     t.EndedAt,
		Messages:    make([]messageDoc, 0, len(t.Messages)),
	}
	for _, m := range t.Messages {
		md := messageDoc{
			ID:        string(m.ID),
			Role:      string(m.Role),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		}
		if m.Rich != nil {
			md.RichKind = string(m.Rich.Kind)
			md.RichData = m.Rich.Data
		}
		doc.Messages = append(doc.Messages, md)
	}
	return doc
}

func fromDoc(id string, doc transcriptDoc) *domain.Transcript {
	t := &domain.Transcript{
		ID:          domain.TranscriptID(id),
		AssistantID: domain.AssistantID(doc.AssistantID),
		UserID:      domain.UserID(doc.UserID),
		StartedAt:   doc.StartedAt,
		EndedAt:     doc.EndedAt,
		Messages:    make([]domain.ChatMessage, 0, len(doc.Messages)),
	}
	for _, md := range doc.Messages {
		m := domain.ChatMessage{
			ID:        domain.MessageID(md.ID),
			Role:      domain.Role(md.Role),
			Text:      md.Text,
			CreatedAt: md.CreatedAt,
		}
		if md.RichKind != "" {
			m.Rich = &domain.RichContent{Kind: domain.RichKind(md.RichKind), Data: md.RichData}
		}
		t.Messages = append(t.Messages, m)
	}
	return t
}

// ─────────────────────────────────────────
// TranscriptStore implementation
// ─────────────────────────────────────────

func (s *Store) ArchiveTranscript(t *domain.Transcript) error {
	ctx := context.Background()

	_, err := s.transcriptDoc(t.ID).Create(ctx, toDoc(t))
	if err != nil {
		return fmt.Errorf("firestore ArchiveTranscript: %w", err)
	}
	return nil
}

func (s *Store) GetTranscript(id domain.TranscriptID) (*domain.Transcript, error) {
	ctx := context.Background()

	snap, err := s.transcriptDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("firestore GetTranscript: %w", err)
	}

	var doc transcriptDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetTranscript decode: %w", err)
	}
	return fromDoc(snap.Ref.ID, doc), nil
}

func (s *Store) ListTranscriptsByUser(userID domain.UserID, limit int) ([]*domain.Transcript, error) {
	ctx := context.Background()

	q := s.transcriptsCol().Where("user_id", "==", string(userID)).OrderBy("ended_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Transcript
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListTranscriptsByUser: %w", err)
		}

		var doc transcriptDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode transcriptDoc: %w", err)
		}
		out = append(out, fromDoc(snap.Ref.ID, doc))
	}
	return out, nil
}
