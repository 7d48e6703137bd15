package conversation

import (
	"context"
	"sync"

	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
)

// Factory builds the controller for a newly created assistant.
type Factory func(id domain.AssistantID, userID domain.UserID) (*Controller, error)

// Registry keeps the live controllers of the process.
type Registry struct {
	mu         sync.RWMutex
	assistants map[domain.AssistantID]*Controller
	factory    Factory
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		assistants: make(map[domain.AssistantID]*Controller),
		factory:    factory,
	}
}

func (r *Registry) Create(ctx context.Context, userID domain.UserID) (*Controller, error) {
	id := domain.AssistantID(newID())
	ctrl, err := r.factory(id, userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.assistants[id] = ctrl
	r.mu.Unlock()

	observability.ActiveAssistants.Inc()
	observability.LoggerFromContext(ctx).Info("assistant created", "assistant_id", id, "user_id", userID)
	return ctrl, nil
}

func (r *Registry) Get(id domain.AssistantID) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctrl, ok := r.assistants[id]
	if !ok {
		return nil, domain.ErrAssistantNotFound
	}
	return ctrl, nil
}

// Remove ends the assistant's session and forgets it.
func (r *Registry) Remove(ctx context.Context, id domain.AssistantID) error {
	r.mu.Lock()
	ctrl, ok := r.assistants[id]
	delete(r.assistants, id)
	r.mu.Unlock()

	if !ok {
		return domain.ErrAssistantNotFound
	}

	ctrl.Close(ctx)
	observability.ActiveAssistants.Dec()
	return nil
}

func (r *Registry) ListByUser(userID domain.UserID) []*Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Controller
	for _, ctrl := range r.assistants {
		if ctrl.userID == userID {
			result = append(result, ctrl)
		}
	}
	return result
}

// CloseAll removes every assistant, archiving open sessions.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	all := r.assistants
	r.assistants = make(map[domain.AssistantID]*Controller)
	r.mu.Unlock()

	for _, ctrl := range all {
		ctrl.Close(ctx)
		observability.ActiveAssistants.Dec()
	}
}
