package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
)

// GeminiConfig selects how the client authenticates.
// APIKeys wins over the Vertex project when both are set.
type GeminiConfig struct {
	APIKeys   []string
	Project   string
	Location  string
	ModelName string
}

// GeminiClient implements domain.AssistantBackend on the Gemini API.
// With several API keys, each call picks one uniformly at random.
type GeminiClient struct {
	clients   []*genai.Client
	modelName string
	rnd       domain.Rand
}

// NewGeminiClient builds one genai client per credential. With no credential
// the client is still returned and every Query reports NotConfigured.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, rnd domain.Rand) (*GeminiClient, error) {
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	g := &GeminiClient{
		modelName: modelName,
		rnd:       rnd,
	}

	switch {
	case len(cfg.APIKeys) > 0:
		for i, key := range cfg.APIKeys {
			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  key,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				return nil, fmt.Errorf("creating Gemini client for key %d: %w", i, err)
			}
			g.clients = append(g.clients, client)
		}
	case cfg.Project != "":
		if cfg.Location == "" {
			return nil, fmt.Errorf("vertex location is required with project %q", cfg.Project)
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating Vertex AI client: %w", err)
		}
		g.clients = append(g.clients, client)
	}

	return g, nil
}

// Configured reports whether at least one credential is available.
func (g *GeminiClient) Configured() bool {
	return len(g.clients) > 0
}

// Query implements domain.AssistantBackend. There is no retry: one failed
// call surfaces exactly one error.
func (g *GeminiClient) Query(ctx context.Context, userText string) (string, error) {
	if len(g.clients) == 0 {
		return "", &domain.BackendError{Kind: domain.KindNotConfigured, Err: domain.ErrNotConfigured}
	}

	idx := g.pick()
	log := observability.LoggerFromContext(ctx).With("model", g.modelName, "credential", idx)

	start := time.Now()
	res, err := g.clients[idx].Models.GenerateContent(ctx, g.modelName, genai.Text(BuildPrompt(userText)), nil)
	elapsed := time.Since(start)

	if err != nil {
		be := Classify(err)
		observability.ObserveBackendCall(string(be.Kind), elapsed)
		log.Warn("gemini generate content failed", "kind", be.Kind, "status", be.Status, "error", err)
		return "", be
	}

	text := res.Text()
	if text == "" {
		observability.ObserveBackendCall(string(domain.KindUnclassified), elapsed)
		return "", &domain.BackendError{Kind: domain.KindUnclassified, Err: fmt.Errorf("gemini returned empty text")}
	}

	observability.ObserveBackendCall("ok", elapsed)
	log.Info("gemini reply received", "elapsed_ms", elapsed.Milliseconds(), "chars", len(text))
	return text, nil
}

// pick returns the index of the credential used for one call.
func (g *GeminiClient) pick() int {
	if len(g.clients) < 2 || g.rnd == nil {
		return 0
	}
	return g.rnd.IntN(len(g.clients))
}
