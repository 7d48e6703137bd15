package main

import (
	"context"
	"log/slog"

	"github.com/PabloGalante/ai-accountant/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/ai-accountant/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/ai-accountant/internal/adapters/storage/memory"
	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/config"
	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// newBackend picks the mock or the Gemini client. A Gemini client without
// credentials is still returned; its replies ask the user to finish setup.
func newBackend(ctx context.Context, cfg *config.Config, rnd domain.Rand, log *slog.Logger) (domain.AssistantBackend, error) {
	if cfg.UseMockLLM {
		log.Info("using mock LLM backend")
		return llm.NewMockLLM(), nil
	}

	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKeys:   cfg.APIKeys(),
		Project:   cfg.VertexProject,
		Location:  cfg.VertexLocation,
		ModelName: cfg.ModelName,
	}, rnd)
	if err != nil {
		return nil, err
	}

	if client.Configured() {
		log.Info("using Gemini backend", "model", cfg.ModelName, "api_keys", len(cfg.APIKeys()), "vertex_project", cfg.VertexProject)
	} else {
		log.Warn("no Gemini credentials configured, replies will ask for setup")
	}
	return client, nil
}

// newArchive opens the transcript store. The returned func releases it.
func newArchive(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.TranscriptStore, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageFirestore:
		log.Info("using Firestore transcript archive", "project", cfg.GCPProjectID)
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn("closing firestore client", "err", err)
			}
		}, nil
	default:
		log.Info("using in-memory transcript archive")
		return memstore.NewTranscriptStore(), func() {}, nil
	}
}

func controllerOptions(cfg *config.Config) conversation.Options {
	opts := conversation.DefaultOptions()
	opts.Language = cfg.Locale()
	opts.QueryTimeout = cfg.BackendTimeout
	return opts
}
