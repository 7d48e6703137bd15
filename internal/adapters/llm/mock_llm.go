package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// MockLLM is an offline backend for local development and tests.
// A query containing "#quota", "#network" or "#fail" fails with that kind.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Query(ctx context.Context, userText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Classify(err)
	}

	lower := strings.ToLower(userText)
	switch {
	case strings.Contains(lower, "#quota"):
		return "", &domain.BackendError{Kind: domain.KindQuotaExceeded, Status: 429, Err: fmt.Errorf("mock quota exhausted")}
	case strings.Contains(lower, "#network"):
		return "", &domain.BackendError{Kind: domain.KindNetwork, Err: fmt.Errorf("mock network unreachable")}
	case strings.Contains(lower, "#fail"):
		return "", &domain.BackendError{Kind: domain.KindUnclassified, Status: 500, Err: fmt.Errorf("mock internal error")}
	}

	return fmt.Sprintf("**Mock analysis**\n\nYou asked: %q.\n\n- Revenue is up 5.2%% this quarter.\n- Expenses grew 2.1%%.", userText), nil
}
