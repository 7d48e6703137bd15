package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/ai-accountant/internal/adapters/http"
	"github.com/PabloGalante/ai-accountant/internal/adapters/live"
	"github.com/PabloGalante/ai-accountant/internal/adapters/llm"
	"github.com/PabloGalante/ai-accountant/internal/adapters/storage/memory"
	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/app/transcripts"
	"github.com/PabloGalante/ai-accountant/internal/domain"
)

type zeroRand struct{}

func (zeroRand) IntN(int) int { return 0 }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewTranscriptStore()
	hub := live.NewHub(live.Config{})
	registry := conversation.NewRegistry(hub.ControllerFactory(conversation.Deps{
		Backend: llm.NewMockLLM(),
		Archive: store,
		Clock:   conversation.SystemClock{},
		Rand:    zeroRand{},
	}, conversation.DefaultOptions()))
	t.Cleanup(func() { registry.CloseAll(context.Background()) })

	return httpadapter.NewServer(registry, hub, transcripts.NewService(store), httpadapter.Config{})
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) conversation.Snapshot {
	t.Helper()
	var snap conversation.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap), w.Body.String())
	return snap
}

func createAssistant(t *testing.T, srv http.Handler) string {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/assistants", `{"user_id":"test-user"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	require.NotEmpty(t, snap.AssistantID)
	return string(snap.AssistantID)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodGet, "/healthz", "")

	w := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accountant_http_requests_total")
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Stats   []domain.StatCard        `json:"stats"`
		Prompts []domain.SuggestedPrompt `json:"suggested_prompts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Stats, 4)
	assert.Equal(t, "Total Revenue", body.Stats[0].Title)
	assert.Equal(t, int64(660000), body.Stats[0].Value)
	assert.Len(t, body.Prompts, 4)
}

func TestStatCard(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/dashboard/stats/net_profit", "")
	require.Equal(t, http.StatusOK, w.Code)
	var card domain.StatCard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, "Net Profit", card.Title)
	assert.Equal(t, "+6.8%", card.Change)

	w = do(t, srv, http.MethodGet, "/dashboard/stats/payroll", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAssistantsByUser(t *testing.T) {
	srv := newTestServer(t)
	first := createAssistant(t, srv)
	second := createAssistant(t, srv)
	do(t, srv, http.MethodPost, "/assistants", `{"user_id":"someone-else"}`)

	w := do(t, srv, http.MethodGet, "/users/test-user/assistants", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Assistants []struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
			Mode   string `json:"mode"`
		} `json:"assistants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Assistants, 2)
	assert.ElementsMatch(t, []string{first, second}, []string{body.Assistants[0].ID, body.Assistants[1].ID})
	for _, a := range body.Assistants {
		assert.Equal(t, "test-user", a.UserID)
		assert.Equal(t, "dashboard", a.Mode)
	}

	w = do(t, srv, http.MethodGet, "/users/nobody/assistants", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"assistants":[]}`, w.Body.String())
}

func TestCreateAssistantRequiresUser(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/assistants", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownAssistant(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/assistants/nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitTurnFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createAssistant(t, srv)

	w := do(t, srv, http.MethodPost, "/assistants/"+id+"/turns", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/assistants/"+id+"/turns", `{"text":"Show revenue"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	assert.Equal(t, domain.ModeChat, snap.Mode)

	require.Eventually(t, func() bool {
		snap := decodeSnapshot(t, do(t, srv, http.MethodGet, "/assistants/"+id, ""))
		return !snap.Thinking && len(snap.Messages) == 2
	}, 2*time.Second, 10*time.Millisecond)

	w = do(t, srv, http.MethodDelete, "/assistants/"+id+"/chat", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	assert.Equal(t, domain.ModeDashboard, snap.Mode)
	assert.Empty(t, snap.Messages)

	w = do(t, srv, http.MethodGet, "/users/test-user/transcripts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Transcripts []domain.Transcript `json:"transcripts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Transcripts, 1)
	assert.Len(t, list.Transcripts[0].Messages, 2)

	w = do(t, srv, http.MethodGet, "/transcripts/"+string(list.Transcripts[0].ID), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitTurnWhileThinkingConflicts(t *testing.T) {
	srv := newTestServer(t)
	id := createAssistant(t, srv)

	w := do(t, srv, http.MethodPost, "/assistants/"+id+"/maps", `{"file_name":"aquifer.png"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, srv, http.MethodPost, "/assistants/"+id+"/turns", `{"text":"hello"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVoiceEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createAssistant(t, srv)

	// No browser attached, so there is no recognition engine.
	w := do(t, srv, http.MethodPost, "/assistants/"+id+"/mic", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, srv, http.MethodPut, "/assistants/"+id+"/copilot", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPut, "/assistants/"+id+"/copilot", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeSnapshot(t, w).Voice.CoPilotEnabled)

	w = do(t, srv, http.MethodPost, "/assistants/"+id+"/language", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.LocaleHindiIN, decodeSnapshot(t, w).Voice.Language)

	w = do(t, srv, http.MethodPut, "/assistants/"+id+"/input", `{"text":"draft"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "draft", decodeSnapshot(t, w).Input)
}

func TestDeleteAssistant(t *testing.T) {
	srv := newTestServer(t)
	id := createAssistant(t, srv)

	w := do(t, srv, http.MethodDelete, "/assistants/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodGet, "/assistants/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTranscriptsRejectsBadLimit(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/users/test-user/transcripts?limit=abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
