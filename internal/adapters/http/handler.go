package httpadapter

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/ai-accountant/internal/adapters/live"
	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/app/transcripts"
	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
)

const assistantKey = "assistant"

type Server struct {
	registry    *conversation.Registry
	hub         *live.Hub
	transcripts *transcripts.Service
}

// Config holds the HTTP-only settings.
type Config struct {
	AllowedOrigins []string
}

func NewServer(registry *conversation.Registry, hub *live.Hub, transcriptSvc *transcripts.Service, cfg Config) http.Handler {
	s := &Server{
		registry:    registry,
		hub:         hub,
		transcripts: transcriptSvc,
	}

	router := gin.New()
	router.Use(gin.Recovery(), withRequestID(), withLogging(), withCORS(cfg.AllowedOrigins))

	router.GET("/healthz", s.handleHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/dashboard", s.handleDashboard)
	router.GET("/dashboard/stats/:key", s.handleStatCard)

	router.POST("/assistants", s.handleCreateAssistant)

	assistant := router.Group("/assistants/:id", s.loadAssistant)
	{
		assistant.GET("", s.handleGetAssistant)
		assistant.DELETE("", s.handleDeleteAssistant)
		assistant.POST("/chat", s.handleStartChat)
		assistant.DELETE("/chat", s.handleEndChat)
		assistant.POST("/turns", s.handleSubmitTurn)
		assistant.PUT("/input", s.handleSetInput)
		assistant.POST("/mic", s.handleToggleMic)
		assistant.PUT("/copilot", s.handleSetCoPilot)
		assistant.POST("/language", s.handleToggleLanguage)
		assistant.POST("/maps", s.handleAnalyzeMap)
		assistant.DELETE("/toast", s.handleDismissToast)
		assistant.GET("/live", s.handleLive)
	}

	router.GET("/users/:id/assistants", s.handleListAssistants)
	router.GET("/users/:id/transcripts", s.handleListTranscripts)
	router.GET("/transcripts/:id", s.handleGetTranscript)

	return router
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createAssistantRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type textRequest struct {
	Text string `json:"text"`
}

type coPilotRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type analyzeMapRequest struct {
	FileName string `json:"file_name" binding:"required"`
}

type dashboardResponse struct {
	Stats            []domain.StatCard        `json:"stats"`
	SuggestedPrompts []domain.SuggestedPrompt `json:"suggested_prompts"`
}

type assistantSummary struct {
	ID       domain.AssistantID `json:"id"`
	UserID   domain.UserID      `json:"user_id"`
	Mode     domain.ViewMode    `json:"mode"`
	Messages int                `json:"messages"`
	Thinking bool               `json:"thinking"`
}

type assistantsResponse struct {
	Assistants []assistantSummary `json:"assistants"`
}

type transcriptsResponse struct {
	Transcripts []*domain.Transcript `json:"transcripts"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, dashboardResponse{
		Stats:            domain.StatCards(),
		SuggestedPrompts: domain.SuggestedPrompts(),
	})
}

func (s *Server) handleStatCard(c *gin.Context) {
	category, ok := domain.StatCategoryByKey(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stat card"})
		return
	}
	c.JSON(http.StatusOK, category.Card())
}

func (s *Server) handleCreateAssistant(c *gin.Context) {
	var req createAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id is required")
		return
	}

	ctrl, err := s.registry.Create(c.Request.Context(), domain.UserID(req.UserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ctrl.Snapshot())
}

func (s *Server) handleGetAssistant(c *gin.Context) {
	c.JSON(http.StatusOK, assistantFrom(c).Snapshot())
}

func (s *Server) handleDeleteAssistant(c *gin.Context) {
	if err := s.registry.Remove(c.Request.Context(), assistantFrom(c).ID()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStartChat(c *gin.Context) {
	ctrl := assistantFrom(c)
	ctrl.StartChat(c.Request.Context())
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleEndChat(c *gin.Context) {
	ctrl := assistantFrom(c)
	ctrl.EndSession(c.Request.Context())
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleSubmitTurn(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	ctrl := assistantFrom(c)
	if err := ctrl.SubmitTurn(c.Request.Context(), req.Text); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ctrl.Snapshot())
}

func (s *Server) handleSetInput(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	ctrl := assistantFrom(c)
	ctrl.SetInput(req.Text)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleToggleMic(c *gin.Context) {
	ctrl := assistantFrom(c)
	if err := ctrl.ToggleMic(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleSetCoPilot(c *gin.Context) {
	var req coPilotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "enabled is required")
		return
	}

	ctrl := assistantFrom(c)
	ctrl.SetCoPilot(*req.Enabled)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleToggleLanguage(c *gin.Context) {
	ctrl := assistantFrom(c)
	ctrl.ToggleLanguage()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleAnalyzeMap(c *gin.Context) {
	var req analyzeMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "file_name is required")
		return
	}

	ctrl := assistantFrom(c)
	if err := ctrl.AnalyzeMap(c.Request.Context(), req.FileName); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ctrl.Snapshot())
}

func (s *Server) handleDismissToast(c *gin.Context) {
	ctrl := assistantFrom(c)
	ctrl.DismissToast()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleLive(c *gin.Context) {
	if err := s.hub.Serve(c.Writer, c.Request, assistantFrom(c).ID()); err != nil {
		writeError(c, err)
	}
}

func (s *Server) handleListAssistants(c *gin.Context) {
	ctrls := s.registry.ListByUser(domain.UserID(c.Param("id")))
	slices.SortFunc(ctrls, func(a, b *conversation.Controller) int {
		return strings.Compare(string(a.ID()), string(b.ID()))
	})

	out := make([]assistantSummary, 0, len(ctrls))
	for _, ctrl := range ctrls {
		snap := ctrl.Snapshot()
		out = append(out, assistantSummary{
			ID:       ctrl.ID(),
			UserID:   ctrl.UserID(),
			Mode:     snap.Mode,
			Messages: len(snap.Messages),
			Thinking: snap.Thinking,
		})
	}
	c.JSON(http.StatusOK, assistantsResponse{Assistants: out})
}

func (s *Server) handleListTranscripts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	out, err := s.transcripts.ListByUser(c.Request.Context(), domain.UserID(c.Param("id")), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcriptsResponse{Transcripts: out})
}

func (s *Server) handleGetTranscript(c *gin.Context) {
	t, err := s.transcripts.Get(c.Request.Context(), domain.TranscriptID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// loadAssistant resolves :id to a live controller or answers 404.
func (s *Server) loadAssistant(c *gin.Context) {
	ctrl, err := s.registry.Get(domain.AssistantID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		c.Abort()
		return
	}
	c.Set(assistantKey, ctrl)
	c.Next()
}

func assistantFrom(c *gin.Context) *conversation.Controller {
	return c.MustGet(assistantKey).(*conversation.Controller)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// writeError maps domain errors onto status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyTurn), errors.Is(err, domain.ErrMissingFileName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAssistantNotFound), errors.Is(err, domain.ErrTranscriptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTurnInFlight), errors.Is(err, domain.ErrSpeechUnsupported):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		observability.LoggerFromContext(c.Request.Context()).Error("request failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
