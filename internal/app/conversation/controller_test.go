package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/domain"
)

type harness struct {
	ctrl    *conversation.Controller
	clock   *fakeClock
	backend *fakeBackend
	capture *fakeCapture
	output  *fakeOutput
	archive *fakeArchive
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:   newFakeClock(),
		backend: &fakeBackend{},
		capture: &fakeCapture{supported: true},
		output:  &fakeOutput{},
		archive: &fakeArchive{},
	}
	h.ctrl = conversation.NewController("assistant-1", "user-1", conversation.Deps{
		Backend: h.backend,
		Capture: h.capture,
		Output:  h.output,
		Archive: h.archive,
		Clock:   h.clock,
		Rand:    firstIndex{},
	}, conversation.DefaultOptions())
	return h
}

func (h *harness) waitIdle(t *testing.T) conversation.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return !h.ctrl.Snapshot().Thinking
	}, time.Second, 5*time.Millisecond)
	return h.ctrl.Snapshot()
}

func failWith(kind domain.BackendErrorKind) func(string) (string, error) {
	return func(string) (string, error) {
		return "", &domain.BackendError{Kind: kind, Err: errors.New("backend said no")}
	}
}

func TestSubmitTurnAppendsReply(t *testing.T) {
	h := newHarness(t)
	h.backend.gate = make(chan struct{})
	ctx := context.Background()

	h.ctrl.SetInput("What is my revenue?")
	require.NoError(t, h.ctrl.SubmitTurn(ctx, "  What is my revenue?  "))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.ModeChat, snap.Mode)
	assert.True(t, snap.Thinking)
	assert.Empty(t, snap.Input)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, domain.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "What is my revenue?", snap.Messages[0].Text)

	close(h.backend.gate)
	snap = h.waitIdle(t)

	require.Len(t, snap.Messages, 2)
	reply := snap.Messages[1]
	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, "Here is your analysis.", reply.Text)
	assert.Nil(t, reply.Rich)
	assert.NotEqual(t, snap.Messages[0].ID, reply.ID)
	assert.False(t, snap.Toast.Visible)
	assert.Empty(t, h.output.Spoken(), "replies are only spoken in co-pilot mode")
	assert.Equal(t, []string{"What is my revenue?"}, h.backend.Calls())
}

func TestSubmitTurnIgnoresBlankText(t *testing.T) {
	h := newHarness(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		err := h.ctrl.SubmitTurn(context.Background(), text)
		require.ErrorIs(t, err, domain.ErrEmptyTurn)
	}

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.ModeDashboard, snap.Mode)
	assert.Empty(t, snap.Messages)
	assert.Zero(t, snap.Version)
	assert.Empty(t, h.backend.Calls())
}

func TestSubmitTurnIsSingleFlight(t *testing.T) {
	h := newHarness(t)
	h.backend.gate = make(chan struct{})
	ctx := context.Background()

	require.NoError(t, h.ctrl.SubmitTurn(ctx, "first"))
	err := h.ctrl.SubmitTurn(ctx, "second")
	require.ErrorIs(t, err, domain.ErrTurnInFlight)
	assert.Len(t, h.ctrl.Snapshot().Messages, 1)

	close(h.backend.gate)
	snap := h.waitIdle(t)

	assert.Len(t, snap.Messages, 2)
	assert.Equal(t, []string{"first"}, h.backend.Calls())
}

func TestQuotaFallbackMatchesOriginalQuestion(t *testing.T) {
	tests := []struct {
		question string
		section  string
	}{
		{"How did revenue move?", "Revenue Analysis"},
		{"Break down my INCOME", "Revenue Analysis"},
		{"List the biggest expenses", "Expense Analysis"},
		{"Where can I cut cost?", "Expense Analysis"},
		{"Forecast next quarter", "Financial Forecasting"},
		{"Can you predict churn?", "Financial Forecasting"},
		{"Hello there", "General Financial Guidance"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			h := newHarness(t)
			h.backend.respond = failWith(domain.KindQuotaExceeded)

			require.NoError(t, h.ctrl.SubmitTurn(context.Background(), tt.question))
			snap := h.waitIdle(t)

			require.Len(t, snap.Messages, 2)
			body := snap.Messages[1].Text
			assert.Contains(t, body, "API Quota Exceeded")
			assert.Contains(t, body, tt.section)
			assert.True(t, snap.Toast.Visible)
			assert.Equal(t, domain.SeverityWarning, snap.Toast.Severity)
		})
	}
}

func TestBackendFailuresUseGenericFallbacks(t *testing.T) {
	tests := []struct {
		kind domain.BackendErrorKind
		want string
	}{
		{domain.KindNetwork, "Network Connection Issue"},
		{domain.KindUnclassified, "Technical Difficulty"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			h := newHarness(t)
			h.backend.respond = failWith(tt.kind)

			require.NoError(t, h.ctrl.SubmitTurn(context.Background(), "What about revenue?"))
			snap := h.waitIdle(t)

			require.Len(t, snap.Messages, 2)
			assert.Contains(t, snap.Messages[1].Text, tt.want)
			assert.NotContains(t, snap.Messages[1].Text, "Revenue Analysis")
			assert.Equal(t, domain.Toast{
				Message:  "AI service temporarily unavailable. Using fallback response.",
				Severity: domain.SeverityWarning,
				Visible:  true,
			}, snap.Toast)
		})
	}
}

func TestUnexpectedErrorsRaiseErrorToast(t *testing.T) {
	tests := map[string]func(string) (string, error){
		"plain error": func(string) (string, error) { return "", errors.New("boom") },
		"panic":       func(string) (string, error) { panic("nil map write") },
	}

	for name, respond := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.backend.respond = respond

			require.NoError(t, h.ctrl.SubmitTurn(context.Background(), "hello"))
			snap := h.waitIdle(t)

			require.Len(t, snap.Messages, 2)
			assert.Contains(t, snap.Messages[1].Text, "Unexpected Error")
			assert.True(t, snap.Toast.Visible)
			assert.Equal(t, domain.SeverityError, snap.Toast.Severity)
		})
	}
}

func TestToastHidesAfterFiveSeconds(t *testing.T) {
	h := newHarness(t)
	h.backend.respond = failWith(domain.KindNetwork)

	require.NoError(t, h.ctrl.SubmitTurn(context.Background(), "hello"))
	require.True(t, h.waitIdle(t).Toast.Visible)

	h.clock.Advance(4999 * time.Millisecond)
	assert.True(t, h.ctrl.Snapshot().Toast.Visible)

	h.clock.Advance(time.Millisecond)
	assert.False(t, h.ctrl.Snapshot().Toast.Visible)
}

func TestNewerToastOwnsHideTimer(t *testing.T) {
	h := newHarness(t)
	h.backend.respond = failWith(domain.KindNetwork)
	ctx := context.Background()

	require.NoError(t, h.ctrl.SubmitTurn(ctx, "one"))
	h.waitIdle(t)

	h.clock.Advance(3 * time.Second)
	require.NoError(t, h.ctrl.SubmitTurn(ctx, "two"))
	h.waitIdle(t)

	// The first toast's deadline passes without hiding the second one.
	h.clock.Advance(2500 * time.Millisecond)
	assert.True(t, h.ctrl.Snapshot().Toast.Visible)

	h.clock.Advance(2500 * time.Millisecond)
	assert.False(t, h.ctrl.Snapshot().Toast.Visible)
}

func TestDismissToast(t *testing.T) {
	h := newHarness(t)
	h.backend.respond = failWith(domain.KindNetwork)

	require.NoError(t, h.ctrl.SubmitTurn(context.Background(), "hello"))
	require.True(t, h.waitIdle(t).Toast.Visible)

	h.ctrl.DismissToast()
	assert.False(t, h.ctrl.Snapshot().Toast.Visible)
	assert.Zero(t, h.clock.Pending())
}

func TestNotConfiguredRepliesWithSetupMessageAfterDelay(t *testing.T) {
	h := newHarness(t)
	h.backend.respond = func(string) (string, error) { return "", domain.ErrNotConfigured }

	require.NoError(t, h.ctrl.SubmitTurn(context.Background(), "What is my revenue?"))
	require.Eventually(t, func() bool { return h.clock.Pending() == 1 }, time.Second, 5*time.Millisecond)

	h.clock.Advance(1499 * time.Millisecond)
	snap := h.ctrl.Snapshot()
	assert.True(t, snap.Thinking)
	assert.Len(t, snap.Messages, 1)

	h.clock.Advance(time.Millisecond)
	snap = h.ctrl.Snapshot()
	assert.False(t, snap.Thinking)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, conversation.SetupRequiredMessage, snap.Messages[1].Text)
	assert.False(t, snap.Toast.Visible)
}

func TestEndSessionDropsStaleReply(t *testing.T) {
	h := newHarness(t)
	h.backend.gate = make(chan struct{})
	ctx := context.Background()

	require.NoError(t, h.ctrl.SubmitTurn(ctx, "slow question"))
	h.ctrl.EndSession(ctx)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.ModeDashboard, snap.Mode)
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.Thinking)

	close(h.backend.gate)
	assert.Never(t, func() bool {
		return len(h.ctrl.Snapshot().Messages) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)

	// A new session is unaffected by the old reply.
	require.NoError(t, h.ctrl.SubmitTurn(ctx, "fresh question"))
	snap = h.waitIdle(t)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "fresh question", snap.Messages[0].Text)
}

func TestEndSessionArchivesTranscript(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	started := h.clock.Now()

	require.NoError(t, h.ctrl.SubmitTurn(ctx, "Show me net profit"))
	h.waitIdle(t)
	h.clock.Advance(time.Minute)

	h.ctrl.EndSession(ctx)

	saved, err := h.archive.ListTranscriptsByUser("user-1", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, domain.AssistantID("assistant-1"), saved[0].AssistantID)
	assert.Equal(t, domain.UserID("user-1"), saved[0].UserID)
	assert.Equal(t, started, saved[0].StartedAt)
	assert.Equal(t, started.Add(time.Minute), saved[0].EndedAt)
	assert.Len(t, saved[0].Messages, 2)

	// Nothing to archive for an empty session.
	h.ctrl.EndSession(ctx)
	saved, _ = h.archive.ListTranscriptsByUser("user-1", 0)
	assert.Len(t, saved, 1)
}

func TestEndSessionResetsEvenWhenArchiveFails(t *testing.T) {
	h := newHarness(t)
	h.archive.failed = errors.New("firestore unavailable")
	ctx := context.Background()

	require.NoError(t, h.ctrl.SubmitTurn(ctx, "hello"))
	h.waitIdle(t)
	h.ctrl.EndSession(ctx)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.ModeDashboard, snap.Mode)
	assert.Empty(t, snap.Messages)
}

func TestStartChat(t *testing.T) {
	h := newHarness(t)

	h.ctrl.StartChat(context.Background())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.ModeChat, snap.Mode)
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.Thinking)
}

func TestAnalyzeMap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.ErrorIs(t, h.ctrl.AnalyzeMap(ctx, "  "), domain.ErrMissingFileName)
	require.NoError(t, h.ctrl.AnalyzeMap(ctx, "aquifer.png"))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.ModeChat, snap.Mode)
	assert.True(t, snap.Thinking)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "Analyzing map: aquifer.png", snap.Messages[0].Text)
	require.ErrorIs(t, h.ctrl.SubmitTurn(ctx, "are you done?"), domain.ErrTurnInFlight)

	h.clock.Advance(3999 * time.Millisecond)
	assert.True(t, h.ctrl.Snapshot().Thinking)

	h.clock.Advance(time.Millisecond)
	snap = h.ctrl.Snapshot()
	assert.False(t, snap.Thinking)
	require.Len(t, snap.Messages, 2)
	reply := snap.Messages[1]
	assert.Empty(t, reply.Text)
	require.NotNil(t, reply.Rich)
	assert.Equal(t, domain.RichHydrogeologicalChart, reply.Rich.Kind)
	assert.Equal(t, "aquifer.png", reply.Rich.Data["file_name"])
	assert.Empty(t, h.backend.Calls())
}

func TestAnalyzeMapDroppedWhenSessionEnds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.ctrl.AnalyzeMap(ctx, "aquifer.png"))
	h.ctrl.EndSession(ctx)
	h.clock.Advance(4 * time.Second)

	assert.Empty(t, h.ctrl.Snapshot().Messages)
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.SubmitTurn(context.Background(), "hello"))
	snap := h.waitIdle(t)

	snap.Messages[0].Text = "tampered"

	assert.Equal(t, "hello", h.ctrl.Snapshot().Messages[0].Text)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	h := newHarness(t)

	var got []conversation.Snapshot
	cancel := h.ctrl.Subscribe(func(s conversation.Snapshot) {
		got = append(got, s)
	})

	h.ctrl.SetInput("rev")
	require.Len(t, got, 1)
	assert.Equal(t, "rev", got[0].Input)

	h.ctrl.SetInput("rev")
	assert.Len(t, got, 1, "no notification without a change")

	cancel()
	h.ctrl.SetInput("revenue")
	assert.Len(t, got, 1)
}

func TestCloseRunsClosers(t *testing.T) {
	h := newHarness(t)
	closed := 0
	h.ctrl.OnClose(func() { closed++ })

	h.ctrl.Close(context.Background())

	assert.Equal(t, 1, closed)
	assert.Equal(t, domain.ModeDashboard, h.ctrl.Snapshot().Mode)
}

func TestLongSpokenReplyWithoutRandSource(t *testing.T) {
	output := &fakeOutput{}
	backend := &fakeBackend{respond: func(string) (string, error) {
		return strings.Repeat("Revenue grew this month. ", 12), nil
	}}
	ctrl := conversation.NewController("assistant-1", "user-1", conversation.Deps{
		Backend: backend,
		Output:  output,
		Clock:   newFakeClock(),
	}, conversation.DefaultOptions())

	var (
		mu   sync.Mutex
		seen int
	)
	ctrl.Subscribe(func(s conversation.Snapshot) {
		mu.Lock()
		seen = max(seen, len(s.Messages))
		mu.Unlock()
	})

	ctrl.SetCoPilot(true)
	require.NoError(t, ctrl.SubmitTurn(context.Background(), "Show revenue"))

	require.Eventually(t, func() bool {
		return len(output.Spoken()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, output.Spoken()[1].Text, "Revenue grew this month.")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen == 2
	}, time.Second, 5*time.Millisecond)
}
