package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
	"github.com/PabloGalante/ai-accountant/internal/randsrc"
)

// Deps are the ports a Controller drives. Archive is optional.
type Deps struct {
	Backend domain.AssistantBackend
	Capture domain.SpeechCapture
	Output  domain.SpeechOutput
	Archive domain.TranscriptStore
	Clock   domain.Clock
	Rand    domain.Rand
}

// Options tune the controller's timings.
type Options struct {
	Language         domain.Locale
	QueryTimeout     time.Duration
	SettleDelay      time.Duration // between stopping capture and submitting its transcript
	SetupDelay       time.Duration // simulated latency before the "Setup Required" reply
	ToastTTL         time.Duration
	MapAnalysisDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		Language:         domain.LocaleEnglishUS,
		QueryTimeout:     60 * time.Second,
		SettleDelay:      300 * time.Millisecond,
		SetupDelay:       1500 * time.Millisecond,
		ToastTTL:         5 * time.Second,
		MapAnalysisDelay: 4 * time.Second,
	}
}

// Snapshot is a copy of everything a presentation layer renders.
type Snapshot struct {
	AssistantID     domain.AssistantID    `json:"assistant_id"`
	UserID          domain.UserID         `json:"user_id"`
	Version         uint64                `json:"version"`
	Mode            domain.ViewMode       `json:"mode"`
	Messages        []domain.ChatMessage  `json:"messages"`
	Thinking        bool                  `json:"thinking"`
	Input           string                `json:"input"`
	Mic             domain.MicState       `json:"mic"`
	Voice           domain.VoiceLoopState `json:"voice"`
	Toast           domain.Toast          `json:"toast"`
	SpeechSupported bool                  `json:"speech_supported"`
}

// Controller owns one conversation session and its voice loop.
//
// State is guarded by mu. Adapter calls and observer notifications are
// collected as effects and run after mu is released, so adapters may call
// back into the controller synchronously.
type Controller struct {
	id      domain.AssistantID
	userID  domain.UserID
	backend domain.AssistantBackend
	capture domain.SpeechCapture
	output  domain.SpeechOutput
	archive domain.TranscriptStore
	clock   domain.Clock
	rnd     domain.Rand
	opts    Options

	mu         sync.Mutex
	version    uint64
	mode       domain.ViewMode
	messages   []domain.ChatMessage
	startedAt  time.Time
	thinking   bool
	input      string
	epoch      uint64
	mic        domain.MicState
	announceID uint64
	transcript string
	coPilot    bool
	language   domain.Locale
	toast      domain.Toast
	toastGen   uint64
	toastTimer domain.Timer

	obsMu     sync.Mutex
	obsSeq    int
	observers map[int]func(Snapshot)
	closers   []func()
}

var (
	// errSkip aborts an update without a state change or notification.
	errSkip  = errors.New("no change")
	errStale = errors.New("stale completion")
)

type effects []func()

func (fx *effects) add(f func()) {
	*fx = append(*fx, f)
}

func NewController(id domain.AssistantID, userID domain.UserID, deps Deps, opts Options) *Controller {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Capture == nil {
		deps.Capture = unsupportedCapture{}
	}
	if deps.Output == nil {
		deps.Output = silentOutput{}
	}
	if deps.Rand == nil {
		deps.Rand = randsrc.New(0)
	}
	if opts.Language == "" {
		opts.Language = domain.LocaleEnglishUS
	}
	c := &Controller{
		id:        id,
		userID:    userID,
		backend:   deps.Backend,
		capture:   deps.Capture,
		output:    deps.Output,
		archive:   deps.Archive,
		clock:     deps.Clock,
		rnd:       deps.Rand,
		opts:      opts,
		mode:      domain.ModeDashboard,
		mic:       domain.MicIdle,
		language:  opts.Language,
		observers: make(map[int]func(Snapshot)),
	}
	c.capture.OnTranscript(c.handleTranscript)
	return c
}

func (c *Controller) ID() domain.AssistantID { return c.id }

func (c *Controller) UserID() domain.UserID { return c.userID }

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.obsMu.Lock()
	c.obsSeq++
	key := c.obsSeq
	c.observers[key] = fn
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		delete(c.observers, key)
		c.obsMu.Unlock()
	}
}

// OnClose registers fn to run when the controller is closed.
func (c *Controller) OnClose(fn func()) {
	c.obsMu.Lock()
	c.closers = append(c.closers, fn)
	c.obsMu.Unlock()
}

// Close ends the session and releases whatever was registered with OnClose.
func (c *Controller) Close(ctx context.Context) {
	c.EndSession(ctx)

	c.mu.Lock()
	if c.toastTimer != nil {
		c.toastTimer.Stop()
		c.toastTimer = nil
	}
	c.mu.Unlock()

	c.obsMu.Lock()
	closers := c.closers
	c.closers = nil
	c.observers = make(map[int]func(Snapshot))
	c.obsMu.Unlock()

	for _, fn := range closers {
		fn()
	}
}

func (c *Controller) Snapshot() Snapshot {
	supported := c.capture.Supported()

	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		AssistantID: c.id,
		UserID:      c.userID,
		Version:     c.version,
		Mode:        c.mode,
		Messages:    cloneMessages(c.messages),
		Thinking:    c.thinking,
		Input:       c.input,
		Mic:         c.mic,
		Voice: domain.VoiceLoopState{
			CoPilotEnabled:   c.coPilot,
			Listening:        c.mic.Listening(),
			AwaitingFollowUp: c.mic == domain.MicListeningForFollowUp,
			Language:         c.language,
		},
		Toast:           c.toast,
		SpeechSupported: supported,
	}
}

// SubmitTurn appends the user's message and queries the backend in the background.
func (c *Controller) SubmitTurn(ctx context.Context, text string) error {
	return c.submitTurn(ctx, text, nil)
}

// submitTurnIn submits text only if the session identified by epoch is still open.
func (c *Controller) submitTurnIn(ctx context.Context, epoch uint64, text string) error {
	return c.submitTurn(ctx, text, &epoch)
}

func (c *Controller) submitTurn(ctx context.Context, text string, session *uint64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyTurn
	}

	var epoch uint64
	err := c.update(func(fx *effects) error {
		if session != nil && *session != c.epoch {
			return errStale
		}
		if c.thinking {
			return domain.ErrTurnInFlight
		}
		c.enterChatLocked()
		c.appendLocked(domain.ChatMessage{Role: domain.RoleUser, Text: text})
		c.input = ""
		c.thinking = true
		epoch = c.epoch
		fx.add(func() { c.dispatch(ctx, epoch, text) })
		return nil
	})
	if err != nil {
		c.logger(ctx).Info("turn rejected", "err", err)
		return err
	}

	observability.TurnsSubmitted.Inc()
	c.logger(ctx).Info("turn submitted", "epoch", epoch)
	return nil
}

// AnalyzeMap runs the canned map analysis for an uploaded file.
func (c *Controller) AnalyzeMap(ctx context.Context, fileName string) error {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return domain.ErrMissingFileName
	}
	ctx = context.WithoutCancel(ctx)

	var epoch uint64
	err := c.update(func(fx *effects) error {
		if c.thinking {
			return domain.ErrTurnInFlight
		}
		c.enterChatLocked()
		c.appendLocked(domain.ChatMessage{Role: domain.RoleUser, Text: "Analyzing map: " + name})
		c.thinking = true
		epoch = c.epoch
		fx.add(func() {
			c.clock.AfterFunc(c.opts.MapAnalysisDelay, func() {
				reply := domain.ChatMessage{Role: domain.RoleAssistant, Rich: hydrogeologicalChart(name)}
				c.finish(ctx, epoch, reply, nil, false)
			})
		})
		return nil
	})
	if err != nil {
		return err
	}

	c.logger(ctx).Info("map analysis started", "epoch", epoch, "file_name", name)
	return nil
}

// StartChat switches to the chat view.
func (c *Controller) StartChat(ctx context.Context) {
	_ = c.update(func(fx *effects) error {
		if c.mode == domain.ModeChat {
			return errSkip
		}
		c.enterChatLocked()
		return nil
	})
}

// EndSession archives the current history, clears it, and returns to the
// dashboard. Any in-flight reply is dropped when it arrives.
func (c *Controller) EndSession(ctx context.Context) {
	var archived *domain.Transcript

	_ = c.update(func(fx *effects) error {
		if len(c.messages) > 0 && c.archive != nil {
			archived = &domain.Transcript{
				ID:          domain.TranscriptID(newID()),
				AssistantID: c.id,
				UserID:      c.userID,
				StartedAt:   c.startedAt,
				EndedAt:     c.clock.Now(),
				Messages:    cloneMessages(c.messages),
			}
		}

		c.mode = domain.ModeDashboard
		c.messages = nil
		c.startedAt = time.Time{}
		c.thinking = false
		c.input = ""
		c.transcript = ""
		c.epoch++

		if c.mic.Listening() {
			fx.add(c.capture.Stop)
		}
		if c.mic == domain.MicAnnouncing {
			c.announceID++
		}
		c.mic = domain.MicIdle
		fx.add(c.output.Cancel)

		if archived != nil {
			t := archived
			fx.add(func() {
				if err := c.archive.ArchiveTranscript(t); err != nil {
					c.logger(ctx).Error("failed to archive transcript", "transcript_id", t.ID, "err", err)
				}
			})
		}
		return nil
	})

	c.logger(ctx).Info("session ended", "archived", archived != nil)
}

// SetInput replaces the pending input buffer.
func (c *Controller) SetInput(text string) {
	_ = c.update(func(fx *effects) error {
		if c.input == text {
			return errSkip
		}
		c.input = text
		return nil
	})
}

func (c *Controller) DismissToast() {
	_ = c.update(func(fx *effects) error {
		if !c.toast.Visible {
			return errSkip
		}
		c.hideToastLocked()
		return nil
	})
}

func (c *Controller) dispatch(ctx context.Context, epoch uint64, text string) {
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.completeTurn(ctx, epoch, text, "", fmt.Errorf("turn completion panicked: %v", r))
			}
		}()
		reply, err := c.query(ctx, text)
		c.completeTurn(ctx, epoch, text, reply, err)
	}()
}

func (c *Controller) query(ctx context.Context, text string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend query panicked: %v", r)
		}
	}()
	if c.backend == nil {
		return "", &domain.BackendError{Kind: domain.KindNotConfigured, Err: domain.ErrNotConfigured}
	}
	if c.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.QueryTimeout)
		defer cancel()
	}
	return c.backend.Query(ctx, text)
}

func (c *Controller) completeTurn(ctx context.Context, epoch uint64, userText, reply string, err error) {
	log := c.logger(ctx).With("epoch", epoch)

	if err == nil {
		c.finish(ctx, epoch, domain.ChatMessage{Role: domain.RoleAssistant, Text: reply}, nil, true)
		return
	}

	kind, isBackend := domain.BackendErrorKindOf(err)
	switch {
	case !isBackend:
		log.Error("unexpected error during turn", "err", err)
		observability.Fallbacks.WithLabelValues("unexpected", string(TopicUnspecified)).Inc()
		toast := &domain.Toast{Message: unexpectedToast, Severity: domain.SeverityError}
		c.finish(ctx, epoch, domain.ChatMessage{Role: domain.RoleAssistant, Text: unexpectedFallback}, toast, false)

	case kind == domain.KindNotConfigured:
		log.Warn("assistant backend is not configured")
		observability.Fallbacks.WithLabelValues(string(kind), string(TopicUnspecified)).Inc()
		c.clock.AfterFunc(c.opts.SetupDelay, func() {
			c.finish(ctx, epoch, domain.ChatMessage{Role: domain.RoleAssistant, Text: SetupRequiredMessage}, nil, false)
		})

	default:
		body, topic := FallbackMessage(kind, userText)
		log.Warn("assistant backend failed", "kind", kind, "topic", topic, "err", err)
		observability.Fallbacks.WithLabelValues(string(kind), string(topic)).Inc()
		toast := &domain.Toast{Message: backendToast, Severity: domain.SeverityWarning}
		c.finish(ctx, epoch, domain.ChatMessage{Role: domain.RoleAssistant, Text: body}, toast, false)
	}
}

// finish appends the assistant side of the in-flight turn, unless the session
// it belonged to has ended.
func (c *Controller) finish(ctx context.Context, epoch uint64, reply domain.ChatMessage, toast *domain.Toast, speak bool) {
	err := c.update(func(fx *effects) error {
		if epoch != c.epoch || !c.thinking {
			return errStale
		}
		c.appendLocked(reply)
		c.thinking = false
		if toast != nil {
			c.showToastLocked(toast.Message, toast.Severity)
		}
		if speak && c.coPilot && reply.Text != "" {
			locale, text := c.language, reply.Text
			fx.add(func() {
				c.speak(locale, text, func() { c.onReplySpoken(epoch) })
			})
		}
		return nil
	})
	if errors.Is(err, errStale) {
		c.logger(ctx).Info("dropping stale reply", "epoch", epoch)
	}
}

// update runs fn under the lock, then its effects and the observers.
// A non-nil error from fn leaves the state unchanged and skips both.
func (c *Controller) update(fn func(fx *effects) error) error {
	var fx effects
	err := func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := fn(&fx); err != nil {
			return err
		}
		c.version++
		return nil
	}()
	if err != nil {
		if errors.Is(err, errSkip) {
			return nil
		}
		return err
	}

	for _, f := range fx {
		f()
	}
	c.notify()
	return nil
}

func (c *Controller) notify() {
	c.obsMu.Lock()
	fns := slices.Collect(maps.Values(c.observers))
	c.obsMu.Unlock()
	if len(fns) == 0 {
		return
	}

	snap := c.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Controller) enterChatLocked() {
	c.mode = domain.ModeChat
	if len(c.messages) == 0 && c.startedAt.IsZero() {
		c.startedAt = c.clock.Now()
	}
}

func (c *Controller) appendLocked(msg domain.ChatMessage) {
	msg.ID = domain.MessageID(newID())
	msg.CreatedAt = c.clock.Now()
	c.messages = append(c.messages, msg)
}

func (c *Controller) logger(ctx context.Context) *slog.Logger {
	return observability.LoggerFromContext(ctx).With("assistant_id", c.id)
}

// newID returns a time-ordered UUID.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func cloneMessages(in []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(in))
	for i, m := range in {
		if m.Rich != nil {
			rich := *m.Rich
			rich.Data = maps.Clone(m.Rich.Data)
			m.Rich = &rich
		}
		out[i] = m
	}
	return out
}
