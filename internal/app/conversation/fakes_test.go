package conversation_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock only moves when Advance is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) domain.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Pending reports the number of timers that have neither fired nor been stopped.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves the clock and runs every timer that became due, in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// fakeBackend answers through respond. When gate is set, every call blocks
// until a value is received from it.
type fakeBackend struct {
	mu      sync.Mutex
	calls   []string
	respond func(text string) (string, error)
	gate    chan struct{}
}

func (b *fakeBackend) Query(ctx context.Context, text string) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, text)
	gate := b.gate
	respond := b.respond
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if respond == nil {
		return "Here is your analysis.", nil
	}
	return respond(text)
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

type fakeCapture struct {
	mu         sync.Mutex
	supported  bool
	listening  bool
	startErr   error
	starts     []domain.Locale
	stops      int
	transcript string
	cb         func(string)
}

func (f *fakeCapture) Start(locale domain.Locale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, locale)
	if f.startErr != nil {
		return f.startErr
	}
	f.listening = true
	f.transcript = ""
	return nil
}

func (f *fakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listening {
		f.stops++
	}
	f.listening = false
}

func (f *fakeCapture) Supported() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supported
}

func (f *fakeCapture) Listening() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listening
}

func (f *fakeCapture) Transcript() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transcript
}

func (f *fakeCapture) OnTranscript(fn func(string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = fn
}

// Emit delivers a recognised transcript the way an engine would.
func (f *fakeCapture) Emit(text string) {
	f.mu.Lock()
	f.transcript = text
	cb := f.cb
	f.mu.Unlock()
	cb(text)
}

func (f *fakeCapture) Starts() []domain.Locale {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Locale(nil), f.starts...)
}

func (f *fakeCapture) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type fakeOutput struct {
	mu       sync.Mutex
	spoken   []domain.Utterance
	pending  func()
	speaking bool
	cancels  int
}

func (f *fakeOutput) Speak(u domain.Utterance, onComplete func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, u)
	f.pending = onComplete
	f.speaking = true
}

func (f *fakeOutput) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	f.speaking = false
	f.pending = nil
}

func (f *fakeOutput) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func (f *fakeOutput) Voices() []domain.Voice {
	return []domain.Voice{{Name: "Samantha", Lang: "en-US"}, {Name: "Lekha", Lang: "hi-IN"}}
}

// Finish completes the current utterance, if any.
func (f *fakeOutput) Finish() bool {
	f.mu.Lock()
	done := f.pending
	f.pending = nil
	f.speaking = false
	f.mu.Unlock()
	if done == nil {
		return false
	}
	done()
	return true
}

func (f *fakeOutput) Spoken() []domain.Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Utterance(nil), f.spoken...)
}

func (f *fakeOutput) Cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

type fakeArchive struct {
	mu     sync.Mutex
	saved  []*domain.Transcript
	failed error
}

func (a *fakeArchive) ArchiveTranscript(t *domain.Transcript) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failed != nil {
		return a.failed
	}
	a.saved = append(a.saved, t)
	return nil
}

func (a *fakeArchive) GetTranscript(id domain.TranscriptID) (*domain.Transcript, error) {
	return nil, domain.ErrTranscriptNotFound
}

func (a *fakeArchive) ListTranscriptsByUser(userID domain.UserID, limit int) ([]*domain.Transcript, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*domain.Transcript(nil), a.saved...), nil
}

// firstIndex always picks the first candidate.
type firstIndex struct{}

func (firstIndex) IntN(int) int { return 0 }
