// Package speech holds terminal stand-ins for the browser speech engines.
package speech

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

var (
	_ domain.SpeechOutput  = (*ConsoleOutput)(nil)
	_ domain.SpeechCapture = (*ConsoleCapture)(nil)
)

// ConsoleOutput "speaks" by printing the utterance. Printing is instant, so
// every utterance completes before Speak returns.
type ConsoleOutput struct {
	mu     sync.Mutex
	w      io.Writer
	voices []domain.Voice
	label  *color.Color
}

func NewConsoleOutput(w io.Writer, voices []domain.Voice) *ConsoleOutput {
	return &ConsoleOutput{
		w:      w,
		voices: voices,
		label:  color.New(color.FgMagenta, color.Bold),
	}
}

func (o *ConsoleOutput) Speak(u domain.Utterance, onComplete func()) {
	o.mu.Lock()
	voice := u.Voice
	if voice == "" {
		voice = "default voice"
	}
	fmt.Fprintf(o.w, "%s %s\n", o.label.Sprintf("🔊 [%s, %s]", u.Locale, voice), u.Text)
	o.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
}

func (o *ConsoleOutput) Cancel() {}

func (o *ConsoleOutput) Speaking() bool { return false }

func (o *ConsoleOutput) Voices() []domain.Voice {
	return o.voices
}

// ConsoleCapture treats typed lines as recognised speech while it is listening.
type ConsoleCapture struct {
	mu         sync.Mutex
	listening  bool
	locale     domain.Locale
	transcript string
	onText     func(string)
}

func NewConsoleCapture() *ConsoleCapture {
	return &ConsoleCapture{}
}

func (c *ConsoleCapture) Start(locale domain.Locale) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listening = true
	c.locale = locale
	c.transcript = ""
	return nil
}

func (c *ConsoleCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listening = false
}

func (c *ConsoleCapture) Supported() bool { return true }

func (c *ConsoleCapture) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

func (c *ConsoleCapture) Locale() domain.Locale {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locale
}

func (c *ConsoleCapture) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

func (c *ConsoleCapture) OnTranscript(fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onText = fn
}

// Feed delivers a typed line as a transcript. It reports false, and does
// nothing, when capture is not listening.
func (c *ConsoleCapture) Feed(line string) bool {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return false
	}
	c.transcript = line
	fn := c.onText
	c.mu.Unlock()

	if fn != nil {
		fn(line)
	}
	return true
}
