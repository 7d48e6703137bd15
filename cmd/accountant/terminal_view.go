package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// terminalView prints what changed between snapshots.
type terminalView struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *glamour.TermRenderer

	printed  int
	thinking bool
	mic      domain.MicState
	toast    domain.Toast
}

func newTerminalView(out io.Writer, renderer *glamour.TermRenderer) *terminalView {
	return &terminalView{out: out, renderer: renderer, mic: domain.MicIdle}
}

func (v *terminalView) render(s conversation.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(s.Messages) < v.printed {
		v.printed = 0
	}
	for _, m := range s.Messages[v.printed:] {
		v.printMessage(m)
	}
	v.printed = len(s.Messages)

	if s.Thinking && !v.thinking {
		fmt.Fprintln(v.out, color.HiBlackString("thinking..."))
	}
	v.thinking = s.Thinking

	if s.Mic != v.mic {
		fmt.Fprintln(v.out, color.CyanString("[mic: %s]", strings.ReplaceAll(string(s.Mic), "_", " ")))
		v.mic = s.Mic
	}

	if s.Toast.Visible && s.Toast != v.toast {
		fmt.Fprintln(v.out, toastColor(s.Toast.Severity).Sprintf("! %s", s.Toast.Message))
	}
	v.toast = s.Toast
}

func (v *terminalView) printMessage(m domain.ChatMessage) {
	switch {
	case m.Role == domain.RoleUser:
		fmt.Fprintln(v.out, color.New(color.FgBlue, color.Bold).Sprint("you: ")+m.Text)
	case m.Rich != nil:
		fmt.Fprintln(v.out, color.GreenString("[%s]", m.Rich.Kind))
		if title, ok := m.Rich.Data["title"].(string); ok {
			fmt.Fprintln(v.out, title)
		}
	default:
		rendered, err := v.renderer.Render(m.Text)
		if err != nil {
			rendered = m.Text + "\n"
		}
		fmt.Fprint(v.out, rendered)
	}
}

func (v *terminalView) dashboard() {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Fprintln(v.out, color.New(color.Bold).Sprint("Dashboard"))
	for _, card := range domain.StatCards() {
		change := color.GreenString(card.Change)
		if !card.Positive() {
			change = color.RedString(card.Change)
		}
		fmt.Fprintf(v.out, "  %-16s %12d  %s\n", card.Title, card.Value, change)
	}
	fmt.Fprintln(v.out, "Try:")
	for _, p := range domain.SuggestedPrompts() {
		fmt.Fprintf(v.out, "  - %s\n", p.Text)
	}
}

func (v *terminalView) prompt(s conversation.Snapshot) string {
	if s.Mic.Listening() {
		return color.CyanString("(speak) > ")
	}
	return "> "
}

func (v *terminalView) problem(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, color.RedString("error: %v", err))
}

func toastColor(s domain.Severity) *color.Color {
	switch s {
	case domain.SeverityError:
		return color.New(color.FgRed, color.Bold)
	case domain.SeverityWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
