package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/PabloGalante/ai-accountant/internal/adapters/speech"
	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/config"
	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
	"github.com/PabloGalante/ai-accountant/internal/randsrc"
)

const chatHelp = `Commands:
  /mic          start or stop listening (typed lines count as speech while listening)
  /copilot      toggle spoken replies and hands-free follow-ups
  /lang         switch between en-US and hi-IN
  /map <file>   analyze an uploaded map
  /end          end the conversation and return to the dashboard
  /dismiss      hide the current notice
  /help         show this list
  /quit         leave`

func GetChatCommand() *cobra.Command {
	var (
		userID   string
		width    int
		logLevel string
	)

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the accountant from the terminal",
		Long: `Opens an interactive conversation in the terminal.

Replies are rendered as Markdown. With /copilot on, replies are "spoken" to
the terminal and the next typed line is taken as the follow-up question.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), userID, width, logLevel)
		},
	}
	chatCmd.Flags().StringVarP(&userID, "user", "u", "local-user", "User the transcript is archived under")
	chatCmd.Flags().IntVarP(&width, "width", "w", 100, "Word-wrap width for rendered replies")
	chatCmd.Flags().StringVar(&logLevel, "log-level", "error", "Log level for diagnostics written to stderr")

	return chatCmd
}

func runChat(ctx context.Context, in io.Reader, out io.Writer, userID string, width int, logLevel string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := observability.Setup(os.Stderr, logLevel)

	rnd := randsrc.New(cfg.RandomSeed)
	backend, err := newBackend(ctx, cfg, rnd, log)
	if err != nil {
		return fmt.Errorf("initializing backend: %w", err)
	}
	archive, closeArchive, err := newArchive(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initializing transcript archive: %w", err)
	}
	defer closeArchive()

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}

	capture := speech.NewConsoleCapture()
	ctrl := conversation.NewController(domain.AssistantID(uuid.NewString()), domain.UserID(userID), conversation.Deps{
		Backend: backend,
		Capture: capture,
		Output:  speech.NewConsoleOutput(out, nil),
		Archive: archive,
		Clock:   conversation.SystemClock{},
		Rand:    rnd,
	}, controllerOptions(cfg))
	defer ctrl.Close(ctx)

	view := newTerminalView(out, renderer)
	unsubscribe := ctrl.Subscribe(view.render)
	defer unsubscribe()

	view.dashboard()
	fmt.Fprintln(out, chatHelp)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, view.prompt(ctrl.Snapshot()))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			fmt.Fprintln(out, chatHelp)
		case line == "/mic":
			err = ctrl.ToggleMic(ctx)
		case line == "/copilot":
			ctrl.SetCoPilot(!ctrl.Snapshot().Voice.CoPilotEnabled)
		case line == "/lang":
			fmt.Fprintf(out, "language: %s\n", ctrl.ToggleLanguage())
		case line == "/end":
			ctrl.EndSession(ctx)
			view.dashboard()
		case line == "/dismiss":
			ctrl.DismissToast()
		case strings.HasPrefix(line, "/map"):
			err = ctrl.AnalyzeMap(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/map")))
		default:
			if capture.Feed(line) {
				continue
			}
			err = ctrl.SubmitTurn(ctx, line)
		}
		if err != nil {
			view.problem(err)
		}
	}
}
