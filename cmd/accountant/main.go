package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "accountant",
		Short:        "AI accountant: conversational financial analysis over Gemini",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(GetServeCommand())
	rootCmd.AddCommand(GetChatCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
