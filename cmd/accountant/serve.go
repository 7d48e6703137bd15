package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpadapter "github.com/PabloGalante/ai-accountant/internal/adapters/http"
	"github.com/PabloGalante/ai-accountant/internal/adapters/live"
	"github.com/PabloGalante/ai-accountant/internal/app/conversation"
	"github.com/PabloGalante/ai-accountant/internal/app/transcripts"
	"github.com/PabloGalante/ai-accountant/internal/config"
	"github.com/PabloGalante/ai-accountant/internal/observability"
	"github.com/PabloGalante/ai-accountant/internal/randsrc"
)

const shutdownTimeout = 10 * time.Second

func GetServeCommand() *cobra.Command {
	var port string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and live WebSocket API",
		Long: `Serves the assistant API for the web front-end.

Configuration comes from ACCOUNTANT_* environment variables, optionally
loaded from a .env file in the working directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides ACCOUNTANT_PORT)")

	return serveCmd
}

func runServe(ctx context.Context, port string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}
	log := observability.Setup(os.Stdout, cfg.LogLevel)

	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

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

	hub := live.NewHub(live.Config{AllowedOrigins: cfg.AllowedOrigins})
	registry := conversation.NewRegistry(hub.ControllerFactory(conversation.Deps{
		Backend: backend,
		Archive: archive,
		Clock:   conversation.SystemClock{},
		Rand:    rnd,
	}, controllerOptions(cfg)))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(registry, hub, transcripts.NewService(archive), httpadapter.Config{AllowedOrigins: cfg.AllowedOrigins}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("accountant API listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCtx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "err", err)
	}
	// Open sessions are archived on the way out.
	registry.CloseAll(shutdownCtx)

	log.Info("server exited")
	return nil
}
