package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainative/zerochat/internal/api"
	"github.com/ainative/zerochat/internal/config"
	"github.com/ainative/zerochat/internal/llama"
	"github.com/ainative/zerochat/internal/pipeline"
	"github.com/ainative/zerochat/internal/storage"
	"github.com/ainative/zerochat/internal/zerodb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the zerochat server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "zerochat version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open local interaction storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the chat pipeline.
	vector := zerodb.NewClient(cfg.ZeroDB.BaseURL, cfg.ZeroDB.ProjectID, cfg.ZeroDB.Username, cfg.ZeroDB.Password)
	completions := llama.NewClient(cfg.Llama.BaseURL, cfg.Llama.APIKey, cfg.Llama.Model, cfg.Llama.MaxTokens, cfg.CompletionTimeout())
	params := zerodb.SearchParams{
		Limit:      cfg.Retrieval.Limit,
		Threshold:  cfg.Retrieval.Threshold,
		Namespace:  cfg.ZeroDB.Namespace,
		EmbedModel: cfg.Retrieval.EmbedModel,
	}
	pipe := pipeline.New(vector, completions, params, store)

	handler := api.NewHandler(api.Deps{
		Pipeline: pipe,
		Vector:   vector,
		Store:    store,
		APIToken: cfg.Server.APIToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "zerochat listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
