package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ainative/zerochat/internal/api"
	"github.com/ainative/zerochat/internal/config"
	"github.com/ainative/zerochat/internal/storage"
	"github.com/ainative/zerochat/internal/zerodb"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server (stdio transport)",
	Long: `Run the MCP server over stdio, exposing the ZeroDB knowledge base
to MCP clients: search_knowledge_base and embed_and_store tools plus a
recent-interactions resource.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Storage is optional here: the tools only need ZeroDB.
		var store *storage.Store
		if s, err := storage.Open(cfg.Storage.DataDir); err == nil {
			store = s
			defer store.Close()
		} else {
			slog.Warn("opening storage failed; interactions resource disabled", "error", err)
		}

		vector := zerodb.NewClient(cfg.ZeroDB.BaseURL, cfg.ZeroDB.ProjectID, cfg.ZeroDB.Username, cfg.ZeroDB.Password)
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Vector: vector,
			Params: zerodb.SearchParams{
				Limit:      cfg.Retrieval.Limit,
				Threshold:  cfg.Retrieval.Threshold,
				Namespace:  cfg.ZeroDB.Namespace,
				EmbedModel: cfg.Retrieval.EmbedModel,
			},
			Store: store,
		})

		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
