package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainative/zerochat/internal/config"
	"github.com/ainative/zerochat/internal/storage"
)

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show zerochat system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadPartial()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
		client := &http.Client{Timeout: 2 * time.Second}

		resp, err := client.Get(serverURL + "/health")
		if err != nil {
			printStatus("Server", "stopped")
		} else {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			} else {
				printStatus("Server", "error (HTTP %d)", resp.StatusCode)
			}
		}

		printStatus("ZeroDB", "%s (project %s)", valueOrUnset(cfg.ZeroDB.BaseURL), valueOrUnset(cfg.ZeroDB.ProjectID))
		printStatus("Completion", "%s", valueOrUnset(cfg.Llama.BaseURL))
		printStatus("Model", "%s", cfg.Llama.Model)
		printStatus("Embed model", "%s", cfg.Retrieval.EmbedModel)
		printStatus("Namespace", "%s", cfg.ZeroDB.Namespace)
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	},
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "List recent chat interactions recorded by the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/interactions?limit=%d", limit))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			printError("server returned HTTP %d", resp.StatusCode)
			return fmt.Errorf("listing interactions: HTTP %d", resp.StatusCode)
		}

		var list []storage.Interaction
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		if len(list) == 0 {
			printStep("no interactions recorded yet")
			return nil
		}
		for _, in := range list {
			rag := " "
			if in.UsedRAG {
				rag = "R"
			}
			printStatus(in.CreatedAt.Format("2006-01-02 15:04"), "[%s] %s (%s, %dms) %s", rag, truncate(in.UserQuery, 60), in.Status, in.DurationMs, in.Model)
		}
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage zerochat configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config keys and values (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadPartial()
		if err != nil {
			return err
		}
		for _, info := range config.ShowAll(cfg) {
			printStatus(info.Key, "%s  (env %s)", info.Value, info.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config key in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("%s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	interactionsCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	configCmd.AddCommand(configListCmd, configSetCmd)
}
