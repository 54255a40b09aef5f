package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ainative/zerochat/internal/config"
	"github.com/ainative/zerochat/internal/seed"
	"github.com/ainative/zerochat/internal/zerodb"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the ZeroDB knowledge base from local documents",
	Long: `Populate the ZeroDB knowledge base from local documents.

Documents are chunked (recursive character splitting, 1000 chars with 200
overlap by default) and embedded server-side via ZeroDB's embed-and-store
endpoint, once per similarity metric so metric-filtered searches all hit.

Examples:
  zerochat seed --file ./scripts/sample_data.json
  zerochat seed --file ./docs/zerodb-guide.pdf --metric cosine
  zerochat seed --file a.json --file b.txt --chunk-size 800 --chunk-overlap 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringArray("file")
		metrics, _ := cmd.Flags().GetStringArray("metric")
		chunkSize, _ := cmd.Flags().GetInt("chunk-size")
		chunkOverlap, _ := cmd.Flags().GetInt("chunk-overlap")

		if len(files) == 0 {
			return fmt.Errorf("at least one --file is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		var docs []seed.Document
		for _, f := range files {
			loaded, err := seed.LoadPath(f)
			if err != nil {
				return err
			}
			printStep("loaded %s (%d document(s))", f, len(loaded))
			docs = append(docs, loaded...)
		}

		vector := zerodb.NewClient(cfg.ZeroDB.BaseURL, cfg.ZeroDB.ProjectID, cfg.ZeroDB.Username, cfg.ZeroDB.Password)
		seeder := seed.NewSeeder(vector, seed.NewChunker(chunkSize, chunkOverlap), zerodb.SearchParams{
			Namespace:  cfg.ZeroDB.Namespace,
			EmbedModel: cfg.Retrieval.EmbedModel,
		})

		stored, err := seeder.Run(cmd.Context(), docs, metrics)
		if err != nil {
			printError("seeding failed after %d vectors: %v", stored, err)
			return err
		}

		printSuccess("stored %d vectors", stored)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringArray("file", nil, "document file to seed (.json corpus, .pdf, or plain text); repeatable")
	seedCmd.Flags().StringArray("metric", nil, "similarity metric to seed under (default: all of cosine, euclidean, dot_product); repeatable")
	seedCmd.Flags().Int("chunk-size", 0, "chunk size in characters (default 1000)")
	seedCmd.Flags().Int("chunk-overlap", 0, "chunk overlap in characters (default 200)")
}
