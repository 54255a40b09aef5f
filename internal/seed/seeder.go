package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ainative/zerochat/internal/zerodb"
)

// Metrics are the similarity metrics the knowledge base is populated under.
// The chat endpoint filters searches by metric, so every document is stored
// once per metric.
var Metrics = []string{"cosine", "euclidean", "dot_product"}

const batchSize = 50

// Seeder chunks documents and stores them in ZeroDB.
type Seeder struct {
	vector  *zerodb.Client
	chunker *Chunker
	params  zerodb.SearchParams
}

// NewSeeder creates a Seeder. params supplies the namespace and embedding
// model; chunker may be nil for the default 1000/200 splitter.
func NewSeeder(vector *zerodb.Client, chunker *Chunker, params zerodb.SearchParams) *Seeder {
	if chunker == nil {
		chunker = NewChunker(0, 0)
	}
	return &Seeder{vector: vector, chunker: chunker, params: params}
}

// Run chunks docs and embeds-and-stores them once per metric, returning the
// total number of vectors stored. Batches within one metric run concurrently
// (bounded); metrics run sequentially so progress logs stay readable.
func (s *Seeder) Run(ctx context.Context, docs []Document, metrics []string) (int, error) {
	if len(metrics) == 0 {
		metrics = Metrics
	}

	var total atomic.Int64
	for _, metric := range metrics {
		texts, metadata := s.prepare(docs, metric)
		if len(texts) == 0 {
			continue
		}
		slog.Info("seeding", "metric", metric, "chunks", len(texts))

		token, err := s.vector.Login(ctx)
		if err != nil {
			return int(total.Load()), err
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(4) // Bound concurrency to avoid overwhelming the embeddings API.

		for start := 0; start < len(texts); start += batchSize {
			end := min(start+batchSize, len(texts))
			batchTexts := texts[start:end]
			batchMeta := metadata[start:end]
			g.Go(func() error {
				res, err := s.vector.EmbedAndStore(gCtx, token, batchTexts, batchMeta, s.params.Namespace, s.params.EmbedModel)
				if err != nil {
					return fmt.Errorf("storing batch for metric %s: %w", metric, err)
				}
				total.Add(int64(res.VectorsStored))
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return int(total.Load()), err
		}
	}

	return int(total.Load()), nil
}

// prepare chunks every document and builds the per-chunk metadata the chat
// endpoint filters on.
func (s *Seeder) prepare(docs []Document, metric string) ([]string, []map[string]any) {
	var texts []string
	var metadata []map[string]any

	for _, doc := range docs {
		docID := doc.URL
		if docID == "" {
			docID = uuid.New().String()
		}
		for i, chunk := range s.chunker.Split(doc.Content) {
			texts = append(texts, chunk)
			metadata = append(metadata, map[string]any{
				"document_id":       fmt.Sprintf("%s-%d", docID, i),
				"url":               doc.URL,
				"title":             doc.Title,
				"similarity_metric": metric,
			})
		}
	}

	return texts, metadata
}
