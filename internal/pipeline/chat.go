// Package pipeline sequences one chat turn: validate the inbound request,
// optionally authenticate and retrieve context from ZeroDB, assemble the
// prompt, and dispatch the completion.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ainative/zerochat/internal/composer"
	"github.com/ainative/zerochat/internal/llama"
	"github.com/ainative/zerochat/internal/storage"
	"github.com/ainative/zerochat/internal/zerodb"
)

const defaultSimilarityMetric = "cosine"

// ChatRequest is the inbound chat request body. Messages stays raw so
// sanitization can strip unknown fields in one place.
type ChatRequest struct {
	Messages         json.RawMessage `json:"messages"`
	UseRAG           bool            `json:"useRag"`
	LLM              string          `json:"llm"`
	SimilarityMetric string          `json:"similarityMetric"`
}

// ValidationError indicates a malformed request. No network call has been
// made when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Reason }

// Pipeline runs the chat orchestration. A nil store disables interaction
// recording; everything else is required.
type Pipeline struct {
	vector *zerodb.Client
	llm    *llama.Client
	params zerodb.SearchParams
	store  *storage.Store
}

// New creates a Pipeline. params carries the fixed retrieval parameters
// (limit, threshold, namespace, embedding model) applied to every search.
func New(vector *zerodb.Client, llm *llama.Client, params zerodb.SearchParams, store *storage.Store) *Pipeline {
	return &Pipeline{vector: vector, llm: llm, params: params, store: store}
}

// Run executes one chat turn and returns the generated text.
//
// Failure at any stage aborts the whole request: there is no fallback to a
// context-free completion when retrieval fails, and no re-auth retry on a
// 401 from the search call. Errors keep their type (ValidationError,
// zerodb.AuthenticationError, zerodb.RetrievalError, llama.TimeoutError,
// llama.CompletionError, or a NetworkError from either client) for the HTTP
// layer to classify.
func (p *Pipeline) Run(ctx context.Context, req ChatRequest) (string, error) {
	start := time.Now()

	history, err := p.validate(req)
	if err != nil {
		return "", err
	}

	// Query is the content of the most recent message, whatever its role.
	// Empty queries are forwarded; the service rejects them if it cares.
	query := history[len(history)-1].Content

	metric := req.SimilarityMetric
	if metric == "" {
		metric = defaultSimilarityMetric
	}

	var results []zerodb.SearchResult
	if req.UseRAG {
		token, err := p.vector.Login(ctx)
		if err != nil {
			return "", err
		}
		results, err = p.vector.Search(ctx, token, query, metric, p.params)
		if err != nil {
			return "", err
		}
		slog.Debug("context retrieved", "results", len(results), "metric", metric)
	}

	system := composer.SystemMessage(composer.BuildContext(results))
	messages := append([]llama.Message{system}, history...)

	text, err := p.llm.Complete(ctx, messages, req.LLM)
	if err != nil {
		p.record(query, req, "", "failed", start)
		return "", err
	}

	p.record(query, req, text, "ok", start)
	return text, nil
}

func (p *Pipeline) validate(req ChatRequest) ([]llama.Message, error) {
	if len(req.Messages) == 0 {
		return nil, &ValidationError{Reason: "messages is required"}
	}
	history, err := composer.Sanitize(req.Messages)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if len(history) == 0 {
		return nil, &ValidationError{Reason: "messages must not be empty"}
	}
	return history, nil
}

// record persists the turn locally, best-effort. A storage failure is
// logged and never fails the request.
func (p *Pipeline) record(query string, req ChatRequest, response, status string, start time.Time) {
	if p.store == nil {
		return
	}
	err := p.store.SaveInteraction(storage.Interaction{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		UserQuery:  query,
		Model:      p.llm.ResolveModel(req.LLM),
		Response:   response,
		UsedRAG:    req.UseRAG,
		Status:     status,
		DurationMs: time.Since(start).Milliseconds(),
	})
	if err != nil {
		slog.Warn("recording interaction failed", "error", err)
	}
}
