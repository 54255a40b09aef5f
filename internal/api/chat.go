package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ainative/zerochat/internal/llama"
	"github.com/ainative/zerochat/internal/pipeline"
	"github.com/ainative/zerochat/internal/storage"
	"github.com/ainative/zerochat/internal/zerodb"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds the handler's collaborators. Store may be nil (interaction
// endpoints return empty lists). APIToken, when set, bearer-protects the
// management endpoints.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Vector   *zerodb.Client
	Store    *storage.Store
	APIToken string
}

// NewHandler returns the zerochat HTTP API: the chat endpoint, RLHF
// feedback forwarding, and local interaction listing.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/api/chat", handleChat(deps.Pipeline))
	r.Post("/api/rlhf-feedback", handleFeedback(deps))

	r.Group(func(r chi.Router) {
		if deps.APIToken != "" {
			r.Use(BearerAuth(deps.APIToken))
		}
		r.Get("/interactions", handleInteractions(deps.Store))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleChat(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req pipeline.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		text, err := p.Run(r.Context(), req)
		if err != nil {
			writePipelineError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(text))
	}
}

// writePipelineError translates the pipeline's typed errors into HTTP
// statuses. Upstream response bodies are logged for diagnostics but never
// relayed to the caller, and credential values never appear in error text.
func writePipelineError(w http.ResponseWriter, err error) {
	var (
		vErr    *pipeline.ValidationError
		authErr *zerodb.AuthenticationError
		retErr  *zerodb.RetrievalError
		toErr   *llama.TimeoutError
		compErr *llama.CompletionError
		zNetErr *zerodb.NetworkError
		lNetErr *llama.NetworkError
	)
	switch {
	case errors.As(err, &vErr):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", vErr)
	case errors.As(err, &authErr):
		slog.Error("vector store authentication failed", "status", authErr.Status)
		httpError(w, http.StatusBadGateway, "authentication_error", "vector store authentication failed (HTTP %d)", authErr.Status)
	case errors.As(err, &retErr):
		slog.Error("vector store search failed", "status", retErr.Status, "body", retErr.Body)
		httpError(w, http.StatusBadGateway, "retrieval_error", "vector store search failed (HTTP %d)", retErr.Status)
	case errors.As(err, &toErr):
		slog.Error("completion timed out", "limit", toErr.Limit)
		httpError(w, http.StatusGatewayTimeout, "timeout_error", "completion timed out")
	case errors.As(err, &compErr):
		slog.Error("completion failed", "status", compErr.Status, "body", compErr.Body)
		httpError(w, http.StatusBadGateway, "api_error", "completion service error (HTTP %d)", compErr.Status)
	case errors.As(err, &zNetErr), errors.As(err, &lNetErr):
		slog.Error("upstream unreachable", "error", err)
		httpError(w, http.StatusBadGateway, "api_error", "upstream service unreachable")
	default:
		slog.Error("chat request failed", "error", err)
		httpError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// feedbackRequest mirrors the browser UI's feedback payload.
type feedbackRequest struct {
	Rating         int    `json:"rating"`
	MessageContent string `json:"messageContent"`
	MessageID      string `json:"messageId"`
	Timestamp      string `json:"timestamp"`
}

func handleFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if req.Rating < 1 || req.Rating > 5 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "rating must be between 1 and 5")
			return
		}

		token, err := deps.Vector.Login(r.Context())
		if err != nil {
			writePipelineError(w, err)
			return
		}

		prompt := req.MessageContent
		if len(prompt) > 500 {
			prompt = prompt[:500]
		}
		fb := zerodb.Feedback{
			Type:     "user_feedback",
			Prompt:   prompt,
			Response: req.MessageContent,
			Rating:   req.Rating,
			Metadata: map[string]any{
				"message_id":  req.MessageID,
				"timestamp":   req.Timestamp,
				"rating_type": "star_rating",
				"agent_id":    "zerochat",
			},
		}
		if err := deps.Vector.StoreFeedback(r.Context(), token, fb); err != nil {
			writePipelineError(w, err)
			return
		}

		if deps.Store != nil {
			mirror := storage.FeedbackRecord{
				ID:        uuid.New().String(),
				MessageID: req.MessageID,
				Rating:    req.Rating,
				Content:   req.MessageContent,
				CreatedAt: time.Now().UTC(),
			}
			if err := deps.Store.SaveFeedback(mirror); err != nil {
				slog.Warn("mirroring feedback locally failed", "error", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Feedback collected successfully",
		})
	}
}

func handleInteractions(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		var (
			list []storage.Interaction
			err  error
		)
		if store != nil {
			list, err = store.ListInteractions(limit)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "server_error", "listing interactions: %v", err)
				return
			}
		}
		if list == nil {
			list = []storage.Interaction{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
