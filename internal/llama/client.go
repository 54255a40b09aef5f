// Package llama dispatches chat completions to the Meta Llama API.
package llama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second

	// fallbackModel is used when neither the request nor the deployment
	// configuration names a model.
	fallbackModel = "Llama-4-Maverick-17B-128E-Instruct-FP8"
)

// Message is a single chat message. Exactly these two fields are forwarded
// upstream; sanitization happens before a Message is ever constructed.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionError indicates the completion call was rejected with a non-2xx
// status. Body is diagnostic only.
type CompletionError struct {
	Status int
	Body   string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (HTTP %d): %s", e.Status, e.Body)
}

// TimeoutError indicates the completion call exceeded its wall-clock bound
// and the in-flight request was aborted.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("completion timed out after %s", e.Limit)
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("completion service unreachable: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client communicates with an OpenAI-compatible chat completion endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	defaultModel string
	maxTokens    int
	timeout      time.Duration
	httpClient   *http.Client
}

// NewClient creates a completion client. defaultModel may be empty, in which
// case the hardcoded fallback applies. timeout <= 0 selects the default 30s.
func NewClient(baseURL, apiKey, defaultModel string, maxTokens int, timeout time.Duration) *Client {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
		timeout:      timeout,
		httpClient:   &http.Client{},
	}
}

// ResolveModel applies the model selection precedence: explicit request
// value, then the configured default, then the hardcoded fallback.
func (c *Client) ResolveModel(requested string) string {
	if requested != "" {
		return requested
	}
	if c.defaultModel != "" {
		return c.defaultModel
	}
	return fallbackModel
}

// Complete sends the message list and returns the first choice's message
// content, or "" if the upstream response carried no choices. The call is
// bounded by the client's wall-clock timeout; exceeding it aborts the
// in-flight request and returns a *TimeoutError.
func (c *Client) Complete(ctx context.Context, messages []Message, model string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:     c.ResolveModel(model),
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", &TimeoutError{Limit: c.timeout}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &CompletionError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}

	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
