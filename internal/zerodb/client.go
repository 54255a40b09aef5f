package zerodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// AuthenticationError indicates the credential exchange was rejected.
// 401/403 means bad credentials, 5xx means the service is unavailable;
// both abort the request the same way.
type AuthenticationError struct {
	Status int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("zerodb authentication failed (HTTP %d)", e.Status)
}

// RetrievalError indicates the semantic-search call was rejected. Body is
// kept for diagnostics only and must never be shown to end users verbatim.
type RetrievalError struct {
	Status int
	Body   string
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("zerodb search failed (HTTP %d): %s", e.Status, e.Body)
}

// NetworkError wraps a transport-level failure (DNS, connection refused).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("zerodb unreachable: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// SearchParams are the fixed retrieval parameters applied to every search.
type SearchParams struct {
	Limit      int
	Threshold  float64
	Namespace  string
	EmbedModel string
}

// Client communicates with the ZeroDB public API.
type Client struct {
	baseURL    string
	projectID  string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a ZeroDB client for the given project. Username and
// password are exchanged for a bearer token via Login; they are held in
// memory only and never logged.
func NewClient(baseURL, projectID, username, password string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		username:  username,
		password:  password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Login exchanges the configured credentials for a short-lived bearer token.
// The request body is URL-form-encoded, not JSON.
func (c *Client) Login(ctx context.Context) (AuthToken, error) {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/public/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return AuthToken{}, fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AuthToken{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain without echoing: the body could quote the submitted form.
		io.Copy(io.Discard, resp.Body)
		return AuthToken{}, &AuthenticationError{Status: resp.StatusCode}
	}

	var token AuthToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return AuthToken{}, fmt.Errorf("decoding login response: %w", err)
	}
	return token, nil
}

// Search runs a bearer-authenticated semantic search against the project's
// embeddings index. ZeroDB embeds the query server-side with params.EmbedModel,
// so no local embedding step exists. The similarity metric is forwarded as
// free-form filter metadata; invalid values are the service's problem to
// reject. Empty queries are forwarded unchanged for the same reason.
func (c *Client) Search(ctx context.Context, token AuthToken, query, similarityMetric string, params SearchParams) ([]SearchResult, error) {
	body, err := json.Marshal(searchRequest{
		Query:          query,
		ProjectID:      c.projectID,
		Limit:          params.Limit,
		Threshold:      params.Threshold,
		Namespace:      params.Namespace,
		FilterMetadata: map[string]string{"similarity_metric": similarityMetric},
		Model:          params.EmbedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	var out searchResponse
	if err := c.postJSON(ctx, "/v1/public/"+c.projectID+"/embeddings/search", token, body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// EmbedAndStore embeds the given texts server-side and stores the resulting
// vectors with their metadata. Used by the seeding CLI and the MCP tool.
func (c *Client) EmbedAndStore(ctx context.Context, token AuthToken, texts []string, metadata []map[string]any, namespace, model string) (StoreResult, error) {
	body, err := json.Marshal(embedAndStoreRequest{
		Texts:        texts,
		MetadataList: metadata,
		Namespace:    namespace,
		Model:        model,
		ProjectID:    c.projectID,
	})
	if err != nil {
		return StoreResult{}, fmt.Errorf("marshaling embed-and-store request: %w", err)
	}

	var out StoreResult
	if err := c.postJSON(ctx, "/v1/public/"+c.projectID+"/embeddings/embed-and-store", token, body, &out); err != nil {
		return StoreResult{}, err
	}
	return out, nil
}

// StoreFeedback records an RLHF interaction against the project database.
func (c *Client) StoreFeedback(ctx context.Context, token AuthToken, fb Feedback) error {
	body, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("marshaling feedback: %w", err)
	}
	return c.postJSON(ctx, "/v1/public/"+c.projectID+"/database/rlhf/interactions", token, body, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, token AuthToken, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &RetrievalError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
