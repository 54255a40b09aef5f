package zerodb

import "encoding/json"

// AuthToken is the bearer credential returned by the login endpoint. The
// token is opaque; ExpiresIn is advisory only — zerochat acquires a fresh
// token per chat turn and never caches one across requests.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// SearchResult is a single semantic-search hit. The matched text may arrive
// under either the "text" or the "document" field depending on how the
// vector was stored; use Content to resolve it.
type SearchResult struct {
	ID         string                     `json:"id"`
	Text       string                     `json:"text"`
	Document   string                     `json:"document"`
	Similarity float64                    `json:"similarity"`
	Metadata   map[string]json.RawMessage `json:"metadata"`
}

// Content resolves the result text with "text" taking precedence over
// "document", falling back to the empty string when neither is present.
func (r SearchResult) Content() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Document
}

type searchRequest struct {
	Query          string            `json:"query"`
	ProjectID      string            `json:"project_id"`
	Limit          int               `json:"limit"`
	Threshold      float64           `json:"threshold"`
	Namespace      string            `json:"namespace"`
	FilterMetadata map[string]string `json:"filter_metadata"`
	Model          string            `json:"model"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

type embedAndStoreRequest struct {
	Texts        []string         `json:"texts"`
	MetadataList []map[string]any `json:"metadata_list"`
	Namespace    string           `json:"namespace"`
	Model        string           `json:"model"`
	ProjectID    string           `json:"project_id"`
}

// StoreResult reports the outcome of an embed-and-store call.
type StoreResult struct {
	VectorsStored    int    `json:"vectors_stored"`
	Model            string `json:"model"`
	Dimensions       int    `json:"dimensions"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// Feedback is a single RLHF interaction record.
type Feedback struct {
	Type     string         `json:"type"`
	Prompt   string         `json:"prompt"`
	Response string         `json:"response"`
	Rating   int            `json:"rating"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
