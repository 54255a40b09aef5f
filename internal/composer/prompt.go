// Package composer assembles the system prompt and sanitizes conversation
// history before dispatch to the completion API.
package composer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ainative/zerochat/internal/llama"
	"github.com/ainative/zerochat/internal/zerodb"
)

const (
	contextStart = "START CONTEXT"
	contextEnd   = "END CONTEXT"

	systemPreamble = `You are an AI assistant for AINative Studio, helping users understand ZeroDB and our AI infrastructure services. Format responses using markdown where applicable.

You specialize in:
- ZeroDB: Our managed vector database with built-in embeddings API
- Embeddings API: Free HuggingFace-based embeddings (BAAI/bge-small-en-v1.5, 384 dimensions)
- Meta Llama integration: How to use Llama models for chat completions
- RAG (Retrieval-Augmented Generation) systems
- Authentication with JWT tokens`

	systemFallback = `If the answer is not provided in the context, say "I don't have that information in my knowledge base, but I can help you find it in the ZeroDB documentation."`
)

// BuildContext concatenates the text of every search result into a single
// delimited block. The START/END markers are always present; with no results
// the block between them is empty. Result text resolves via
// SearchResult.Content (text field first, then document).
func BuildContext(results []zerodb.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content()
	}
	return contextStart + "\n" + strings.Join(texts, "\n") + "\n" + contextEnd
}

// SystemMessage builds the system message from the delimited context block.
// Pure function of its input: preamble, context block verbatim, then the
// missing-knowledge fallback instruction.
func SystemMessage(contextBlock string) llama.Message {
	return llama.Message{
		Role:    "system",
		Content: systemPreamble + "\n\n" + contextBlock + "\n\n" + systemFallback,
	}
}

// Sanitize reduces raw inbound messages to exactly {role, content}, dropping
// any extra fields (timestamps, client-only markers). A message carrying
// neither role nor content is malformed and fails the whole list.
func Sanitize(raw json.RawMessage) ([]llama.Message, error) {
	msgs, err := parseMessages(raw)
	if err != nil {
		return nil, err
	}

	out := make([]llama.Message, len(msgs))
	for i, m := range msgs {
		_, hasRole := m["role"]
		_, hasContent := m["content"]
		if !hasRole && !hasContent {
			return nil, fmt.Errorf("message %d has neither role nor content", i)
		}
		out[i] = llama.Message{
			Role:    getString(m, "role"),
			Content: getString(m, "content"),
		}
	}
	return out, nil
}

// rawMsg preserves all JSON fields on a message while allowing field access.
type rawMsg map[string]json.RawMessage

func parseMessages(data json.RawMessage) ([]rawMsg, error) {
	var msgs []rawMsg
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func getString(m rawMsg, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	json.Unmarshal(v, &s)
	return s
}
