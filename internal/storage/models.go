package storage

import "time"

// Interaction is one completed (or failed) chat turn. Persisted locally for
// the /interactions endpoint and the status CLI; never sent anywhere.
type Interaction struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UserQuery  string    `json:"user_query"`
	Model      string    `json:"model"`
	Response   string    `json:"response"`
	UsedRAG    bool      `json:"used_rag"`
	Status     string    `json:"status"` // "ok" or "failed"
	DurationMs int64     `json:"duration_ms"`
}

// FeedbackRecord is a local mirror of an RLHF rating forwarded to ZeroDB.
type FeedbackRecord struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
