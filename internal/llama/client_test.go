package llama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Errorf("Authorization = %q", auth)
		}

		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "custom-model" {
			t.Errorf("model = %q, want custom-model", req.Model)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("max_tokens = %d, want 1000", req.MaxTokens)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", "default-model", 0, 0)
	got, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "ctx"},
		{Role: "user", Content: "hi"},
	}, "custom-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello there" {
		t.Errorf("content = %q, want %q", got, "hello there")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "", 0, 0)
	got, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("content = %q, want empty", got)
	}
}

func TestComplete_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate limited")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "", 0, 0)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, "")
	var compErr *CompletionError
	if !errors.As(err, &compErr) {
		t.Fatalf("error = %v, want *CompletionError", err)
	}
	if compErr.Status != http.StatusTooManyRequests || compErr.Body != "rate limited" {
		t.Errorf("got %+v", compErr)
	}
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "k", "", 0, 50*time.Millisecond)
	start := time.Now()
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, "")
	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if toErr.Limit != 50*time.Millisecond {
		t.Errorf("Limit = %s", toErr.Limit)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("request was not aborted promptly: %s", elapsed)
	}
}

func TestComplete_CallerCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := NewClient(srv.URL, "k", "", 0, time.Minute)
	_, err := c.Complete(ctx, []Message{{Role: "user", Content: "hi"}}, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	var toErr *TimeoutError
	if errors.As(err, &toErr) {
		t.Error("caller cancellation must not be reported as a timeout")
	}
}

func TestComplete_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "k", "", 0, 0)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, "")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
}

func TestResolveModel(t *testing.T) {
	cases := []struct {
		name         string
		defaultModel string
		requested    string
		want         string
	}{
		{"request wins", "configured", "requested", "requested"},
		{"config next", "configured", "", "configured"},
		{"fallback last", "", "", "Llama-4-Maverick-17B-128E-Instruct-FP8"},
	}
	for _, tc := range cases {
		c := NewClient("http://example.invalid", "k", tc.defaultModel, 0, 0)
		if got := c.ResolveModel(tc.requested); got != tc.want {
			t.Errorf("%s: ResolveModel(%q) = %q, want %q", tc.name, tc.requested, got, tc.want)
		}
	}
}
