package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv redirects config and data paths into a temp dir and clears
// every config-relevant environment variable.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, s := range specs {
		t.Setenv(s.env, "")
		os.Unsetenv(s.env)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ZERODB_API_URL", "https://api.example.com")
	t.Setenv("ZERODB_PROJECT_ID", "proj-1")
	t.Setenv("ZERODB_EMAIL", "ops@example.com")
	t.Setenv("ZERODB_PASSWORD", "hunter2-example")
	t.Setenv("META_BASE_URL", "https://llama.example.com/v1")
	t.Setenv("META_API_KEY", "sk-example")
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.ZeroDB.Namespace != "knowledge_base" {
		t.Errorf("namespace = %q", cfg.ZeroDB.Namespace)
	}
	if cfg.Retrieval.Limit != 5 || cfg.Retrieval.Threshold != 0.7 {
		t.Errorf("retrieval = %d/%v", cfg.Retrieval.Limit, cfg.Retrieval.Threshold)
	}
	if cfg.Retrieval.EmbedModel != "BAAI/bge-small-en-v1.5" {
		t.Errorf("embed model = %q", cfg.Retrieval.EmbedModel)
	}
	if cfg.Llama.Model != "Llama-4-Maverick-17B-128E-Instruct-FP8" {
		t.Errorf("model = %q", cfg.Llama.Model)
	}
	if cfg.Llama.MaxTokens != 1000 {
		t.Errorf("max_tokens = %d", cfg.Llama.MaxTokens)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	os.Unsetenv("ZERODB_PASSWORD")
	os.Unsetenv("META_API_KEY")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ZERODB_PASSWORD") || !strings.Contains(msg, "META_API_KEY") {
		t.Errorf("error does not name the missing env vars: %v", err)
	}
	// Error names variables, never values.
	if strings.Contains(msg, "hunter2") || strings.Contains(msg, "sk-example") {
		t.Errorf("error leaks a secret value: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	setRequired(t)
	t.Setenv("ZEROCHAT_SERVER_PORT", "8080")
	t.Setenv("ZEROCHAT_RETRIEVAL_THRESHOLD", "0.55")
	t.Setenv("ZERODB_NAMESPACE", "docs")
	t.Setenv("META_MODEL", "Llama-3.3-70B-Instruct")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Retrieval.Threshold != 0.55 {
		t.Errorf("threshold = %v", cfg.Retrieval.Threshold)
	}
	if cfg.ZeroDB.Namespace != "docs" {
		t.Errorf("namespace = %q", cfg.ZeroDB.Namespace)
	}
	if cfg.Llama.Model != "Llama-3.3-70B-Instruct" {
		t.Errorf("model = %q", cfg.Llama.Model)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolateEnv(t)
	setRequired(t)

	if err := SetKey("server.port", "9999"); err != nil {
		t.Fatalf("setting key: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("file value not applied: port = %d", cfg.Server.Port)
	}

	// Environment beats the file backend.
	t.Setenv("ZEROCHAT_SERVER_PORT", "8081")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("env did not override file: port = %d", cfg.Server.Port)
	}
}

func TestSetKey(t *testing.T) {
	isolateEnv(t)

	if err := SetKey("log.level", "debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := LoadPartial()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}

	// Config file lands under the XDG path with owner-only permissions.
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "zerochat", "config.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}

func TestSetKey_RejectsSecrets(t *testing.T) {
	isolateEnv(t)
	for _, key := range []string{"zerodb.password", "zerodb.username", "llama.api_key", "server.api_token"} {
		err := SetKey(key, "value")
		if err == nil {
			t.Errorf("SetKey(%q) accepted a secret", key)
		}
	}
}

func TestSetKey_Unknown(t *testing.T) {
	isolateEnv(t)
	if err := SetKey("nonsense.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := SetKey("retrieval.limit", "not-a-number"); err == nil {
		t.Error("expected error for bad integer")
	}
}

func TestShowAll_RedactsSecrets(t *testing.T) {
	isolateEnv(t)
	setRequired(t)

	cfg, err := LoadPartial()
	if err != nil {
		t.Fatal(err)
	}

	for _, info := range ShowAll(cfg) {
		switch info.Key {
		case "zerodb.password":
			if info.Value != "(set, hidden)" {
				t.Errorf("password shown as %q", info.Value)
			}
		case "server.api_token":
			if info.Value != "(unset)" {
				t.Errorf("unset secret shown as %q", info.Value)
			}
		}
		if strings.Contains(info.Value, "hunter2") || strings.Contains(info.Value, "sk-example") {
			t.Errorf("%s leaks a secret: %q", info.Key, info.Value)
		}
	}
}

func TestCompletionTimeout(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"2m", 2 * time.Minute},
		{"garbage", 30 * time.Second},
		{"", 30 * time.Second},
		{"-5s", 30 * time.Second},
	}
	for _, tc := range cases {
		cfg := Config{Llama: LlamaConfig{Timeout: tc.raw}}
		if got := cfg.CompletionTimeout(); got != tc.want {
			t.Errorf("CompletionTimeout(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
