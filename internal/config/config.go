package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	ZeroDB    ZeroDBConfig
	Retrieval RetrievalConfig
	Llama     LlamaConfig
}

type ServerConfig struct {
	Port     int
	APIToken string
}

type LogConfig struct {
	Level string
}

type StorageConfig struct {
	DataDir string
}

// ZeroDBConfig holds the vector-store service endpoint and credentials.
// Username and Password are exchanged for a short-lived bearer token on
// every chat turn; they are never logged.
type ZeroDBConfig struct {
	BaseURL   string
	ProjectID string
	Username  string
	Password  string
	Namespace string
}

type RetrievalConfig struct {
	Limit      int
	Threshold  float64
	EmbedModel string
}

// LlamaConfig holds the completion-service endpoint, credential, and
// generation parameters.
type LlamaConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		ZeroDB: ZeroDBConfig{
			Namespace: "knowledge_base",
		},
		Retrieval: RetrievalConfig{
			Limit:      5,
			Threshold:  0.7,
			EmbedModel: "BAAI/bge-small-en-v1.5",
		},
		Llama: LlamaConfig{
			Model:     "Llama-4-Maverick-17B-128E-Instruct-FP8",
			MaxTokens: 1000,
			Timeout:   "30s",
		},
	}
}

// Load reads configuration from the JSON file backend
// ($XDG_CONFIG_HOME/zerochat/config.json) and applies environment variable
// overrides, then validates that all required service credentials are set.
//
// Secret values (ZERODB_EMAIL, ZERODB_PASSWORD, META_API_KEY) are accepted
// only from the environment and are never echoed in error messages.
func Load() (Config, error) {
	cfg, err := LoadPartial()
	if err != nil {
		return Config{}, err
	}

	var missing []string
	for _, s := range specs {
		if !s.required {
			continue
		}
		if v, ok := s.extract(cfg).(string); ok && v == "" {
			missing = append(missing, s.env)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required config: set environment variable(s) %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// LoadPartial loads configuration without enforcing required keys. Used by
// commands that only display or mutate config (list, set, status).
func LoadPartial() (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, newFileBackend()); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	return cfg, nil
}

// CompletionTimeout parses the llama.timeout value, falling back to 30s on
// an invalid duration string.
func (c Config) CompletionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Llama.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
