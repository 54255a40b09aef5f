package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key      string
	typ      keyType
	env      string
	secret   bool
	required bool
	apply    func(cfg *Config, v any)
	extract  func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "ZEROCHAT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "ZEROCHAT_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "log.level", typ: kString, env: "ZEROCHAT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "storage.data_dir", typ: kString, env: "ZEROCHAT_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "zerodb.base_url", typ: kString, env: "ZERODB_API_URL",
		required: true,
		apply:    func(cfg *Config, v any) { cfg.ZeroDB.BaseURL = v.(string) },
		extract:  func(cfg Config) any { return cfg.ZeroDB.BaseURL },
	},
	{
		key: "zerodb.project_id", typ: kString, env: "ZERODB_PROJECT_ID",
		required: true,
		apply:    func(cfg *Config, v any) { cfg.ZeroDB.ProjectID = v.(string) },
		extract:  func(cfg Config) any { return cfg.ZeroDB.ProjectID },
	},
	{
		key: "zerodb.username", typ: kString, env: "ZERODB_EMAIL",
		secret: true, required: true,
		apply:   func(cfg *Config, v any) { cfg.ZeroDB.Username = v.(string) },
		extract: func(cfg Config) any { return cfg.ZeroDB.Username },
	},
	{
		key: "zerodb.password", typ: kString, env: "ZERODB_PASSWORD",
		secret: true, required: true,
		apply:   func(cfg *Config, v any) { cfg.ZeroDB.Password = v.(string) },
		extract: func(cfg Config) any { return cfg.ZeroDB.Password },
	},
	{
		key: "zerodb.namespace", typ: kString, env: "ZERODB_NAMESPACE",
		apply:   func(cfg *Config, v any) { cfg.ZeroDB.Namespace = v.(string) },
		extract: func(cfg Config) any { return cfg.ZeroDB.Namespace },
	},
	{
		key: "retrieval.limit", typ: kInt, env: "ZEROCHAT_RETRIEVAL_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.Limit = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.Limit },
	},
	{
		key: "retrieval.threshold", typ: kFloat, env: "ZEROCHAT_RETRIEVAL_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.Threshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Retrieval.Threshold },
	},
	{
		key: "retrieval.embed_model", typ: kString, env: "ZEROCHAT_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Retrieval.EmbedModel },
	},
	{
		key: "llama.base_url", typ: kString, env: "META_BASE_URL",
		required: true,
		apply:    func(cfg *Config, v any) { cfg.Llama.BaseURL = v.(string) },
		extract:  func(cfg Config) any { return cfg.Llama.BaseURL },
	},
	{
		key: "llama.api_key", typ: kString, env: "META_API_KEY",
		secret: true, required: true,
		apply:   func(cfg *Config, v any) { cfg.Llama.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Llama.APIKey },
	},
	{
		key: "llama.model", typ: kString, env: "META_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Llama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Llama.Model },
	},
	{
		key: "llama.max_tokens", typ: kInt, env: "ZEROCHAT_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Llama.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Llama.MaxTokens },
	},
	{
		key: "llama.timeout", typ: kString, env: "ZEROCHAT_COMPLETION_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Llama.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Llama.Timeout },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
