// Package config loads voicekit runtime configuration from YAML files.
//
// API keys are never read from configuration files; they come from the
// environment (OPENAI_API_KEY).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration.
type Config struct {
	// Language is the session locale, e.g. "pt-BR".
	Language string `yaml:"language"`

	// Voice selects the synthesis voice ("" = provider default).
	Voice string `yaml:"voice"`

	// SpeakResponses controls whether audio turns synthesize answers.
	SpeakResponses bool `yaml:"speak_responses"`

	// MaxContextTurns bounds the conversation window fed to generation.
	MaxContextTurns int `yaml:"max_context_turns"`

	// MaxTurnsPerSession refuses new turns beyond this count. 0 = unlimited.
	MaxTurnsPerSession int `yaml:"max_turns_per_session"`

	// SessionTimeout refuses new turns after this much idle time. 0 = disabled.
	SessionTimeout time.Duration `yaml:"session_timeout"`

	STT     STTConfig     `yaml:"stt"`
	TTS     TTSConfig     `yaml:"tts"`
	RAG     RAGConfig     `yaml:"rag"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// STTConfig configures the transcription provider.
type STTConfig struct {
	Model string `yaml:"model"`
}

// TTSConfig configures the synthesis provider.
type TTSConfig struct {
	Model  string  `yaml:"model"`
	Format string  `yaml:"format"`
	Speed  float64 `yaml:"speed"`
}

// RAGConfig configures retrieval and generation.
type RAGConfig struct {
	// TopK is the number of candidates retrieved per query.
	TopK int `yaml:"top_k"`

	// ConfidenceThreshold is the mean-score gate below which the fixed
	// fallback answer is returned without a generation call.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	Model string `yaml:"model"`

	// Qdrant locates the vector collection backing retrieval.
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig locates a Qdrant collection.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

// StoreConfig configures the conversation context store.
type StoreConfig struct {
	// Driver selects the backend: "memory" or "redis".
	Driver string `yaml:"driver"`

	// MaxMessages caps each session's history.
	MaxMessages int `yaml:"max_messages"`

	// TTL evicts sessions idle longer than this.
	TTL time.Duration `yaml:"ttl"`

	// RedisAddr is the host:port of the Redis backend (driver "redis").
	RedisAddr string `yaml:"redis_addr"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Language:        "pt-BR",
		SpeakResponses:  true,
		MaxContextTurns: 3,
		RAG: RAGConfig{
			TopK:                3,
			ConfidenceThreshold: 0.5,
		},
		Store: StoreConfig{
			Driver:      "memory",
			MaxMessages: 10,
			TTL:         60 * time.Minute,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads a YAML configuration file and merges it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.RAG.TopK < 1 {
		return fmt.Errorf("rag.top_k must be at least 1, got %d", c.RAG.TopK)
	}
	if c.RAG.ConfidenceThreshold < 0 || c.RAG.ConfidenceThreshold > 1 {
		return fmt.Errorf("rag.confidence_threshold must be in [0,1], got %g", c.RAG.ConfidenceThreshold)
	}
	if c.MaxContextTurns < 0 {
		return fmt.Errorf("max_context_turns must not be negative, got %d", c.MaxContextTurns)
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// OpenAIAPIKey returns the provider credential from the environment.
func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
