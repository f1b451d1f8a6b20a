// Package config loads application configuration from a TOML file with
// environment overrides. Secrets (API keys) come from the environment
// only, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultAddr            = ":8080"
	DefaultTopK            = 5
	DefaultMaxChunkChars   = 1000
	DefaultChunkOverlap    = 200
	DefaultMaxContextChars = 4000
	DefaultConcurrency     = 4
)

// Config is the root application configuration.
type Config struct {
	// DataDir holds the databases and uploaded files
	// (default: ~/.docquery).
	DataDir string `toml:"data_dir"`

	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Vectors   VectorsConfig   `toml:"vectors"`
	Ingest    IngestConfig    `toml:"ingest"`
	Query     QueryConfig     `toml:"query"`
	Watch     WatchConfig     `toml:"watch"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default: ":8080").
	Addr string `toml:"addr"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is "json" or "console".
	Format string `toml:"format"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "local" (default: local when no API key
	// is configured, openai otherwise).
	Provider string `toml:"provider"`

	// APIKey comes from OPENAI_API_KEY when empty.
	APIKey string `toml:"-"`

	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	Dimensions        int     `toml:"dimensions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	// Provider is "gemini", "openai" or "none" (default: gemini when
	// GEMINI_API_KEY is set, otherwise none).
	Provider string `toml:"provider"`

	// APIKey comes from GEMINI_API_KEY or OPENAI_API_KEY depending on
	// the provider when empty.
	APIKey string `toml:"-"`

	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// VectorsConfig selects the vector store backend.
type VectorsConfig struct {
	// Backend is "sqlite", "memory" or "qdrant" (default: sqlite).
	Backend string `toml:"backend"`

	Qdrant QdrantConfig `toml:"qdrant"`
}

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	URL string `toml:"url"`

	// APIKey comes from QDRANT_API_KEY when empty.
	APIKey string `toml:"-"`

	CollectionPrefix string `toml:"collection_prefix"`
}

// IngestConfig tunes the write path.
type IngestConfig struct {
	MaxChunkChars int `toml:"max_chunk_chars"`
	ChunkOverlap  int `toml:"chunk_overlap"`
	Concurrency   int `toml:"concurrency"`
}

// QueryConfig tunes the read path.
type QueryConfig struct {
	TopK            int `toml:"top_k"`
	MaxContextChars int `toml:"max_context_chars"`
}

// WatchConfig configures the hot-folder watcher.
type WatchConfig struct {
	// Dir is the folder to watch; empty disables watching.
	Dir string `toml:"dir"`

	// DebounceMillis is how long a file must stay quiet before it is
	// ingested (default: 500).
	DebounceMillis int `toml:"debounce_millis"`
}

// Load reads configuration from the TOML file at path. A missing file
// is not an error; defaults and environment variables apply either
// way. An empty path tries ~/.docquery/config.toml.
func Load(path string) (*Config, error) {
	// Best effort: a .env in the working directory seeds the process
	// environment for local development.
	_ = godotenv.Load()

	cfg := &Config{}

	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".docquery", "config.toml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv pulls secrets and overrides from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("DOCQUERY_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DOCQUERY_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.Vectors.Qdrant.APIKey = v
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = openaiKey
	}
	if c.Embedding.Provider == "" {
		if c.Embedding.APIKey != "" {
			c.Embedding.Provider = "openai"
		} else {
			c.Embedding.Provider = "local"
		}
	}

	if c.LLM.Provider == "" {
		switch {
		case geminiKey != "":
			c.LLM.Provider = "gemini"
		case openaiKey != "":
			c.LLM.Provider = "openai"
		default:
			c.LLM.Provider = "none"
		}
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.APIKey = geminiKey
		case "openai":
			c.LLM.APIKey = openaiKey
		}
	}
}

// applyDefaults fills unset values.
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".docquery")
		} else {
			c.DataDir = ".docquery"
		}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Vectors.Backend == "" {
		c.Vectors.Backend = "sqlite"
	}
	if c.Ingest.MaxChunkChars <= 0 {
		c.Ingest.MaxChunkChars = DefaultMaxChunkChars
	}
	if c.Ingest.ChunkOverlap <= 0 {
		c.Ingest.ChunkOverlap = DefaultChunkOverlap
	}
	if c.Ingest.Concurrency <= 0 {
		c.Ingest.Concurrency = DefaultConcurrency
	}
	if c.Query.TopK <= 0 {
		c.Query.TopK = DefaultTopK
	}
	if c.Query.MaxContextChars <= 0 {
		c.Query.MaxContextChars = DefaultMaxContextChars
	}
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = 500
	}
}

// UploadDir is where raw file bytes are stored.
func (c *Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}
