// Package config loads runtime settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bull/grounded-chat/internal/domain"
)

// Generation providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendQdrant = "qdrant"
)

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig holds the ranking policy knobs.
type RetrievalConfig struct {
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint.
type EmbeddingConfig struct {
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GenerationConfig selects and configures the chat model.
type GenerationConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// RAGConfig configures the request pipeline.
type RAGConfig struct {
	HistoryPairs      int    `yaml:"history_pairs"`
	MaxQuestionLength int    `yaml:"max_question_length"`
	FallbackMessage   string `yaml:"fallback_message"`
}

// QdrantConfig contains connection details for the Qdrant mirror.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// StoreConfig selects where the server loads the vector store from.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	Path    string       `yaml:"path"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

// IngestConfig configures offline ingestion.
type IngestConfig struct {
	DelayMillis    int `yaml:"delay_ms"`
	RetryAfterSecs int `yaml:"rate_limit_retry_secs"`
}

// ServerConfig configures the transport binary.
type ServerConfig struct {
	Port     string `yaml:"port"`
	HTTPMode bool   `yaml:"http_mode"`
}

// Config is the root application configuration.
type Config struct {
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	RAG        RAGConfig        `yaml:"rag"`
	Store      StoreConfig      `yaml:"store"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Server     ServerConfig     `yaml:"server"`

	// Secrets come from the environment only.
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GitHubToken     string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Chunker:   ChunkerConfig{Size: 500, Overlap: 50},
		Retrieval: RetrievalConfig{TopK: 3, Threshold: 0.65},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small", TimeoutSecs: 30},
		Generation: GenerationConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   500,
			TimeoutSecs: 60,
		},
		RAG: RAGConfig{HistoryPairs: 5, MaxQuestionLength: 2000},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    "data/vector_store.json",
			Qdrant:  QdrantConfig{Host: "localhost", Port: 6334, Collection: "grounded_chunks"},
		},
		Ingest: IngestConfig{DelayMillis: 200, RetryAfterSecs: 60},
		Server: ServerConfig{Port: "8080"},
	}
}

// Load builds the configuration. A missing file at path (or an empty path)
// keeps the defaults. A .env file in the working directory is loaded into
// the environment without overriding variables that are already set.
// Load does not validate; call Validate before use.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, domain.Configurationf("read config %s: %v", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, domain.Configurationf("parse config %s: %v", path, err)
			}
		}
	}

	_ = godotenv.Load() // optional, missing .env is not an error

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.GitHubToken, "GITHUB_TOKEN")
	setString(&cfg.Embedding.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Generation.Provider, "GENERATION_PROVIDER")
	setString(&cfg.Generation.Model, "CHAT_MODEL")
	setString(&cfg.Store.Path, "VECTOR_STORE_PATH")
	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setString(&cfg.Store.Qdrant.Host, "QDRANT_HOST")
	setString(&cfg.Store.Qdrant.Collection, "QDRANT_COLLECTION")
	setString(&cfg.Server.Port, "PORT")

	if v := os.Getenv("SERVER_MODE"); v != "" {
		cfg.Server.HTTPMode = v == "true"
	}
	if err := setInt(&cfg.Retrieval.TopK, "TOP_K"); err != nil {
		return err
	}
	if err := setInt(&cfg.Store.Qdrant.Port, "QDRANT_PORT"); err != nil {
		return err
	}
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.Configurationf("SIMILARITY_THRESHOLD=%q: %v", v, err)
		}
		cfg.Retrieval.Threshold = f
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return domain.Configurationf("%s=%q: %v", key, v, err)
	}
	*dst = i
	return nil
}

// Validate reports the first invalid setting, wrapped in
// domain.ErrConfiguration.
func (c *Config) Validate() error {
	switch {
	case c.Chunker.Size <= 0 || c.Chunker.Overlap <= 0 || c.Chunker.Overlap >= c.Chunker.Size:
		return domain.Configurationf("chunker requires 0 < overlap < size, got size=%d overlap=%d",
			c.Chunker.Size, c.Chunker.Overlap)
	case c.Retrieval.TopK <= 0:
		return domain.Configurationf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	case math.IsNaN(c.Retrieval.Threshold) || c.Retrieval.Threshold < -1 || c.Retrieval.Threshold > 1:
		return domain.Configurationf("retrieval.threshold must be in [-1, 1], got %g", c.Retrieval.Threshold)
	case math.IsNaN(c.Generation.Temperature) || c.Generation.Temperature < 0 || c.Generation.Temperature > 2:
		return domain.Configurationf("generation.temperature must be in [0, 2], got %g", c.Generation.Temperature)
	case c.Generation.MaxTokens <= 0:
		return domain.Configurationf("generation.max_tokens must be positive, got %d", c.Generation.MaxTokens)
	case c.RAG.HistoryPairs <= 0:
		return domain.Configurationf("rag.history_pairs must be positive, got %d", c.RAG.HistoryPairs)
	case c.RAG.MaxQuestionLength <= 0:
		return domain.Configurationf("rag.max_question_length must be positive, got %d", c.RAG.MaxQuestionLength)
	case c.OpenAIAPIKey == "":
		return domain.Configurationf("OPENAI_API_KEY is required for embeddings")
	}

	switch c.Generation.Provider {
	case ProviderOpenAI:
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return domain.Configurationf("ANTHROPIC_API_KEY is required for provider %q", ProviderAnthropic)
		}
	default:
		return domain.Configurationf("unknown generation provider %q", c.Generation.Provider)
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			return domain.Configurationf("store.path is required for the file backend")
		}
	case BackendQdrant:
		if c.Store.Qdrant.Host == "" || c.Store.Qdrant.Collection == "" {
			return domain.Configurationf("store.qdrant host and collection are required")
		}
	default:
		return domain.Configurationf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// EmbeddingTimeout returns the per-request embedding timeout.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSecs) * time.Second
}

// GenerationTimeout returns the per-request generation timeout.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSecs) * time.Second
}

// IngestDelay returns the pause between embedding calls during ingestion.
func (c *Config) IngestDelay() time.Duration {
	return time.Duration(c.Ingest.DelayMillis) * time.Millisecond
}

// IngestRetry returns how long ingestion keeps retrying rate-limited calls.
func (c *Config) IngestRetry() time.Duration {
	return time.Duration(c.Ingest.RetryAfterSecs) * time.Second
}

// String renders the non-secret settings for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("chunk=%d/%d top_k=%d threshold=%.2f provider=%s model=%s store=%s",
		c.Chunker.Size, c.Chunker.Overlap, c.Retrieval.TopK, c.Retrieval.Threshold,
		c.Generation.Provider, c.Generation.Model, c.Store.Backend)
}
