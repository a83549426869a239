package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrUnknownEmbedder     = errors.New("embedder.type must be one of: hashing, openai")
	ErrUnknownStore        = errors.New("vector_store.type must be one of: local, memory, qdrant, pgvector")
	ErrUnknownDedupe       = errors.New("dedupe.type must be one of: memory, redis")
	ErrUnknownEvents       = errors.New("events.type must be one of: none, kafka")
	ErrUnknownRelevance    = errors.New("validator.relevance.type must be one of: none, keywords, llm")
	ErrInvalidThreshold    = errors.New("validator.duplicate_threshold must be in (0, 1]")
	ErrInvalidTopK         = errors.New("rag.top_k must be at least 1")
	ErrMissingCollection   = errors.New("vector_store.collection is required")
	ErrMissingStoreDir     = errors.New("vector_store.dir is required for the local store")
	ErrMissingQdrantURL    = errors.New("vector_store.qdrant.url is required")
	ErrMissingPGDSN        = errors.New("vector_store.pgvector.dsn is required")
	ErrMissingKafkaBrokers = errors.New("events.kafka.brokers is required")
	ErrMissingKeywords     = errors.New("validator.relevance.keywords is required for keyword relevance")
	ErrSourceMissingURL    = errors.New("source url is required")
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FetcherConfig configures page downloads.
type FetcherConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs"`
	UserAgent   string `yaml:"user_agent"`
	MaxBodyKB   int    `yaml:"max_body_kb"`
}

// LLMConfig configures the OpenAI-compatible chat model used for cleaning,
// relevance checks and answers.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// CleanerConfig configures LLM-assisted boilerplate removal.
type CleanerConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxInputChars int  `yaml:"max_input_chars"`
}

// RelevanceConfig selects the optional topical relevance check.
type RelevanceConfig struct {
	Type     string   `yaml:"type"`
	Keywords []string `yaml:"keywords,omitempty"`
	MinHits  int      `yaml:"min_hits"`
}

// ValidatorConfig holds acceptance thresholds.
type ValidatorConfig struct {
	MinChars           int             `yaml:"min_chars"`
	MinWords           int             `yaml:"min_words"`
	DuplicateThreshold float64         `yaml:"duplicate_threshold"`
	Relevance          RelevanceConfig `yaml:"relevance"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PGVectorConfig contains connection details for a PostgreSQL/pgvector store.
type PGVectorConfig struct {
	DSN string `yaml:"dsn"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string          `yaml:"type"`
	Dir        string          `yaml:"dir"`
	Collection string          `yaml:"collection"`
	Qdrant     *QdrantConfig   `yaml:"qdrant,omitempty"`
	PGVector   *PGVectorConfig `yaml:"pgvector,omitempty"`
}

// RedisConfig configures the redis fingerprint index.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// DedupeConfig selects the exact-duplicate fingerprint index.
type DedupeConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// KafkaConfig configures the ingest event publisher.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// EventsConfig selects the ingest event publisher.
type EventsConfig struct {
	Type  string       `yaml:"type"`
	Kafka *KafkaConfig `yaml:"kafka,omitempty"`
}

// RAGConfig configures question answering.
type RAGConfig struct {
	TopK             int    `yaml:"top_k"`
	MaxContextChars  int    `yaml:"max_context_chars"`
	NoDataAnswer     string `yaml:"no_data_answer"`
	SummarySentences int    `yaml:"summary_sentences"`
}

// SourceConfig is one entry of the batch ("cron") source list.
type SourceConfig struct {
	Name     string `yaml:"name,omitempty"`
	URL      string `yaml:"url"`
	Feed     bool   `yaml:"feed,omitempty"`
	MaxItems int    `yaml:"max_items,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	LLM         LLMConfig         `yaml:"llm"`
	Cleaner     CleanerConfig     `yaml:"cleaner"`
	Validator   ValidatorConfig   `yaml:"validator"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Dedupe      DedupeConfig      `yaml:"dedupe"`
	Events      EventsConfig      `yaml:"events"`
	RAG         RAGConfig         `yaml:"rag"`
	Sources     []SourceConfig    `yaml:"sources"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	// Start from defaults so omitted booleans like cleaner.enabled keep their default.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/newsrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/newsrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "newsrag", "config.yaml"), nil
}

// Default returns the built-in configuration: offline hashing embedder,
// local on-disk store, in-memory dedupe and no event publishing.
func Default() *AppConfig {
	cfg := &AppConfig{
		Server:  ServerConfig{Addr: ":8000", CORSOrigins: []string{"*"}},
		Logging: LoggingConfig{Level: "info"},
		Fetcher: FetcherConfig{
			TimeoutSecs: 10,
			UserAgent:   "Mozilla/5.0 (compatible; newsrag/1.0)",
			MaxBodyKB:   2048,
		},
		LLM: LLMConfig{
			BaseURL:     "https://router.huggingface.co/v1",
			APIKeyEnv:   "HF_TOKEN",
			Model:       "meta-llama/Llama-3.1-8B-Instruct",
			Temperature: 0.1,
			MaxTokens:   400,
			TimeoutSecs: 60,
		},
		Cleaner: CleanerConfig{Enabled: true, MaxInputChars: 4000},
		Validator: ValidatorConfig{
			MinChars:           50,
			DuplicateThreshold: 0.85,
			Relevance:          RelevanceConfig{Type: "none", MinHits: 1},
		},
		Embedder:    EmbedderConfig{Type: "hashing", Dimension: 384},
		VectorStore: VectorStoreConfig{Type: "local", Dir: "vector_store", Collection: "news"},
		Dedupe:      DedupeConfig{Type: "memory"},
		Events:      EventsConfig{Type: "none"},
		RAG: RAGConfig{
			TopK:             3,
			MaxContextChars:  3000,
			NoDataAnswer:     "No data available yet. Scrape some articles first.",
			SummarySentences: 3,
		},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Fetcher.TimeoutSecs == 0 {
		cfg.Fetcher.TimeoutSecs = def.Fetcher.TimeoutSecs
	}
	if cfg.Fetcher.UserAgent == "" {
		cfg.Fetcher.UserAgent = def.Fetcher.UserAgent
	}
	if cfg.Fetcher.MaxBodyKB == 0 {
		cfg.Fetcher.MaxBodyKB = def.Fetcher.MaxBodyKB
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = def.LLM.BaseURL
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = def.LLM.APIKeyEnv
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = def.LLM.TimeoutSecs
	}
	if cfg.Cleaner.MaxInputChars == 0 {
		cfg.Cleaner.MaxInputChars = def.Cleaner.MaxInputChars
	}
	if cfg.Validator.DuplicateThreshold == 0 {
		cfg.Validator.DuplicateThreshold = def.Validator.DuplicateThreshold
	}
	if cfg.Validator.Relevance.Type == "" {
		cfg.Validator.Relevance.Type = "none"
	}
	if cfg.Validator.Relevance.MinHits == 0 {
		cfg.Validator.Relevance.MinHits = 1
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = def.VectorStore.Type
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = def.VectorStore.Collection
	}
	if cfg.VectorStore.Type == "local" && cfg.VectorStore.Dir == "" {
		cfg.VectorStore.Dir = def.VectorStore.Dir
	}
	if cfg.VectorStore.Qdrant != nil && cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
		cfg.VectorStore.Qdrant.TimeoutSecs = 15
	}
	if cfg.Dedupe.Type == "" {
		cfg.Dedupe.Type = def.Dedupe.Type
	}
	if cfg.Dedupe.Redis != nil && cfg.Dedupe.Redis.Key == "" {
		cfg.Dedupe.Redis.Key = "newsrag:fingerprints"
	}
	if cfg.Events.Type == "" {
		cfg.Events.Type = def.Events.Type
	}
	if cfg.Events.Kafka != nil && cfg.Events.Kafka.Topic == "" {
		cfg.Events.Kafka.Topic = "newsrag.articles"
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = def.RAG.TopK
	}
	if cfg.RAG.MaxContextChars == 0 {
		cfg.RAG.MaxContextChars = def.RAG.MaxContextChars
	}
	if cfg.RAG.NoDataAnswer == "" {
		cfg.RAG.NoDataAnswer = def.RAG.NoDataAnswer
	}
	if cfg.RAG.SummarySentences == 0 {
		cfg.RAG.SummarySentences = def.RAG.SummarySentences
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Feed && cfg.Sources[i].MaxItems == 0 {
			cfg.Sources[i].MaxItems = 5
		}
	}
}

// Validate validates the configuration.
func (c *AppConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	switch c.Embedder.Type {
	case "hashing", "openai":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEmbedder, c.Embedder.Type)
	}

	if c.VectorStore.Collection == "" {
		return ErrMissingCollection
	}
	switch c.VectorStore.Type {
	case "memory":
	case "local":
		if c.VectorStore.Dir == "" {
			return ErrMissingStoreDir
		}
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			return ErrMissingQdrantURL
		}
	case "pgvector":
		if c.VectorStore.PGVector == nil || c.VectorStore.PGVector.DSN == "" {
			return ErrMissingPGDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.VectorStore.Type)
	}

	switch c.Dedupe.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDedupe, c.Dedupe.Type)
	}

	switch c.Events.Type {
	case "none":
	case "kafka":
		if c.Events.Kafka == nil || len(c.Events.Kafka.Brokers) == 0 {
			return ErrMissingKafkaBrokers
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvents, c.Events.Type)
	}

	switch c.Validator.Relevance.Type {
	case "none", "llm":
	case "keywords":
		if len(c.Validator.Relevance.Keywords) == 0 {
			return ErrMissingKeywords
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRelevance, c.Validator.Relevance.Type)
	}

	if c.Validator.DuplicateThreshold <= 0 || c.Validator.DuplicateThreshold > 1 {
		return ErrInvalidThreshold
	}
	if c.RAG.TopK < 1 {
		return ErrInvalidTopK
	}

	for i, src := range c.Sources {
		if src.URL == "" {
			return fmt.Errorf("%w: sources[%d]", ErrSourceMissingURL, i)
		}
	}
	return nil
}

// APIKey resolves the LLM token from the configured environment variable.
func (c LLMConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// String returns a short description of the config.
func (c *AppConfig) String() string {
	return fmt.Sprintf(
		"Config{Store: %s/%s, Embedder: %s, Sources: %d}",
		c.VectorStore.Type,
		c.VectorStore.Collection,
		c.Embedder.Type,
		len(c.Sources),
	)
}
