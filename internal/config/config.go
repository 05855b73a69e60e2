package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pdf-rag/internal/models"
)

// RAGConfig holds the retrieval pipeline tunables.
type RAGConfig struct {
	ChunkSize       int     `yaml:"chunk_size"`
	ChunkOverlap    int     `yaml:"chunk_overlap"`
	TopK            int     `yaml:"top_k"`
	OverfetchFactor int     `yaml:"overfetch_factor"`
	MaxCandidates   int     `yaml:"max_candidates"`
	SimilarityFloor float64 `yaml:"similarity_floor"`
	DedupThreshold  float64 `yaml:"dedup_threshold"`
	MaxContextChars int     `yaml:"max_context_chars"`
	MaxQueryChars   int     `yaml:"max_query_chars"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Type       string `yaml:"type"` // chromem | postgres | memory
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// DatabaseConfig is the Postgres connection used when store type is postgres.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// LLMConfig configures one LLM endpoint (embedder or generator).
type LLMConfig struct {
	Provider    string `yaml:"provider"` // ollama | openai
	BaseURL     string `yaml:"base_url"`
	Key         string `yaml:"key"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type Config struct {
	RAG      RAGConfig      `yaml:"rag"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	InferLLM LLMConfig      `yaml:"infer_llm"`
}

// PgVectorDimension is the fixed width of the pgvector column in the
// Postgres store schema.
const PgVectorDimension = 768

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.OverfetchFactor == 0 {
		cfg.RAG.OverfetchFactor = 3
	}
	if cfg.RAG.MaxCandidates == 0 {
		cfg.RAG.MaxCandidates = 50
	}
	if cfg.RAG.DedupThreshold == 0 {
		cfg.RAG.DedupThreshold = 0.9
	}
	if cfg.RAG.MaxContextChars == 0 {
		cfg.RAG.MaxContextChars = 4000
	}
	if cfg.RAG.MaxQueryChars == 0 {
		cfg.RAG.MaxQueryChars = 512
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "chromem"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./chromemdb"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "documents"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.Dimension == 0 {
		cfg.EmbedLLM.Dimension = PgVectorDimension
	}
	if cfg.EmbedLLM.TimeoutSecs == 0 {
		cfg.EmbedLLM.TimeoutSecs = 30
	}
	if cfg.InferLLM.Provider == "" {
		cfg.InferLLM.Provider = "ollama"
	}
	if cfg.InferLLM.TimeoutSecs == 0 {
		cfg.InferLLM.TimeoutSecs = 60
	}
}

// applyEnvOverrides lets API keys come from the environment (a .env file is
// loaded by the CLI) so they stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EMBED_LLM_KEY"); v != "" {
		cfg.EmbedLLM.Key = v
	}
	if v := os.Getenv("INFER_LLM_KEY"); v != "" {
		cfg.InferLLM.Key = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
}

// Validate rejects geometry that would corrupt chunk bookkeeping. Invalid
// values are an error, never silently corrected.
func (cfg *Config) Validate() error {
	r := cfg.RAG
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be > 0, got %d", models.ErrConfiguration, r.ChunkSize)
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must satisfy 0 <= overlap < chunk_size, got overlap=%d size=%d",
			models.ErrConfiguration, r.ChunkOverlap, r.ChunkSize)
	}
	if r.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", models.ErrConfiguration, r.TopK)
	}
	if r.OverfetchFactor < 1 {
		return fmt.Errorf("%w: overfetch_factor must be >= 1, got %d", models.ErrConfiguration, r.OverfetchFactor)
	}
	if r.MaxCandidates < r.TopK {
		return fmt.Errorf("%w: max_candidates must be >= top_k, got %d", models.ErrConfiguration, r.MaxCandidates)
	}
	if r.SimilarityFloor < 0 || r.SimilarityFloor > 1 {
		return fmt.Errorf("%w: similarity_floor must be in [0,1], got %f", models.ErrConfiguration, r.SimilarityFloor)
	}
	if r.DedupThreshold <= 0 || r.DedupThreshold > 1 {
		return fmt.Errorf("%w: dedup_threshold must be in (0,1], got %f", models.ErrConfiguration, r.DedupThreshold)
	}
	if r.MaxContextChars <= 0 {
		return fmt.Errorf("%w: max_context_chars must be > 0, got %d", models.ErrConfiguration, r.MaxContextChars)
	}
	switch cfg.Store.Type {
	case "chromem", "postgres", "memory":
	default:
		return fmt.Errorf("%w: unknown store type %q", models.ErrConfiguration, cfg.Store.Type)
	}
	if cfg.Store.Type == "postgres" && cfg.EmbedLLM.Dimension != PgVectorDimension {
		return fmt.Errorf("%w: postgres store requires embedding dimension %d, got %d",
			models.ErrConfiguration, PgVectorDimension, cfg.EmbedLLM.Dimension)
	}
	return nil
}
