package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every environment-configurable knob for the service,
// loaded once at startup.
type Config struct {
	Port string

	// Vector store connection
	VectorStoreURL   string
	VectorStoreIndex string
	VectorStoreAPIKey string

	// Embedding service connection
	EmbedEndpoint string
	EmbedAPIKey   string
	EmbedModel    string
	EmbedDims     int

	// Object store (PDF ingest) connection
	ObjectStoreURL       string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string

	// Auth
	APIKey string

	// Chunking
	ChunkPreset  string
	ChunkSize    int
	ChunkOverlap int
	MinChunkSize int

	// Matching / aggregation
	TopKResults        int
	MinScoreThreshold  float64
	MaxResultsPerSource int
	SimilarityCritical float64
	SimilarityHigh     float64
	SimilarityMedium   float64
	SimilarityLow      float64

	// Worker pool / batching
	MaxParallelSearches int
	EmbedBatchSize      int
	EmbedMaxAttempts    int

	// Timeouts
	EmbedTimeout   time.Duration
	SearchTimeout  time.Duration
	RequestTimeout time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Health
	HealthCheckInterval time.Duration
}

// chunkPreset is one row of the built-in chunk-size preset table,
// expressed as YAML data. The table is compiled in; operators pick a row
// with CHUNK_PRESET and override single fields with the CHUNK_* variables.
type chunkPreset struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MinChunkSize int `yaml:"min_chunk_size"`
}

// chunkPresetsYAML captures the two chunk-size conventions found across
// the source documents this service was built from: "default" reflects
// the narrower, more recent convention; "legacy" reflects the wider one
// still used by some older ingested corpora.
const chunkPresetsYAML = `
default:
  chunk_size: 100
  chunk_overlap: 20
  min_chunk_size: 30
legacy:
  chunk_size: 250
  chunk_overlap: 50
  min_chunk_size: 50
`

func chunkPresets() map[string]chunkPreset {
	var presets map[string]chunkPreset
	if err := yaml.Unmarshal([]byte(chunkPresetsYAML), &presets); err != nil {
		// The table above is a compile-time constant; a parse failure here
		// means the constant itself is broken, not bad operator input.
		panic(fmt.Sprintf("config: invalid built-in chunk preset table: %v", err))
	}
	return presets
}

func Load() Config {
	preset := envOr("CHUNK_PRESET", "default")
	presets := chunkPresets()
	base, ok := presets[preset]
	if !ok {
		base = presets["default"]
	}

	cfg := Config{
		Port: envOr("PORT", "8090"),

		VectorStoreURL:    envOr("VECTOR_STORE_URL", "http://localhost:9200"),
		VectorStoreIndex:  envOr("VECTOR_STORE_INDEX", "plagiscan-documents"),
		VectorStoreAPIKey: os.Getenv("VECTOR_STORE_API_KEY"),

		EmbedEndpoint: envOr("EMBED_ENDPOINT", "http://localhost:8091/v1/embeddings"),
		EmbedAPIKey:   os.Getenv("EMBED_API_KEY"),
		EmbedModel:    envOr("EMBED_MODEL", "text-embedding-3-small"),
		EmbedDims:     envInt("EMBEDDING_DIMS", 768),

		ObjectStoreURL:       envOr("OBJECT_STORE_URL", "http://localhost:9000"),
		ObjectStoreAccessKey: os.Getenv("OBJECT_STORE_ACCESS_KEY"),
		ObjectStoreSecretKey: os.Getenv("OBJECT_STORE_SECRET_KEY"),

		APIKey: os.Getenv("PLAGISCAN_API_KEY"),

		ChunkPreset:  preset,
		ChunkSize:    envInt("CHUNK_SIZE", base.ChunkSize),
		ChunkOverlap: envInt("CHUNK_OVERLAP", base.ChunkOverlap),
		MinChunkSize: envInt("MIN_CHUNK_SIZE", base.MinChunkSize),

		TopKResults:         envInt("TOP_K_RESULTS", 10),
		MinScoreThreshold:   envFloat("MIN_SCORE_THRESHOLD", 0.50),
		MaxResultsPerSource: envInt("MAX_RESULTS_PER_SOURCE", 3),
		SimilarityCritical:  envFloat("SIMILARITY_CRITICAL", 0.95),
		SimilarityHigh:      envFloat("SIMILARITY_HIGH", 0.85),
		SimilarityMedium:    envFloat("SIMILARITY_MEDIUM", 0.70),
		SimilarityLow:       envFloat("SIMILARITY_LOW", 0.50),

		MaxParallelSearches: envInt("MAX_PARALLEL_SEARCHES", 0),
		EmbedBatchSize:      envInt("EMBED_BATCH_SIZE", 32),
		EmbedMaxAttempts:    envInt("EMBED_MAX_ATTEMPTS", 3),

		EmbedTimeout:   envDuration("EMBED_TIMEOUT", 60*time.Second),
		SearchTimeout:  envDuration("SEARCH_TIMEOUT", 10*time.Second),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 300*time.Second),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		HealthCheckInterval: envDuration("HEALTH_CHECK_INTERVAL", 30*time.Second),
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = base.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = base.ChunkOverlap
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = base.MinChunkSize
	}
	if cfg.TopKResults <= 0 {
		cfg.TopKResults = 10
	}
	if cfg.MaxResultsPerSource <= 0 {
		cfg.MaxResultsPerSource = 3
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	if cfg.EmbedMaxAttempts <= 0 {
		cfg.EmbedMaxAttempts = 3
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.VectorStoreURL == "" {
		return fmt.Errorf("VECTOR_STORE_URL is required")
	}
	if c.EmbedEndpoint == "" {
		return fmt.Errorf("EMBED_ENDPOINT is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("PLAGISCAN_API_KEY is required")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if !(c.SimilarityLow <= c.SimilarityMedium && c.SimilarityMedium <= c.SimilarityHigh && c.SimilarityHigh <= c.SimilarityCritical) {
		return fmt.Errorf("severity thresholds must satisfy low <= medium <= high <= critical")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
