package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Corpus      CorpusConfig    `toml:"corpus"`
	Stats       StatsConfig     `toml:"stats"`
	Search      SearchConfig    `toml:"search"`
	Rerank      RerankConfig    `toml:"rerank"`
	Answer      AnswerConfig    `toml:"answer"`
	Embedding   EmbeddingConfig `toml:"embedding"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Cache       CacheConfig     `toml:"cache"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CorpusConfig controls seed-chunk loading from YAML files
type CorpusConfig struct {
	Dir           string `toml:"dir"`             // Directory containing chunk documents (*.yaml)
	LoadOnStartup bool   `toml:"load_on_startup"` // Load corpus files into storage at startup
}

// StatsConfig controls the offline corpus-statistics rebuild job
type StatsConfig struct {
	Schedule         string `toml:"schedule"`           // Cron schedule (with seconds), default every 6 hours
	RebuildOnStartup bool   `toml:"rebuild_on_startup"` // Rebuild statistics once at startup
}

// SearchConfig contains hybrid retrieval defaults
type SearchConfig struct {
	Limit          int     `toml:"limit" validate:"gte=0"`                  // Default result count (default 10)
	VectorWeight   float64 `toml:"vector_weight" validate:"gte=0,lte=1"`    // Default vector score weight (default 0.7)
	KeywordWeight  float64 `toml:"keyword_weight" validate:"gte=0,lte=1"`   // Default keyword score weight (default 0.3)
	MatchThreshold float64 `toml:"match_threshold" validate:"gte=0,lte=1"`  // Minimum combined score (default 0.2)
	BM25K1         float64 `toml:"bm25_k1" validate:"gte=0"`                // BM25 k1 (default 1.2)
	BM25B          float64 `toml:"bm25_b" validate:"gte=0,lte=1"`           // BM25 b (default 0.75)
	ExpansionTerms int     `toml:"expansion_terms" validate:"gte=0,lte=10"` // Max query-expansion terms (default 4)
	ExpansionTime  string  `toml:"expansion_timeout"`                       // Query-expansion budget (default "2s")
}

// RerankConfig contains LLM reranker settings
type RerankConfig struct {
	Enabled    bool   `toml:"enabled"`
	CandidateN int    `toml:"candidates" validate:"gte=0"` // Candidates sent to the reranker (default 20)
	ReturnM    int    `toml:"return" validate:"gte=0"`     // Candidates kept after rerank (default 5)
	BatchSize  int    `toml:"batch_size" validate:"gte=0"` // Candidates per LLM call (default 10)
	Timeout    string `toml:"timeout"`                     // Hard rerank budget (default "5s")
}

// AnswerConfig contains context assembly and generation settings
type AnswerConfig struct {
	MaxSources     int     `toml:"max_sources" validate:"gte=0"`  // Sources included in the prompt (default 5)
	TokenCeiling   int     `toml:"token_ceiling" validate:"gte=0"` // Prompt token budget (default 6000)
	TokensPerWord  float64 `toml:"tokens_per_word"`                // Token estimate multiplier (default 1.3)
	Timeout        string  `toml:"timeout"`                        // Overall generation budget (default "30s")
	AttemptTimeout string  `toml:"attempt_timeout"`                // Per-attempt budget (default "15s")
	MaxAttempts    int     `toml:"max_attempts" validate:"gte=1"`  // Generation attempts (default 2)
}

// EmbeddingConfig contains embedding service settings
type EmbeddingConfig struct {
	Model     string `toml:"model"`                      // Embedding model (default "gemini-embedding-001")
	Dimension int    `toml:"dimension" validate:"gte=0"` // Vector dimension (default 768)
	BatchSize int    `toml:"batch_size" validate:"gte=0"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"` // Default chat model
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// LLMConfig contains provider-independent LLM settings
type LLMConfig struct {
	DefaultProvider string  `toml:"default_provider" validate:"omitempty,oneof=gemini claude"`
	RatePerSecond   float64 `toml:"rate_per_second"` // Client-side call rate limit (default 2)
	RateBurst       int     `toml:"rate_burst"`      // Rate limiter burst (default 4)
}

// CacheConfig contains in-memory analysis cache settings
type CacheConfig struct {
	TTL             string `toml:"ttl"`              // Entry lifetime (default "10m")
	JanitorInterval string `toml:"janitor_interval"` // Expired-entry sweep interval (default "1m")
}

// DefaultConfig returns a config populated with defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/respondeo",
			},
		},
		Corpus: CorpusConfig{
			Dir:           "./corpus",
			LoadOnStartup: true,
		},
		Stats: StatsConfig{
			Schedule:         "0 0 */6 * * *",
			RebuildOnStartup: true,
		},
		Search: SearchConfig{
			Limit:          10,
			VectorWeight:   0.7,
			KeywordWeight:  0.3,
			MatchThreshold: 0.2,
			BM25K1:         1.2,
			BM25B:          0.75,
			ExpansionTerms: 4,
			ExpansionTime:  "2s",
		},
		Rerank: RerankConfig{
			Enabled:    true,
			CandidateN: 20,
			ReturnM:    5,
			BatchSize:  10,
			Timeout:    "5s",
		},
		Answer: AnswerConfig{
			MaxSources:     5,
			TokenCeiling:   6000,
			TokensPerWord:  1.3,
			Timeout:        "30s",
			AttemptTimeout: "15s",
			MaxAttempts:    2,
		},
		Embedding: EmbeddingConfig{
			Model:     "gemini-embedding-001",
			Dimension: 768,
			BatchSize: 16,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			RatePerSecond:   2,
			RateBurst:       4,
		},
		Cache: CacheConfig{
			TTL:             "10m",
			JanitorInterval: "1m",
		},
	}
}

// LoadFromFile loads configuration from a single TOML file over defaults
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies RESPONDEO_* environment variables over file values
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("RESPONDEO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("RESPONDEO_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("RESPONDEO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("RESPONDEO_STORAGE_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("RESPONDEO_CORPUS_DIR"); v != "" {
		config.Corpus.Dir = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks structural constraints on the configuration
func Validate(config *Config) error {
	v := validator.New()
	if err := v.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Weights must form a convex blend
	sum := config.Search.VectorWeight + config.Search.KeywordWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("invalid configuration: vector_weight + keyword_weight must equal 1.0 (got %.3f)", sum)
	}

	if config.Rerank.ReturnM > config.Rerank.CandidateN {
		return fmt.Errorf("invalid configuration: rerank return (%d) exceeds candidates (%d)",
			config.Rerank.ReturnM, config.Rerank.CandidateN)
	}

	for _, d := range []string{
		config.Search.ExpansionTime,
		config.Rerank.Timeout,
		config.Answer.Timeout,
		config.Answer.AttemptTimeout,
		config.Cache.TTL,
		config.Cache.JanitorInterval,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid configuration: bad duration %q: %w", d, err)
		}
	}

	return nil
}

// Duration parses a config duration string, returning fallback when empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
