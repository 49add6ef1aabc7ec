package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Vector store backends selectable with VECTOR_BACKEND.
const (
	VectorBackendQdrant   = "qdrant"
	VectorBackendPGVector = "pgvector"
	VectorBackendMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingAPIKey     string
	EmbeddingVectorSize int

	DBPath string

	VectorBackend          string
	QdrantURL              string
	QdrantAPIKey           string
	QdrantCollectionPrefix string
	PGVectorDSN            string

	ChunkSize    int
	ChunkOverlap int

	SearchTopK       int
	AgentTopK        int
	AgentMaxSteps    int
	AgentTemperature float32

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// source resolves keys from the environment first, then the optional YAML file.
type source struct {
	file map[string]string
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) (int, error) {
	raw := s.get(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or one of its parents, it is loaded.
// If CONFIG_FILE names a YAML file of KEY: value pairs, those values act as defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	loadDotEnv()

	file, err := readConfigFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	src := source{file: file}

	cfg := &Config{
		LLMBaseURL:             src.get("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:           src.get("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:              src.get("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:       src.get("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName:     src.get("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		DBPath:                 src.get("DB_PATH", "./data/notebook-ai.db"),
		VectorBackend:          strings.ToLower(src.get("VECTOR_BACKEND", VectorBackendQdrant)),
		QdrantURL:              src.get("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:           src.get("QDRANT_API_KEY", ""),
		QdrantCollectionPrefix: src.get("QDRANT_COLLECTION_PREFIX", "notes"),
		PGVectorDSN:            src.get("PGVECTOR_DSN", ""),
		APIPort:                src.get("API_PORT", "9000"),
		LogFormat:              strings.ToLower(src.get("LOG_FORMAT", "text")),
	}
	// The embeddings key falls back to the chat key; most deployments share one.
	cfg.EmbeddingAPIKey = src.get("EMBEDDING_API_KEY", cfg.LLMAPIKey)

	ints := []struct {
		key          string
		dest         *int
		defaultValue int
		min          int
	}{
		{"EMBEDDING_VECTOR_SIZE", &cfg.EmbeddingVectorSize, 1536, 1},
		{"CHUNK_SIZE", &cfg.ChunkSize, 500, 1},
		{"CHUNK_OVERLAP", &cfg.ChunkOverlap, 50, 0},
		{"SEARCH_TOP_K", &cfg.SearchTopK, 20, 1},
		{"AGENT_TOP_K", &cfg.AgentTopK, 5, 1},
		{"AGENT_MAX_STEPS", &cfg.AgentMaxSteps, 4, 1},
	}
	for _, f := range ints {
		n, err := src.getInt(f.key, f.defaultValue)
		if err != nil {
			return nil, err
		}
		if n < f.min {
			return nil, fmt.Errorf("%s must be at least %d", f.key, f.min)
		}
		*f.dest = n
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be smaller than CHUNK_SIZE")
	}

	temperature, err := strconv.ParseFloat(src.get("AGENT_TEMPERATURE", "0.2"), 32)
	if err != nil {
		return nil, fmt.Errorf("AGENT_TEMPERATURE must be a number: %w", err)
	}
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("AGENT_TEMPERATURE must be between 0 and 2")
	}
	cfg.AgentTemperature = float32(temperature)

	if err := cfg.LogLevel.UnmarshalText([]byte(src.get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	switch cfg.VectorBackend {
	case VectorBackendQdrant, VectorBackendMemory:
	case VectorBackendPGVector:
		if cfg.PGVectorDSN == "" {
			return nil, fmt.Errorf("PGVECTOR_DSN is required when VECTOR_BACKEND is pgvector")
		}
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be one of qdrant, pgvector, memory")
	}

	// Create the database directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, looking in the working directory and up to
// four of its parents. Missing files are ignored.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// readConfigFile reads a flat YAML map of configuration keys. An empty path yields no values.
func readConfigFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("CONFIG_FILE %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read CONFIG_FILE: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse CONFIG_FILE: %w", err)
	}
	values := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		values[strings.ToUpper(key)] = fmt.Sprint(value)
	}
	return values, nil
}
