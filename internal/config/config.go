package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Retrieval backends.
const (
	BackendRagie  = "ragie"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	RagieAPIKey  string
	RagieBaseURL string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	RetrievalBackend string
	RetrievalTimeout time.Duration
	// CompletionTimeout also bounds embedding requests.
	CompletionTimeout time.Duration

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantTextField  string
	EmbeddingBaseURL string
	EmbeddingModel   string

	// LogDir receives the interaction log files.
	LogDir       string
	LogMaxFileMB int

	Debug        bool
	LogLevel     string
	LogFormat    string
	LogFile      string
	LogFileMaxMB int

	// APIAccessKey guards POST /api/query.
	APIAccessKey string
	// APIAccessKeyGenerated is true when no key was configured and one was generated for this run.
	APIAccessKeyGenerated bool
	// APIRateLimit is the allowed /api/query requests per second; 0 disables limiting.
	APIRateLimit float64
	APIRateBurst int

	Host string
	Port int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and rejects malformed values.
// If a .env file exists in the current directory or a parent, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
// Missing credentials are not an error here; see MissingCredentials.
func Load() (*Config, error) {
	loadDotEnv()

	llmBaseURL := getEnv("OPENAI_API_URL", "https://api.openai.com/v1")

	cfg := &Config{
		RagieAPIKey:      os.Getenv("RAGIE_API_KEY"),
		RagieBaseURL:     getEnv("RAGIE_BASE_URL", "https://api.ragie.ai"),
		LLMAPIKey:        getEnv("OPENAI_API_KEY", os.Getenv("LLM_API_KEY")),
		LLMBaseURL:       llmBaseURL,
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini-2024-07-18"),
		RetrievalBackend: strings.ToLower(getEnv("RETRIEVAL_BACKEND", BackendRagie)),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),
		QdrantTextField:  getEnv("QDRANT_TEXT_FIELD", "text"),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", llmBaseURL),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		LogDir:           getEnv("LOG_DIR", "logs"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:          os.Getenv("LOG_FILE"),
		APIAccessKey:     os.Getenv("API_ACCESS_KEY"),
		Host:             getEnv("HOST", "127.0.0.1"),
	}

	var err error
	if cfg.Debug, err = parseBool("DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.RetrievalTimeout, err = parseDuration("RETRIEVAL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CompletionTimeout, err = parseDuration("COMPLETION_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.LogMaxFileMB, err = parsePositiveInt("LOG_MAX_FILE_MB", 10); err != nil {
		return nil, err
	}
	if cfg.LogFileMaxMB, err = parsePositiveInt("LOG_FILE_MAX_MB", 10); err != nil {
		return nil, err
	}
	if cfg.APIRateBurst, err = parsePositiveInt("API_RATE_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.Port, err = parsePositiveInt("PORT", 8000); err != nil {
		return nil, err
	}
	if cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be at most 65535, got %d", cfg.Port)
	}

	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("API_RATE_LIMIT must be a number: %w", err)
		}
		if limit < 0 {
			return nil, fmt.Errorf("API_RATE_LIMIT must not be negative")
		}
		cfg.APIRateLimit = limit
	}

	switch cfg.RetrievalBackend {
	case BackendRagie, BackendQdrant:
	default:
		return nil, fmt.Errorf("RETRIEVAL_BACKEND must be %q or %q, got %q", BackendRagie, BackendQdrant, cfg.RetrievalBackend)
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	if cfg.APIAccessKey == "" {
		key, err := GenerateAccessKey()
		if err != nil {
			return nil, err
		}
		cfg.APIAccessKey = key
		cfg.APIAccessKeyGenerated = true
	}

	return cfg, nil
}

// MissingCredentials lists the required credential variables that are not set
// for the selected retrieval backend.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.RetrievalBackend == BackendRagie && c.RagieAPIKey == "" {
		missing = append(missing, "RAGIE_API_KEY")
	}
	if c.LLMAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	return missing
}

// Addr returns the host:port the web server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GenerateAccessKey returns a random 32-character hex key.
func GenerateAccessKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate API access key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// loadDotEnv loads .env from the current directory, then from the first
// parent directory that has one.
func loadDotEnv() {
	_ = godotenv.Load()

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

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

func parsePositiveInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}
