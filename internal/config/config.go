// Package config handles loading and validating configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// VariantMinimal enables web search only.
	VariantMinimal = "minimal"
	// VariantExtended enables web search, file search, code execution and uploads.
	VariantExtended = "extended"

	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"

	defaultBaseURL        = "https://api.openai.com/v1"
	defaultModel          = "gpt-4.1"
	defaultSessionDB      = "chat-gpt-clone-memory.db"
	defaultSessionID      = "chat-history"
	defaultServerAddr     = ":8080"
	defaultMaxUploadBytes = 20 << 20
	defaultMaxRunDuration = 10 * time.Minute
)

// Config holds all application configuration.
type Config struct {
	// OpenAIKey is the API key for the hosted agent runtime.
	OpenAIKey string
	// OpenAIBaseURL is the API root, e.g. https://api.openai.com/v1.
	OpenAIBaseURL string
	// Model is the model name sent with every turn.
	Model string
	// Variant selects the tool set: minimal or extended.
	Variant string
	// VectorStoreID is the vector index used by file search and text uploads.
	VectorStoreID string
	// AgentConfigPath optionally points at a YAML agent definition.
	AgentConfigPath string
	// SessionBackend selects the history store: sqlite, bolt or memory.
	SessionBackend string
	// SessionDB is the path of the sqlite or bolt database file.
	SessionDB string
	// SessionID is the default conversation key.
	SessionID string
	// ServerAddr is the HTTP listen address (e.g., :80, :8080).
	ServerAddr string
	// ChatToken enables bearer auth on /api routes when set.
	ChatToken string
	// MaxUploadBytes caps one multipart upload.
	MaxUploadBytes int64
	// MaxRunDuration bounds one agent turn.
	MaxRunDuration time.Duration
}

// Load reads configuration from environment variables.
// It loads .env file if present, but environment variables take precedence.
func Load() (*Config, error) {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:   strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Model:           strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		Variant:         strings.ToLower(strings.TrimSpace(os.Getenv("CHAT_VARIANT"))),
		VectorStoreID:   strings.TrimSpace(os.Getenv("VECTOR_STORE_ID")),
		AgentConfigPath: strings.TrimSpace(os.Getenv("AGENT_CONFIG")),
		SessionBackend:  strings.ToLower(strings.TrimSpace(os.Getenv("SESSION_BACKEND"))),
		SessionDB:       strings.TrimSpace(os.Getenv("SESSION_DB")),
		SessionID:       strings.TrimSpace(os.Getenv("SESSION_ID")),
		ServerAddr:      strings.TrimSpace(os.Getenv("SERVER_ADDR")),
		ChatToken:       os.Getenv("CHAT_TOKEN"),
	}
	cfg.MaxUploadBytes = int64(parseIntEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes))
	cfg.MaxRunDuration = parseDurationEnv("AGENT_MAX_RUN_DURATION", defaultMaxRunDuration)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fills defaults and checks that enumerated fields hold known values.
func (c *Config) Validate() error {
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = defaultBaseURL
	}
	c.OpenAIBaseURL = strings.TrimRight(c.OpenAIBaseURL, "/")
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Variant == "" {
		c.Variant = VariantExtended
	}
	if c.Variant != VariantMinimal && c.Variant != VariantExtended {
		return fmt.Errorf("CHAT_VARIANT must be %q or %q, got %q", VariantMinimal, VariantExtended, c.Variant)
	}
	if c.SessionBackend == "" {
		c.SessionBackend = BackendSQLite
	}
	switch c.SessionBackend {
	case BackendSQLite, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be sqlite, bolt or memory, got %q", c.SessionBackend)
	}
	if c.SessionDB == "" {
		c.SessionDB = defaultSessionDB
	}
	if c.SessionID == "" {
		c.SessionID = defaultSessionID
	}
	if c.ServerAddr == "" {
		c.ServerAddr = defaultServerAddr
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.MaxRunDuration <= 0 {
		c.MaxRunDuration = defaultMaxRunDuration
	}
	// OpenAIKey may be empty; requests report the missing key individually.
	return nil
}

// UploadsEnabled reports whether the configured variant accepts attachments.
func (c *Config) UploadsEnabled() bool {
	return c.Variant == VariantExtended
}

// RequireOpenAIKey returns an error when no API key is configured.
func (c *Config) RequireOpenAIKey() error {
	if c.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	return nil
}

func parseIntEnv(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

func parseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
