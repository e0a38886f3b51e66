// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix. A .env file in the working directory
// (or at LEARN_ENV_FILE) is read first; variables already set win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Prompt   PromptConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps
// lessons in memory.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// cache and keeps quiz sessions in memory.
type CacheConfig struct {
	URL string
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	Google     GoogleConfig
	OpenAI     APIKeyConfig
	Anthropic  APIKeyConfig
	DeepSeek   APIKeyConfig
	OpenRouter APIKeyConfig
	Ollama     OllamaConfig
	Generation GenerationConfig
}

// APIKeyConfig holds settings for providers that only need a key.
type APIKeyConfig struct {
	APIKey string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
	Model  string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
}

// GenerationConfig bounds lesson generation.
type GenerationConfig struct {
	TimeoutSeconds   int
	DailyTokenBudget int64 // 0 means unlimited
}

// Timeout returns the per-lesson generation timeout.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// PromptConfig points at an optional prompt override file.
type PromptConfig struct {
	Path string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	envFile := envStr("LEARN_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LEARN_SERVER_PORT", 8080),
			Host: envStr("LEARN_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:         envStr("LEARN_DATABASE_URL", ""),
			MaxConns:    envInt("LEARN_DATABASE_MAX_CONNS", 10),
			MinConns:    envInt("LEARN_DATABASE_MIN_CONNS", 2),
			AutoMigrate: envBool("LEARN_DATABASE_AUTO_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", ""),
		},
		AI: AIConfig{
			Google: GoogleConfig{
				APIKey: envStr("LEARN_AI_GOOGLE_API_KEY", ""),
				Model:  envStr("LEARN_AI_GOOGLE_MODEL", "gemini-2.0-flash"),
			},
			OpenAI:     APIKeyConfig{APIKey: envStr("LEARN_AI_OPENAI_API_KEY", "")},
			Anthropic:  APIKeyConfig{APIKey: envStr("LEARN_AI_ANTHROPIC_API_KEY", "")},
			DeepSeek:   APIKeyConfig{APIKey: envStr("LEARN_AI_DEEPSEEK_API_KEY", "")},
			OpenRouter: APIKeyConfig{APIKey: envStr("LEARN_AI_OPENROUTER_API_KEY", "")},
			Ollama: OllamaConfig{
				Enabled: envBool("LEARN_AI_OLLAMA_ENABLED", false),
				URL:     envStr("LEARN_AI_OLLAMA_URL", "http://localhost:11434"),
			},
			Generation: GenerationConfig{
				TimeoutSeconds:   envInt("LEARN_AI_GENERATION_TIMEOUT_SECONDS", 60),
				DailyTokenBudget: int64(envInt("LEARN_AI_DAILY_TOKEN_BUDGET", 0)),
			},
		},
		Prompt: PromptConfig{
			Path: envStr("LEARN_PROMPT_PATH", ""),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present and sane.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("LEARN_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("LEARN_DATABASE_MIN_CONNS (%d) exceeds LEARN_DATABASE_MAX_CONNS (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.AI.Generation.TimeoutSeconds <= 0 {
		return fmt.Errorf("LEARN_AI_GENERATION_TIMEOUT_SECONDS must be positive, got %d", c.AI.Generation.TimeoutSeconds)
	}

	if c.AI.Generation.DailyTokenBudget < 0 {
		return fmt.Errorf("LEARN_AI_DAILY_TOKEN_BUDGET must not be negative")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Google.APIKey != "" ||
		c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
