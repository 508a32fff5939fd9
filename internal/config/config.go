package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	MarkdownDir string // directory mirrored into the content store

	ChatHistory       int           // chat ring buffer capacity
	SubscriberQueue   int           // per-subscriber bounded queue capacity
	HeartbeatInterval time.Duration // SSE idle heartbeat
	MCPStdio          bool          // also serve MCP over stdio
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		MarkdownDir:       getEnv("MARKDOWN_DIR", "markdown"),
		ChatHistory:       getEnvInt("CHAT_HISTORY", 100),
		SubscriberQueue:   getEnvInt("SUBSCRIBER_QUEUE", 64),
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", 15*time.Second),
		MCPStdio:          getEnv("MCP_STDIO", "false") == "true",
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
