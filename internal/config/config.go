// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	// Chat relay (OpenAI-compatible completion API)
	ChatAPIKey         string  // Empty means the chat backend is not configured
	ChatAPIURL         string  // Chat completions endpoint
	ChatModel          string  // Model id sent upstream
	ChatFallbackURL    string  // Optional secondary completion endpoint
	ChatRateLimit      int     // Chat requests per caller per minute
	ChatPromptPriceUSD float64 // USD per 1M prompt tokens (cost estimation)
	ChatOutputPriceUSD float64 // USD per 1M completion tokens

	// Mail notification (lead/contact forms)
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string
	LeadReceiver    string
	ContactReceiver string

	// Admin metrics page (HTTP Basic Auth)
	AdminUser string
	AdminPass string

	// Optional Redis quote cache; empty means in-memory cache
	RedisAddr string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 3002),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ChatAPIKey:         getEnv("OPENAI_API_KEY", ""),
		ChatAPIURL:         getEnv("CHAT_API_URL", "https://api.openai.com/v1/chat/completions"),
		ChatModel:          getEnv("CHAT_MODEL", "gpt-4o-mini"),
		ChatFallbackURL:    getEnv("CHAT_FALLBACK_URL", ""),
		ChatRateLimit:      getEnvAsInt("CHAT_RATE_LIMIT", 20),
		ChatPromptPriceUSD: getEnvAsFloat("CHAT_PROMPT_PRICE_USD", 0.15),
		ChatOutputPriceUSD: getEnvAsFloat("CHAT_OUTPUT_PRICE_USD", 0.60),

		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:        getEnv("GMAIL_USER", ""),
		SMTPPass:        getEnv("GMAIL_PASS", ""),
		LeadReceiver:    getEnv("LEAD_RECEIVER", ""),
		ContactReceiver: getEnv("CONTACT_RECEIVER", ""),

		AdminUser: getEnv("ADMIN_USER", ""),
		AdminPass: getEnv("ADMIN_PASS", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ChatRateLimit <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT must be positive, got %d", c.ChatRateLimit)
	}

	// Chat/mail credentials are optional - the corresponding features degrade
	// gracefully (503 for chat, log-only mailer) when absent.

	return nil
}

// MailConfigured reports whether SMTP credentials are present
func (c *Config) MailConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != ""
}

// ChatConfigured reports whether the upstream completion API is usable
func (c *Config) ChatConfigured() bool {
	return c.ChatAPIKey != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
