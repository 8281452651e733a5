package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the kbchat server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Auth      AuthConfig
	Docs      DocsConfig
	Hosting   HostingConfig
	Telegram  TelegramConfig
	Provision ProvisionConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider string
	Gemini   GeminiConfig
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type DocsConfig struct {
	DataDir string
}

// HostingConfig controls host-based tenant resolution: requests arriving
// at <subdomain>.<Marker>.<base domain> are resolved to the owning tenant,
// everything else falls back to the tenant identified by DefaultTenantEmail.
type HostingConfig struct {
	BaseDomain         string
	Marker             string
	DefaultTenantEmail string
}

type TelegramConfig struct {
	APIBaseURL string
	BotToken   string
	ChatID     string
	Timeout    time.Duration
}

type ProvisionConfig struct {
	Script string
}

type RateLimitConfig struct {
	RequestsPerMin int
}

var validProviders = map[string]bool{
	"gemini": true,
	"mock":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("KBCHAT_PORT", 8080),
			Env:  envString("KBCHAT_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider: envString("AI_PROVIDER", "gemini"),
			Gemini: GeminiConfig{
				APIKey:  os.Getenv("GEMINI_API_KEY"),
				BaseURL: envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
				Model:   envString("GEMINI_MODEL", "gemini-2.0-flash"),
				Timeout: envDurationSecs("GEMINI_TIMEOUT_SECS", 30*time.Second),
			},
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  envDuration("JWT_TTL", 30*24*time.Hour),
		},
		Docs: DocsConfig{
			DataDir: envString("KBCHAT_DATA_DIR", "./data"),
		},
		Hosting: HostingConfig{
			BaseDomain:         envString("KBCHAT_BASE_DOMAIN", "example.com"),
			Marker:             envString("KBCHAT_HOST_MARKER", "rag"),
			DefaultTenantEmail: envString("DEFAULT_TENANT_EMAIL", "admin@localhost"),
		},
		Telegram: TelegramConfig{
			APIBaseURL: envString("TELEGRAM_API_URL", "https://api.telegram.org"),
			BotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:     os.Getenv("TELEGRAM_CHAT_ID"),
			Timeout:    envDurationSecs("TELEGRAM_TIMEOUT_SECS", 5*time.Second),
		},
		Provision: ProvisionConfig{
			Script: os.Getenv("PROVISION_SCRIPT"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of gemini, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "gemini" && c.AI.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
	}
	if !strings.HasPrefix(c.AI.Gemini.BaseURL, "http://") && !strings.HasPrefix(c.AI.Gemini.BaseURL, "https://") {
		return fmt.Errorf("GEMINI_BASE_URL must start with http:// or https://, got %q", c.AI.Gemini.BaseURL)
	}

	if c.Hosting.Marker == "" {
		return fmt.Errorf("KBCHAT_HOST_MARKER must not be empty")
	}
	if c.Hosting.DefaultTenantEmail == "" {
		return fmt.Errorf("DEFAULT_TENANT_EMAIL must not be empty")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
