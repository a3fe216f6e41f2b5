package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	LLM      LLMConfig
	Chat     ChatConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:5173)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/workshops?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds settings for validating tokens issued by the auth provider.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration // lifetime of tokens minted by cmd/devtoken
}

// LLMConfig holds completion API settings.
type LLMConfig struct {
	APIKey      string
	BaseURL     string // empty = provider default
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Chat store and history modes.
const (
	ChatStoreMemory = "memory"
	ChatStoreRedis  = "redis"

	HistoryModeSync  = "sync"
	HistoryModeQueue = "queue"
)

// ChatConfig holds assistant session settings.
type ChatConfig struct {
	Store           string // memory | redis
	SessionTTL      time.Duration
	LockTTL         time.Duration
	HistoryMode     string // sync | queue
	HistoryLimit    int    // max messages rehydrated for an authenticated session
	CatalogInPrompt int    // upcoming workshops listed in the system prompt
	CatalogCacheTTL time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "75"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "workshops"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "change-me-in-production"),
			TokenTTL: time.Duration(getEnvInt("JWT_EXPIRE_HOURS", 24)) * time.Hour,
		},
		LLM: LLMConfig{
			APIKey:      getEnv("LLM_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 500),
			Timeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SEC", 45)) * time.Second,
		},
		Chat: ChatConfig{
			Store:           strings.ToLower(getEnv("CHAT_STORE", ChatStoreMemory)),
			SessionTTL:      time.Duration(getEnvInt("CHAT_SESSION_TTL_MIN", 120)) * time.Minute,
			LockTTL:         time.Duration(getEnvInt("CHAT_LOCK_TTL_SEC", 90)) * time.Second,
			HistoryMode:     strings.ToLower(getEnv("CHAT_HISTORY_MODE", HistoryModeSync)),
			HistoryLimit:    getEnvInt("CHAT_HISTORY_LIMIT", 100),
			CatalogInPrompt: getEnvInt("CHAT_CATALOG_IN_PROMPT", 20),
			CatalogCacheTTL: time.Duration(getEnvInt("CHAT_CATALOG_CACHE_SEC", 30)) * time.Second,
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Chat.Store {
	case ChatStoreMemory, ChatStoreRedis:
	default:
		return fmt.Errorf("invalid CHAT_STORE %q (want memory or redis)", c.Chat.Store)
	}
	switch c.Chat.HistoryMode {
	case HistoryModeSync, HistoryModeQueue:
	default:
		return fmt.Errorf("invalid CHAT_HISTORY_MODE %q (want sync or queue)", c.Chat.HistoryMode)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
