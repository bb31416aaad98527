package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	Environment         string
	DataDir             string
	JWTSecret           string
	TokenTTL            time.Duration
	Timezone            string
	CutoffHour          int
	CORSAllowedOrigins  []string
	MaxBodyBytes        int64
	RateLimitPerMinute  int
	StoreRetryAttempts  int
	StoreRetryBaseDelay time.Duration
	RetentionDays       int
	RetentionInterval   time.Duration
	SeedAdminUsername   string
	SeedAdminPassword   string
	SeedAdminEmail      string
	SeedAdminName       string
	RunSeed             bool
	LogLevel            string
	MetricsEnabled      bool
}

// LoadDotEnv loads files into the environment without overriding variables
// that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
		slog.Debug("loaded env file", "file", file)
	}
	return nil
}

func Load() Config {
	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		Environment:         getEnv("APP_ENV", "development"),
		DataDir:             getEnv("DATA_DIR", "data"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenTTL:            getEnvDuration("TOKEN_TTL", 8*time.Hour),
		Timezone:            getEnv("APP_TIMEZONE", "Local"),
		CutoffHour:          getEnvInt("CUTOFF_HOUR", 21),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		StoreRetryAttempts:  getEnvInt("STORE_RETRY_ATTEMPTS", 5),
		StoreRetryBaseDelay: getEnvDuration("STORE_RETRY_BASE_DELAY", 100*time.Millisecond),
		RetentionDays:       getEnvInt("RETENTION_DAYS", 0),
		RetentionInterval:   getEnvDuration("RETENTION_INTERVAL", 24*time.Hour),
		SeedAdminUsername:   getEnv("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminPassword:   getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedAdminEmail:      getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminName:       getEnv("SEED_ADMIN_NAME", "Administrator"),
		RunSeed:             getEnvBool("RUN_SEED", true),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
	}
}

// Location resolves Timezone; "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	if c.CutoffHour < 1 || c.CutoffHour > 23 {
		return fmt.Errorf("CUTOFF_HOUR must be between 1 and 23")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.StoreRetryAttempts <= 0 {
		return fmt.Errorf("STORE_RETRY_ATTEMPTS must be positive")
	}
	if c.StoreRetryBaseDelay <= 0 {
		return fmt.Errorf("STORE_RETRY_BASE_DELAY must be positive")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative")
	}
	return nil
}
