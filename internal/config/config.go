package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Gateway  GatewayConfig
	Auth     AuthConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// GatewayConfig locates the remote identity/token/configuration gateway.
// Every outbound call carries the per-request tenant and bearer token and is
// bounded by Timeout.
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig carries the credential-policy surface. The *int fields are
// operator overrides: when set they take precedence over the remote policy
// configuration; when nil the remote value (or its hardcoded default) applies.
type AuthConfig struct {
	FailAttemptsOverride   *int
	TimeoutMinutesOverride *int
	HistoryCountOverride   *int
	WarnAttempts           int
	RequireActiveUser      bool
	HashIterations         int
	HashKeyBits            int
	ActionTTL              time.Duration
	ActionCleanupInterval  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "login"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:     getEnv("PORT", "8081"),
			Env:      env,
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Gateway: GatewayConfig{
			BaseURL: getEnv("GATEWAY_URL", ""),
			Timeout: getEnvAsDuration("GATEWAY_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			FailAttemptsOverride:   getEnvAsIntPtr("FAIL_ATTEMPTS_THRESHOLD"),
			TimeoutMinutesOverride: getEnvAsIntPtr("BLOCK_TIMEOUT_MINUTES"),
			HistoryCountOverride:   getEnvAsIntPtr("PASSWORD_HISTORY_COUNT"),
			WarnAttempts:           getEnvAsInt("WARN_ATTEMPTS_THRESHOLD", 3),
			RequireActiveUser:      getEnvAsBool("REQUIRE_ACTIVE_USER", true),
			HashIterations:         getEnvAsInt("HASH_ITERATIONS", 1000),
			HashKeyBits:            getEnvAsInt("HASH_KEY_BITS", 160),
			ActionTTL:              getEnvAsDuration("PASSWORD_ACTION_TTL", 24*time.Hour),
			ActionCleanupInterval:  getEnvAsDuration("ACTION_CLEANUP_INTERVAL", 1*time.Hour),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Gateway.BaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_URL is required")
	}
	if !strings.HasPrefix(cfg.Gateway.BaseURL, "http://") && !strings.HasPrefix(cfg.Gateway.BaseURL, "https://") {
		return nil, fmt.Errorf("GATEWAY_URL must be an http(s) URL")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsIntPtr distinguishes "unset" from an explicit value so that
// operator overrides only engage when actually configured.
func getEnvAsIntPtr(key string) *int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return &intVal
		}
	}
	return nil
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
