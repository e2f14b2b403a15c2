package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Crypto       CryptoConfig
	Session      SessionConfig
	Bootstrap    BootstrapConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines credential-handling parameters.
type AuthConfig struct {
	BcryptCost int
}

// CryptoConfig supplies the field-cipher secret. The secret is padded or truncated
// to exactly 32 bytes before use.
type CryptoConfig struct {
	FieldKey string
}

// SessionConfig defines session cookie and lifetime policy. Idle timeout caps the
// gap between authenticated requests; absolute timeout caps total session age.
type SessionConfig struct {
	CookieName             string
	CookieSecure           bool
	IdleTimeoutMinutes     int
	AbsoluteTimeoutMinutes int
}

// BootstrapConfig seeds the first admin account at startup.
type BootstrapConfig struct {
	Enabled    bool
	EmployeeID string
	FullName   string
	Email      string
	Password   string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

const devFieldKey = "dev-only-field-cipher-key"

// Load reads configuration from environment variables, applying defaults where possible.
// In production the crypto and bootstrap secrets must be supplied explicitly; the
// development fallbacks never ship.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "payment-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			BcryptCost: getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Crypto: CryptoConfig{
			FieldKey: getEnv("CRYPTO_FIELD_KEY", devFieldKey),
		},
		Session: SessionConfig{
			CookieName:             getEnv("SESSION_COOKIE_NAME", "sessionId"),
			CookieSecure:           getEnvAsBool("SESSION_COOKIE_SECURE", false),
			IdleTimeoutMinutes:     getEnvAsInt("SESSION_IDLE_TIMEOUT_MINUTES", 15),
			AbsoluteTimeoutMinutes: getEnvAsInt("SESSION_ABSOLUTE_TIMEOUT_MINUTES", 30),
		},
		Bootstrap: BootstrapConfig{
			Enabled:    getEnvAsBool("ADMIN_BOOTSTRAP", false),
			EmployeeID: getEnv("ADMIN_BOOTSTRAP_EMPLOYEE_ID", "EMP000001"),
			FullName:   getEnv("ADMIN_BOOTSTRAP_FULL_NAME", "System Administrator"),
			Email:      os.Getenv("ADMIN_BOOTSTRAP_EMAIL"),
			Password:   os.Getenv("ADMIN_BOOTSTRAP_PASSWORD"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Session.IdleTimeoutMinutes <= 0 || c.Session.AbsoluteTimeoutMinutes <= 0 {
		return errors.New("session timeouts must be positive")
	}
	if c.Session.IdleTimeoutMinutes > c.Session.AbsoluteTimeoutMinutes {
		return errors.New("session idle timeout must not exceed absolute timeout")
	}
	if c.App.Env == "production" {
		if c.Crypto.FieldKey == "" || c.Crypto.FieldKey == devFieldKey {
			return errors.New("CRYPTO_FIELD_KEY must be set in production")
		}
		if !c.Session.CookieSecure {
			return errors.New("SESSION_COOKIE_SECURE must be true in production")
		}
		if c.Bootstrap.Enabled && c.Bootstrap.Password == "" {
			return errors.New("ADMIN_BOOTSTRAP_PASSWORD required when bootstrap is enabled")
		}
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IdleTimeout returns the idle timeout duration.
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMinutes) * time.Minute
}

// AbsoluteTimeout returns the absolute timeout duration.
func (s SessionConfig) AbsoluteTimeout() time.Duration {
	return time.Duration(s.AbsoluteTimeoutMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
