package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	DatabaseDriver     string
	DatabaseURL        string
	DBMaxConns         int32
	DBMinConns         int32
	MigrateOnStart     bool
	JWTSecret          string
	CORSOrigins        []string
	RateLimitRPM       int
	WriteRateLimitRPM  int
	LogLevel           string
	LogFormat          string
	RestoreMuteNotify  []string
	TracingEnabled     bool
	MetricsEnabled     bool
	NotifyStreamBuffer int
}

var defaults = map[string]any{
	"SERVER_PORT":          "8080",
	"SERVER_READ_TIMEOUT":  "15s",
	"SERVER_WRITE_TIMEOUT": "30s",
	"SERVER_IDLE_TIMEOUT":  "120s",
	"REQUEST_TIMEOUT":      "30s",
	"DATABASE_DRIVER":      "sqlite",
	"DATABASE_URL":         "./state/storefront.db",
	"DB_MAX_CONNS":         10,
	"DB_MIN_CONNS":         2,
	"MIGRATE_ON_START":     true,
	"JWT_SECRET":           "",
	"CORS_ORIGINS":         "*",
	"RATE_LIMIT_RPM":       100,
	"WRITE_RATE_LIMIT_RPM": 30,
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "pretty",
	"RESTORE_MUTE_NOTIFY":  "Cart,CartItem",
	"TRACING_ENABLED":      false,
	"METRICS_ENABLED":      true,
	"NOTIFY_STREAM_BUFFER": 64,
}

// Load reads and validates the server configuration.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read loads .env, then the optional config file at path (or CONFIG_FILE),
// then the environment, without validating. Environment values win.
func Read(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		ServerPort:         strings.TrimSpace(v.GetString("SERVER_PORT")),
		ServerReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		ServerWriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		ServerIdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		DatabaseDriver:     strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER"))),
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		DBMaxConns:         v.GetInt32("DB_MAX_CONNS"),
		DBMinConns:         v.GetInt32("DB_MIN_CONNS"),
		MigrateOnStart:     v.GetBool("MIGRATE_ON_START"),
		JWTSecret:          strings.TrimSpace(v.GetString("JWT_SECRET")),
		CORSOrigins:        stringList(v, "CORS_ORIGINS"),
		RateLimitRPM:       v.GetInt("RATE_LIMIT_RPM"),
		WriteRateLimitRPM:  v.GetInt("WRITE_RATE_LIMIT_RPM"),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
		RestoreMuteNotify:  stringList(v, "RESTORE_MUTE_NOTIFY"),
		TracingEnabled:     v.GetBool("TRACING_ENABLED"),
		MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
		NotifyStreamBuffer: v.GetInt("NOTIFY_STREAM_BUFFER"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json, got %q", c.LogFormat)
	}

	return c.ValidateDatabase()
}

// ValidateDatabase checks only what trashctl needs to reach the store.
func (c *Config) ValidateDatabase() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}

	if c.DBMaxConns < 0 || c.DBMinConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS and DB_MIN_CONNS cannot be negative")
	}

	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}

	if c.NotifyStreamBuffer <= 0 {
		return fmt.Errorf("NOTIFY_STREAM_BUFFER must be positive")
	}

	return nil
}

// stringList accepts a CSV string from the environment or a YAML list
// from the config file.
func stringList(v *viper.Viper, key string) []string {
	switch raw := v.Get(key).(type) {
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return splitCSV(strings.Join(raw, ","))
	default:
		return splitCSV(v.GetString(key))
	}
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
