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

// Store backends.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Notifier NotifierConfig
	Sweep    SweepConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StoreConfig selects the ledger record store backend.
type StoreConfig struct {
	Backend string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig holds settings for the optional snapshot cache. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// LedgerConfig tunes the optimistic-lock retry loop.
type LedgerConfig struct {
	RetryBaseDelay time.Duration
}

// NotifierConfig lists collaborator webhook endpoints that mirror every
// broadcast event. An empty list disables the forwarder.
type NotifierConfig struct {
	WebhookURLs []string
	Timeout     time.Duration
}

// SweepConfig holds the low-stock sweep schedule.
type SweepConfig struct {
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Store: StoreConfig{
			Backend: getenvWithDefault("STORE_BACKEND", BackendMongo),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stocklive"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
			TTL:      getenvDuration("REDIS_SNAPSHOT_TTL", 5*time.Minute),
		},
		Ledger: LedgerConfig{
			RetryBaseDelay: getenvDuration("CAS_RETRY_BASE_DELAY", 50*time.Millisecond),
		},
		Notifier: NotifierConfig{
			WebhookURLs: splitList(os.Getenv("COLLABORATOR_WEBHOOK_URLS")),
			Timeout:     getenvDuration("COLLABORATOR_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		Sweep: SweepConfig{
			CronSchedule: getenvWithDefault("LOW_STOCK_SWEEP_SCHEDULE", "*/15 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongo backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided for the mongo backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q", BackendMemory, BackendMongo)
	}

	if c.Ledger.RetryBaseDelay <= 0 {
		return errors.New("CAS_RETRY_BASE_DELAY must be positive")
	}

	if c.Sweep.CronSchedule == "" {
		return errors.New("LOW_STOCK_SWEEP_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
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

func getenvDuration(key string, fallback time.Duration) time.Duration {
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

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
