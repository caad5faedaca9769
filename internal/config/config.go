// Package config loads the typed Config struct the rest of the process is
// built from. Every field maps to a §6.3 environment variable, with
// defaults matching the spec's stated defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/tinode/jsonco"
)

// Config is the fully resolved, validated process configuration. It is
// built once at startup and threaded explicitly through the App struct —
// never read back out of a package-level global.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	GoEnv      string `env:"GO_ENV" envDefault:"production"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	DatabaseURL string `env:"DATABASE_URL"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	SessionSecret string `env:"SESSION_SECRET"`
	APIKeySecret  string `env:"API_KEY_SECRET"`

	FreeRetentionDays    int `env:"FREE_RETENTION_DAYS" envDefault:"30"`
	PremiumRetentionDays int `env:"PREMIUM_RETENTION_DAYS" envDefault:"365"`
	MessageEditWindowSec int `env:"MESSAGE_EDIT_WINDOW_SEC" envDefault:"900"`
	ExpireJobBatch       int `env:"EXPIRE_JOB_BATCH" envDefault:"500"`
	ExpireJobIntervalMS  int `env:"EXPIRE_JOB_INTERVAL_MS" envDefault:"15000"`

	MaxFileSizeBytes     int64  `env:"MAX_FILE_SIZE_BYTES" envDefault:"10485760"`
	StorageDriver        string `env:"STORAGE_DRIVER" envDefault:"local"`
	StorageBucket        string `env:"STORAGE_BUCKET"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL"`
	SignedURLTTLSec      int    `env:"SIGNED_URL_TTL_SEC" envDefault:"300"`

	TranslationEnabled    bool `env:"TRANSLATION_ENABLED" envDefault:"false"`
	TranslateMaxInputChars int `env:"TRANSLATE_MAX_INPUT_CHARS" envDefault:"2000"`

	RateLimitMessagesPerWindow int           `env:"RATE_LIMIT_MESSAGES" envDefault:"50"`
	RateLimitMessagesWindow    time.Duration `env:"RATE_LIMIT_MESSAGES_WINDOW" envDefault:"10s"`
	RateLimitTranslatePerWindow int          `env:"RATE_LIMIT_TRANSLATE" envDefault:"12"`
	RateLimitTranslateWindow    time.Duration `env:"RATE_LIMIT_TRANSLATE_WINDOW" envDefault:"10s"`
}

// FreeRetention and PremiumRetention convert the day-count env vars into
// durations for use against time.Time cutoffs.
func (c *Config) FreeRetention() time.Duration {
	return time.Duration(c.FreeRetentionDays) * 24 * time.Hour
}

func (c *Config) PremiumRetention() time.Duration {
	return time.Duration(c.PremiumRetentionDays) * 24 * time.Hour
}

func (c *Config) EditWindow() time.Duration {
	return time.Duration(c.MessageEditWindowSec) * time.Second
}

func (c *Config) ExpireJobInterval() time.Duration {
	return time.Duration(c.ExpireJobIntervalMS) * time.Millisecond
}

// Load reads a local .env file if present (development convenience, never
// required in production), applies an optional config.jsonc overlay (ops
// environments that prefer a checked-in file over per-var env plumbing),
// then parses environment variables into Config. Env vars always win over
// the jsonc overlay, since CI/container orchestration sets them last.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := loadJSONCOverlay("config.jsonc", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("config: SESSION_SECRET is required")
	}
	return cfg, nil
}

// loadJSONCOverlay applies a JSON-with-comments file's fields onto cfg
// before env vars are parsed. Absence of the file is not an error — it is
// purely an optional convenience, matching the teacher's own tinode.conf
// being an optional, not required, config source.
func loadJSONCOverlay(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(jsonco.New(f))
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
