package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	DataDir       string        `env:"DATA_DIR,       default=.midnight"`
	MobileRuntime bool          `env:"MOBILE_RUNTIME, default=false"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,      default=24h"`
	MirrorWorkers int           `env:"MIRROR_WORKERS, default=4"`
	ResendWindow  time.Duration `env:"RESEND_WINDOW,  default=60s"`
	BlockPopups   bool          `env:"IDENTITY_BLOCK_POPUPS, default=false"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Gemini GeminiConfig
}

// MongoConfig selects the remote store. An empty URI keeps profiles and
// mirrored records in process memory.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB,  default=midnight"`
}

// RedisConfig selects the cooldown and redirect stash backend. An empty
// address keeps both in process memory.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL, default=gemini-2.0-flash"`
}

// IsDevelopment reports whether pretty console logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("config: JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "midnight-dev-secret"
	}
	return &cfg, nil
}
