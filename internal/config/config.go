package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process configuration. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"st-madison-backend"`

	HTTP     HTTPConfig
	Database DatabaseConfig
	Remote   RemoteConfig
	Log      LogConfig
	Fluent   FluentConfig
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:3000"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// DatabaseConfig selects between a file-backed and an in-memory engine.
type DatabaseConfig struct {
	Path              string `env:"DATABASE_PATH" envDefault:"./data/local.duckdb"`
	InMemory          bool   `env:"DATABASE_IN_MEMORY" envDefault:"false"`
	InstallExtensions bool   `env:"DUCKDB_INSTALL_EXTENSIONS" envDefault:"false"`
}

// RemoteConfig describes the object store holding the parquet files.
type RemoteConfig struct {
	KeyID     string `env:"GCS_KEY_ID"`
	Secret    string `env:"GCS_SECRET"`
	Endpoint  string `env:"GCS_ENDPOINT" envDefault:"https://storage.googleapis.com"`
	SilverURI string `env:"SILVER_URI" envDefault:"gs://st-madison-silver"`
	GoldURI   string `env:"GOLD_URI" envDefault:"gs://st-madison-gold"`
	Preflight bool   `env:"REMOTE_PREFLIGHT" envDefault:"false"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type FluentConfig struct {
	Enabled bool   `env:"FLUENTBIT_ENABLED" envDefault:"false"`
	Host    string `env:"FLUENTBIT_HOST" envDefault:"127.0.0.1"`
	Port    int    `env:"FLUENTBIT_PORT" envDefault:"24224"`
	Level   string `env:"FLUENTBIT_LOG_LEVEL" envDefault:"info"`
}

// Load reads the given .env files (default ".env") into the environment and
// parses it. Variables already set in the environment win over the file, and
// a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Remote.SilverURI = strings.TrimRight(cfg.Remote.SilverURI, "/")
	cfg.Remote.GoldURI = strings.TrimRight(cfg.Remote.GoldURI, "/")
	return cfg, nil
}

// DatabaseInMemory reports whether the engine should run without a backing file.
func (c *Config) DatabaseInMemory() bool {
	p := strings.TrimSpace(c.Database.Path)
	return c.Database.InMemory || p == "" || p == ":memory:"
}
