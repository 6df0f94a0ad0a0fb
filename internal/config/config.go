// Package config loads service configuration from an optional YAML file and
// the environment. Source priority: explicit path given to Load, then
// CONFIG_PATH, then environment variables alone. A .env file in the working
// directory is applied to the environment first, if present.
package config

import (
	"fmt"
	"net"
	"os"

	"github.com/feedrank/feedrank/internal/domain"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root service configuration.
type Config struct {
	Env  string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTP HTTPConfig `yaml:"http"`
	DB   DBConfig   `yaml:"db"`
	Feed FeedConfig `yaml:"feed"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr returns the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig holds the SQLite settings.
type DBConfig struct {
	// DSN is the SQLite data source; ":memory:" keeps the store in-process.
	DSN string `yaml:"dsn" env:"DB_DSN" env-default:":memory:"`

	// SeedFixtures loads the deterministic sample rows into an empty store
	// at startup.
	SeedFixtures bool `yaml:"seed_fixtures" env:"SEED_FIXTURES" env-default:"true"`
}

// FeedConfig holds ranking and pagination settings.
type FeedConfig struct {
	// Policy selects the scoring policy: "linear" or "keyword-frequency".
	Policy string `yaml:"policy" env:"SCORING_POLICY" env-default:"linear"`

	// Weights parameterize the linear policy.
	Weights domain.LinearWeights `yaml:"weights"`

	// BatchSize is the default feed page size.
	BatchSize int `yaml:"batch_size" env:"FEED_BATCH_SIZE" env-default:"20"`
}

// Load reads configuration. If path is empty, CONFIG_PATH is consulted; with
// no file at all, configuration comes from the environment and defaults.
func Load(path string) (*Config, error) {
	// Ignore a missing .env; it is a local development convenience.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return &cfg, nil
}
