// Package config loads process configuration from the environment.
//
// An optional .env file is read first (godotenv); real environment
// variables always win over it. Policy thresholds are NOT configured here,
// they live in the policy document managed by the factory package.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port                  int           `env:"PORT" envDefault:"8080"`
	DBPath                string        `env:"DB_PATH" envDefault:"attendance.db"`
	PolicyFile            string        `env:"POLICY_FILE"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv                string        `env:"APP_ENV" envDefault:"development"`
	CORSOrigins           []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
	PolicyRefreshInterval time.Duration `env:"POLICY_REFRESH_INTERVAL" envDefault:"0s"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads the given .env files (default ".env"; missing files are fine)
// and parses the environment into a validated Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("DB_PATH is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.PolicyRefreshInterval < 0 {
		return fmt.Errorf("POLICY_REFRESH_INTERVAL must not be negative, got %s", c.PolicyRefreshInterval)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto slog.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }
