// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains process configuration.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseType   string        `env:"DATABASE_TYPE" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	DBHost         string        `env:"DB_HOST"`
	DBPort         string        `env:"DB_PORT"`
	DBUser         string        `env:"DB_USER"`
	DBPassword     string        `env:"DB_PASSWORD"`
	DBName         string        `env:"DB_NAME"`
	DBSSLMode      string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBTxTimeout    time.Duration `env:"DB_TX_TIMEOUT" envDefault:"5s"`
	ApplySchema    bool          `env:"APPLY_SCHEMA" envDefault:"true"`

	AIBase          string        `env:"AI_BASE" envDefault:"http://localhost:8001"`
	AIAPIKey        string        `env:"AI_API_KEY"`
	ScoringURL      string        `env:"SCORING_URL"`
	MatchingURL     string        `env:"MATCHING_URL"`
	ScoringTimeout  time.Duration `env:"SCORING_TIMEOUT" envDefault:"10s"`
	MatchingTimeout time.Duration `env:"MATCHING_TIMEOUT" envDefault:"60s"`
	LikertScale     int           `env:"LIKERT_SCALE" envDefault:"5"`
	DefaultTeamSize int           `env:"DEFAULT_TEAM_SIZE" envDefault:"4"`

	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	MetricsNamespace string    `env:"METRICS_NAMESPACE" envDefault:"teammatch"`
	MetricsBuckets   []float64 `env:"METRICS_BUCKETS" envSeparator:","`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	c.DatabaseType = strings.ToLower(strings.TrimSpace(c.DatabaseType))
	if c.DatabaseType != "postgres" && c.DatabaseType != "sqlite" {
		return fmt.Errorf("DATABASE_TYPE must be postgres or sqlite, got %q", c.DatabaseType)
	}

	if c.DatabaseURL == "" && c.DatabaseType == "postgres" && c.DBHost != "" {
		if c.DBUser == "" || c.DBPassword == "" || c.DBPort == "" || c.DBName == "" {
			return errors.New("DB_USER, DB_PASSWORD, DB_HOST, DB_PORT, DB_NAME must all be set")
		}
		c.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (DATABASE_URL or DB_* variables)")
	}

	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET required")
	}

	c.AIBase = strings.TrimRight(c.AIBase, "/")
	if c.ScoringURL == "" {
		c.ScoringURL = c.AIBase
	}
	if c.MatchingURL == "" {
		c.MatchingURL = c.AIBase
	}

	if c.LikertScale < 2 {
		return fmt.Errorf("LIKERT_SCALE must be at least 2, got %d", c.LikertScale)
	}
	if c.DefaultTeamSize < 1 {
		return fmt.Errorf("DEFAULT_TEAM_SIZE must be positive, got %d", c.DefaultTeamSize)
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}
