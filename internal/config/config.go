package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr                 string          `yaml:"addr"`
	JWTSecret            string          `yaml:"jwt_secret"`
	APITimeout           time.Duration   `yaml:"timeout"`
	DatabasePath         string          `yaml:"database_path"`
	TokenDuration        time.Duration   `yaml:"token_duration"`
	MigrateOnStart       bool            `yaml:"migrate_on_start"`
	Domain               string          `yaml:"domain"`
	PayloadSchemaVersion string          `yaml:"payload_schema_version"`
	RateLimit            RateLimitConfig `yaml:"rate_limit"`
	Workers              WorkersConfig   `yaml:"workers"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type WorkersConfig struct {
	Count       int `yaml:"count"`
	MaxAttempts int `yaml:"max_attempts"`
}

// LoadConfig builds the configuration from defaults, an optional .env file,
// QNR_* environment variables and finally the YAML file at path (if any).
func LoadConfig(path string) (*Config, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Addr:                 getEnv("QNR_ADDR", ":8080"),
		JWTSecret:            getEnv("QNR_JWT_SECRET", insecureJWTSecret),
		APITimeout:           15 * time.Second,
		DatabasePath:         getEnv("QNR_DATABASE_PATH", "questionnaire.db"),
		TokenDuration:        1 * time.Hour,
		Domain:               getEnv("QNR_DOMAIN", "DEMO"),
		PayloadSchemaVersion: "v1",
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks required settings and fills defaults for optional ones.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.JWTSecret == insecureJWTSecret && os.Getenv("QNR_ENV") != "development" {
		return fmt.Errorf("jwt_secret uses the insecure default; set QNR_JWT_SECRET or QNR_ENV=development")
	}

	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.TokenDuration <= 0 {
		c.TokenDuration = 1 * time.Hour
	}
	if c.Domain == "" {
		c.Domain = "DEMO"
	}
	if c.PayloadSchemaVersion == "" {
		c.PayloadSchemaVersion = "v1"
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = 50
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 100
	}
	if c.Workers.Count <= 0 {
		c.Workers.Count = 2
	}
	if c.Workers.MaxAttempts <= 0 {
		c.Workers.MaxAttempts = 5
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
