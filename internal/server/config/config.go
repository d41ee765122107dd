// Package config handles configuration for the gatekeeper server: built-in
// defaults, an optional JSON file, environment variables (optionally seeded
// from a .env file) and command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the server. It is loaded once at start
// and never mutated afterwards.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: listen addresses.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects in-memory stores.
//   - SecretKey: HMAC secret for signing tokens (HS512).
//   - TokenValidityDuration: lifetime of an issued token. The reaper also uses
//     it to decide when a revocation record is stale.
//   - ReaperPeriod: interval between revocation store sweeps.
//   - AllowedOrigins: CORS origins for the HTTP API.
//   - LogLevel: minimum slog level ("debug", "info", "warn", "error").
type Config struct {
	EndpointAddrHTTP      string
	EndpointAddrGRPC      string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	ReaperPeriod          time.Duration
	AllowedOrigins        []string
	LogLevel              string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret is insecure and must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 1800 * time.Second
	c.ReaperPeriod = 1800 * time.Second
	c.AllowedOrigins = []string{"*"}
	c.LogLevel = "info"
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	}
	if c.TokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("token validity must be positive, got %s", c.TokenValidityDuration))
	}
	if c.ReaperPeriod <= 0 {
		errs = append(errs, fmt.Errorf("reaper period must be positive, got %s", c.ReaperPeriod))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the environment (after loading .env if present), then
// command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], ".env", os.LookupEnv)
}

func load(args []string, envFile string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
