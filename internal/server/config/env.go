package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvHTTPAddr       = "GATEKEEPER_HTTP_ADDR"
	EnvGRPCAddr       = "GATEKEEPER_GRPC_ADDR"
	EnvDatabaseDSN    = "GATEKEEPER_DATABASE_DSN"
	EnvSigningSecret  = "GATEKEEPER_SIGNING_SECRET"
	EnvTokenValidity  = "GATEKEEPER_TOKEN_VALIDITY_SECONDS"
	EnvReaperPeriod   = "GATEKEEPER_REAPER_PERIOD_SECONDS"
	EnvAllowedOrigins = "GATEKEEPER_ALLOWED_ORIGINS"
	EnvLogLevel       = "GATEKEEPER_LOG_LEVEL"
)

// loadDotEnv copies variables from path into the process environment
// without overriding ones already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays values found through lookup.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHTTPAddr); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := lookup(EnvGRPCAddr); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := lookup(EnvDatabaseDSN); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookup(EnvSigningSecret); ok {
		config.SecretKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		config.LogLevel = v
	}
	if v, ok := lookup(EnvAllowedOrigins); ok {
		config.AllowedOrigins = splitList(v)
	}

	var err error
	if v, ok := lookup(EnvTokenValidity); ok {
		if config.TokenValidityDuration, err = parseSeconds(EnvTokenValidity, v); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvReaperPeriod); ok {
		if config.ReaperPeriod, err = parseSeconds(EnvReaperPeriod, v); err != nil {
			return err
		}
	}
	return nil
}

func parseSeconds(name, v string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: expected whole seconds, got %q", name, v)
	}
	return time.Duration(n) * time.Second, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
