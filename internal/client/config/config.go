package config

import "time"

// Config holds runtime settings for the gatekeeper CLI.
type Config struct {
	ServerURL string
	GRPCAddr  string
	TokenFile string
	Timeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.GRPCAddr = "127.0.0.1:50051"
	c.TokenFile = ".gatekeeper-token"
	c.Timeout = 5 * time.Second
}

// LoadConfig applies defaults, then the JSON file, then flags from args.
// The remaining positional arguments (the command and its operands) are
// returned alongside the config.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
