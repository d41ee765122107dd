package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN; empty keeps everything in memory
//	-s string   token signing secret
//	-t int      token validity, seconds
//	-r int      reaper period, seconds
//	-o string   comma-separated CORS origins
//	-l string   log level
//
// Arguments are first filtered with flagx.FilterArgs so flags owned by other
// parsers (-c) do not cause errors here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-o", "-l"})

	fs := flag.NewFlagSet("gatekeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	validity := fs.Int("t", int(config.TokenValidityDuration.Seconds()), "token validity (in seconds)")
	period := fs.Int("r", int(config.ReaperPeriod.Seconds()), "reaper period (in seconds)")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only flags that were set override earlier layers; the int defaults
	// above would truncate sub-second durations read from JSON.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenValidityDuration = time.Duration(*validity) * time.Second
		case "r":
			config.ReaperPeriod = time.Duration(*period) * time.Second
		case "o":
			config.AllowedOrigins = splitList(*origins)
		}
	})
	return nil
}
