package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome          = "TESSERA_HOME"
	EnvNetwork       = "TESSERA_NETWORK"
	EnvProtocolMagic = "TESSERA_PROTOCOL_MAGIC"
	EnvOutputFormat  = "TESSERA_OUTPUT_FORMAT"
	EnvVerbose       = "TESSERA_VERBOSE"
	EnvLogLevel      = "TESSERA_LOG_LEVEL"
	EnvNoColor       = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
// A network preset is applied before an explicit protocol magic.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		if preset, ok := NetworkPreset(v); ok {
			cfg.Network = preset
		}
	}

	if v := os.Getenv(EnvProtocolMagic); v != "" {
		if magic, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32); err == nil {
			cfg.Network.ProtocolMagic = uint32(magic)
		}
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
