package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"1", "1", true},
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"yes", "yes", true},
		{"on", "on", true},
		{"with spaces", "  true  ", true},
		{"0", "0", false},
		{"false", "false", false},
		{"no", "no", false},
		{"off", "off", false},
		{"empty", "", false},
		{"random", "random", false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, parseBool(tc.input))
		})
	}
}

func TestApplyEnvironment(t *testing.T) {
	// Cannot run in parallel because we modify environment variables

	t.Run("TESSERA_HOME", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvHome, "  /custom/home ")
		ApplyEnvironment(cfg)
		assert.Equal(t, "/custom/home", cfg.Home)
	})

	t.Run("TESSERA_NETWORK testnet", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvNetwork, "Testnet")
		ApplyEnvironment(cfg)
		assert.Equal(t, "testnet", cfg.Network.Name)
		assert.Equal(t, uint32(1097911063), cfg.Network.ProtocolMagic)
		v, ok := cfg.GetNetworkMagic().Value()
		assert.True(t, ok)
		assert.Equal(t, uint32(1097911063), v)
	})

	t.Run("TESSERA_NETWORK unknown is ignored", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvNetwork, "devnet")
		ApplyEnvironment(cfg)
		assert.Equal(t, "mainnet", cfg.Network.Name)
	})

	t.Run("TESSERA_PROTOCOL_MAGIC overrides preset", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvNetwork, "testnet")
		t.Setenv(EnvProtocolMagic, "633343913")
		ApplyEnvironment(cfg)
		assert.Equal(t, uint32(633343913), cfg.Network.ProtocolMagic)
	})

	t.Run("TESSERA_PROTOCOL_MAGIC invalid", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvProtocolMagic, "99999999999")
		ApplyEnvironment(cfg)
		assert.Equal(t, uint32(764824073), cfg.Network.ProtocolMagic)
	})

	t.Run("TESSERA_OUTPUT_FORMAT", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvOutputFormat, "JSON")
		ApplyEnvironment(cfg)
		assert.Equal(t, "json", cfg.Output.DefaultFormat)
	})

	t.Run("TESSERA_VERBOSE", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvVerbose, "yes")
		ApplyEnvironment(cfg)
		assert.True(t, cfg.Output.Verbose)
	})

	t.Run("TESSERA_LOG_LEVEL", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvLogLevel, "DEBUG")
		ApplyEnvironment(cfg)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("NO_COLOR", func(t *testing.T) {
		cfg := Defaults()
		t.Setenv(EnvNoColor, "")
		ApplyEnvironment(cfg)
		assert.Equal(t, "never", cfg.Output.Color)
	})
}
