// Package config provides configuration management for Tessera.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/fileutil"
	"github.com/mrz1836/tessera/internal/tx"
	"github.com/mrz1836/tessera/internal/txbuild"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Home       string           `yaml:"home"`
	Network    NetworkConfig    `yaml:"network"`
	Fees       FeesConfig       `yaml:"fees"`
	Derivation DerivationConfig `yaml:"derivation"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// NetworkConfig selects the network. ProtocolMagic goes into signatures;
// AddressMagic, when set, is embedded in every generated address.
type NetworkConfig struct {
	Name          string  `yaml:"name"`
	ProtocolMagic uint32  `yaml:"protocol_magic"`
	AddressMagic  *uint32 `yaml:"address_magic,omitempty"`
}

// FeesConfig holds the linear fee parameters as decimal strings.
type FeesConfig struct {
	Constant    string `yaml:"constant"`
	Coefficient string `yaml:"coefficient"`
	TxSizeLimit int    `yaml:"tx_size_limit"`
}

// DerivationConfig defines key derivation settings.
type DerivationConfig struct {
	DefaultAccount uint32 `yaml:"default_account"`
	AddressGap     int    `yaml:"address_gap"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Keys lists the dotted names accepted by Get.
//
//nolint:gochecknoglobals // read-only lookup table
var Keys = []string{
	"home",
	"network.name",
	"network.protocol_magic",
	"network.address_magic",
	"fees.constant",
	"fees.coefficient",
	"fees.tx_size_limit",
	"derivation.default_account",
	"derivation.address_gap",
	"output.default_format",
	"output.color",
	"output.verbose",
	"logging.level",
	"logging.file",
}

// Load reads configuration from the specified file over the defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, tesserr.WithDetails(tesserr.ErrConfigNotFound, map[string]string{"path": path})
	}
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", tesserr.ErrConfigInvalid, path, err)
	}

	return cfg, nil
}

// LoadOrDefault is Load that falls back to Defaults when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if tesserr.Is(err, tesserr.ErrConfigNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks that the configuration can drive the wallet engine.
func (c *Config) Validate() error {
	invalid := func(key, reason string) error {
		return tesserr.WithDetails(tesserr.ErrConfigInvalid, map[string]string{"key": key, "reason": reason})
	}
	if c.Network.ProtocolMagic == 0 {
		return invalid("network.protocol_magic", "must be non-zero")
	}
	if _, err := c.FeeAlgorithm(); err != nil {
		return invalid("fees", err.Error())
	}
	if c.Fees.TxSizeLimit <= 0 {
		return invalid("fees.tx_size_limit", "must be positive")
	}
	if c.Derivation.DefaultAccount >= 0x80000000 {
		return invalid("derivation.default_account", "must be below 2^31")
	}
	if c.Derivation.AddressGap < 1 {
		return invalid("derivation.address_gap", "must be at least 1")
	}
	switch c.Output.DefaultFormat {
	case "auto", "text", "json":
	default:
		return invalid("output.default_format", "must be auto, text or json")
	}
	return nil
}

// GetHome returns the tessera home directory path with ~ expanded.
func (c *Config) GetHome() string {
	return ExpandHome(c.Home)
}

// WalletsDir is where wallet files live.
func (c *Config) WalletsDir() string {
	return filepath.Join(c.GetHome(), "wallets")
}

// BackupsDir is where wallet backups are written.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.GetHome(), "backups")
}

// GetNetworkName returns the configured network label.
func (c *Config) GetNetworkName() string {
	return c.Network.Name
}

// GetProtocolMagic returns the magic used in transaction signatures.
func (c *Config) GetProtocolMagic() tx.ProtocolMagic {
	return tx.ProtocolMagic(c.Network.ProtocolMagic)
}

// GetNetworkMagic returns the magic embedded in addresses.
func (c *Config) GetNetworkMagic() address.NetworkMagic {
	if c.Network.AddressMagic == nil {
		return address.NoMagic
	}
	return address.Magic(*c.Network.AddressMagic)
}

// FeeAlgorithm builds the linear fee from the configured decimals.
func (c *Config) FeeAlgorithm() (txbuild.LinearFee, error) {
	constant, err := txbuild.ParseMilli(c.Fees.Constant)
	if err != nil {
		return txbuild.LinearFee{}, err
	}
	coefficient, err := txbuild.ParseMilli(c.Fees.Coefficient)
	if err != nil {
		return txbuild.LinearFee{}, err
	}
	return txbuild.LinearFee{Constant: constant, Coefficient: coefficient}, nil
}

// GetTxSizeLimit returns the largest signed transaction accepted.
func (c *Config) GetTxSizeLimit() int {
	return c.Fees.TxSizeLimit
}

// GetDefaultAccount returns the account used when none is named.
func (c *Config) GetDefaultAccount() uint32 {
	return c.Derivation.DefaultAccount
}

// GetAddressGap returns how many addresses are shown by default.
func (c *Config) GetAddressGap() int {
	return c.Derivation.AddressGap
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// Get returns the value stored under a dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "home":
		return c.Home, nil
	case "network.name":
		return c.Network.Name, nil
	case "network.protocol_magic":
		return strconv.FormatUint(uint64(c.Network.ProtocolMagic), 10), nil
	case "network.address_magic":
		if c.Network.AddressMagic == nil {
			return "", nil
		}
		return strconv.FormatUint(uint64(*c.Network.AddressMagic), 10), nil
	case "fees.constant":
		return c.Fees.Constant, nil
	case "fees.coefficient":
		return c.Fees.Coefficient, nil
	case "fees.tx_size_limit":
		return strconv.Itoa(c.Fees.TxSizeLimit), nil
	case "derivation.default_account":
		return strconv.FormatUint(uint64(c.Derivation.DefaultAccount), 10), nil
	case "derivation.address_gap":
		return strconv.Itoa(c.Derivation.AddressGap), nil
	case "output.default_format":
		return c.Output.DefaultFormat, nil
	case "output.color":
		return c.Output.Color, nil
	case "output.verbose":
		return strconv.FormatBool(c.Output.Verbose), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.file":
		return c.Logging.File, nil
	}
	return "", tesserr.WithDetails(tesserr.ErrUnknownConfigKey, map[string]string{"key": key})
}

// DefaultHome returns the default tessera home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tessera"
	}
	return filepath.Join(home, ".tessera")
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
