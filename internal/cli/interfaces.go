package cli

import (
	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/config"
	"github.com/mrz1836/tessera/internal/tx"
	"github.com/mrz1836/tessera/internal/txbuild"
)

// Compile-time interface checks.
var (
	_ ConfigProvider = (*config.Config)(nil)
	_ LogWriter      = (*config.Logger)(nil)
)

// ConfigProvider provides read access to configuration values.
type ConfigProvider interface {
	// GetHome returns the tessera home directory path.
	GetHome() string

	// WalletsDir returns the directory holding wallet files.
	WalletsDir() string

	// BackupsDir returns the directory holding wallet backups.
	BackupsDir() string

	// GetNetworkName returns the network label stored with new wallets.
	GetNetworkName() string

	// GetProtocolMagic returns the magic signed into witnesses.
	GetProtocolMagic() tx.ProtocolMagic

	// GetNetworkMagic returns the magic embedded in addresses.
	GetNetworkMagic() address.NetworkMagic

	// FeeAlgorithm returns the configured fee policy.
	FeeAlgorithm() (txbuild.LinearFee, error)

	// GetTxSizeLimit returns the largest signed transaction accepted.
	GetTxSizeLimit() int

	// GetDefaultAccount returns the account used when none is named.
	GetDefaultAccount() uint32

	// GetAddressGap returns how many addresses are shown by default.
	GetAddressGap() int

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string

	// IsVerbose returns true if verbose output is enabled.
	IsVerbose() bool
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
	WithFields(fields map[string]any, format string, args ...any)
	Close() error
}
