package config

import (
	"strings"

	"github.com/mrz1836/tessera/internal/tx"
	"github.com/mrz1836/tessera/internal/txbuild"
)

// Network names with built-in presets.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// NetworkPreset returns the settings for a well-known network.
func NetworkPreset(name string) (NetworkConfig, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NetworkMainnet:
		return NetworkConfig{
			Name:          NetworkMainnet,
			ProtocolMagic: uint32(tx.MainnetMagic),
		}, true
	case NetworkTestnet:
		magic := uint32(tx.TestnetMagic)
		return NetworkConfig{
			Name:          NetworkTestnet,
			ProtocolMagic: magic,
			AddressMagic:  &magic,
		}, true
	}
	return NetworkConfig{}, false
}

// Defaults returns the default configuration.
func Defaults() *Config {
	mainnet, _ := NetworkPreset(NetworkMainnet)
	fee := txbuild.DefaultLinearFee()
	return &Config{
		Version: 1,
		Home:    "~/.tessera",
		Network: mainnet,
		Fees: FeesConfig{
			Constant:    fee.Constant.String(),
			Coefficient: fee.Coefficient.String(),
			TxSizeLimit: txbuild.DefaultSizeLimit,
		},
		Derivation: DerivationConfig{
			DefaultAccount: 0,
			AddressGap:     20,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.tessera/tessera.log",
		},
	}
}
