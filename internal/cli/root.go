// Package cli implements the tessera command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/config"
	"github.com/mrz1836/tessera/internal/output"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	networkName  string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "An HD wallet and transaction builder for Cardano Byron",
	Long: `Tessera manages Ed25519-BIP32 wallets for the Cardano Byron era.

It turns BIP39 mnemonics into root keys, derives BIP44 accounts and
addresses along m/44'/1815'/account'/chain/index, and builds, prices
and signs transactions offline.

Example:
  tessera mnemonic generate --words 15
  tessera wallet create main
  tessera address generate --wallet main --count 5
  tessera tx sign --wallet main --input <txid>:0:1000000:0/0 --to <addr>:500000 --change <addr>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		if logger != nil {
			logger.Error("command failed: %v", err)
			_ = logger.Close()
		}
		return err
	}
	return nil
}

// SetVersion sets the string printed by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return tesserr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	loaded, err := config.LoadOrDefault(config.Path(config.ExpandHome(home)))
	if err != nil {
		return err
	}
	cfg = loaded
	cfg.Home = home

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if networkName != "" {
		preset, ok := config.NetworkPreset(networkName)
		if !ok {
			return tesserr.WithSuggestion(tesserr.ErrInvalidInput, "network must be mainnet or testnet")
		}
		cfg.Network = preset
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Logging.File == config.Defaults().Logging.File {
		cfg.Logging.File = filepath.Join(cfg.Home, "tessera.log")
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}

	w := cmd.OutOrStdout()
	formatter = output.NewFormatter(output.DetectFormat(w, output.ParseFormat(cfg.Output.DefaultFormat)), w)

	logger.WithFields(map[string]any{
		"command": cmd.CommandPath(),
		"network": cfg.Network.Name,
		"magic":   cfg.Network.ProtocolMagic,
	}, "starting")
	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "tessera data directory (default: ~/.tessera)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().StringVar(&networkName, "network", "", "network preset: mainnet or testnet")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
