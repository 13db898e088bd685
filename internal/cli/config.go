package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/config"
	"github.com/mrz1836/tessera/internal/fileutil"
	"github.com/mrz1836/tessera/internal/output"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View Tessera configuration settings.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.tessera/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified. The --network flag selects the preset written.

Example:
  tessera config init
  tessera config init --network testnet --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, after environment variables
and flags are applied.

Example:
  tessera config show
  tessera config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its dotted key.

Examples:
  tessera config get network.protocol_magic
  tessera config get fees.coefficient`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys,
	RunE:      runConfigGet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.GetHome())

	exists, err := fileutil.Exists(configPath)
	if err != nil {
		return err
	}
	if exists && !configForce {
		return tesserr.WithSuggestion(
			tesserr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home
	defaultCfg.Network = cfg.Network

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	logger.Debug("wrote config %s", configPath)

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - network: mainnet or testnet magics")
	outln(w, "  - fees: linear fee constant and per-byte coefficient")
	outln(w, "  - derivation: default account and address gap")
	outln(w, "  - output.default_format: Output format (text/json)")
	outln(w, "  - logging.level: Log level (off/error/debug)")
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	fields := make(output.Fields, 0, len(config.Keys))
	for _, key := range config.Keys {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fields = append(fields, output.Field{Key: key, Value: value})
	}
	return formatter.Print(fields)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := cfg.Get(args[0])
	if err != nil {
		return tesserr.WithSuggestion(err, "run 'tessera config show' to list the keys")
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}
