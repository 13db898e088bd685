package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/mnemonic"
	"github.com/mrz1836/tessera/internal/output"
	"github.com/mrz1836/tessera/internal/tesscrypto"
	"github.com/mrz1836/tessera/internal/wallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	createWords       int
	createPassword    bool
	restoreInput      string
	restorePassword   bool
	accountAddAlias   string
	accountAddIndex   uint32
	defaultAccountTag = "default"
)

// walletCmd is the parent command for wallet operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
	Long:  `Create, restore, list, and manage encrypted HD wallets.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new HD wallet",
	Long: `Create a new HD wallet from a fresh mnemonic phrase.

The mnemonic is displayed once. Write it down and store it securely.
You will be prompted for a password to encrypt the wallet file.

Example:
  tessera wallet create main
  tessera wallet create main --words 24 --password`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletCreate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore a wallet from a mnemonic or hex root key",
	Long: `Restore a wallet from a mnemonic phrase or a 96-byte hex root key.

The input format is detected automatically.

Examples:
  tessera wallet restore backup --input "abandon abandon ... about"
  tessera wallet restore backup`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletRestore,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all wallets",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runWalletList,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletAccountsCmd = &cobra.Command{
	Use:   "accounts <name>",
	Short: "List or add wallet accounts",
	Long: `List the accounts of a wallet. With --add, derive a new account and
store it; this needs the wallet password.

Examples:
  tessera wallet accounts main
  tessera wallet accounts main --add savings --index 1`,
	Args: cobra.ExactArgs(1),
	RunE: runWalletAccounts,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletRestoreCmd)
	walletCmd.AddCommand(walletListCmd)
	walletCmd.AddCommand(walletAccountsCmd)

	walletCreateCmd.Flags().IntVar(&createWords, "words", 15, "mnemonic word count (12, 15, 18, 21 or 24)")
	walletCreateCmd.Flags().BoolVar(&createPassword, "password", false, "mix a wallet password into the root key")

	walletRestoreCmd.Flags().StringVar(&restoreInput, "input", "", "mnemonic phrase or hex root key")
	walletRestoreCmd.Flags().BoolVar(&restorePassword, "password", false, "the mnemonic was created with a wallet password")

	walletAccountsCmd.Flags().StringVar(&accountAddAlias, "add", "", "alias of a new account to derive")
	walletAccountsCmd.Flags().Uint32Var(&accountAddIndex, "index", 0, "index of the new account")
}

func checkNewWalletName(ctx *CommandContext, name string) error {
	if err := wallet.ValidateWalletName(name); err != nil {
		if suggestion := wallet.SuggestWalletName(name); suggestion != "" {
			return tesserr.WithSuggestion(err, fmt.Sprintf("try '%s'", suggestion))
		}
		return err
	}
	exists, err := ctx.Storage.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return tesserr.WithSuggestion(
			wallet.ErrWalletExists,
			fmt.Sprintf("wallet '%s' already exists. Choose a different name.", name),
		)
	}
	return nil
}

// saveNewWallet registers the default account, seals w and writes it.
func saveNewWallet(ctx *CommandContext, name string, w *wallet.Wallet) (*wallet.Metadata, error) {
	if _, err := w.CreateAccount(defaultAccountTag, ctx.Config.GetDefaultAccount()); err != nil {
		return nil, err
	}

	meta, err := wallet.NewMetadata(name, ctx.Config.GetNetworkName(), uint32(ctx.Config.GetProtocolMagic()), w)
	if err != nil {
		return nil, err
	}

	password, err := promptNewPasswordFn()
	if err != nil {
		return nil, err
	}
	defer tesscrypto.Zero(password)

	if err := ctx.Storage.Save(meta, w, password); err != nil {
		return nil, err
	}
	ctx.Logger.WithFields(map[string]any{"wallet": name, "accounts": len(meta.Accounts)}, "wallet saved")
	return meta, nil
}

func runWalletCreate(cmd *cobra.Command, args []string) error {
	ctx := currentContext()
	name := args[0]
	if err := checkNewWalletName(ctx, name); err != nil {
		return err
	}

	entropy, err := mnemonic.EntropyFromRandom(createWords, nil)
	if err != nil {
		return tesserr.WithSuggestion(err, "word count must be 12, 15, 18, 21 or 24")
	}
	defer entropy.Destroy()

	phrase, err := entropy.Mnemonic()
	if err != nil {
		return err
	}

	var walletPassword []byte
	if createPassword {
		if walletPassword, err = promptWalletPasswordFn(); err != nil {
			return err
		}
		defer tesscrypto.Zero(walletPassword)
	}

	w, err := wallet.New(entropy, walletPassword, wallet.WithNetworkMagic(ctx.Config.GetNetworkMagic()))
	if err != nil {
		return err
	}
	defer w.Destroy()

	meta, err := saveNewWallet(ctx, name, w)
	if err != nil {
		return err
	}

	if ctx.Formatter.IsJSON() {
		return ctx.Formatter.Print(output.Fields{
			{Key: "name", Value: name},
			{Key: "mnemonic", Value: phrase},
			{Key: "accounts", Value: meta.Accounts},
		})
	}

	ew := cmd.ErrOrStderr()
	outln(ew, "Write down your mnemonic phrase and keep it offline:")
	outln(ew)
	outln(ew, "  "+phrase)
	outln(ew)
	output.Success(cmd.OutOrStdout(), "Wallet '%s' created (%s)", name, meta.Network)
	return nil
}

func runWalletRestore(cmd *cobra.Command, args []string) error {
	ctx := currentContext()
	name := args[0]
	if err := checkNewWalletName(ctx, name); err != nil {
		return err
	}

	input := restoreInput
	if input == "" {
		var err error
		if input, err = promptSeedFn(); err != nil {
			return err
		}
	}

	format := wallet.DetectInputFormat(input)
	if format == wallet.FormatMnemonic {
		if typos := mnemonic.DetectTypos(input); len(typos) > 0 {
			return tesserr.WithSuggestion(mnemonic.ErrInvalidMnemonic, mnemonic.FormatTypoSuggestions(typos))
		}
	}

	var walletPassword []byte
	if restorePassword && format == wallet.FormatMnemonic {
		var err error
		if walletPassword, err = promptPasswordFn("Enter wallet password: "); err != nil {
			return err
		}
		defer tesscrypto.Zero(walletPassword)
	}

	w, err := wallet.Restore(input, walletPassword, wallet.WithNetworkMagic(ctx.Config.GetNetworkMagic()))
	if err != nil {
		return err
	}
	defer w.Destroy()

	meta, err := saveNewWallet(ctx, name, w)
	if err != nil {
		return err
	}

	first, err := firstAddress(w)
	if err != nil {
		return err
	}
	return ctx.Formatter.Print(output.Fields{
		{Key: "name", Value: name},
		{Key: "source", Value: format.String()},
		{Key: "network", Value: meta.Network},
		{Key: "first_address", Value: first},
	})
}

func firstAddress(w *wallet.Wallet) (string, error) {
	acct, ok := w.Account(defaultAccountTag)
	if !ok {
		return "", tesserr.ErrAccountNotFound
	}
	addr, err := acct.Address(0, 0)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

func runWalletList(_ *cobra.Command, _ []string) error {
	ctx := currentContext()
	names, err := ctx.Storage.List()
	if err != nil {
		return err
	}

	tbl := output.NewTable("NAME", "NETWORK", "ACCOUNTS", "CREATED")
	for _, name := range names {
		meta, err := ctx.Storage.LoadMetadata(name)
		if err != nil {
			ctx.Logger.Error("skipping wallet %s: %v", name, err)
			continue
		}
		tbl.AddRow(name, meta.Network, fmt.Sprint(len(meta.Accounts)), meta.CreatedAt.Format(time.DateTime))
	}

	if tbl.Len() == 0 && !ctx.Formatter.IsJSON() {
		outln(ctx.Formatter.Writer(), "No wallets found.")
		outln(ctx.Formatter.Writer(), "Create one with: tessera wallet create <name>")
		return nil
	}
	return ctx.Formatter.Print(tbl)
}

func runWalletAccounts(_ *cobra.Command, args []string) error {
	ctx := currentContext()
	name := args[0]

	meta, err := ctx.Storage.LoadMetadata(name)
	if err != nil {
		return err
	}

	if accountAddAlias != "" {
		if meta, err = addAccount(ctx, name, accountAddAlias, accountAddIndex); err != nil {
			return err
		}
	}

	tbl := output.NewTable("ALIAS", "INDEX", "PATH", "XPUB")
	tbl.AlignRight(1)
	for _, rec := range meta.Accounts {
		acct, err := meta.WatchAccount(rec)
		if err != nil {
			return err
		}
		tbl.AddRow(rec.Alias, fmt.Sprint(rec.Index), acct.Path().String(), rec.XPub)
	}
	return ctx.Formatter.Print(tbl)
}

func addAccount(ctx *CommandContext, name, alias string, index uint32) (*wallet.Metadata, error) {
	if current, err := ctx.Storage.LoadMetadata(name); err == nil {
		if _, taken := current.Account(alias); taken {
			return nil, tesserr.WithSuggestion(tesserr.ErrInvalidInput,
				fmt.Sprintf("account alias '%s' is already used", alias))
		}
	}

	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return nil, err
	}
	defer tesscrypto.Zero(password)

	meta, w, err := ctx.Storage.Load(name, password)
	if err != nil {
		return nil, err
	}
	defer w.Destroy()

	if _, err := w.CreateAccount(alias, index); err != nil {
		return nil, err
	}
	meta.SyncAccounts(w)
	if err := ctx.Storage.UpdateMetadata(meta); err != nil {
		return nil, err
	}
	ctx.Logger.WithFields(map[string]any{"wallet": name, "alias": alias, "index": index}, "account added")
	return meta, nil
}
