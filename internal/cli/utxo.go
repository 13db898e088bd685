package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/coin"
	"github.com/mrz1836/tessera/internal/output"
	"github.com/mrz1836/tessera/internal/utxostore"
	"github.com/mrz1836/tessera/internal/wallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	utxoWallet  string
	utxoAccount string
	utxoAll     bool
)

// utxoCmd is the parent command for the local output ledger.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var utxoCmd = &cobra.Command{
	Use:   "utxo",
	Short: "Track spendable outputs of a wallet",
	Long: `Record the outputs a wallet can spend. Signing with --from-store
selects inputs from this ledger and marks them spent.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var utxoAddCmd = &cobra.Command{
	Use:   "add <txid:index:lovelace:chain/index>...",
	Short: "Record outputs owned by an account",
	Long: `Record outputs paid to addresses of an account. The address is
derived from the stored account key, so no password is needed.

Example:
  tessera utxo add --wallet main <txid>:0:2000000:external/0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUTXOAdd,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var utxoListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List recorded outputs",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runUTXOList,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var utxoBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Sum the unspent outputs",
	Args:  cobra.NoArgs,
	RunE:  runUTXOBalance,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var utxoRemoveCmd = &cobra.Command{
	Use:   "remove <txid:index>",
	Short: "Forget a recorded output",
	Args:  cobra.ExactArgs(1),
	RunE:  runUTXORemove,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(utxoCmd)
	utxoCmd.AddCommand(utxoAddCmd)
	utxoCmd.AddCommand(utxoListCmd)
	utxoCmd.AddCommand(utxoBalanceCmd)
	utxoCmd.AddCommand(utxoRemoveCmd)

	utxoCmd.PersistentFlags().StringVarP(&utxoWallet, "wallet", "w", "", "wallet name")
	utxoCmd.PersistentFlags().StringVarP(&utxoAccount, "account", "a", "", "account alias (default: all accounts, or 'default' for add)")
	_ = utxoCmd.MarkPersistentFlagRequired("wallet")

	utxoListCmd.Flags().BoolVar(&utxoAll, "all", false, "include spent outputs")
}

// openLedger loads the output ledger of an existing wallet.
func openLedger(ctx *CommandContext, walletName string) (*utxostore.Store, error) {
	exists, err := ctx.Storage.Exists(walletName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, tesserr.WithDetails(wallet.ErrWalletNotFound, map[string]string{"wallet": walletName})
	}
	store := utxostore.New(ctx.Config.WalletsDir(), walletName)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func runUTXOAdd(_ *cobra.Command, args []string) error {
	ctx := currentContext()

	alias := utxoAccount
	if alias == "" {
		alias = defaultAccountTag
	}
	acct, err := watchAccount(ctx, utxoWallet, alias)
	if err != nil {
		return err
	}
	store, err := openLedger(ctx, utxoWallet)
	if err != nil {
		return err
	}

	specs, err := parseInputSpecs(args)
	if err != nil {
		return err
	}

	tbl := output.NewTable("UTXO", "LOVELACE", "ADDRESS")
	tbl.AlignRight(1)
	for _, spec := range specs {
		if !spec.HasPath {
			return tesserr.WithSuggestion(
				tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"utxo": spec.Pointer.String()}),
				"outputs are recorded as txid:index:lovelace:chain/index",
			)
		}
		addr, err := acct.Address(spec.Chain, spec.Index)
		if err != nil {
			return err
		}
		u := &utxostore.StoredUTXO{
			TxID:         spec.Pointer.ID.String(),
			Index:        spec.Pointer.Index,
			Value:        spec.Value,
			Address:      addr.String(),
			Account:      alias,
			Chain:        spec.Chain,
			AddressIndex: spec.Index,
		}
		if err := store.Add(u); err != nil {
			return err
		}
		tbl.AddRow(u.Key(), coin.Coin(u.Value).String(), u.Address)
	}

	if err := store.Save(); err != nil {
		return err
	}
	ctx.Logger.WithFields(map[string]any{"wallet": utxoWallet, "added": len(specs)}, "recorded outputs")
	return ctx.Formatter.Print(tbl)
}

func runUTXOList(_ *cobra.Command, _ []string) error {
	ctx := currentContext()
	store, err := openLedger(ctx, utxoWallet)
	if err != nil {
		return err
	}

	var entries []utxostore.StoredUTXO
	if utxoAll {
		for _, u := range store.All() {
			if utxoAccount == "" || u.Account == utxoAccount {
				entries = append(entries, u)
			}
		}
	} else {
		entries = store.Unspent(utxoAccount)
	}

	tbl := output.NewTable("UTXO", "LOVELACE", "ACCOUNT", "PATH", "STATUS")
	tbl.AlignRight(1)
	for _, u := range entries {
		status := "unspent"
		if u.Spent {
			status = "spent by " + u.SpentTxID
		}
		tbl.AddRow(u.Key(), coin.Coin(u.Value).String(), u.Account,
			fmt.Sprintf("%s/%d", u.Chain, u.AddressIndex), status)
	}
	return ctx.Formatter.Print(tbl)
}

func runUTXOBalance(_ *cobra.Command, _ []string) error {
	ctx := currentContext()
	store, err := openLedger(ctx, utxoWallet)
	if err != nil {
		return err
	}
	balance, err := store.Balance(utxoAccount)
	if err != nil {
		return err
	}
	return ctx.Formatter.Print(output.Fields{
		{Key: "wallet", Value: utxoWallet},
		{Key: "outputs", Value: len(store.Unspent(utxoAccount))},
		{Key: "lovelace", Value: balance.String()},
		{Key: "ada", Value: balance.FormatADA()},
	})
}

func runUTXORemove(_ *cobra.Command, args []string) error {
	ctx := currentContext()
	store, err := openLedger(ctx, utxoWallet)
	if err != nil {
		return err
	}
	if err := store.Remove(args[0]); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	output.Success(ctx.Formatter.Writer(), "Removed %s", args[0])
	return nil
}
