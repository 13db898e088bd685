package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/output"
	"github.com/mrz1836/tessera/internal/wallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	addrWallet   string
	addrAccount  string
	addrInternal bool
	addrFrom     uint32
	addrCount    int
	addrQR       bool
)

// addressCmd is the parent command for address operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Derive and inspect addresses",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Derive addresses of a wallet account",
	Long: `Derive addresses from the public key stored for an account. No
password is needed.

Examples:
  tessera address generate --wallet main
  tessera address generate --wallet main --account savings --internal --from 10 --count 5
  tessera address generate --wallet main --count 1 --qr`,
	Args: cobra.NoArgs,
	RunE: runAddressGenerate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var addressCheckCmd = &cobra.Command{
	Use:   "check <address>",
	Short: "Decode and verify an address",
	Long: `Verify the checksum and structure of an address and print its
contents. With --wallet, also search the first addresses of each
account for it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAddressCheck,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.AddCommand(addressGenerateCmd)
	addressCmd.AddCommand(addressCheckCmd)

	addressGenerateCmd.Flags().StringVarP(&addrWallet, "wallet", "w", "", "wallet name")
	addressGenerateCmd.Flags().StringVarP(&addrAccount, "account", "a", defaultAccountTag, "account alias")
	addressGenerateCmd.Flags().BoolVar(&addrInternal, "internal", false, "derive change addresses")
	addressGenerateCmd.Flags().Uint32Var(&addrFrom, "from", 0, "first address index")
	addressGenerateCmd.Flags().IntVarP(&addrCount, "count", "n", 0, "number of addresses (default: configured gap)")
	addressGenerateCmd.Flags().BoolVar(&addrQR, "qr", false, "render the first address as a QR code")
	_ = addressGenerateCmd.MarkFlagRequired("wallet")

	addressCheckCmd.Flags().StringVarP(&addrWallet, "wallet", "w", "", "search this wallet for the address")
}

// watchAccount loads the public key of an account without a password.
func watchAccount(ctx *CommandContext, walletName, alias string) (*wallet.Account, error) {
	meta, err := ctx.Storage.LoadMetadata(walletName)
	if err != nil {
		return nil, err
	}
	rec, ok := meta.Account(alias)
	if !ok {
		return nil, tesserr.WithDetails(tesserr.ErrAccountNotFound, map[string]string{
			"wallet":  walletName,
			"account": alias,
		})
	}
	return meta.WatchAccount(rec)
}

func selectedChain() hdwallet.Chain {
	if addrInternal {
		return hdwallet.Internal
	}
	return hdwallet.External
}

func runAddressGenerate(cmd *cobra.Command, _ []string) error {
	ctx := currentContext()

	acct, err := watchAccount(ctx, addrWallet, addrAccount)
	if err != nil {
		return err
	}

	count := addrCount
	if !cmd.Flags().Changed("count") {
		count = ctx.Config.GetAddressGap()
	}

	chain := selectedChain()
	addrs, err := acct.GenerateAddresses(chain, addrFrom, count)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("derived %d addresses for %s/%s", len(addrs), addrWallet, addrAccount)

	tbl := output.NewTable("PATH", "ADDRESS")
	for i, addr := range addrs {
		ad := wallet.Addressing{Account: acct.Index(), Chain: chain, Index: addrFrom + uint32(i)} //nolint:gosec // G115: i < MaxAddressDerivation
		tbl.AddRow(ad.Path().String(), addr.String())
	}
	if err := ctx.Formatter.Print(tbl); err != nil {
		return err
	}

	if addrQR && len(addrs) > 0 && !ctx.Formatter.IsJSON() {
		w := cmd.OutOrStdout()
		if !output.CanRenderQR(w) {
			output.Warn(cmd.ErrOrStderr(), "QR codes are only rendered on a terminal")
			return nil
		}
		return output.RenderQR(w, addrs[0].String(), output.DefaultQRConfig())
	}
	return nil
}

func runAddressCheck(_ *cobra.Command, args []string) error {
	ctx := currentContext()

	addr, err := address.Parse(args[0])
	if err != nil {
		return err
	}

	fields := output.Fields{
		{Key: "valid", Value: true},
		{Key: "type", Value: addr.Type.String()},
		{Key: "network_magic", Value: addr.Attributes.NetworkMagic.String()},
		{Key: "root", Value: hex.EncodeToString(addr.Root[:])},
		{Key: "hex", Value: addr.Hex()},
	}
	if addr.Attributes.DerivationPath != nil {
		fields = append(fields, output.Field{Key: "derivation_payload", Value: hex.EncodeToString(addr.Attributes.DerivationPath)})
	}

	if addrWallet != "" {
		owner, err := findOwner(ctx, addrWallet, addr)
		if err != nil {
			return err
		}
		fields = append(fields, output.Field{Key: "owned_by", Value: owner})
	}
	return ctx.Formatter.Print(fields)
}

// findOwner scans both chains of every stored account up to the address gap.
func findOwner(ctx *CommandContext, walletName string, addr address.Address) (string, error) {
	meta, err := ctx.Storage.LoadMetadata(walletName)
	if err != nil {
		return "", err
	}
	gap := ctx.Config.GetAddressGap()
	for _, rec := range meta.Accounts {
		acct, err := meta.WatchAccount(rec)
		if err != nil {
			return "", err
		}
		for _, chain := range []hdwallet.Chain{hdwallet.External, hdwallet.Internal} {
			addrs, err := acct.GenerateAddresses(chain, 0, gap)
			if err != nil {
				return "", err
			}
			for i, candidate := range addrs {
				if candidate.Equal(addr) {
					return fmt.Sprintf("%s %s/%d", rec.Alias, chain, i), nil
				}
			}
		}
	}
	return "", nil
}
