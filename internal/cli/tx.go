package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/coin"
	"github.com/mrz1836/tessera/internal/output"
	"github.com/mrz1836/tessera/internal/tesscrypto"
	"github.com/mrz1836/tessera/internal/tx"
	"github.com/mrz1836/tessera/internal/txbuild"
	"github.com/mrz1836/tessera/internal/utxostore"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	txInputs    []string
	txOutputs   []string
	txChange    string
	txWallet    string
	txAccount   string
	txFromStore bool
)

// txCmd is the parent command for transaction operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Build, sign and decode transactions",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and price an unsigned transaction",
	Long: `Assemble inputs and outputs, estimate the fee and print the balance
and the unsigned transaction.

Example:
  tessera tx build \
    --input <txid>:0:2000000 \
    --to <address>:1.5 \
    --change <address>`,
	Args: cobra.NoArgs,
	RunE: runTxBuild,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Build and sign a transaction with wallet keys",
	Long: `Build a transaction and sign every input with the key at the given
chain and index of a wallet account.

Example:
  tessera tx sign --wallet main \
    --input <txid>:0:2000000:external/0 \
    --to <address>:1500000 \
    --change <address>`,
	Args: cobra.NoArgs,
	RunE: runTxSign,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txDecodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a signed transaction and verify its witnesses",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxDecode,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txBuildCmd)
	txCmd.AddCommand(txSignCmd)
	txCmd.AddCommand(txDecodeCmd)

	for _, c := range []*cobra.Command{txBuildCmd, txSignCmd} {
		c.Flags().StringArrayVarP(&txInputs, "input", "i", nil, "input txid:index:lovelace (repeatable)")
		c.Flags().StringArrayVarP(&txOutputs, "to", "t", nil, "payment address:amount (repeatable)")
		c.Flags().StringVar(&txChange, "change", "", "address receiving the leftover value")
	}

	txSignCmd.Flags().StringVarP(&txWallet, "wallet", "w", "", "wallet name")
	txSignCmd.Flags().StringVarP(&txAccount, "account", "a", defaultAccountTag, "account alias")
	txSignCmd.Flags().BoolVar(&txFromStore, "from-store", false, "select inputs from the recorded outputs of the account")
	_ = txSignCmd.MarkFlagRequired("wallet")
}

func runTxBuild(_ *cobra.Command, _ []string) error {
	ctx := currentContext()

	inputs, err := parseInputSpecs(txInputs)
	if err != nil {
		return err
	}
	b, t, err := assemble(ctx, inputs, txOutputs, txChange)
	if err != nil {
		return err
	}

	fields, err := summary(b, t)
	if err != nil {
		return err
	}
	fields = append(fields, output.Field{Key: "unsigned", Value: hex.EncodeToString(t.Bytes())})
	return ctx.Formatter.Print(fields)
}

func summary(b *txbuild.Builder, t *tx.Tx) (output.Fields, error) {
	fee, err := b.Fee()
	if err != nil {
		return nil, err
	}
	balance, err := b.Balance()
	if err != nil {
		return nil, err
	}
	in, err := b.InputTotal()
	if err != nil {
		return nil, err
	}
	out, err := b.OutputTotal()
	if err != nil {
		return nil, err
	}
	return output.Fields{
		{Key: "txid", Value: t.ID().String()},
		{Key: "inputs", Value: len(b.Inputs())},
		{Key: "outputs", Value: len(b.Outputs())},
		{Key: "input_total", Value: in.String()},
		{Key: "output_total", Value: out.String()},
		{Key: "fee", Value: fee.String()},
		{Key: "balance", Value: balance.String()},
		{Key: "estimated_size", Value: b.EstimateSize()},
	}, nil
}

func runTxSign(_ *cobra.Command, _ []string) error {
	ctx := currentContext()

	inputs, ledger, err := signingInputs(ctx)
	if err != nil {
		return err
	}

	b, t, err := assemble(ctx, inputs, txOutputs, txChange)
	if err != nil {
		return err
	}
	balance, err := b.Balance()
	if err != nil {
		return err
	}
	if balance.Sign == coin.SignNegative {
		return tesserr.WithDetails(txbuild.ErrNotEnoughInput, map[string]string{"missing": balance.Value.String()})
	}

	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return err
	}
	defer tesscrypto.Zero(password)

	_, w, err := ctx.Storage.Load(txWallet, password)
	if err != nil {
		return err
	}
	defer w.Destroy()

	acct, ok := w.Account(txAccount)
	if !ok {
		return tesserr.WithDetails(tesserr.ErrAccountNotFound, map[string]string{"account": txAccount})
	}

	magic := ctx.Config.GetProtocolMagic()
	id := t.ID()
	fin := txbuild.NewFinalizer(t, txbuild.WithSizeLimit(ctx.Config.GetTxSizeLimit()))
	for _, in := range inputs {
		ad := in.addressing(acct.Index())
		key, err := acct.PrivateKey(ad.Chain, ad.Index)
		if err != nil {
			return err
		}
		err = fin.AddWitness(key, magic, id)
		key.Destroy()
		if err != nil {
			return err
		}
		ctx.Logger.Debug("witnessed %s with %s", in.Pointer, ad)
	}

	signed, err := fin.Output()
	if err != nil {
		return err
	}
	ctx.Logger.WithFields(map[string]any{"txid": signed.ID().String(), "size": signed.Size()}, "transaction signed")

	if ledger != nil {
		marked := ledger.MarkSpent(t.Inputs(), signed.ID())
		if err := ledger.Save(); err != nil {
			return err
		}
		ctx.Logger.Debug("marked %d recorded outputs spent", marked)
	}

	fields, err := summary(b, t)
	if err != nil {
		return err
	}
	fields = append(fields,
		output.Field{Key: "size", Value: signed.Size()},
		output.Field{Key: "signed", Value: signed.Hex()},
	)
	return ctx.Formatter.Print(fields)
}

// signingInputs returns the inputs to sign, from the flags or selected from
// the wallet's output ledger. The ledger is returned when it was used.
func signingInputs(ctx *CommandContext) ([]inputSpec, *utxostore.Store, error) {
	if !txFromStore {
		inputs, err := parseInputSpecs(txInputs)
		if err != nil {
			return nil, nil, err
		}
		for _, in := range inputs {
			if !in.HasPath {
				return nil, nil, tesserr.WithSuggestion(
					tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"input": in.Pointer.String()}),
					"signing needs the key location: txid:index:lovelace:chain/index",
				)
			}
		}
		return inputs, nil, nil
	}

	if len(txInputs) > 0 || txChange == "" {
		return nil, nil, tesserr.WithSuggestion(tesserr.ErrInvalidInput,
			"--from-store selects the inputs itself and needs a --change address")
	}

	ledger, err := openLedger(ctx, txWallet)
	if err != nil {
		return nil, nil, err
	}

	toSpecs := func(selected []utxostore.StoredUTXO) ([]inputSpec, error) {
		specs := make([]inputSpec, 0, len(selected))
		for _, u := range selected {
			ptr, err := u.Pointer()
			if err != nil {
				return nil, err
			}
			specs = append(specs, inputSpec{Pointer: ptr, Value: u.Value, Chain: u.Chain, Index: u.AddressIndex, HasPath: true})
		}
		return specs, nil
	}

	selected, err := ledger.Select(txAccount, func(candidate []utxostore.StoredUTXO) (bool, error) {
		specs, err := toSpecs(candidate)
		if err != nil {
			return false, err
		}
		_, _, err = assemble(ctx, specs, txOutputs, txChange)
		switch {
		case err == nil:
			return true, nil
		case tesserr.Is(err, txbuild.ErrNotEnoughInput), tesserr.Is(err, txbuild.ErrChangeBelowFee):
			return false, nil
		}
		return false, err
	})
	if err != nil {
		return nil, nil, err
	}

	specs, err := toSpecs(selected)
	if err != nil {
		return nil, nil, err
	}
	ctx.Logger.Debug("selected %d recorded outputs", len(specs))
	return specs, ledger, nil
}

func runTxDecode(_ *cobra.Command, args []string) error {
	ctx := currentContext()

	raw, err := hex.DecodeString(strings.TrimSpace(args[0]))
	if err != nil {
		return tesserr.WithSuggestion(tesserr.ErrInvalidFormat, "transaction must be hex encoded")
	}
	signed, err := tx.Decode(raw)
	if err != nil {
		return err
	}

	t := signed.Tx()
	magic := ctx.Config.GetProtocolMagic()
	id := signed.ID()

	if ctx.Formatter.IsJSON() {
		return ctx.Formatter.Print(decodedJSON(signed, magic))
	}

	w := ctx.Formatter.Writer()
	out(w, "txid: %s\n", id)
	out(w, "size: %d\n", signed.Size())

	inputs := output.NewTable("#", "INPUT", "WITNESS")
	inputs.AlignRight(0)
	for i, ptr := range t.Inputs() {
		inputs.AddRow(fmt.Sprint(i), ptr.String(), witnessStatus(signed, i, magic, id))
	}
	outln(w)
	if err := inputs.Render(w); err != nil {
		return err
	}

	outputs := output.NewTable("#", "ADDRESS", "LOVELACE")
	outputs.AlignRight(0)
	outputs.AlignRight(2)
	for i, o := range t.Outputs() {
		outputs.AddRow(fmt.Sprint(i), o.Address.String(), o.Value.String())
	}
	outln(w)
	return outputs.Render(w)
}

func witnessStatus(signed *tx.SignedTx, i int, magic tx.ProtocolMagic, id tx.TxID) string {
	witnesses := signed.Witnesses()
	if i >= len(witnesses) {
		return "missing"
	}
	if witnesses[i].Verify(magic, id) {
		return "valid"
	}
	return "invalid"
}

type decodedInput struct {
	Pointer string `json:"pointer"`
	Witness string `json:"witness"`
}

type decodedOutput struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
}

func decodedJSON(signed *tx.SignedTx, magic tx.ProtocolMagic) output.Fields {
	t := signed.Tx()
	id := signed.ID()

	ins := make([]decodedInput, 0, t.InputCount())
	for i, ptr := range t.Inputs() {
		ins = append(ins, decodedInput{Pointer: ptr.String(), Witness: witnessStatus(signed, i, magic, id)})
	}
	outs := make([]decodedOutput, 0, len(t.Outputs()))
	for _, o := range t.Outputs() {
		outs = append(outs, decodedOutput{Address: o.Address.String(), Value: o.Value.Uint64()})
	}
	return output.Fields{
		{Key: "txid", Value: id.String()},
		{Key: "size", Value: signed.Size()},
		{Key: "inputs", Value: ins},
		{Key: "outputs", Value: outs},
	}
}
