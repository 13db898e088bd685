package cli

import (
	"strconv"
	"strings"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/coin"
	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/tx"
	"github.com/mrz1836/tessera/internal/txbuild"
	"github.com/mrz1836/tessera/internal/wallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// inputSpec is a parsed --input flag: txid:index:lovelace[:chain/index].
type inputSpec struct {
	Pointer tx.TxoPointer
	Value   uint64
	Chain   hdwallet.Chain
	Index   uint32
	HasPath bool
}

func parseInputSpec(s string) (inputSpec, error) {
	var spec inputSpec
	invalid := tesserr.WithSuggestion(
		tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"input": s}),
		"inputs are written txid:index:lovelace or txid:index:lovelace:chain/index",
	)

	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 && len(parts) != 4 {
		return spec, invalid
	}

	ptr, err := tx.ParseTxoPointer(parts[0] + ":" + parts[1])
	if err != nil {
		return spec, err
	}
	value, err := coin.Parse(parts[2])
	if err != nil {
		return spec, err
	}
	spec.Pointer = ptr
	spec.Value = value.Uint64()

	if len(parts) == 4 {
		chainPart, indexPart, ok := strings.Cut(parts[3], "/")
		if !ok {
			return spec, invalid
		}
		chain, err := hdwallet.ParseChain(chainPart)
		if err != nil {
			return spec, err
		}
		index, err := strconv.ParseUint(indexPart, 10, 32)
		if err != nil || uint32(index) >= hdwallet.Hardened {
			return spec, invalid
		}
		spec.Chain = chain
		spec.Index = uint32(index)
		spec.HasPath = true
	}
	return spec, nil
}

// addressing returns where the key of this input lives in account.
func (s inputSpec) addressing(account uint32) wallet.Addressing {
	return wallet.Addressing{Account: account, Chain: s.Chain, Index: s.Index}
}

// parseOutputSpec reads address:amount. Amounts with a decimal point are ADA,
// others are lovelace.
func parseOutputSpec(s string) (tx.TxOut, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return tx.TxOut{}, tesserr.WithSuggestion(
			tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"output": s}),
			"outputs are written address:lovelace or address:ada.decimal",
		)
	}

	addr, err := address.Parse(s[:i])
	if err != nil {
		return tx.TxOut{}, err
	}

	amount := s[i+1:]
	var value coin.Coin
	if strings.Contains(amount, ".") {
		value, err = coin.ParseADA(amount)
	} else {
		value, err = coin.Parse(amount)
	}
	if err != nil {
		return tx.TxOut{}, err
	}
	return tx.NewTxOut(addr, value), nil
}

// assemble builds a transaction from flag values.
func assemble(ctx *CommandContext, inputs []inputSpec, outputs []string, change string) (*txbuild.Builder, *tx.Tx, error) {
	fee, err := ctx.Config.FeeAlgorithm()
	if err != nil {
		return nil, nil, err
	}
	b := txbuild.NewBuilder(txbuild.WithFeeAlgorithm(fee))

	for _, in := range inputs {
		if err := b.AddInput(in.Pointer, in.Value); err != nil {
			return nil, nil, err
		}
	}
	for _, o := range outputs {
		out, err := parseOutputSpec(o)
		if err != nil {
			return nil, nil, err
		}
		b.AddOutput(out)
	}

	if change != "" {
		addr, err := address.Parse(change)
		if err != nil {
			return nil, nil, err
		}
		if err := b.AddChangeAddress(addr); err != nil {
			return nil, nil, err
		}
	}

	t, err := b.Finalize()
	if err != nil {
		return nil, nil, err
	}
	return b, t, nil
}

func parseInputSpecs(raw []string) ([]inputSpec, error) {
	specs := make([]inputSpec, 0, len(raw))
	for _, s := range raw {
		spec, err := parseInputSpec(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
