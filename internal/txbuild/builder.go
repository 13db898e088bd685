// Package txbuild assembles, balances and signs transactions.
//
// A Builder accumulates inputs and outputs and computes totals, fees and
// balances with bounded arithmetic. Finalize snapshots it into an immutable
// transaction, which a Finalizer then witnesses input by input.
//
// Neither Builder nor Finalizer is safe for concurrent use.
package txbuild

import (
	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/coin"
	"github.com/mrz1836/tessera/internal/tx"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// Sentinel errors re-exported for callers of this package.
var (
	ErrCoinOutOfBounds    = tesserr.ErrCoinOutOfBounds
	ErrNoInput            = tesserr.ErrNoInput
	ErrNoOutput           = tesserr.ErrNoOutput
	ErrNotEnoughInput     = tesserr.ErrNotEnoughInput
	ErrChangeBelowFee     = tesserr.ErrChangeBelowFee
	ErrChangeAlreadySet   = tesserr.ErrChangeAlreadySet
	ErrSignaturesExceeded = tesserr.ErrSignaturesExceeded
	ErrSignatureMismatch  = tesserr.ErrSignatureMismatch
	ErrOverLimit          = tesserr.ErrOverLimit
	ErrFinalizerSpent     = tesserr.ErrFinalizerSpent
)

// Input is a spent output reference and the value it holds.
type Input struct {
	Pointer tx.TxoPointer
	Value   coin.Coin
}

// Builder is an append-only transaction under construction.
type Builder struct {
	inputs  []Input
	outputs []tx.TxOut
	change  *address.Address
	fees    FeeAlgorithm
}

// Option configures a Builder.
type Option func(*Builder)

// WithFeeAlgorithm replaces the default linear fee.
func WithFeeAlgorithm(f FeeAlgorithm) Option {
	return func(b *Builder) {
		b.fees = f
	}
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{fees: DefaultLinearFee()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddInput records an input. Values above coin.MaxValue are rejected.
func (b *Builder) AddInput(ptr tx.TxoPointer, value uint64) error {
	c, err := coin.New(value)
	if err != nil {
		return err
	}
	b.inputs = append(b.inputs, Input{Pointer: ptr, Value: c})
	return nil
}

// AddOutput records an output. Bounds are checked when totals are computed.
func (b *Builder) AddOutput(out tx.TxOut) {
	b.outputs = append(b.outputs, out)
}

// Inputs returns a copy of the recorded inputs.
func (b *Builder) Inputs() []Input {
	return append([]Input{}, b.inputs...)
}

// Outputs returns a copy of the recorded outputs, change included.
func (b *Builder) Outputs() []tx.TxOut {
	return append([]tx.TxOut{}, b.outputs...)
}

// ChangeAddress returns the change address, if one was set.
func (b *Builder) ChangeAddress() (address.Address, bool) {
	if b.change == nil {
		return address.Address{}, false
	}
	return *b.change, true
}

// InputTotal sums input values, checking every partial sum.
func (b *Builder) InputTotal() (coin.Coin, error) {
	values := make([]coin.Coin, len(b.inputs))
	for i, in := range b.inputs {
		values[i] = in.Value
	}
	return coin.Sum(values...)
}

// OutputTotal sums output values, checking every partial sum.
func (b *Builder) OutputTotal() (coin.Coin, error) {
	return outputTotal(b.outputs)
}

func outputTotal(outputs []tx.TxOut) (coin.Coin, error) {
	values := make([]coin.Coin, len(outputs))
	for i, out := range outputs {
		values[i] = out.Value
	}
	return coin.Sum(values...)
}

// EstimateSize returns the encoded size of the signed transaction with
// placeholder witnesses and every amount at its widest encoding, so the
// estimate depends only on the shape of the transaction.
func (b *Builder) EstimateSize() int {
	return estimateSize(b.inputs, b.outputs)
}

func estimateSize(inputs []Input, outputs []tx.TxOut) int {
	ptrs := make([]tx.TxoPointer, len(inputs))
	for i, in := range inputs {
		ptrs[i] = in.Pointer
	}
	widest := make([]tx.TxOut, len(outputs))
	for i, out := range outputs {
		widest[i] = tx.NewTxOut(out.Address, coin.Max)
	}
	witnesses := make([]tx.TxInWitness, len(inputs))
	for i := range witnesses {
		witnesses[i] = tx.FakeWitness()
	}
	return tx.NewSignedTx(tx.New(ptrs, widest), witnesses).Size()
}

// Fee estimates the fee for the current inputs and outputs.
func (b *Builder) Fee() (coin.Coin, error) {
	return b.fees.Estimate(b.EstimateSize())
}

// BalanceWithoutFees returns inputs - outputs.
func (b *Builder) BalanceWithoutFees() (coin.Balance, error) {
	in, err := b.InputTotal()
	if err != nil {
		return coin.Balance{}, err
	}
	out, err := b.OutputTotal()
	if err != nil {
		return coin.Balance{}, err
	}
	return coin.Difference(in, out), nil
}

// Balance returns inputs - (outputs + fee).
func (b *Builder) Balance() (coin.Balance, error) {
	in, err := b.InputTotal()
	if err != nil {
		return coin.Balance{}, err
	}
	out, err := b.OutputTotal()
	if err != nil {
		return coin.Balance{}, err
	}
	fee, err := b.Fee()
	if err != nil {
		return coin.Balance{}, err
	}
	spent, err := out.Add(fee)
	if err != nil {
		return coin.Balance{}, err
	}
	return coin.Difference(in, spent), nil
}

// AddChangeAddress sends whatever the inputs leave over, minus the fee of
// the extra output, to addr. The change output is computed now and is not
// revisited if inputs or outputs are added later.
func (b *Builder) AddChangeAddress(addr address.Address) error {
	if b.change != nil {
		return ErrChangeAlreadySet
	}

	balance, err := b.Balance()
	if err != nil {
		return err
	}

	switch balance.Sign {
	case coin.SignNegative:
		return tesserr.WithDetails(ErrNotEnoughInput, map[string]string{"missing": balance.Value.String()})
	case coin.SignZero:
		b.change = &addr
		return nil
	}

	in, err := b.InputTotal()
	if err != nil {
		return err
	}
	out, err := b.OutputTotal()
	if err != nil {
		return err
	}

	withChange := append(b.Outputs(), tx.NewTxOut(addr, 0))
	fee, err := b.fees.Estimate(estimateSize(b.inputs, withChange))
	if err != nil {
		return err
	}
	spent, err := out.Add(fee)
	if err != nil {
		return err
	}
	leftover, ok := in.Sub(spent)
	if !ok || leftover == 0 {
		return tesserr.WithDetails(ErrChangeBelowFee, map[string]string{"available": balance.Value.String()})
	}

	b.outputs = append(b.outputs, tx.NewTxOut(addr, leftover))
	b.change = &addr
	return nil
}

// Finalize returns an immutable transaction of the current inputs and outputs.
func (b *Builder) Finalize() (*tx.Tx, error) {
	if len(b.inputs) == 0 {
		return nil, ErrNoInput
	}
	if len(b.outputs) == 0 {
		return nil, ErrNoOutput
	}
	ptrs := make([]tx.TxoPointer, len(b.inputs))
	for i, in := range b.inputs {
		ptrs[i] = in.Pointer
	}
	return tx.New(ptrs, b.outputs), nil
}
