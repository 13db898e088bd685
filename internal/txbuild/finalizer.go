package txbuild

import (
	"strconv"

	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/tx"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// DefaultSizeLimit is the largest signed transaction accepted, in bytes.
const DefaultSizeLimit = 65536

// Finalizer collects one witness per input, in input order.
type Finalizer struct {
	tx        *tx.Tx
	witnesses []tx.TxInWitness
	signer    hdwallet.Signer
	sizeLimit int
	spent     bool
}

// FinalizerOption configures a Finalizer.
type FinalizerOption func(*Finalizer)

// WithSigner replaces the in-process Ed25519 signer.
func WithSigner(s hdwallet.Signer) FinalizerOption {
	return func(f *Finalizer) {
		f.signer = s
	}
}

// WithSizeLimit overrides DefaultSizeLimit.
func WithSizeLimit(n int) FinalizerOption {
	return func(f *Finalizer) {
		f.sizeLimit = n
	}
}

// NewFinalizer starts witnessing t.
func NewFinalizer(t *tx.Tx, opts ...FinalizerOption) *Finalizer {
	f := &Finalizer{
		tx:        t,
		signer:    hdwallet.Ed25519Signer{},
		sizeLimit: DefaultSizeLimit,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Tx returns the transaction being witnessed.
func (f *Finalizer) Tx() *tx.Tx {
	return f.tx
}

// WitnessCount returns the number of witnesses added so far.
func (f *Finalizer) WitnessCount() int {
	return len(f.witnesses)
}

// AddWitness signs id with key for the next unwitnessed input. The id is
// signed as given; callers normally pass Tx().ID(). Once every input has a
// witness further calls fail with ErrSignaturesExceeded and change nothing.
func (f *Finalizer) AddWitness(key *hdwallet.XPrv, magic tx.ProtocolMagic, id tx.TxID) error {
	if err := f.checkRoom(); err != nil {
		return err
	}
	f.witnesses = append(f.witnesses, tx.NewWitness(f.signer, key, magic, id))
	return nil
}

// AddWitnessBytes is AddWitness for a raw 96-byte extended private key.
func (f *Finalizer) AddWitnessBytes(key []byte, magic tx.ProtocolMagic, id tx.TxID) error {
	if err := f.checkRoom(); err != nil {
		return err
	}
	xprv, err := hdwallet.XPrvFromBytes(key)
	if err != nil {
		return err
	}
	defer xprv.Destroy()
	return f.AddWitness(xprv, magic, id)
}

func (f *Finalizer) checkRoom() error {
	if f.spent {
		return ErrFinalizerSpent
	}
	if len(f.witnesses) >= f.tx.InputCount() {
		return tesserr.WithDetails(ErrSignaturesExceeded, map[string]string{
			"inputs": strconv.Itoa(f.tx.InputCount()),
		})
	}
	return nil
}

// Output returns the signed transaction. Witness and input counts must
// match and the encoding must fit the size limit. After success the
// finalizer is spent.
func (f *Finalizer) Output() (*tx.SignedTx, error) {
	if f.spent {
		return nil, ErrFinalizerSpent
	}
	if len(f.witnesses) != f.tx.InputCount() {
		return nil, tesserr.WithDetails(ErrSignatureMismatch, map[string]string{
			"inputs":    strconv.Itoa(f.tx.InputCount()),
			"witnesses": strconv.Itoa(len(f.witnesses)),
		})
	}

	signed := tx.NewSignedTx(f.tx, f.witnesses)
	if size := signed.Size(); size > f.sizeLimit {
		return nil, tesserr.WithDetails(ErrOverLimit, map[string]string{
			"size":  strconv.Itoa(size),
			"limit": strconv.Itoa(f.sizeLimit),
		})
	}

	f.spent = true
	f.witnesses = nil
	return signed, nil
}
