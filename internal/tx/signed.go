package tx

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// SignedTx is a transaction with one witness per input.
type SignedTx struct {
	tx        *Tx
	witnesses []TxInWitness
}

// NewSignedTx pairs a transaction with its witnesses. Counts are not
// checked here; the finalizer enforces them.
func NewSignedTx(t *Tx, witnesses []TxInWitness) *SignedTx {
	return &SignedTx{tx: t, witnesses: append([]TxInWitness{}, witnesses...)}
}

// Tx returns the unsigned transaction.
func (s *SignedTx) Tx() *Tx {
	return s.tx
}

// Witnesses returns a copy of the witnesses.
func (s *SignedTx) Witnesses() []TxInWitness {
	return append([]TxInWitness{}, s.witnesses...)
}

// ID returns the transaction id.
func (s *SignedTx) ID() TxID {
	return s.tx.ID()
}

// MarshalCBOR encodes [tx, [witnesses]].
func (s *SignedTx) MarshalCBOR() ([]byte, error) {
	body, err := s.tx.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	witnesses, err := encMode.Marshal(append([]TxInWitness{}, s.witnesses...))
	if err != nil {
		return nil, err
	}
	buf := append([]byte{0x82}, body...)
	return append(buf, witnesses...), nil
}

type signedWire struct {
	_         struct{} `cbor:",toarray"`
	Tx        cbor.RawMessage
	Witnesses []TxInWitness
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (s *SignedTx) UnmarshalCBOR(data []byte) error {
	var w signedWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return tesserr.Wrap(ErrInvalidTransaction, "decoding signed transaction: %v", err)
	}
	t := &Tx{}
	if err := t.UnmarshalCBOR(w.Tx); err != nil {
		return err
	}
	s.tx = t
	s.witnesses = append([]TxInWitness{}, w.Witnesses...)
	return nil
}

// Bytes returns the encoding ready for broadcast.
func (s *SignedTx) Bytes() []byte {
	b, err := s.MarshalCBOR()
	if err != nil {
		panic("tx: encoding signed transaction: " + err.Error())
	}
	return b
}

// Size returns the encoded length in bytes.
func (s *SignedTx) Size() int {
	return len(s.Bytes())
}

// Hex returns the hex encoding.
func (s *SignedTx) Hex() string {
	return hex.EncodeToString(s.Bytes())
}

// Decode parses a signed transaction.
func Decode(data []byte) (*SignedTx, error) {
	s := &SignedTx{}
	if err := s.UnmarshalCBOR(data); err != nil {
		return nil, err
	}
	return s, nil
}
