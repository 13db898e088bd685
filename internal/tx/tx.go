// Package tx defines the transaction model: input pointers, outputs,
// immutable transactions and their witnesses, with their CBOR encoding.
package tx

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/coin"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// ErrInvalidTransaction is returned when decoding malformed transactions.
var ErrInvalidTransaction = tesserr.ErrInvalidTransaction

var errUnexpectedShape = errors.New("unexpected CBOR shape")

// IDSize is the length of a transaction id.
const IDSize = 32

// TxID identifies a transaction: blake2b-256 of its CBOR encoding.
type TxID [IDSize]byte

func (id TxID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseTxID reads a hex transaction id.
func ParseTxID(s string) (TxID, error) {
	var id TxID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != IDSize {
		return id, tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"txid": s})
	}
	copy(id[:], b)
	return id, nil
}

// ProtocolMagic distinguishes networks inside signed messages.
type ProtocolMagic uint32

// Known protocol magics.
const (
	MainnetMagic ProtocolMagic = 764824073
	TestnetMagic ProtocolMagic = 1097911063
)

// TxoPointer references output Index of transaction ID.
type TxoPointer struct {
	ID    TxID
	Index uint32
}

func (p TxoPointer) String() string {
	return p.ID.String() + ":" + strconv.FormatUint(uint64(p.Index), 10)
}

// ParseTxoPointer reads "txid:index".
func ParseTxoPointer(s string) (TxoPointer, error) {
	var p TxoPointer
	idPart, indexPart, ok := strings.Cut(s, ":")
	if !ok {
		return p, tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"input": s})
	}
	id, err := ParseTxID(idPart)
	if err != nil {
		return p, err
	}
	index, err := strconv.ParseUint(indexPart, 10, 32)
	if err != nil {
		return p, tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"input": s})
	}
	return TxoPointer{ID: id, Index: uint32(index)}, nil
}

type txoPointerBody struct {
	_     struct{} `cbor:",toarray"`
	ID    []byte
	Index uint32
}

// MarshalCBOR encodes [0, tag24([txid, index])].
func (p TxoPointer) MarshalCBOR() ([]byte, error) {
	return encodeTagged(0, txoPointerBody{ID: p.ID[:], Index: p.Index})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (p *TxoPointer) UnmarshalCBOR(data []byte) error {
	var body txoPointerBody
	if err := decodeTagged(data, 0, &body); err != nil {
		return tesserr.Wrap(ErrInvalidTransaction, "decoding input")
	}
	if len(body.ID) != IDSize {
		return tesserr.WithDetails(ErrInvalidTransaction, map[string]string{"reason": "txid length"})
	}
	copy(p.ID[:], body.ID)
	p.Index = body.Index
	return nil
}

// TxOut pays Value to Address.
type TxOut struct {
	_       struct{} `cbor:",toarray"`
	Address address.Address
	Value   coin.Coin
}

// NewTxOut builds an output.
func NewTxOut(addr address.Address, value coin.Coin) TxOut {
	return TxOut{Address: addr, Value: value}
}

// Tx is an immutable list of inputs and outputs.
type Tx struct {
	inputs  []TxoPointer
	outputs []TxOut
}

// New copies inputs and outputs into a new transaction.
func New(inputs []TxoPointer, outputs []TxOut) *Tx {
	return &Tx{
		inputs:  append([]TxoPointer{}, inputs...),
		outputs: append([]TxOut{}, outputs...),
	}
}

// Inputs returns a copy of the inputs.
func (t *Tx) Inputs() []TxoPointer {
	return append([]TxoPointer{}, t.inputs...)
}

// Outputs returns a copy of the outputs.
func (t *Tx) Outputs() []TxOut {
	return append([]TxOut{}, t.outputs...)
}

// InputCount returns the number of inputs.
func (t *Tx) InputCount() int {
	return len(t.inputs)
}

// OutputTotal sums the outputs, failing past coin.MaxValue.
func (t *Tx) OutputTotal() (coin.Coin, error) {
	values := make([]coin.Coin, len(t.outputs))
	for i, o := range t.outputs {
		values[i] = o.Value
	}
	return coin.Sum(values...)
}

// MarshalCBOR encodes [*[inputs], *[outputs], {}] using indefinite-length
// arrays for the input and output lists.
func (t *Tx) MarshalCBOR() ([]byte, error) {
	buf := []byte{0x83, 0x9f}
	for _, in := range t.inputs {
		b, err := in.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	buf = append(buf, 0xff, 0x9f)
	for _, out := range t.outputs {
		b, err := encMode.Marshal(out)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return append(buf, 0xff, 0xa0), nil
}

type txWire struct {
	_          struct{} `cbor:",toarray"`
	Inputs     []TxoPointer
	Outputs    []TxOut
	Attributes map[uint64]cbor.RawMessage
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (t *Tx) UnmarshalCBOR(data []byte) error {
	var w txWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return tesserr.Wrap(ErrInvalidTransaction, "decoding transaction: %v", err)
	}
	for _, out := range w.Outputs {
		if _, err := coin.New(out.Value.Uint64()); err != nil {
			return err
		}
	}
	t.inputs = append([]TxoPointer{}, w.Inputs...)
	t.outputs = append([]TxOut{}, w.Outputs...)
	return nil
}

// Bytes returns the CBOR encoding.
func (t *Tx) Bytes() []byte {
	b, err := t.MarshalCBOR()
	if err != nil {
		panic("tx: encoding transaction: " + err.Error())
	}
	return b
}

// ID returns blake2b-256 of the encoding.
func (t *Tx) ID() TxID {
	return blake2b.Sum256(t.Bytes())
}
