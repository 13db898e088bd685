// Package address derives and encodes Byron-style addresses.
//
// The text form is base58(CBOR([tag24(payload), crc32(payload)])) where the
// payload is CBOR([root, attributes, type]) and the root is
// blake2b-224(sha3-256(CBOR([type, [0, xpub], attributes]))).
package address

import (
	"bytes"
	"encoding/hex"
	"hash/crc32"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/mrz1836/tessera/internal/hdwallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// ErrInvalidAddress is returned for malformed or tampered addresses.
var ErrInvalidAddress = tesserr.ErrInvalidAddress

// RootSize is the length of the address root hash.
const RootSize = 28

// Type is the kind of spending data an address commits to.
type Type uint64

// Address types.
const (
	TypePubKey Type = 0
	TypeScript Type = 1
	TypeRedeem Type = 2
)

func (t Type) String() string {
	switch t {
	case TypePubKey:
		return "pubkey"
	case TypeScript:
		return "script"
	case TypeRedeem:
		return "redeem"
	default:
		return "unknown"
	}
}

// Address is the structured form of an address.
type Address struct {
	Root       [RootSize]byte
	Attributes Attributes
	Type       Type
}

// New derives the public-key address of xpub on the given network.
func New(xpub *hdwallet.XPub, magic NetworkMagic) Address {
	a := Address{
		Attributes: Attributes{NetworkMagic: magic},
		Type:       TypePubKey,
	}
	a.Root = spendingRoot(xpub, a.Attributes, a.Type)
	return a
}

type pubKeySpendingData struct {
	_    struct{} `cbor:",toarray"`
	Kind uint64
	Key  []byte
}

type hashedSpendingData struct {
	_          struct{} `cbor:",toarray"`
	Type       Type
	Spending   pubKeySpendingData
	Attributes map[uint64][]byte
}

func spendingRoot(xpub *hdwallet.XPub, attrs Attributes, t Type) [RootSize]byte {
	key := xpub.Bytes()
	data, err := encMode.Marshal(hashedSpendingData{
		Type:       t,
		Spending:   pubKeySpendingData{Kind: 0, Key: key[:]},
		Attributes: attrs.toMap(),
	})
	if err != nil {
		panic("address: encoding spending data: " + err.Error())
	}

	sum := sha3.Sum256(data)
	h, err := blake2b.New(RootSize, nil)
	if err != nil {
		panic("address: blake2b-224: " + err.Error())
	}
	_, _ = h.Write(sum[:])

	var root [RootSize]byte
	copy(root[:], h.Sum(nil))
	return root
}

// IdentifiesKey reports whether the address commits to xpub.
func (a Address) IdentifiesKey(xpub *hdwallet.XPub) bool {
	if a.Type != TypePubKey {
		return false
	}
	return spendingRoot(xpub, a.Attributes, a.Type) == a.Root
}

// Equal reports whether both addresses have the same content.
func (a Address) Equal(b Address) bool {
	return a.Root == b.Root && a.Type == b.Type && a.Attributes.Equal(b.Attributes)
}

type payload struct {
	_          struct{} `cbor:",toarray"`
	Root       []byte
	Attributes map[uint64][]byte
	Type       Type
}

type envelope struct {
	_       struct{} `cbor:",toarray"`
	Payload cbor.Tag
	CRC     uint32
}

// MarshalCBOR encodes the checksummed envelope used in transaction outputs.
func (a Address) MarshalCBOR() ([]byte, error) {
	inner, err := encMode.Marshal(payload{
		Root:       a.Root[:],
		Attributes: a.Attributes.toMap(),
		Type:       a.Type,
	})
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(envelope{
		Payload: cbor.Tag{Number: tagEncodedCBOR, Content: inner},
		CRC:     crc32.ChecksumIEEE(inner),
	})
}

// UnmarshalCBOR decodes and validates an envelope. Non-canonical encodings
// are rejected so that decoding is the exact inverse of MarshalCBOR.
func (a *Address) UnmarshalCBOR(data []byte) error {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return tesserr.Wrap(ErrInvalidAddress, "decoding envelope")
	}
	if env.Payload.Number != tagEncodedCBOR {
		return tesserr.Wrap(ErrInvalidAddress, "unexpected tag %d", env.Payload.Number)
	}
	inner, ok := env.Payload.Content.([]byte)
	if !ok {
		return tesserr.Wrap(ErrInvalidAddress, "payload is not a byte string")
	}
	if crc32.ChecksumIEEE(inner) != env.CRC {
		return tesserr.WithDetails(ErrInvalidAddress, map[string]string{"reason": "crc32 mismatch"})
	}

	var p payload
	if err := decMode.Unmarshal(inner, &p); err != nil {
		return tesserr.Wrap(ErrInvalidAddress, "decoding payload")
	}
	if len(p.Root) != RootSize {
		return tesserr.WithDetails(ErrInvalidAddress, map[string]string{"reason": "root length"})
	}
	attrs, err := attributesFromMap(p.Attributes)
	if err != nil {
		return err
	}

	decoded := Address{Attributes: attrs, Type: p.Type}
	copy(decoded.Root[:], p.Root)

	canonical, err := decoded.MarshalCBOR()
	if err != nil || !bytes.Equal(canonical, data) {
		return tesserr.WithDetails(ErrInvalidAddress, map[string]string{"reason": "non-canonical encoding"})
	}

	*a = decoded
	return nil
}

// String returns the base58 text form.
func (a Address) String() string {
	raw, err := a.MarshalCBOR()
	if err != nil {
		panic("address: encoding: " + err.Error())
	}
	return base58.Encode(raw)
}

// Export is an alias for String.
func (a Address) Export() string {
	return a.String()
}

// Hex returns the hex of the CBOR envelope.
func (a Address) Hex() string {
	raw, _ := a.MarshalCBOR()
	return hex.EncodeToString(raw)
}

// Parse decodes the base58 text form.
func Parse(text string) (Address, error) {
	var a Address
	if text == "" {
		return a, ErrInvalidAddress
	}
	raw, err := base58.Decode(text)
	if err != nil {
		return a, tesserr.Wrap(ErrInvalidAddress, "decoding base58")
	}
	if err := a.UnmarshalCBOR(raw); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Import is an alias for Parse.
func Import(text string) (Address, error) {
	return Parse(text)
}

// IsValid reports whether text parses as an address.
func IsValid(text string) bool {
	_, err := Parse(text)
	return err == nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
