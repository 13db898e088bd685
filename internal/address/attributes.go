package address

import (
	"bytes"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

const (
	tagEncodedCBOR = 24

	attrDerivationPath = 1
	attrNetworkMagic   = 2
)

//nolint:gochecknoglobals // shared deterministic codec
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

//nolint:gochecknoinits // codec modes are built once from fixed options
func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

// NetworkMagic identifies the network an address belongs to. Mainnet
// addresses carry no magic at all.
type NetworkMagic struct {
	value uint32
	set   bool
}

// NoMagic is used for mainnet addresses.
//
//nolint:gochecknoglobals // immutable zero value
var NoMagic = NetworkMagic{}

// Magic returns a network magic carrying value.
func Magic(value uint32) NetworkMagic {
	return NetworkMagic{value: value, set: true}
}

// Value returns the magic and whether one is present.
func (m NetworkMagic) Value() (uint32, bool) {
	return m.value, m.set
}

func (m NetworkMagic) String() string {
	if !m.set {
		return "none"
	}
	return strconv.FormatUint(uint64(m.value), 10)
}

// Attributes are the optional address attributes.
type Attributes struct {
	// DerivationPath is the opaque HD payload, kept verbatim.
	DerivationPath []byte
	NetworkMagic   NetworkMagic
}

// Equal reports whether both attribute sets are identical.
func (a Attributes) Equal(b Attributes) bool {
	return a.NetworkMagic == b.NetworkMagic && bytes.Equal(a.DerivationPath, b.DerivationPath)
}

func (a Attributes) toMap() map[uint64][]byte {
	m := make(map[uint64][]byte, 2)
	if a.DerivationPath != nil {
		m[attrDerivationPath] = a.DerivationPath
	}
	if v, ok := a.NetworkMagic.Value(); ok {
		enc, err := encMode.Marshal(v)
		if err != nil {
			panic("address: encoding network magic: " + err.Error())
		}
		m[attrNetworkMagic] = enc
	}
	return m
}

func attributesFromMap(m map[uint64][]byte) (Attributes, error) {
	var a Attributes
	for key, value := range m {
		switch key {
		case attrDerivationPath:
			a.DerivationPath = append([]byte{}, value...)
		case attrNetworkMagic:
			var magic uint32
			if err := decMode.Unmarshal(value, &magic); err != nil {
				return a, tesserr.Wrap(ErrInvalidAddress, "decoding network magic")
			}
			a.NetworkMagic = Magic(magic)
		default:
			return a, tesserr.WithDetails(ErrInvalidAddress, map[string]string{
				"attribute": strconv.FormatUint(key, 10),
			})
		}
	}
	return a, nil
}
