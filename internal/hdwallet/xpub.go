package hdwallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"

	"filippo.io/edwards25519"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// XPub is an extended public key: Ed25519 point (32) | chain code (32).
type XPub struct {
	b [XPubSize]byte
}

// XPubFromBytes parses a 64-byte extended public key.
func XPubFromBytes(b []byte) (*XPub, error) {
	if len(b) != XPubSize {
		return nil, tesserr.WithDetails(ErrInvalidKeyEncoding, map[string]string{
			"reason": "length",
		})
	}
	if _, err := new(edwards25519.Point).SetBytes(b[:32]); err != nil {
		return nil, tesserr.WithDetails(ErrInvalidKeyEncoding, map[string]string{
			"reason": "point",
		})
	}
	p := &XPub{}
	copy(p.b[:], b)
	return p, nil
}

// XPubFromHex parses a hex-encoded extended public key.
func XPubFromHex(s string) (*XPub, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, tesserr.Wrap(ErrInvalidKeyEncoding, "decoding hex")
	}
	return XPubFromBytes(b)
}

// Bytes returns a copy of the 64-byte encoding.
func (p *XPub) Bytes() [XPubSize]byte {
	return p.b
}

// PublicKey returns the Ed25519 public key part.
func (p *XPub) PublicKey() ed25519.PublicKey {
	pk := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pk, p.b[:32])
	return pk
}

// ChainCode returns a copy of the chain code.
func (p *XPub) ChainCode() [ChainCodeSize]byte {
	var cc [ChainCodeSize]byte
	copy(cc[:], p.b[32:])
	return cc
}

func (p *XPub) String() string {
	return hex.EncodeToString(p.b[:])
}

// Equal reports whether both keys have the same encoding.
func (p *XPub) Equal(other *XPub) bool {
	return other != nil && hmac.Equal(p.b[:], other.b[:])
}

// Verify checks an Ed25519 signature over message.
func (p *XPub) Verify(message []byte, sig Signature) bool {
	return ed25519.Verify(p.PublicKey(), message, sig[:])
}

// Derive returns the soft child at index. Hardened indices need the
// private key and fail with ErrExpectedSoftDerivation.
func (p *XPub) Derive(index uint32) (*XPub, error) {
	if index >= Hardened {
		return nil, ErrExpectedSoftDerivation
	}

	cc := p.b[32:]
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)

	zmac := hmac.New(sha512.New, cc)
	imac := hmac.New(sha512.New, cc)
	writeAll(zmac, []byte{0x02}, p.b[:32], idx[:])
	writeAll(imac, []byte{0x03}, p.b[:32], idx[:])
	z := zmac.Sum(nil)
	i := imac.Sum(nil)

	var zl8 [32]byte
	add28Mul8(zl8[:], make([]byte, 32), z[:32])
	var wide [64]byte
	copy(wide[:32], zl8[:])
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if err != nil {
		return nil, err
	}

	parent, err := new(edwards25519.Point).SetBytes(p.b[:32])
	if err != nil {
		return nil, tesserr.Wrap(ErrInvalidKeyEncoding, "parent public key")
	}
	point := new(edwards25519.Point).Add(parent, new(edwards25519.Point).ScalarBaseMult(s))

	child := &XPub{}
	copy(child.b[:32], point.Bytes())
	copy(child.b[32:], i[32:])
	return child, nil
}

// DerivePath walks every index of p from the key; all must be soft.
func (p *XPub) DerivePath(path Path) (*XPub, error) {
	cur := p
	for _, index := range path {
		next, err := cur.Derive(index)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
