// Package hdwallet implements Ed25519-BIP32 extended keys (derivation
// scheme V2) and the signing primitive used for transaction witnesses.
package hdwallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"io"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/pbkdf2"

	"github.com/mrz1836/tessera/internal/tesscrypto"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// Key sizes in bytes.
const (
	XPrvSize      = 96
	XPubSize      = 64
	SeedSize      = 96
	ChainCodeSize = 32
	SignatureSize = 64

	// Hardened marks indices whose derivation requires the private key.
	Hardened uint32 = 0x80000000

	pbkdf2Iterations = 4096
)

// Sentinel errors re-exported for callers of this package.
var (
	ErrInvalidKeyEncoding     = tesserr.ErrInvalidKeyEncoding
	ErrExpectedSoftDerivation = tesserr.ErrExpectedSoftDerivation
)

// Seed is the stretched root material of a wallet.
type Seed struct {
	b [SeedSize]byte
}

// NewSeed stretches entropy with an optional password:
// PBKDF2-HMAC-SHA512(password, salt=entropy, 4096 rounds, 96 bytes).
// Different passwords over the same entropy give unrelated seeds.
func NewSeed(entropy, password []byte) *Seed {
	s := &Seed{}
	out := pbkdf2.Key(password, entropy, pbkdf2Iterations, SeedSize, sha512.New)
	copy(s.b[:], out)
	tesscrypto.Zero(out)
	return s
}

// Destroy wipes the seed.
func (s *Seed) Destroy() {
	tesscrypto.Zero(s.b[:])
}

// XPrv is an extended private key: kL (32) | kR (32) | chain code (32).
// Values are never mutated after construction; Destroy wipes them.
type XPrv struct {
	b [XPrvSize]byte
}

// NewRootKey turns a seed into the root extended private key, clearing and
// setting the scalar bits Ed25519-BIP32 requires.
func NewRootKey(seed *Seed) *XPrv {
	k := &XPrv{b: seed.b}
	k.b[0] &= 0xF8
	k.b[31] &= 0x1F
	k.b[31] |= 0x40
	return k
}

// XPrvFromBytes parses a 96-byte extended private key. The scalar must
// already carry the expected bit pattern; it is never fixed up.
func XPrvFromBytes(b []byte) (*XPrv, error) {
	if len(b) != XPrvSize {
		return nil, tesserr.WithDetails(ErrInvalidKeyEncoding, map[string]string{
			"reason": "length",
		})
	}
	if b[31]&0xE0 != 0x40 {
		return nil, tesserr.WithDetails(ErrInvalidKeyEncoding, map[string]string{
			"reason": "highest bits",
		})
	}
	if b[0]&0x07 != 0 {
		return nil, tesserr.WithDetails(ErrInvalidKeyEncoding, map[string]string{
			"reason": "lowest bits",
		})
	}
	k := &XPrv{}
	copy(k.b[:], b)
	return k, nil
}

// Bytes returns a copy of the 96-byte encoding.
func (k *XPrv) Bytes() [XPrvSize]byte {
	return k.b
}

// ChainCode returns a copy of the chain code.
func (k *XPrv) ChainCode() [ChainCodeSize]byte {
	var cc [ChainCodeSize]byte
	copy(cc[:], k.b[64:])
	return cc
}

// Destroy wipes the key.
func (k *XPrv) Destroy() {
	tesscrypto.Zero(k.b[:])
}

// String never reveals key material.
func (k *XPrv) String() string {
	return "XPrv(" + hex.EncodeToString(k.Public().b[:8]) + "...)"
}

// scalar returns kL reduced modulo the group order.
func (k *XPrv) scalar() *edwards25519.Scalar {
	var wide [64]byte
	copy(wide[:32], k.b[:32])
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if err != nil {
		panic("hdwallet: uniform scalar: " + err.Error())
	}
	tesscrypto.Zero(wide[:])
	return s
}

func (k *XPrv) publicKey() [32]byte {
	var pk [32]byte
	copy(pk[:], new(edwards25519.Point).ScalarBaseMult(k.scalar()).Bytes())
	return pk
}

// Public returns the extended public key.
func (k *XPrv) Public() *XPub {
	p := &XPub{}
	pk := k.publicKey()
	copy(p.b[:32], pk[:])
	copy(p.b[32:], k.b[64:])
	return p
}

// Derive returns the child key at index. Indices at or above Hardened use
// the private key as HMAC input; lower indices use the public key.
func (k *XPrv) Derive(index uint32) *XPrv {
	cc := k.b[64:]
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)

	zmac := hmac.New(sha512.New, cc)
	imac := hmac.New(sha512.New, cc)
	if index >= Hardened {
		writeAll(zmac, []byte{0x00}, k.b[:64], idx[:])
		writeAll(imac, []byte{0x01}, k.b[:64], idx[:])
	} else {
		pk := k.publicKey()
		writeAll(zmac, []byte{0x02}, pk[:], idx[:])
		writeAll(imac, []byte{0x03}, pk[:], idx[:])
	}
	z := zmac.Sum(nil)
	i := imac.Sum(nil)
	defer tesscrypto.Zero(z)

	child := &XPrv{}
	add28Mul8(child.b[:32], k.b[:32], z[:32])
	add256(child.b[32:64], k.b[32:64], z[32:])
	copy(child.b[64:], i[32:])
	return child
}

// DerivePath walks every index of p from k.
func (k *XPrv) DerivePath(p Path) *XPrv {
	cur := &XPrv{b: k.b}
	for _, index := range p {
		next := cur.Derive(index)
		cur.Destroy()
		cur = next
	}
	return cur
}

// Sign produces an Ed25519 signature using the extended secret:
// the nonce is taken from kR instead of hashing a seed.
func (k *XPrv) Sign(message []byte) Signature {
	a := k.scalar()
	pk := k.publicKey()

	h := sha512.New()
	writeAll(h, k.b[32:64], message)
	nonce := h.Sum(nil)
	r, err := new(edwards25519.Scalar).SetUniformBytes(nonce)
	if err != nil {
		panic("hdwallet: nonce scalar: " + err.Error())
	}
	tesscrypto.Zero(nonce)

	R := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	h.Reset()
	writeAll(h, R, pk[:], message)
	c, err := new(edwards25519.Scalar).SetUniformBytes(h.Sum(nil))
	if err != nil {
		panic("hdwallet: challenge scalar: " + err.Error())
	}

	S := new(edwards25519.Scalar).MultiplyAdd(c, a, r)

	var sig Signature
	copy(sig[:32], R)
	copy(sig[32:], S.Bytes())
	return sig
}

func writeAll(w io.Writer, parts ...[]byte) {
	for _, p := range parts {
		_, _ = w.Write(p)
	}
}

// add28Mul8 computes x + 8*y over the first 28 bytes of y, little endian,
// letting the carry run into the top four bytes of x.
func add28Mul8(out, x, y []byte) {
	var carry uint16
	for i := 0; i < 28; i++ {
		r := uint16(x[i]) + uint16(y[i])<<3 + carry
		out[i] = byte(r)
		carry = r >> 8
	}
	for i := 28; i < 32; i++ {
		r := uint16(x[i]) + carry
		out[i] = byte(r)
		carry = r >> 8
	}
}

// add256 computes x + y modulo 2^256, little endian.
func add256(out, x, y []byte) {
	var carry uint16
	for i := 0; i < 32; i++ {
		r := uint16(x[i]) + uint16(y[i]) + carry
		out[i] = byte(r)
		carry = r >> 8
	}
}
