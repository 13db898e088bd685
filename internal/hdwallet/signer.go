package hdwallet

import (
	"encoding/hex"
	"strconv"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// Signature is a 64-byte Ed25519 signature (R | S).
type Signature [SignatureSize]byte

// SignatureFromBytes copies a 64-byte signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureSize {
		return sig, tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{
			"length": strconv.Itoa(len(b)),
		})
	}
	copy(sig[:], b)
	return sig, nil
}

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// Signer produces witness signatures. Transaction finalization accepts any
// implementation so hardware or remote signers can be substituted.
type Signer interface {
	Sign(key *XPrv, message []byte) Signature
}

// Ed25519Signer signs in-process with the extended secret key.
type Ed25519Signer struct{}

// Sign implements Signer.
func (Ed25519Signer) Sign(key *XPrv, message []byte) Signature {
	return key.Sign(message)
}
