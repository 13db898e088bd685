package tx

import (
	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/hdwallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// SignatureMessage is the byte string signed by a witness:
// CBOR(1) | CBOR(magic) | CBOR(bytes(txid)).
func SignatureMessage(magic ProtocolMagic, id TxID) []byte {
	msg := []byte{0x01}
	m, err := encMode.Marshal(uint32(magic))
	if err != nil {
		panic("tx: encoding protocol magic: " + err.Error())
	}
	msg = append(msg, m...)
	b, err := encMode.Marshal(id[:])
	if err != nil {
		panic("tx: encoding txid: " + err.Error())
	}
	return append(msg, b...)
}

// TxInWitness proves the right to spend one input.
type TxInWitness struct {
	XPub      [hdwallet.XPubSize]byte
	Signature hdwallet.Signature
}

// NewWitness signs the transaction id for one input.
func NewWitness(signer hdwallet.Signer, key *hdwallet.XPrv, magic ProtocolMagic, id TxID) TxInWitness {
	return TxInWitness{
		XPub:      key.Public().Bytes(),
		Signature: signer.Sign(key, SignatureMessage(magic, id)),
	}
}

// FakeWitness has the size of a real witness and is used for fee estimates.
func FakeWitness() TxInWitness {
	return TxInWitness{}
}

// PublicKey parses the embedded extended public key.
func (w TxInWitness) PublicKey() (*hdwallet.XPub, error) {
	return hdwallet.XPubFromBytes(w.XPub[:])
}

// Verify checks the signature against the transaction id.
func (w TxInWitness) Verify(magic ProtocolMagic, id TxID) bool {
	pub, err := w.PublicKey()
	if err != nil {
		return false
	}
	return pub.Verify(SignatureMessage(magic, id), w.Signature)
}

// VerifyAddress reports whether the witness key owns addr.
func (w TxInWitness) VerifyAddress(addr address.Address) bool {
	pub, err := w.PublicKey()
	if err != nil {
		return false
	}
	return addr.IdentifiesKey(pub)
}

type witnessBody struct {
	_         struct{} `cbor:",toarray"`
	XPub      []byte
	Signature []byte
}

// MarshalCBOR encodes [0, tag24([xpub, signature])].
func (w TxInWitness) MarshalCBOR() ([]byte, error) {
	return encodeTagged(0, witnessBody{XPub: w.XPub[:], Signature: w.Signature[:]})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (w *TxInWitness) UnmarshalCBOR(data []byte) error {
	var body witnessBody
	if err := decodeTagged(data, 0, &body); err != nil {
		return tesserr.Wrap(ErrInvalidTransaction, "decoding witness")
	}
	if len(body.XPub) != hdwallet.XPubSize || len(body.Signature) != hdwallet.SignatureSize {
		return tesserr.WithDetails(ErrInvalidTransaction, map[string]string{"reason": "witness length"})
	}
	copy(w.XPub[:], body.XPub)
	copy(w.Signature[:], body.Signature)
	return nil
}
