package tx

import (
	"github.com/fxamacker/cbor/v2"
)

const tagEncodedCBOR = 24

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

// tagged is the [kind, tag24(bytes)] shape shared by inputs and witnesses.
type tagged struct {
	_    struct{} `cbor:",toarray"`
	Kind uint64
	Body cbor.Tag
}

func encodeTagged(kind uint64, body any) ([]byte, error) {
	inner, err := encMode.Marshal(body)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(tagged{Kind: kind, Body: cbor.Tag{Number: tagEncodedCBOR, Content: inner}})
}

func decodeTagged(data []byte, kind uint64, body any) error {
	var t tagged
	if err := decMode.Unmarshal(data, &t); err != nil {
		return err
	}
	if t.Kind != kind || t.Body.Number != tagEncodedCBOR {
		return errUnexpectedShape
	}
	inner, ok := t.Body.Content.([]byte)
	if !ok {
		return errUnexpectedShape
	}
	return decMode.Unmarshal(inner, body)
}
