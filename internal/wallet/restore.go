package wallet

import (
	"encoding/hex"
	"strings"

	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/mnemonic"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// InputFormat is the detected kind of restore input.
type InputFormat int

const (
	// FormatUnknown is input that matches nothing.
	FormatUnknown InputFormat = iota
	// FormatMnemonic is a 12 to 24 word phrase.
	FormatMnemonic
	// FormatXPrvHex is a 96-byte root key in hex.
	FormatXPrvHex
)

func (f InputFormat) String() string {
	switch f {
	case FormatMnemonic:
		return "mnemonic"
	case FormatXPrvHex:
		return "xprv"
	case FormatUnknown:
		return "unknown"
	}
	return "unknown"
}

// DetectInputFormat classifies restore input.
func DetectInputFormat(input string) InputFormat {
	input = strings.TrimSpace(input)
	if len(input) == 2*hdwallet.XPrvSize && isHexString(input) {
		return FormatXPrvHex
	}
	words := strings.Fields(input)
	for _, wc := range mnemonic.WordCounts {
		if len(words) == wc {
			return FormatMnemonic
		}
	}
	return FormatUnknown
}

// Restore rebuilds a wallet from a mnemonic (with its password) or from a
// hex root key, in which case the password is ignored.
func Restore(input string, password []byte, opts ...Option) (*Wallet, error) {
	switch DetectInputFormat(input) {
	case FormatMnemonic:
		return NewFromMnemonic(mnemonic.NormalizeInput(input), password, opts...)
	case FormatXPrvHex:
		raw, err := hex.DecodeString(strings.TrimSpace(input))
		if err != nil {
			return nil, tesserr.ErrInvalidKeyEncoding
		}
		root, err := hdwallet.XPrvFromBytes(raw)
		if err != nil {
			return nil, err
		}
		return FromRootKey(root, opts...), nil
	case FormatUnknown:
	}
	return nil, tesserr.WithSuggestion(tesserr.ErrInvalidInput,
		"provide a 12, 15, 18, 21 or 24 word mnemonic or a 192 character hex root key")
}

func isHexString(s string) bool {
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'f'
		isUpper := c >= 'A' && c <= 'F'
		if !isDigit && !isLower && !isUpper {
			return false
		}
	}
	return true
}
