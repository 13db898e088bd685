// Package mnemonic converts between raw entropy and BIP39 word sequences.
//
// Each word carries 11 bits: the entropy followed by the first
// len(entropy)*8/32 bits of SHA-256(entropy) as a checksum. Packing and
// checksum are delegated to go-bip39; this package adds the supported
// length table and distinct error kinds.
package mnemonic

import (
	"errors"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/tessera/internal/tesscrypto"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// Sentinel errors re-exported for callers of this package.
var (
	ErrInvalidMnemonic    = tesserr.ErrInvalidMnemonic
	ErrInvalidChecksum    = tesserr.ErrInvalidChecksum
	ErrInvalidWordCount   = tesserr.ErrInvalidWordCount
	ErrInvalidEntropySize = tesserr.ErrInvalidEntropySize
)

// Index is the 11-bit dictionary position of a mnemonic word.
type Index uint16

// Entropy is raw seed material of 16, 20, 24, 28 or 32 bytes.
// The owner must call Destroy once it is no longer needed.
type Entropy []byte

// Destroy wipes the entropy bytes.
func (e Entropy) Destroy() {
	tesscrypto.Zero(e)
}

// Indices returns the word indices encoding e.
func (e Entropy) Indices() ([]Index, error) {
	return Encode(e)
}

// Words returns the dictionary words encoding e.
func (e Entropy) Words() ([]string, error) {
	indices, err := Encode(e)
	if err != nil {
		return nil, err
	}
	list := bip39.GetWordList()
	words := make([]string, len(indices))
	for i, idx := range indices {
		words[i] = list[idx]
	}
	return words, nil
}

// Mnemonic returns the space-separated phrase encoding e.
func (e Entropy) Mnemonic() (string, error) {
	words, err := e.Words()
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}

// WordCounts lists the supported mnemonic lengths.
//
//nolint:gochecknoglobals // fixed BIP39 table
var WordCounts = []int{12, 15, 18, 21, 24}

// EntropySize returns the entropy length in bytes for a word count.
func EntropySize(wordCount int) (int, bool) {
	switch wordCount {
	case 12, 15, 18, 21, 24:
		return wordCount * 4 / 3, true
	default:
		return 0, false
	}
}

// WordCount returns the number of words encoding entropy of the given size.
func WordCount(entropySize int) (int, bool) {
	switch entropySize {
	case 16, 20, 24, 28, 32:
		return entropySize * 3 / 4, true
	default:
		return 0, false
	}
}

// ValidEntropySize reports whether n is an accepted entropy length.
func ValidEntropySize(n int) bool {
	_, ok := WordCount(n)
	return ok
}

// Encode maps entropy directly to word indices. It does not treat the input
// as an existing mnemonic; only the length is checked.
func Encode(entropy []byte) ([]Index, error) {
	if !ValidEntropySize(len(entropy)) {
		return nil, ErrInvalidEntropySize
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, tesserr.Wrap(ErrInvalidEntropySize, "encoding entropy")
	}

	words := strings.Fields(phrase)
	out := make([]Index, len(words))
	for i, w := range words {
		idx, ok := bip39.GetWordIndex(w)
		if !ok {
			return nil, ErrInvalidMnemonic
		}
		out[i] = Index(idx) //nolint:gosec // dictionary has 2048 entries
	}
	return out, nil
}

// EntropyFromIndices recovers entropy from word indices and checks the
// embedded checksum.
func EntropyFromIndices(indices []Index) (Entropy, error) {
	list := bip39.GetWordList()
	words := make([]string, len(indices))
	for i, idx := range indices {
		if int(idx) >= len(list) {
			return nil, tesserr.WithDetails(ErrInvalidMnemonic, map[string]string{
				"position": itoa(i + 1),
			})
		}
		words[i] = list[idx]
	}
	return decodeWords(words)
}

// EntropyFromWords decodes a word sequence into entropy. Unknown words and
// unsupported lengths yield ErrInvalidMnemonic; a checksum mismatch yields
// ErrInvalidChecksum.
func EntropyFromWords(words []string) (Entropy, error) {
	for i, w := range words {
		if _, ok := bip39.GetWordIndex(w); !ok {
			return nil, tesserr.WithDetails(ErrInvalidMnemonic, map[string]string{
				"position": itoa(i + 1),
			})
		}
	}
	return decodeWords(words)
}

// decodeWords checks the word count against the supported table and lets
// the dictionary codec recover the entropy.
func decodeWords(words []string) (Entropy, error) {
	if _, ok := EntropySize(len(words)); !ok {
		return nil, tesserr.WithDetails(ErrInvalidMnemonic, map[string]string{
			"words": itoa(len(words)),
		})
	}

	entropy, err := bip39.EntropyFromMnemonic(strings.Join(words, " "))
	switch {
	case errors.Is(err, bip39.ErrChecksumIncorrect):
		return nil, ErrInvalidChecksum
	case err != nil:
		return nil, tesserr.WithDetails(ErrInvalidMnemonic, map[string]string{
			"reason": err.Error(),
		})
	}
	return Entropy(entropy), nil
}

// EntropyFromMnemonic normalizes a phrase and decodes it.
func EntropyFromMnemonic(phrase string) (Entropy, error) {
	normalized := NormalizeInput(phrase)
	if normalized == "" {
		return nil, ErrInvalidMnemonic
	}
	return EntropyFromWords(strings.Fields(normalized))
}

// Validate reports whether phrase is a well-formed mnemonic.
func Validate(phrase string) error {
	e, err := EntropyFromMnemonic(phrase)
	if err != nil {
		return err
	}
	e.Destroy()
	return nil
}

// RandomFunc adapts a byte generator to io.Reader.
type RandomFunc func() byte

// Read fills p from the generator.
func (f RandomFunc) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = f()
	}
	return len(p), nil
}

// EntropyFromRandom draws fresh entropy for a mnemonic of wordCount words.
// A nil rng uses the process random source.
func EntropyFromRandom(wordCount int, rng io.Reader) (Entropy, error) {
	size, ok := EntropySize(wordCount)
	if !ok {
		return nil, ErrInvalidWordCount
	}
	if rng == nil {
		b, err := tesscrypto.RandomBytes(size)
		if err != nil {
			return nil, tesserr.Wrap(err, "reading entropy")
		}
		return Entropy(b), nil
	}

	e := make(Entropy, size)
	if _, err := io.ReadFull(rng, e); err != nil {
		return nil, tesserr.Wrap(err, "reading entropy")
	}
	return e, nil
}

// Generate returns a fresh mnemonic phrase of wordCount words.
func Generate(wordCount int) (string, error) {
	e, err := EntropyFromRandom(wordCount, nil)
	if err != nil {
		return "", err
	}
	defer e.Destroy()
	return e.Mnemonic()
}
