package mnemonic

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

// Test vectors from https://github.com/trezor/python-mnemonic/blob/master/vectors.json
//
//nolint:gochecknoglobals // BIP39 test vectors
var trezorVectors = []struct {
	entropy  string
	mnemonic string
}{
	{
		entropy:  "00000000000000000000000000000000",
		mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
	},
	{
		entropy:  "7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f",
		mnemonic: "legal winner thank year wave sausage worth useful legal winner thank yellow",
	},
	{
		entropy:  "80808080808080808080808080808080",
		mnemonic: "letter advice cage absurd amount doctor acoustic avoid letter advice cage above",
	},
	{
		entropy:  "ffffffffffffffffffffffffffffffff",
		mnemonic: "zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong",
	},
	{
		entropy:  "000000000000000000000000000000000000000000000000",
		mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon agent",
	},
	{
		entropy:  "0000000000000000000000000000000000000000000000000000000000000000",
		mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
	},
	{
		entropy:  "7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f",
		mnemonic: "legal winner thank year wave sausage worth useful legal winner thank year wave sausage worth useful legal winner thank year wave sausage worth title",
	},
}

// checksumBits is the number of checksum bits appended to entropy of size n.
func checksumBits(n int) uint {
	return uint(n * 8 / 32) //nolint:gosec // n is one of the fixed entropy sizes
}

func sequentialEntropy(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func TestEntropy_MnemonicVectors(t *testing.T) {
	t.Parallel()
	for _, v := range trezorVectors {
		v := v
		t.Run(v.mnemonic[:20], func(t *testing.T) {
			t.Parallel()
			raw, err := hex.DecodeString(v.entropy)
			require.NoError(t, err)

			phrase, err := Entropy(raw).Mnemonic()
			require.NoError(t, err)
			assert.Equal(t, v.mnemonic, phrase)

			decoded, err := EntropyFromMnemonic(v.mnemonic)
			require.NoError(t, err)
			assert.Equal(t, raw, []byte(decoded))
		})
	}
}

func TestEncode_MatchesReferenceLibrary(t *testing.T) {
	t.Parallel()
	for _, size := range []int{16, 20, 24, 28, 32} {
		raw := sequentialEntropy(size)
		expected, err := bip39.NewMnemonic(raw)
		require.NoError(t, err)

		phrase, err := Entropy(raw).Mnemonic()
		require.NoError(t, err)
		assert.Equal(t, expected, phrase, "entropy size %d", size)
	}
}

func TestDecode_AgreesWithReferenceLibrary(t *testing.T) {
	t.Parallel()
	for _, size := range []int{16, 20, 24, 28, 32} {
		raw := sequentialEntropy(size)
		phrase, err := bip39.NewMnemonic(raw)
		require.NoError(t, err)

		got, err := EntropyFromMnemonic(phrase)
		require.NoError(t, err)
		assert.Equal(t, raw, []byte(got), "entropy size %d", size)

		words := strings.Fields(phrase)
		words[len(words)-1] = "zoo"
		if _, refErr := bip39.EntropyFromMnemonic(strings.Join(words, " ")); refErr != nil {
			_, err = EntropyFromWords(words)
			require.ErrorIs(t, err, ErrInvalidChecksum, "entropy size %d", size)
		}
	}
}

func TestEntropyFromIndices_OutOfRange(t *testing.T) {
	t.Parallel()
	indices := make([]Index, 12)
	indices[4] = 2048
	_, err := EntropyFromIndices(indices)
	require.ErrorIs(t, err, ErrInvalidMnemonic)
	assert.NotErrorIs(t, err, ErrInvalidChecksum)
}

func TestEncode_InvalidSize(t *testing.T) {
	t.Parallel()
	for _, size := range []int{0, 1, 15, 17, 33, 64} {
		_, err := Encode(make([]byte, size))
		require.ErrorIs(t, err, ErrInvalidEntropySize, "size %d", size)
	}
}

func TestEncode_WordIndices(t *testing.T) {
	t.Parallel()
	indices, err := Encode(make([]byte, 16))
	require.NoError(t, err)
	require.Len(t, indices, 12)
	for _, idx := range indices[:11] {
		assert.Equal(t, Index(0), idx)
	}
	// "about" is dictionary entry 3
	assert.Equal(t, Index(3), indices[11])
}

func TestRoundTrip_AllSizes(t *testing.T) {
	t.Parallel()
	for _, size := range []int{16, 20, 24, 28, 32} {
		raw := sequentialEntropy(size)
		indices, err := Encode(raw)
		require.NoError(t, err)

		count, ok := WordCount(size)
		require.True(t, ok)
		assert.Len(t, indices, count)

		decoded, err := EntropyFromIndices(indices)
		require.NoError(t, err)
		assert.Equal(t, raw, []byte(decoded))
	}
}

func TestChecksumSensitivity(t *testing.T) {
	t.Parallel()
	for _, size := range []int{16, 20, 24, 28, 32} {
		indices, err := Encode(sequentialEntropy(size))
		require.NoError(t, err)

		last := len(indices) - 1
		for bit := uint(0); bit < checksumBits(size); bit++ {
			flipped := append([]Index(nil), indices...)
			flipped[last] ^= 1 << bit

			_, err := EntropyFromIndices(flipped)
			require.ErrorIs(t, err, ErrInvalidChecksum, "size %d bit %d", size, bit)
			assert.NotErrorIs(t, err, ErrInvalidMnemonic)
		}
	}
}

func TestEntropyFromWords_Errors(t *testing.T) {
	t.Parallel()
	valid := strings.Fields(trezorVectors[0].mnemonic)

	tests := []struct {
		name  string
		words []string
		want  error
	}{
		{"unknown word", append(append([]string(nil), valid[:11]...), "notaword"), ErrInvalidMnemonic},
		{"too few words", valid[:11], ErrInvalidMnemonic},
		{"nine words", valid[:9], ErrInvalidMnemonic},
		{"thirteen words", append(append([]string(nil), valid...), "abandon"), ErrInvalidMnemonic},
		{"empty", nil, ErrInvalidMnemonic},
		{"bad checksum", append(append([]string(nil), valid[:11]...), "abandon"), ErrInvalidChecksum},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := EntropyFromWords(tt.words)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEntropyFromMnemonic_NormalizesInput(t *testing.T) {
	t.Parallel()
	input := "1. Legal\n2. winner, thank year wave\n  sausage worth USEFUL legal winner thank yellow"
	e, err := EntropyFromMnemonic(input)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x7f}, 16), []byte(e))

	_, err = EntropyFromMnemonic("   ")
	require.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestEntropyFromRandom(t *testing.T) {
	t.Parallel()

	t.Run("valid word counts", func(t *testing.T) {
		t.Parallel()
		for _, wc := range WordCounts {
			var n byte
			e, err := EntropyFromRandom(wc, RandomFunc(func() byte { n++; return n }))
			require.NoError(t, err)
			size, _ := EntropySize(wc)
			assert.Len(t, e, size)
			assert.Equal(t, byte(1), e[0])

			words, err := e.Words()
			require.NoError(t, err)
			assert.Len(t, words, wc)
		}
	})

	t.Run("deterministic source", func(t *testing.T) {
		t.Parallel()
		zero := RandomFunc(func() byte { return 0 })
		e, err := EntropyFromRandom(12, zero)
		require.NoError(t, err)
		phrase, err := e.Mnemonic()
		require.NoError(t, err)
		assert.Equal(t, trezorVectors[0].mnemonic, phrase)
	})

	t.Run("invalid word counts", func(t *testing.T) {
		t.Parallel()
		for _, wc := range []int{0, 3, 9, 11, 13, 25, 48} {
			_, err := EntropyFromRandom(wc, nil)
			require.ErrorIs(t, err, ErrInvalidWordCount, "word count %d", wc)
		}
	})

	t.Run("process source", func(t *testing.T) {
		t.Parallel()
		a, err := EntropyFromRandom(15, nil)
		require.NoError(t, err)
		b, err := EntropyFromRandom(15, nil)
		require.NoError(t, err)
		assert.Len(t, a, 20)
		assert.NotEqual(t, a, b)
	})

	t.Run("short reader", func(t *testing.T) {
		t.Parallel()
		_, err := EntropyFromRandom(24, bytes.NewReader([]byte{1, 2, 3}))
		require.Error(t, err)
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	phrase, err := Generate(24)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 24)
	require.NoError(t, Validate(phrase))
}

func TestEntropy_Destroy(t *testing.T) {
	t.Parallel()
	e := Entropy(sequentialEntropy(16))
	e.Destroy()
	assert.Equal(t, make([]byte, 16), []byte(e))
}
