package hdwallet

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntropy() []byte {
	e := make([]byte, 16)
	for i := range e {
		e[i] = byte(i)
	}
	return e
}

func testRoot(t *testing.T) *XPrv {
	t.Helper()
	seed := NewSeed(testEntropy(), []byte("abc"))
	defer seed.Destroy()
	return NewRootKey(seed)
}

func TestNewSeed(t *testing.T) {
	t.Parallel()
	a := NewSeed(testEntropy(), []byte("abc"))
	b := NewSeed(testEntropy(), []byte("abc"))
	c := NewSeed(testEntropy(), nil)
	assert.Equal(t, a.b, b.b)
	assert.NotEqual(t, a.b, c.b, "password changes the seed")

	a.Destroy()
	assert.Equal(t, [SeedSize]byte{}, a.b)
}

func TestNewRootKey_BitPattern(t *testing.T) {
	t.Parallel()
	root := testRoot(t)
	b := root.Bytes()
	assert.Zero(t, b[0]&0x07)
	assert.Equal(t, byte(0x40), b[31]&0xE0)

	parsed, err := XPrvFromBytes(b[:])
	require.NoError(t, err)
	assert.Equal(t, b, parsed.Bytes())
}

func TestXPrvFromBytes_Invalid(t *testing.T) {
	t.Parallel()
	valid := testRoot(t).Bytes()

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:95] }},
		{"long", func(b []byte) []byte { return append(b, 0) }},
		{"low bits set", func(b []byte) []byte { b[0] |= 0x01; return b }},
		{"bit 255 set", func(b []byte) []byte { b[31] |= 0x80; return b }},
		{"bit 254 clear", func(b []byte) []byte { b[31] &^= 0x40; return b }},
		{"bit 253 set", func(b []byte) []byte { b[31] |= 0x20; return b }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := append([]byte(nil), valid[:]...)
			_, err := XPrvFromBytes(tt.mutate(raw))
			require.ErrorIs(t, err, ErrInvalidKeyEncoding)
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	t.Parallel()
	root := testRoot(t)
	for _, index := range []uint32{0, 1, 1000, Hardened, Hardened + 44, 0xFFFFFFFF} {
		a := root.Derive(index)
		b := root.Derive(index)
		assert.Equal(t, a.Bytes(), b.Bytes(), "index %d", index)
		assert.NotEqual(t, root.Bytes(), a.Bytes())
	}
	assert.NotEqual(t, root.Derive(0).Bytes(), root.Derive(Hardened).Bytes())
}

func TestDerive_ParentUnchanged(t *testing.T) {
	t.Parallel()
	root := testRoot(t)
	before := root.Bytes()
	_ = root.Derive(Hardened)
	_ = root.Derive(3)
	assert.Equal(t, before, root.Bytes())
}

func TestDerive_SoftMatchesPublic(t *testing.T) {
	t.Parallel()
	account := testRoot(t).DerivePath(AccountPath(0))

	for _, index := range []uint32{0, 1, 7, 1 << 20, Hardened - 1} {
		priv := account.Derive(index).Public()
		pub, err := account.Public().Derive(index)
		require.NoError(t, err)
		assert.True(t, priv.Equal(pub), "index %d", index)
	}
}

func TestXPubDerive_HardenedFails(t *testing.T) {
	t.Parallel()
	pub := testRoot(t).Public()
	_, err := pub.Derive(Hardened)
	require.ErrorIs(t, err, ErrExpectedSoftDerivation)

	_, err = pub.DerivePath(AccountPath(0))
	require.ErrorIs(t, err, ErrExpectedSoftDerivation)
}

func TestDerivePath(t *testing.T) {
	t.Parallel()
	root := testRoot(t)
	stepwise := root.Derive(Purpose).Derive(CoinType).Derive(Hardened).Derive(0).Derive(4)
	assert.Equal(t, stepwise.Bytes(), root.DerivePath(AddressPath(0, External, 4)).Bytes())
	assert.Equal(t, root.Bytes(), root.DerivePath(nil).Bytes())
}

func TestSign_Verify(t *testing.T) {
	t.Parallel()
	key := testRoot(t).DerivePath(AddressPath(0, External, 0))
	pub := key.Public()
	msg := []byte("witness message")

	sig := key.Sign(msg)
	assert.True(t, pub.Verify(msg, sig))
	assert.True(t, ed25519.Verify(pub.PublicKey(), msg, sig[:]))
	assert.False(t, pub.Verify([]byte("other"), sig))

	assert.Equal(t, sig, key.Sign(msg), "signing is deterministic")
	assert.Equal(t, sig, Ed25519Signer{}.Sign(key, msg))
}

func TestSign_MatchesStandardEd25519(t *testing.T) {
	t.Parallel()
	seed := bytes.Repeat([]byte{0x5a}, ed25519.SeedSize)
	std := ed25519.NewKeyFromSeed(seed)

	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	key := &XPrv{}
	copy(key.b[:64], h[:])

	msg := []byte("compatibility")
	sig := key.Sign(msg)
	assert.Equal(t, ed25519.Sign(std, msg), sig[:])
	assert.Equal(t, std.Public(), key.Public().PublicKey())
}

func TestXPubFromBytes(t *testing.T) {
	t.Parallel()
	pub := testRoot(t).Public()
	b := pub.Bytes()

	parsed, err := XPubFromBytes(b[:])
	require.NoError(t, err)
	assert.True(t, pub.Equal(parsed))

	fromHex, err := XPubFromHex(pub.String())
	require.NoError(t, err)
	assert.True(t, pub.Equal(fromHex))

	_, err = XPubFromBytes(b[:63])
	require.ErrorIs(t, err, ErrInvalidKeyEncoding)

	_, err = XPubFromHex("zz")
	require.ErrorIs(t, err, ErrInvalidKeyEncoding)
}

func TestXPrv_Destroy(t *testing.T) {
	t.Parallel()
	key := testRoot(t)
	key.Destroy()
	assert.Equal(t, [XPrvSize]byte{}, key.Bytes())
}

func TestXPrv_StringRedacted(t *testing.T) {
	t.Parallel()
	key := testRoot(t)
	b := key.Bytes()
	assert.NotContains(t, key.String(), hex.EncodeToString(b[:8]))
	assert.Contains(t, key.String(), "XPrv(")
}

func TestSignatureFromBytes(t *testing.T) {
	t.Parallel()
	raw := bytes.Repeat([]byte{1}, SignatureSize)
	sig, err := SignatureFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, sig[:])

	_, err = SignatureFromBytes(raw[:10])
	require.Error(t, err)
}

func BenchmarkDeriveHardened(b *testing.B) {
	seed := NewSeed(testEntropy(), nil)
	root := NewRootKey(seed)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = root.Derive(Hardened + uint32(i%1000)) //nolint:gosec // bounded
	}
}

func BenchmarkXPubDerive(b *testing.B) {
	seed := NewSeed(testEntropy(), nil)
	pub := NewRootKey(seed).Public()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pub.Derive(uint32(i % 1000)) //nolint:gosec // bounded
	}
}

const (
	knownRootHex = "f8a29231ee38d6c5bf715d5bac21c750577aa3798b22d79d65bf97d6fadea15a" +
		"dcd1ee1abdf78bd4be64731a12deb94d3671784112eb6f364b871851fd1c9a24" +
		"7384db9ad6003bbd08b3b1ddc0d07a597293ff85e961bf252b331262eddfad0d"
	knownHardened0Hex = "60d399da83ef80d8d4f8d223239efdc2b8fef387e1b5219137ffb4e8fbdea15a" +
		"dc9366b7d003af37c11396de9a83734e30e05e851efa32745c9cd7b42712c890" +
		"608763770eddf77248ab652984b21b849760d1da74a6f5bd633ce41adceef07a"
	knownSignatureHex = "90194d57cde4fdadd01eb7cf161780c277e129fc7135b97779a3268837e4cd2e" +
		"9444b9bb91c0e84d23bba870df3c4bda91a110ef735638fa7a34ea2046d4be04"
)

func knownKey(t *testing.T, s string) *XPrv {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	k, err := XPrvFromBytes(raw)
	require.NoError(t, err)
	return k
}

func TestKnownAnswer_HardenedDerive(t *testing.T) {
	t.Parallel()
	root := knownKey(t, knownRootHex)
	child := root.Derive(Hardened)
	got := child.Bytes()

	want, err := hex.DecodeString(knownHardened0Hex)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[64:]), hex.EncodeToString(got[64:]), "chain code")
	assert.Equal(t, hex.EncodeToString(want[:64]), hex.EncodeToString(got[:64]), "extended key")
}

func TestKnownAnswer_Sign(t *testing.T) {
	t.Parallel()
	key := knownKey(t, knownHardened0Hex)
	msg := []byte("Hello World")

	sig := key.Sign(msg)
	assert.Equal(t, knownSignatureHex, sig.String())
	assert.True(t, key.Public().Verify(msg, sig))
	assert.True(t, ed25519.Verify(key.Public().PublicKey(), msg, sig[:]))
}

func TestKnownAnswer_SoftDeriveAgrees(t *testing.T) {
	t.Parallel()
	root := knownKey(t, knownRootHex)
	const index = 0x10000000

	fromPrv := root.Derive(index).Public()
	fromPub, err := root.Public().Derive(index)
	require.NoError(t, err)
	assert.True(t, fromPrv.Equal(fromPub))
}
