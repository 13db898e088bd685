package hdwallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

func TestPath_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "m/44'/1815'/0'/0/3", AddressPath(0, External, 3).String())
	assert.Equal(t, "m/44'/1815'/2'/1/0", AddressPath(2, Internal, 0).String())
	assert.Equal(t, "m/44'/1815'/5'", AccountPath(5).String())
	assert.Equal(t, "m", Path{}.String())
}

func TestParsePath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  Path
	}{
		{"m", Path{}},
		{"m/44'/1815'/0'/0/3", AddressPath(0, External, 3)},
		{"m/44h/1815h/7h/1/9", AddressPath(7, Internal, 9)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "44'/0", "m/x", "m/2147483648", "m//1"} {
		_, err := ParsePath(bad)
		require.Error(t, err, bad)
	}
}

func TestParseChain(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"external", "0", "receive", " External "} {
		c, err := ParseChain(s)
		require.NoError(t, err)
		assert.Equal(t, External, c)
	}
	for _, s := range []string{"internal", "1", "change"} {
		c, err := ParseChain(s)
		require.NoError(t, err)
		assert.Equal(t, Internal, c)
	}
	_, err := ParseChain("sideways")
	require.ErrorIs(t, err, tesserr.ErrInvalidChain)
	assert.True(t, External.Valid())
	assert.True(t, Internal.Valid())
	assert.False(t, Chain(2).Valid())
	assert.Equal(t, "internal", Internal.String())
	assert.Equal(t, "external", External.String())
}
