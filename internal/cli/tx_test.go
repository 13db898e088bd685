package cli

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/config"
	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/tx"
	"github.com/mrz1836/tessera/internal/txbuild"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

var testTxID = strings.Repeat("ab", 32) //nolint:gochecknoglobals // test fixture

func TestParseInputSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		path    bool
		chain   hdwallet.Chain
		index   uint32
	}{
		{name: "plain", input: testTxID + ":1:500"},
		{name: "with path", input: testTxID + ":0:500:external/7", path: true, index: 7},
		{name: "numeric chain", input: testTxID + ":0:500:1/2", path: true, chain: hdwallet.Internal, index: 2},
		{name: "missing value", input: testTxID + ":0", wantErr: true},
		{name: "bad txid", input: "abcd:0:500", wantErr: true},
		{name: "bad value", input: testTxID + ":0:-5", wantErr: true},
		{name: "value above supply", input: testTxID + ":0:45000000000000001", wantErr: true},
		{name: "path without slash", input: testTxID + ":0:500:external", wantErr: true},
		{name: "hardened index", input: testTxID + ":0:500:0/2147483648", wantErr: true},
		{name: "bad chain", input: testTxID + ":0:500:sideways/1", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			spec, err := parseInputSpec(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(500), spec.Value)
			assert.Equal(t, tc.path, spec.HasPath)
			assert.Equal(t, tc.chain, spec.Chain)
			assert.Equal(t, tc.index, spec.Index)
		})
	}
}

func TestParseOutputSpec(t *testing.T) {
	addr := testAddress(t, hdwallet.External, 0)

	out, err := parseOutputSpec(addr + ":1500000")
	require.NoError(t, err)
	assert.Equal(t, uint64(1500000), out.Value.Uint64())
	assert.Equal(t, addr, out.Address.String())

	out, err = parseOutputSpec(addr + ":1.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(1500000), out.Value.Uint64())

	for _, bad := range []string{addr, addr + ":", ":100", "nope:100", addr + ":1.0000001", addr + ":x"} {
		_, err := parseOutputSpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestTxBuild(t *testing.T) {
	home := t.TempDir()
	dest := testAddress(t, hdwallet.External, 1)
	change := testAddress(t, hdwallet.Internal, 0)

	t.Run("with change", func(t *testing.T) {
		result := runJSON(t, home, "tx", "build",
			"--input", testTxID+":0:1000000",
			"--to", dest+":400000",
			"--change", change,
		)
		assert.InDelta(t, 1, result["inputs"], 0)
		assert.InDelta(t, 2, result["outputs"], 0)
		assert.Equal(t, "1000000", result["input_total"])
		assert.Equal(t, "0", result["balance"])

		raw, err := hex.DecodeString(result["unsigned"].(string))
		require.NoError(t, err)
		var decoded tx.Tx
		require.NoError(t, decoded.UnmarshalCBOR(raw))
		assert.Equal(t, result["txid"], decoded.ID().String())
		require.Len(t, decoded.Outputs(), 2)
		assert.Equal(t, change, decoded.Outputs()[1].Address.String())
	})

	t.Run("without change leaves a positive balance", func(t *testing.T) {
		result := runJSON(t, home, "tx", "build",
			"--input", testTxID+":0:1000000",
			"--to", dest+":400000",
		)
		assert.True(t, strings.HasPrefix(result["balance"].(string), "+"))
	})

	t.Run("not enough input", func(t *testing.T) {
		_, err := runCLI(t, home, "tx", "build",
			"--input", testTxID+":0:100000",
			"--to", dest+":400000",
			"--change", change,
		)
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, txbuild.ErrNotEnoughInput))
	})

	t.Run("output format flag after subcommand", func(t *testing.T) {
		out, err := runCLI(t, home, "tx", "build",
			"--input", testTxID+":0:1000000",
			"-t", dest+":400000",
			"--output", "json",
		)
		require.NoError(t, err)
		var result map[string]any
		require.NoError(t, jsonUnmarshal(out, &result), out)
		assert.InDelta(t, 1, result["outputs"], 0)
	})

	t.Run("no inputs", func(t *testing.T) {
		_, err := runCLI(t, home, "tx", "build", "--to", dest+":400000")
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, txbuild.ErrNoInput))
	})

	t.Run("no outputs", func(t *testing.T) {
		_, err := runCLI(t, home, "tx", "build", "--input", testTxID+":0:100000")
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, txbuild.ErrNoOutput))
	})
}

func signTestTx(t *testing.T, home string, extra ...string) (map[string]any, error) {
	t.Helper()
	args := append([]string{
		"tx", "sign", "--wallet", "main",
		"--input", testTxID + ":0:1000000:external/0",
		"--input", testTxID + ":1:2000000:internal/2",
		"--to", testAddress(t, hdwallet.External, 9) + ":1.2",
		"--change", testAddress(t, hdwallet.Internal, 3),
	}, extra...)
	out, err := runCLI(t, home, args...)
	if err != nil {
		return nil, err
	}
	result := map[string]any{}
	require.NoError(t, jsonUnmarshal(out, &result))
	return result, nil
}

func TestTxSign(t *testing.T) {
	home := restoredHome(t)

	result, err := signTestTx(t, home)
	require.NoError(t, err)

	raw, err := hex.DecodeString(result["signed"].(string))
	require.NoError(t, err)
	signed, err := tx.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, result["txid"], signed.ID().String())

	witnesses := signed.Witnesses()
	require.Len(t, witnesses, 2)
	owners := []string{testAddress(t, hdwallet.External, 0), testAddress(t, hdwallet.Internal, 2)}
	for i, w := range witnesses {
		assert.True(t, w.Verify(tx.MainnetMagic, signed.ID()))
		assert.False(t, w.Verify(tx.TestnetMagic, signed.ID()))
		owner, err := address.Parse(owners[i])
		require.NoError(t, err)
		assert.True(t, w.VerifyAddress(owner))
	}

	t.Run("decode", func(t *testing.T) {
		out, err := runCLI(t, home, "tx", "decode", result["signed"].(string))
		require.NoError(t, err)
		assert.Contains(t, out, `"witness": "valid"`)
		assert.NotContains(t, out, `"witness": "invalid"`)
	})

	t.Run("decode on another network", func(t *testing.T) {
		out, err := runCLI(t, home, "--network", "testnet", "tx", "decode", result["signed"].(string))
		require.NoError(t, err)
		assert.Contains(t, out, `"witness": "invalid"`)
	})

	t.Run("decode garbage", func(t *testing.T) {
		_, err := runCLI(t, home, "tx", "decode", "deadbeef")
		require.Error(t, err)
		_, err = runCLI(t, home, "tx", "decode", "not-hex")
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, tesserr.ErrInvalidFormat))
	})
}

func TestTxSign_Errors(t *testing.T) {
	home := restoredHome(t)

	t.Run("missing key path", func(t *testing.T) {
		_, err := runCLI(t, home, "tx", "sign", "--wallet", "main",
			"--input", testTxID+":0:1000000",
			"--to", testAddress(t, hdwallet.External, 9)+":100000",
		)
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, tesserr.ErrInvalidInput))
	})

	t.Run("wrong password", func(t *testing.T) {
		withMockPrompts(t, []byte("not-the-password"), testMnemonic)
		_, err := signTestTx(t, home)
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, tesserr.ErrDecryptionFailed))
	})

	t.Run("unknown account", func(t *testing.T) {
		withMockPrompts(t, []byte("password123"), testMnemonic)
		_, err := signTestTx(t, home, "--account", "ghost")
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, tesserr.ErrAccountNotFound))
	})

	t.Run("size limit", func(t *testing.T) {
		withMockPrompts(t, []byte("password123"), testMnemonic)
		c := config.Defaults()
		c.Home = home
		c.Fees.TxSizeLimit = 100
		require.NoError(t, config.Save(c, config.Path(home)))

		_, err := signTestTx(t, home)
		require.Error(t, err)
		assert.True(t, tesserr.Is(err, txbuild.ErrOverLimit))
	})
}
