package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/wallet"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, password []byte, seed string) {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	origWalletPW := promptWalletPasswordFn
	origSeed := promptSeedFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
		promptWalletPasswordFn = origWalletPW
		promptSeedFn = origSeed
	})
	clone := func() []byte {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp
	}
	promptPasswordFn = func(_ string) ([]byte, error) { return clone(), nil }
	promptNewPasswordFn = func() ([]byte, error) { return clone(), nil }
	promptWalletPasswordFn = func() ([]byte, error) { return []byte("wallet-secret"), nil }
	promptSeedFn = func() (string, error) { return seed, nil }
}

// saveGlobals saves all package-level globals and returns a restore function.
func saveGlobals(t *testing.T) func() {
	t.Helper()
	origCfg := cfg
	origLogger := logger
	origFormatter := formatter
	origHomeDir := homeDir
	origOutputFormat := outputFormat
	origNetwork := networkName
	origVerbose := verbose
	return func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		homeDir = origHomeDir
		outputFormat = origOutputFormat
		networkName = origNetwork
		verbose = origVerbose
	}
}

// resetFlags puts every flag of c and its children back to its default so
// consecutive executions do not leak values.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

// runCLI executes the root command against home with JSON output and
// returns what was written to stdout.
func runCLI(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(saveGlobals(t))
	t.Setenv("TESSERA_HOME", "")
	t.Setenv("TESSERA_NETWORK", "")
	t.Setenv("TESSERA_PROTOCOL_MAGIC", "")
	t.Setenv("TESSERA_OUTPUT_FORMAT", "")

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--home", home, "-o", "json"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), err
}

// runJSON is runCLI that requires success and decodes the output object.
func runJSON(t *testing.T, home string, args ...string) map[string]any {
	t.Helper()
	out, err := runCLI(t, home, args...)
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	return result
}

// testAddress returns the address of the test mnemonic at account 0.
func testAddress(t *testing.T, chain hdwallet.Chain, index uint32) string {
	t.Helper()
	w, err := wallet.NewFromMnemonic(testMnemonic, nil)
	require.NoError(t, err)
	defer w.Destroy()
	acct, err := w.CreateAccount("test", 0)
	require.NoError(t, err)
	addr, err := acct.Address(chain, index)
	require.NoError(t, err)
	return addr.String()
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
