package cli

import (
	"encoding/hex"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/tessera/internal/mnemonic"
	"github.com/mrz1836/tessera/internal/output"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var mnemonicWords int

// mnemonicCmd is the parent command for mnemonic operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mnemonicCmd = &cobra.Command{
	Use:   "mnemonic",
	Short: "Generate and check BIP39 mnemonics",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mnemonicGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new mnemonic phrase",
	Long: `Generate a fresh mnemonic of 12, 15, 18, 21 or 24 words.

Example:
  tessera mnemonic generate
  tessera mnemonic generate --words 24`,
	Args: cobra.NoArgs,
	RunE: runMnemonicGenerate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mnemonicCheckCmd = &cobra.Command{
	Use:   "check <words...>",
	Short: "Validate a mnemonic phrase",
	Long: `Check the words and checksum of a mnemonic phrase and suggest
corrections for misspelled words.

Example:
  tessera mnemonic check abandon abandon ... about`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMnemonicCheck,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mnemonicEncodeCmd = &cobra.Command{
	Use:   "encode <entropy-hex>",
	Short: "Encode raw entropy as a mnemonic",
	Args:  cobra.ExactArgs(1),
	RunE:  runMnemonicEncode,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(mnemonicCmd)
	mnemonicCmd.AddCommand(mnemonicGenerateCmd)
	mnemonicCmd.AddCommand(mnemonicCheckCmd)
	mnemonicCmd.AddCommand(mnemonicEncodeCmd)

	mnemonicGenerateCmd.Flags().IntVar(&mnemonicWords, "words", 15, "mnemonic word count (12, 15, 18, 21 or 24)")
}

func runMnemonicGenerate(_ *cobra.Command, _ []string) error {
	phrase, err := mnemonic.Generate(mnemonicWords)
	if err != nil {
		return tesserr.WithSuggestion(err, "word count must be 12, 15, 18, 21 or 24")
	}
	return formatter.Print(output.Fields{
		{Key: "words", Value: mnemonicWords},
		{Key: "mnemonic", Value: phrase},
	})
}

func runMnemonicCheck(_ *cobra.Command, args []string) error {
	phrase := strings.Join(args, " ")

	entropy, err := mnemonic.EntropyFromMnemonic(phrase)
	if err != nil {
		if typos := mnemonic.DetectTypos(phrase); len(typos) > 0 {
			return tesserr.WithSuggestion(err, mnemonic.FormatTypoSuggestions(typos))
		}
		return err
	}
	defer entropy.Destroy()

	return formatter.Print(output.Fields{
		{Key: "valid", Value: true},
		{Key: "words", Value: len(strings.Fields(phrase))},
		{Key: "entropy_bits", Value: len(entropy) * 8},
	})
}

func runMnemonicEncode(_ *cobra.Command, args []string) error {
	raw, err := hex.DecodeString(strings.TrimSpace(args[0]))
	if err != nil {
		return tesserr.WithSuggestion(tesserr.ErrInvalidFormat, "entropy must be hex encoded")
	}
	entropy := mnemonic.Entropy(raw)
	defer entropy.Destroy()

	phrase, err := entropy.Mnemonic()
	if err != nil {
		return err
	}
	return formatter.Print(output.Fields{
		{Key: "words", Value: len(strings.Fields(phrase))},
		{Key: "mnemonic", Value: phrase},
	})
}
