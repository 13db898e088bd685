package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrz1836/tessera/internal/tesscrypto"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// minPasswordLength applies to wallet file encryption passwords.
const minPasswordLength = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // test seams for interactive input
var (
	promptPasswordFn       = promptPassword
	promptNewPasswordFn    = promptNewPassword
	promptWalletPasswordFn = promptWalletPassword
	promptSeedFn           = promptSeedMaterial
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
	outln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassword prompts for a new file encryption password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < minPasswordLength {
		tesscrypto.Zero(password)
		return nil, tesserr.WithSuggestion(
			tesserr.ErrInvalidInput,
			"password must be at least 8 characters",
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		tesscrypto.Zero(password)
		return nil, err
	}
	defer tesscrypto.Zero(confirm)

	if string(password) != string(confirm) {
		tesscrypto.Zero(password)
		return nil, tesserr.WithSuggestion(tesserr.ErrInvalidInput, "passwords do not match")
	}

	return password, nil
}

// promptWalletPassword asks for the optional password mixed into the root
// key. An empty answer is allowed and means no password.
func promptWalletPassword() ([]byte, error) {
	outln(os.Stderr, "\nWallet password (optional, mixed into the root key):")
	outln(os.Stderr, "WARNING: the same mnemonic with a different password is a different wallet!")

	password, err := promptPassword("Enter wallet password: ")
	if err != nil || len(password) == 0 {
		return password, err
	}

	confirm, err := promptPassword("Confirm wallet password: ")
	if err != nil {
		tesscrypto.Zero(password)
		return nil, err
	}
	defer tesscrypto.Zero(confirm)

	if string(password) != string(confirm) {
		tesscrypto.Zero(password)
		return nil, tesserr.WithSuggestion(tesserr.ErrInvalidInput, "wallet passwords do not match")
	}
	return password, nil
}

// promptSeedMaterial reads a mnemonic or hex root key from one line of stdin.
func promptSeedMaterial() (string, error) {
	outln(os.Stderr, "Enter your mnemonic phrase or hex root key on one line:")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading seed material: %w", err)
	}
	return strings.TrimSpace(line), nil
}
