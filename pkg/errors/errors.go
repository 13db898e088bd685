// Package errors provides structured error handling for Tessera.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the tessera binary.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitAuth     = 3 // Authentication failed
	ExitNotFound = 4 // Resource not found
	ExitLimit    = 5 // Insufficient funds or protocol limit reached
)

// TesseraError is the structured error type for Tessera.
type TesseraError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *TesseraError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *TesseraError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for TesseraError.
func (e *TesseraError) Is(target error) bool {
	var t *TesseraError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Generic sentinel errors.
var (
	ErrGeneral = &TesseraError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &TesseraError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrAuthentication = &TesseraError{
		Code:     "AUTHENTICATION_FAILED",
		Message:  "authentication failed",
		ExitCode: ExitAuth,
	}

	ErrNotFound = &TesseraError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrDecryptionFailed = &TesseraError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	ErrInvalidAmount = &TesseraError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &TesseraError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid format",
		ExitCode: ExitInput,
	}
)

// Wallet and keystore errors.
var (
	ErrWalletNotFound = &TesseraError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &TesseraError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	ErrWalletDestroyed = &TesseraError{
		Code:     "WALLET_DESTROYED",
		Message:  "wallet key material has been destroyed",
		ExitCode: ExitGeneral,
	}

	ErrAccountNotFound = &TesseraError{
		Code:     "ACCOUNT_NOT_FOUND",
		Message:  "account not found",
		ExitCode: ExitNotFound,
	}

	ErrInvalidAddressIndex = &TesseraError{
		Code:     "INVALID_ADDRESS_INDEX",
		Message:  "address index out of the soft derivation range",
		ExitCode: ExitInput,
	}

	ErrInvalidAddressCount = &TesseraError{
		Code:       "INVALID_ADDRESS_COUNT",
		Message:    "invalid address count",
		Suggestion: "address count must be between 0 and 100000",
		ExitCode:   ExitInput,
	}

	ErrInvalidChain = &TesseraError{
		Code:       "INVALID_CHAIN",
		Message:    "invalid address chain",
		Suggestion: "use the external (0) or internal (1) chain",
		ExitCode:   ExitInput,
	}

	ErrInvalidWalletName = &TesseraError{
		Code:       "INVALID_WALLET_NAME",
		Message:    "invalid wallet name",
		Suggestion: "wallet name must be 1-64 alphanumeric characters, underscores, or hyphens",
		ExitCode:   ExitInput,
	}

	ErrKeyMismatch = &TesseraError{
		Code:     "KEY_MISMATCH",
		Message:  "stored account keys do not match the sealed root key",
		ExitCode: ExitInput,
	}
)

// Output ledger and backup errors.
var (
	ErrUTXOExists = &TesseraError{
		Code:       "UTXO_EXISTS",
		Message:    "output already recorded",
		Suggestion: "remove it first to record it again",
		ExitCode:   ExitInput,
	}

	ErrUTXONotFound = &TesseraError{
		Code:     "UTXO_NOT_FOUND",
		Message:  "output not recorded",
		ExitCode: ExitNotFound,
	}

	ErrBackupNotFound = &TesseraError{
		Code:     "BACKUP_NOT_FOUND",
		Message:  "backup not found",
		ExitCode: ExitNotFound,
	}

	ErrBackupCorrupted = &TesseraError{
		Code:     "BACKUP_CORRUPTED",
		Message:  "backup checksum mismatch",
		ExitCode: ExitInput,
	}
)

// Mnemonic and key encoding errors.
var (
	ErrInvalidMnemonic = &TesseraError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrInvalidChecksum = &TesseraError{
		Code:     "INVALID_CHECKSUM",
		Message:  "mnemonic checksum mismatch",
		ExitCode: ExitInput,
	}

	ErrInvalidWordCount = &TesseraError{
		Code:     "INVALID_WORD_COUNT",
		Message:  "invalid mnemonic word count",
		ExitCode: ExitInput,
	}

	ErrInvalidEntropySize = &TesseraError{
		Code:     "INVALID_ENTROPY_SIZE",
		Message:  "invalid entropy size",
		ExitCode: ExitInput,
	}

	ErrInvalidKeyEncoding = &TesseraError{
		Code:     "INVALID_KEY_ENCODING",
		Message:  "invalid extended key encoding",
		ExitCode: ExitInput,
	}

	ErrExpectedSoftDerivation = &TesseraError{
		Code:     "EXPECTED_SOFT_DERIVATION",
		Message:  "public keys only support soft derivation",
		ExitCode: ExitInput,
	}

	ErrInvalidPath = &TesseraError{
		Code:     "INVALID_DERIVATION_PATH",
		Message:  "invalid derivation path",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &TesseraError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}
)

// Transaction builder and finalizer errors.
var (
	ErrCoinOutOfBounds = &TesseraError{
		Code:     "COIN_OUT_OF_BOUNDS",
		Message:  "coin value exceeds the maximum supply",
		ExitCode: ExitInput,
	}

	ErrNoInput = &TesseraError{
		Code:     "NO_INPUT",
		Message:  "transaction has no inputs",
		ExitCode: ExitInput,
	}

	ErrNoOutput = &TesseraError{
		Code:     "NO_OUTPUT",
		Message:  "transaction has no outputs",
		ExitCode: ExitInput,
	}

	ErrNotEnoughInput = &TesseraError{
		Code:     "NOT_ENOUGH_INPUT",
		Message:  "inputs do not cover outputs and fee",
		ExitCode: ExitLimit,
	}

	ErrChangeBelowFee = &TesseraError{
		Code:     "CHANGE_BELOW_FEE",
		Message:  "leftover value cannot cover the fee of a change output",
		ExitCode: ExitLimit,
	}

	ErrChangeAlreadySet = &TesseraError{
		Code:     "CHANGE_ALREADY_SET",
		Message:  "change address already set",
		ExitCode: ExitInput,
	}

	ErrSignaturesExceeded = &TesseraError{
		Code:     "SIGNATURES_EXCEEDED",
		Message:  "more witnesses than inputs",
		ExitCode: ExitInput,
	}

	ErrSignatureMismatch = &TesseraError{
		Code:     "SIGNATURE_MISMATCH",
		Message:  "number of witnesses does not match number of inputs",
		ExitCode: ExitInput,
	}

	ErrOverLimit = &TesseraError{
		Code:     "OVER_LIMIT",
		Message:  "transaction exceeds the maximum size",
		ExitCode: ExitLimit,
	}

	ErrFinalizerSpent = &TesseraError{
		Code:     "FINALIZER_SPENT",
		Message:  "finalizer already produced a signed transaction",
		ExitCode: ExitGeneral,
	}

	ErrInvalidTransaction = &TesseraError{
		Code:     "INVALID_TRANSACTION",
		Message:  "invalid transaction",
		ExitCode: ExitInput,
	}
)

// Config errors.
var (
	ErrConfigNotFound = &TesseraError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &TesseraError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &TesseraError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}
)

// New creates a new TesseraError with the given code and message.
func New(code, message string) *TesseraError {
	return &TesseraError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var te *TesseraError
	if errors.As(err, &te) {
		// A bare TesseraError is already rendered by Message.
		cause := err
		if err == error(te) {
			cause = te.Cause
		}
		return &TesseraError{
			Code:       te.Code,
			Message:    fmt.Sprintf("%s: %s", msg, te.Message),
			Details:    te.Details,
			Suggestion: te.Suggestion,
			Cause:      cause,
			ExitCode:   te.ExitCode,
		}
	}

	return &TesseraError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var te *TesseraError
	if errors.As(err, &te) {
		return &TesseraError{
			Code:       te.Code,
			Message:    te.Message,
			Details:    details,
			Suggestion: te.Suggestion,
			Cause:      te.Cause,
			ExitCode:   te.ExitCode,
		}
	}

	return &TesseraError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var te *TesseraError
	if errors.As(err, &te) {
		return &TesseraError{
			Code:       te.Code,
			Message:    te.Message,
			Details:    te.Details,
			Suggestion: suggestion,
			Cause:      te.Cause,
			ExitCode:   te.ExitCode,
		}
	}

	return &TesseraError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var te *TesseraError
	if errors.As(err, &te) {
		return te.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var te *TesseraError
	if errors.As(err, &te) {
		return te.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
