package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

var (
	errInner     = errors.New("inner")
	errRootCause = errors.New("root cause")
	errPlain     = errors.New("plain error")
	errPlainCode = errors.New("plain")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, tesserr.ExitSuccess},
		{"general error", tesserr.ErrGeneral, tesserr.ExitGeneral},
		{"input error", tesserr.ErrInvalidInput, tesserr.ExitInput},
		{"auth error", tesserr.ErrAuthentication, tesserr.ExitAuth},
		{"not found error", tesserr.ErrNotFound, tesserr.ExitNotFound},
		{"limit error", tesserr.ErrOverLimit, tesserr.ExitLimit},
		{"not enough input", tesserr.ErrNotEnoughInput, tesserr.ExitLimit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code := tesserr.ExitCode(tt.err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestExitCodeWrappedError(t *testing.T) {
	t.Parallel()
	wrapped := tesserr.Wrap(tesserr.ErrNotFound, "wallet main")
	code := tesserr.ExitCode(wrapped)
	assert.Equal(t, tesserr.ExitNotFound, code)
}

func TestSentinelErrors(t *testing.T) {
	t.Parallel()
	// Verify that wrapping preserves error identity
	wrapped := tesserr.Wrap(tesserr.ErrGeneral, "wrapped")
	require.ErrorIs(t, wrapped, tesserr.ErrGeneral)

	wrapped = tesserr.Wrap(tesserr.ErrInvalidInput, "wrapped")
	require.ErrorIs(t, wrapped, tesserr.ErrInvalidInput)

	wrapped = tesserr.Wrap(tesserr.ErrAuthentication, "wrapped")
	require.ErrorIs(t, wrapped, tesserr.ErrAuthentication)

	wrapped = tesserr.Wrap(tesserr.ErrNotFound, "wrapped")
	require.ErrorIs(t, wrapped, tesserr.ErrNotFound)

	wrapped = tesserr.Wrap(tesserr.ErrOverLimit, "wrapped")
	require.ErrorIs(t, wrapped, tesserr.ErrOverLimit)

	wrapped = tesserr.Wrap(tesserr.ErrNotEnoughInput, "wrapped")
	require.ErrorIs(t, wrapped, tesserr.ErrNotEnoughInput)
}

func TestErrorCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err      error
		expected string
	}{
		{tesserr.ErrGeneral, "GENERAL_ERROR"},
		{tesserr.ErrInvalidInput, "INVALID_INPUT"},
		{tesserr.ErrAuthentication, "AUTHENTICATION_FAILED"},
		{tesserr.ErrNotFound, "NOT_FOUND"},
		{tesserr.ErrOverLimit, "OVER_LIMIT"},
		{tesserr.ErrNotEnoughInput, "NOT_ENOUGH_INPUT"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			var se *tesserr.TesseraError
			require.ErrorAs(t, tt.err, &se)
			assert.Equal(t, tt.expected, se.Code)
		})
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()
	details := map[string]string{
		"required":  "0.5",
		"available": "0.1",
		"symbol":    "ADA",
	}

	err := tesserr.WithDetails(tesserr.ErrNotEnoughInput, details)

	var se *tesserr.TesseraError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, details, se.Details)
}

func TestWithSuggestion(t *testing.T) {
	t.Parallel()
	suggestion := "Add another input with 'tessera tx build --in'"
	err := tesserr.WithSuggestion(tesserr.ErrNotEnoughInput, suggestion)

	var se *tesserr.TesseraError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, suggestion, se.Suggestion)
}

func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()
	details := map[string]string{"key": "value"}
	suggestion := "Try this instead"

	err := tesserr.WithDetails(tesserr.ErrGeneral, details)
	err = tesserr.WithSuggestion(err, suggestion)

	var se *tesserr.TesseraError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, details, se.Details)
	assert.Equal(t, suggestion, se.Suggestion)
}

func TestWrap(t *testing.T) {
	t.Parallel()
	wrapped := tesserr.Wrap(tesserr.ErrNotFound, "wallet %s", "main")
	assert.Equal(t, "wallet main: resource not found", wrapped.Error())
	assert.ErrorIs(t, wrapped, tesserr.ErrNotFound)

	outer := tesserr.Wrap(wrapped, "loading")
	assert.Equal(t, "loading: wallet main: resource not found", outer.Error())
	assert.ErrorIs(t, outer, tesserr.ErrNotFound)
}

func TestDerivedSentinelsHaveOwnCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err     error
		generic error
	}{
		{tesserr.ErrKeyMismatch, tesserr.ErrInvalidFormat},
		{tesserr.ErrBackupCorrupted, tesserr.ErrInvalidFormat},
		{tesserr.ErrBackupNotFound, tesserr.ErrNotFound},
		{tesserr.ErrUTXOExists, tesserr.ErrInvalidInput},
		{tesserr.ErrUTXONotFound, tesserr.ErrNotFound},
		{tesserr.ErrInvalidAddressCount, tesserr.ErrInvalidInput},
		{tesserr.ErrInvalidWalletName, tesserr.ErrInvalidInput},
		{tesserr.ErrInvalidChain, tesserr.ErrInvalidInput},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tesserr.Code(tt.err), func(t *testing.T) {
			t.Parallel()
			assert.NotErrorIs(t, tt.err, tt.generic)
			assert.NotErrorIs(t, tt.generic, tt.err)
			assert.Equal(t, tesserr.ExitCode(tt.generic), tesserr.ExitCode(tt.err))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	err := tesserr.New("CUSTOM_ERROR", "custom error message")
	assert.Equal(t, "custom error message", err.Error())

	var se *tesserr.TesseraError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "CUSTOM_ERROR", se.Code)
}

func TestTesseraError_Error(t *testing.T) {
	t.Parallel()

	t.Run("message only", func(t *testing.T) {
		t.Parallel()
		err := &tesserr.TesseraError{Code: "TEST", Message: "something failed"}
		assert.Equal(t, "something failed", err.Error())
	})

	t.Run("with details sorted", func(t *testing.T) {
		t.Parallel()
		err := &tesserr.TesseraError{
			Code:    "TEST",
			Message: "failed",
			Details: map[string]string{"beta": "2", "alpha": "1"},
		}
		assert.Equal(t, "failed (alpha: 1) (beta: 2)", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		t.Parallel()
		err := &tesserr.TesseraError{
			Code:    "TEST",
			Message: "outer",
			Cause:   errInner,
		}
		assert.Equal(t, "outer: inner", err.Error())
	})

	t.Run("with details and cause", func(t *testing.T) {
		t.Parallel()
		err := &tesserr.TesseraError{
			Code:    "TEST",
			Message: "outer",
			Details: map[string]string{"key": "val"},
			Cause:   errInner,
		}
		assert.Equal(t, "outer (key: val): inner", err.Error())
	})
}

func TestTesseraError_Error_deterministic(t *testing.T) {
	t.Parallel()
	err := &tesserr.TesseraError{
		Code:    "TEST",
		Message: "msg",
		Details: map[string]string{
			"charlie": "3",
			"alpha":   "1",
			"bravo":   "2",
			"delta":   "4",
		},
	}
	first := err.Error()
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, err.Error(), "Error() output must be deterministic (iteration %d)", i)
	}
}

func TestTesseraError_Unwrap(t *testing.T) {
	t.Parallel()

	t.Run("with cause", func(t *testing.T) {
		t.Parallel()
		err := &tesserr.TesseraError{Code: "TEST", Message: "wrapper", Cause: errRootCause}
		assert.Equal(t, errRootCause, err.Unwrap())
	})

	t.Run("nil cause", func(t *testing.T) {
		t.Parallel()
		err := &tesserr.TesseraError{Code: "TEST", Message: "no cause"}
		assert.NoError(t, err.Unwrap())
	})
}

func TestTesseraError_Is(t *testing.T) {
	t.Parallel()

	t.Run("matching code", func(t *testing.T) {
		t.Parallel()
		a := &tesserr.TesseraError{Code: "SAME_CODE", Message: "a"}
		b := &tesserr.TesseraError{Code: "SAME_CODE", Message: "b"}
		assert.True(t, a.Is(b))
	})

	t.Run("different code", func(t *testing.T) {
		t.Parallel()
		a := &tesserr.TesseraError{Code: "CODE_A", Message: "a"}
		b := &tesserr.TesseraError{Code: "CODE_B", Message: "b"}
		assert.False(t, a.Is(b))
	})

	t.Run("non-TesseraError target", func(t *testing.T) {
		t.Parallel()
		a := &tesserr.TesseraError{Code: "TEST", Message: "a"}
		assert.False(t, a.Is(errPlain))
	})
}

func TestAs(t *testing.T) {
	t.Parallel()

	t.Run("TesseraError target", func(t *testing.T) {
		t.Parallel()
		err := tesserr.Wrap(tesserr.ErrNotFound, "wrapped")
		var se *tesserr.TesseraError
		assert.True(t, tesserr.As(err, &se))
		assert.Equal(t, "NOT_FOUND", se.Code)
	})

	t.Run("non-TesseraError", func(t *testing.T) {
		t.Parallel()
		var se *tesserr.TesseraError
		assert.False(t, tesserr.As(errPlain, &se))
	})
}

func TestIs(t *testing.T) {
	t.Parallel()

	t.Run("matching sentinel", func(t *testing.T) {
		t.Parallel()
		wrapped := tesserr.Wrap(tesserr.ErrNotFound, "context")
		assert.True(t, tesserr.Is(wrapped, tesserr.ErrNotFound))
	})

	t.Run("non-matching", func(t *testing.T) {
		t.Parallel()
		wrapped := tesserr.Wrap(tesserr.ErrNotFound, "context")
		assert.False(t, tesserr.Is(wrapped, tesserr.ErrOverLimit))
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.False(t, tesserr.Is(nil, tesserr.ErrGeneral))
	})
}

func TestCode_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("TesseraError", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "NOT_FOUND", tesserr.Code(tesserr.ErrNotFound))
	})

	t.Run("non-TesseraError", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "GENERAL_ERROR", tesserr.Code(errPlainCode))
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "GENERAL_ERROR", tesserr.Code(nil))
	})
}

func TestWrap_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, tesserr.Wrap(nil, "context"))
	})

	t.Run("non-TesseraError", func(t *testing.T) {
		t.Parallel()
		wrapped := tesserr.Wrap(errPlain, "context")
		var se *tesserr.TesseraError
		require.ErrorAs(t, wrapped, &se)
		assert.Equal(t, "GENERAL_ERROR", se.Code)
		assert.Equal(t, "context", se.Message)
		assert.Equal(t, errPlain, se.Cause)
	})

	t.Run("format args", func(t *testing.T) {
		t.Parallel()
		wrapped := tesserr.Wrap(tesserr.ErrNotFound, "wallet %s index %d", "main", 0)
		assert.Contains(t, wrapped.Error(), "wallet main index 0")
	})

	t.Run("field preservation", func(t *testing.T) {
		t.Parallel()
		original := tesserr.WithDetails(tesserr.ErrNotFound, map[string]string{"key": "val"})
		original = tesserr.WithSuggestion(original, "try this")
		wrapped := tesserr.Wrap(original, "context")

		var se *tesserr.TesseraError
		require.ErrorAs(t, wrapped, &se)
		assert.Equal(t, "NOT_FOUND", se.Code)
		assert.Equal(t, map[string]string{"key": "val"}, se.Details)
		assert.Equal(t, "try this", se.Suggestion)
		assert.Equal(t, tesserr.ExitNotFound, se.ExitCode)
	})
}

func TestWithDetails_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, tesserr.WithDetails(nil, map[string]string{"k": "v"}))
	})

	t.Run("non-TesseraError input", func(t *testing.T) {
		t.Parallel()
		result := tesserr.WithDetails(errPlain, map[string]string{"k": "v"})
		var se *tesserr.TesseraError
		require.ErrorAs(t, result, &se)
		assert.Equal(t, "GENERAL_ERROR", se.Code)
		assert.Equal(t, "plain error", se.Message)
		assert.Equal(t, map[string]string{"k": "v"}, se.Details)
		assert.Equal(t, errPlain, se.Cause)
	})
}

func TestWithSuggestion_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, tesserr.WithSuggestion(nil, "suggestion"))
	})

	t.Run("non-TesseraError input", func(t *testing.T) {
		t.Parallel()
		result := tesserr.WithSuggestion(errPlain, "try this")
		var se *tesserr.TesseraError
		require.ErrorAs(t, result, &se)
		assert.Equal(t, "GENERAL_ERROR", se.Code)
		assert.Equal(t, "plain error", se.Message)
		assert.Equal(t, "try this", se.Suggestion)
		assert.Equal(t, errPlain, se.Cause)
	})
}

func TestExitCode_nonTesseraError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, tesserr.ExitGeneral, tesserr.ExitCode(errPlain))
}

func TestDomainSentinels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err      error
		code     string
		exitCode int
	}{
		{tesserr.ErrInvalidMnemonic, "INVALID_MNEMONIC", tesserr.ExitInput},
		{tesserr.ErrInvalidChecksum, "INVALID_CHECKSUM", tesserr.ExitInput},
		{tesserr.ErrInvalidWordCount, "INVALID_WORD_COUNT", tesserr.ExitInput},
		{tesserr.ErrInvalidEntropySize, "INVALID_ENTROPY_SIZE", tesserr.ExitInput},
		{tesserr.ErrInvalidKeyEncoding, "INVALID_KEY_ENCODING", tesserr.ExitInput},
		{tesserr.ErrInvalidAddress, "INVALID_ADDRESS", tesserr.ExitInput},
		{tesserr.ErrCoinOutOfBounds, "COIN_OUT_OF_BOUNDS", tesserr.ExitInput},
		{tesserr.ErrNoInput, "NO_INPUT", tesserr.ExitInput},
		{tesserr.ErrNoOutput, "NO_OUTPUT", tesserr.ExitInput},
		{tesserr.ErrSignaturesExceeded, "SIGNATURES_EXCEEDED", tesserr.ExitInput},
		{tesserr.ErrSignatureMismatch, "SIGNATURE_MISMATCH", tesserr.ExitInput},
		{tesserr.ErrOverLimit, "OVER_LIMIT", tesserr.ExitLimit},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.code, tesserr.Code(tt.err))
			assert.Equal(t, tt.exitCode, tesserr.ExitCode(tt.err))
		})
	}
}

func TestChecksumDistinctFromMnemonic(t *testing.T) {
	t.Parallel()
	wrapped := tesserr.Wrap(tesserr.ErrInvalidChecksum, "word 12")
	require.ErrorIs(t, wrapped, tesserr.ErrInvalidChecksum)
	assert.NotErrorIs(t, wrapped, tesserr.ErrInvalidMnemonic)
}
