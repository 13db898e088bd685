package tesscrypto

import (
	"crypto/rand"
	"io"
)

// Reader is the random source used for fresh entropy.
// Tests replace it with a deterministic reader.
//
//nolint:gochecknoglobals // Package-level RNG is required for testability
var Reader io.Reader = rand.Reader

// RandomBytes reads n bytes from Reader.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
