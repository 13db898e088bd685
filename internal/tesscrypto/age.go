package tesscrypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// ErrEmptyCiphertext is returned when there is nothing to decrypt.
var ErrEmptyCiphertext = errors.New("ciphertext is empty")

// Seal encrypts plaintext to an ASCII-armored age file protected by password.
func Seal(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	buf := &bytes.Buffer{}
	aw := armor.NewWriter(buf)
	w, err := age.Encrypt(aw, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("closing armor: %w", err)
	}

	return buf.Bytes(), nil
}

// Open decrypts an armored age file into locked memory.
func Open(ciphertext []byte, password string) (*SecureBytes, error) {
	if len(ciphertext) == 0 {
		return nil, ErrEmptyCiphertext
	}

	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(ciphertext)), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		Zero(plaintext)
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return SecureBytesFromSlice(plaintext), nil
}
