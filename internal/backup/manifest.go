// Package backup exports and imports encrypted wallet archives.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mrz1836/tessera/internal/utxostore"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

var (
	// ErrBackupNotFound indicates the backup file was not found.
	ErrBackupNotFound = tesserr.ErrBackupNotFound

	// ErrBackupCorrupted indicates the backup checksum failed.
	ErrBackupCorrupted = tesserr.ErrBackupCorrupted

	// ErrDecryptionFailed indicates backup decryption failed.
	ErrDecryptionFailed = tesserr.ErrDecryptionFailed

	// ErrInvalidFormat indicates the backup format is invalid.
	ErrInvalidFormat = tesserr.ErrInvalidFormat
)

// BackupVersion is the current backup format version.
const BackupVersion = 1

// Backup is a complete wallet archive.
type Backup struct {
	// Version is the backup format version.
	Version int `json:"version"`

	// Manifest contains backup metadata.
	Manifest Manifest `json:"manifest"`

	// EncryptedData is the armored age ciphertext of WalletData.
	EncryptedData []byte `json:"encrypted_data"`

	// Checksum is the SHA256 hash of EncryptedData.
	Checksum string `json:"checksum"`
}

// Manifest describes a backup without revealing keys.
type Manifest struct {
	WalletName       string    `json:"wallet_name"`
	CreatedAt        time.Time `json:"created_at"`
	Network          string    `json:"network"`
	Accounts         int       `json:"accounts"`
	UTXOs            int       `json:"utxos"`
	EncryptionMethod string    `json:"encryption_method"`
}

// WalletData is the decrypted content of a backup.
type WalletData struct {
	// RootKey is the 96-byte extended root key.
	RootKey []byte `json:"root_key"`

	// Metadata is the wallet's public metadata.
	Metadata json.RawMessage `json:"metadata"`

	// UTXOs is the wallet's output ledger, spent entries included.
	UTXOs []utxostore.StoredUTXO `json:"utxos,omitempty"`
}

// NewManifest creates a new backup manifest.
func NewManifest(walletName, network string, accounts, utxos int) Manifest {
	return Manifest{
		WalletName:       walletName,
		CreatedAt:        time.Now().UTC(),
		Network:          network,
		Accounts:         accounts,
		UTXOs:            utxos,
		EncryptionMethod: "age-scrypt",
	}
}

// CalculateChecksum computes the SHA256 checksum of data.
func CalculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// VerifyChecksum verifies that data matches the expected checksum.
func VerifyChecksum(data []byte, expected string) error {
	if actual := CalculateChecksum(data); actual != expected {
		return tesserr.WithDetails(ErrBackupCorrupted, map[string]string{
			"expected": expected,
			"actual":   actual,
		})
	}
	return nil
}

// NewBackup creates a new backup with the given manifest and encrypted data.
func NewBackup(manifest Manifest, encryptedData []byte) *Backup {
	return &Backup{
		Version:       BackupVersion,
		Manifest:      manifest,
		EncryptedData: encryptedData,
		Checksum:      CalculateChecksum(encryptedData),
	}
}

// Validate checks the backup for consistency.
func (b *Backup) Validate() error {
	invalid := func(reason string) error {
		return tesserr.WithDetails(ErrInvalidFormat, map[string]string{"reason": reason})
	}
	if b.Version != BackupVersion {
		return invalid("unsupported version " + strconv.Itoa(b.Version))
	}
	if b.Manifest.WalletName == "" {
		return invalid("missing wallet name")
	}
	if len(b.EncryptedData) == 0 {
		return invalid("no encrypted data")
	}
	return VerifyChecksum(b.EncryptedData, b.Checksum)
}
