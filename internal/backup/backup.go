package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/tessera/internal/fileutil"
	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/tesscrypto"
	"github.com/mrz1836/tessera/internal/tx"
	"github.com/mrz1836/tessera/internal/utxostore"
	"github.com/mrz1836/tessera/internal/wallet"
)

const (
	// BackupExtension is the file extension for backups.
	BackupExtension = ".tessera"

	// BackupFilePermissions is the permission mode for backup files.
	BackupFilePermissions = 0o600
)

// Service provides backup operations.
type Service struct {
	backupDir string
	walletDir string
	storage   wallet.Storage
}

// NewService creates a backup service. Ledgers are read from and written
// to walletDir next to the wallet files.
func NewService(backupDir, walletDir string, walletStorage wallet.Storage) *Service {
	return &Service{
		backupDir: backupDir,
		walletDir: walletDir,
		storage:   walletStorage,
	}
}

// Create writes a backup of a wallet and returns it with its path.
// The password should be zeroed by the caller after this call returns.
func (s *Service) Create(walletName string, password []byte) (*Backup, string, error) {
	meta, w, err := s.storage.Load(walletName, password)
	if err != nil {
		return nil, "", err
	}
	defer w.Destroy()

	root, err := w.RootKey()
	if err != nil {
		return nil, "", err
	}
	defer root.Destroy()
	raw := root.Bytes()
	defer tesscrypto.Zero(raw[:])

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("serializing metadata: %w", err)
	}

	ledger := utxostore.New(s.walletDir, walletName)
	if err := ledger.Load(); err != nil {
		return nil, "", err
	}

	data := WalletData{
		RootKey:  raw[:],
		Metadata: metaJSON,
		UTXOs:    ledger.All(),
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("serializing backup data: %w", err)
	}
	defer tesscrypto.Zero(dataJSON)

	encrypted, err := tesscrypto.Seal(dataJSON, string(password))
	if err != nil {
		return nil, "", fmt.Errorf("encrypting backup: %w", err)
	}

	b := NewBackup(NewManifest(walletName, meta.Network, len(meta.Accounts), len(data.UTXOs)), encrypted)
	path, err := s.writeBackup(b)
	if err != nil {
		return nil, "", err
	}
	return b, path, nil
}

// Verify checks a backup file's integrity without decrypting.
func (s *Service) Verify(backupPath string) (*Manifest, error) {
	b, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b.Manifest, nil
}

// VerifyWithDecryption verifies a backup and tests decryption.
func (s *Service) VerifyWithDecryption(backupPath string, password []byte) (*Manifest, error) {
	b, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	plain, err := tesscrypto.Open(b.EncryptedData, string(password))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plain.Destroy()
	return &b.Manifest, nil
}

// Restore recreates a wallet and its ledger from a backup, optionally
// under a new name. The stored account keys are checked against the root.
func (s *Service) Restore(backupPath string, password []byte, newWalletName string) (*wallet.Metadata, error) {
	b, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	plain, err := tesscrypto.Open(b.EncryptedData, string(password))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer plain.Destroy()

	var data WalletData
	if err := json.Unmarshal(plain.Bytes(), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer tesscrypto.Zero(data.RootKey)

	var meta wallet.Metadata
	if err := json.Unmarshal(data.Metadata, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if newWalletName != "" {
		meta.Name = newWalletName
	}

	root, err := hdwallet.XPrvFromBytes(data.RootKey)
	if err != nil {
		return nil, err
	}
	w := wallet.FromRootKey(root, wallet.WithNetworkMagic(meta.NetworkMagic()))
	defer w.Destroy()
	for _, rec := range meta.Accounts {
		acct, err := w.CreateAccount(rec.Alias, rec.Index)
		if err != nil {
			return nil, err
		}
		if acct.XPub().String() != rec.XPub {
			return nil, wallet.ErrKeyMismatch
		}
	}

	if err := s.storage.Save(&meta, w, password); err != nil {
		return nil, fmt.Errorf("saving restored wallet: %w", err)
	}

	if len(data.UTXOs) > 0 {
		ledger := utxostore.New(s.walletDir, meta.Name)
		for i := range data.UTXOs {
			if err := ledger.Add(&data.UTXOs[i]); err != nil {
				return nil, err
			}
		}
		// Spent state is restored after Add resets it.
		for _, u := range data.UTXOs {
			if !u.Spent || u.SpentTxID == "" {
				continue
			}
			ptr, err := u.Pointer()
			if err != nil {
				return nil, err
			}
			spender, err := tx.ParseTxID(u.SpentTxID)
			if err != nil {
				return nil, err
			}
			ledger.MarkSpent([]tx.TxoPointer{ptr}, spender)
		}
		if err := ledger.Save(); err != nil {
			return nil, err
		}
	}
	return &meta, nil
}

// List returns all backup files in the backup directory.
func (s *Service) List() ([]string, error) {
	if err := fileutil.EnsureDir(s.backupDir, fileutil.DirPerm); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == BackupExtension {
			backups = append(backups, entry.Name())
		}
	}
	return backups, nil
}

// BackupPath returns the path to a backup file.
func (s *Service) BackupPath(filename string) string {
	return filepath.Join(s.backupDir, filename)
}

//nolint:funcorder // Keeping helper methods together
func (s *Service) writeBackup(b *Backup) (string, error) {
	timestamp := time.Now().Format("2006-01-02-150405")
	filename := fmt.Sprintf("%s-%s%s", b.Manifest.WalletName, timestamp, BackupExtension)
	path := filepath.Join(s.backupDir, filename)

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing backup: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data, BackupFilePermissions); err != nil {
		return "", fmt.Errorf("writing backup file: %w", err)
	}
	return path, nil
}

//nolint:funcorder // Keeping helper methods together
func (s *Service) readBackup(path string) (*Backup, error) {
	// #nosec G304 -- path is from user input
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup file: %w", err)
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return &b, nil
}
