package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/tessera/internal/fileutil"
	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/tesscrypto"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

const (
	// walletFileExtension is the extension for wallet files.
	walletFileExtension = ".wallet"

	// walletFilePermissions is the permission mode for wallet files.
	walletFilePermissions = 0o600
)

var (
	// ErrWalletNotFound indicates the wallet does not exist.
	ErrWalletNotFound = tesserr.ErrWalletNotFound

	// ErrWalletExists indicates a wallet with the same name already exists.
	ErrWalletExists = tesserr.ErrWalletExists

	// ErrDecryptionFailed indicates a wrong password or a corrupted file.
	ErrDecryptionFailed = tesserr.ErrDecryptionFailed

	// ErrKeyMismatch indicates the sealed key does not own the stored accounts.
	ErrKeyMismatch = tesserr.ErrKeyMismatch
)

// Storage defines the interface for wallet persistence.
type Storage interface {
	// Save seals the wallet's root key with password and writes it
	// alongside meta. The password should be zeroed by the caller.
	Save(meta *Metadata, w *Wallet, password []byte) error

	// Load decrypts a wallet and recreates its stored accounts.
	Load(name string, password []byte) (*Metadata, *Wallet, error)

	// LoadMetadata reads the public part of a wallet without a password.
	LoadMetadata(name string) (*Metadata, error)

	// UpdateMetadata rewrites meta and keeps the sealed key untouched.
	UpdateMetadata(meta *Metadata) error

	// Exists checks if a wallet exists.
	Exists(name string) (bool, error)

	// List returns all wallet names.
	List() ([]string, error)

	// Delete removes a wallet file.
	Delete(name string) error
}

type walletFile struct {
	Metadata *Metadata `json:"wallet"`

	// SealedKey is the armored age ciphertext of the 96-byte root key.
	SealedKey string `json:"sealed_key"`
}

// FileStorage implements Storage using one JSON file per wallet.
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file-based storage rooted at basePath.
func NewFileStorage(basePath string) *FileStorage {
	return &FileStorage{basePath: basePath}
}

// Save writes a new wallet file. It fails if the name is taken.
func (s *FileStorage) Save(meta *Metadata, w *Wallet, password []byte) error {
	if err := ValidateWalletName(meta.Name); err != nil {
		return err
	}

	exists, err := s.Exists(meta.Name)
	if err != nil {
		return fmt.Errorf("checking wallet existence: %w", err)
	}
	if exists {
		return ErrWalletExists
	}

	root, err := w.RootKey()
	if err != nil {
		return err
	}
	defer root.Destroy()

	raw := root.Bytes()
	defer tesscrypto.Zero(raw[:])

	sealed, err := tesscrypto.Seal(raw[:], string(password))
	if err != nil {
		return fmt.Errorf("sealing root key: %w", err)
	}

	return s.write(&walletFile{Metadata: meta, SealedKey: string(sealed)})
}

// Load decrypts the wallet and recreates every stored account.
func (s *FileStorage) Load(name string, password []byte) (*Metadata, *Wallet, error) {
	wf, err := s.read(name)
	if err != nil {
		return nil, nil, err
	}

	plain, err := tesscrypto.Open([]byte(wf.SealedKey), string(password))
	if err != nil {
		return nil, nil, ErrDecryptionFailed
	}
	defer plain.Destroy()

	root, err := hdwallet.XPrvFromBytes(plain.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("decoding root key: %w", err)
	}

	w := FromRootKey(root, WithNetworkMagic(wf.Metadata.NetworkMagic()))
	for _, rec := range wf.Metadata.Accounts {
		a, err := w.CreateAccount(rec.Alias, rec.Index)
		if err != nil {
			w.Destroy()
			return nil, nil, err
		}
		if a.XPub().String() != rec.XPub {
			w.Destroy()
			return nil, nil, ErrKeyMismatch
		}
	}

	return wf.Metadata, w, nil
}

// LoadMetadata reads wallet metadata without decrypting the key.
func (s *FileStorage) LoadMetadata(name string) (*Metadata, error) {
	wf, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return wf.Metadata, nil
}

// UpdateMetadata replaces the metadata of an existing wallet.
func (s *FileStorage) UpdateMetadata(meta *Metadata) error {
	wf, err := s.read(meta.Name)
	if err != nil {
		return err
	}
	wf.Metadata = meta
	return s.write(wf)
}

// Exists checks if a wallet exists.
func (s *FileStorage) Exists(name string) (bool, error) {
	if err := ValidateWalletName(name); err != nil {
		return false, err
	}
	return fileutil.Exists(s.walletPath(name))
}

// List returns all wallet names.
func (s *FileStorage) List() ([]string, error) {
	if err := fileutil.EnsureDir(s.basePath, fileutil.DirPerm); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading wallet directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, walletFileExtension) && !strings.HasPrefix(name, ".") {
			names = append(names, strings.TrimSuffix(name, walletFileExtension))
		}
	}

	return names, nil
}

// Delete removes a wallet file.
func (s *FileStorage) Delete(name string) error {
	if err := ValidateWalletName(name); err != nil {
		return err
	}

	err := os.Remove(s.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrWalletNotFound
	}
	if err != nil {
		return fmt.Errorf("removing wallet file: %w", err)
	}
	return nil
}

func (s *FileStorage) read(name string) (*walletFile, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, err
	}

	//nolint:gosec // G304: Path validated by ValidateWalletName + walletPath
	data, err := os.ReadFile(s.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading wallet file: %w", err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("%w: parsing wallet file %s: %w", tesserr.ErrInvalidFormat, name, err)
	}
	if wf.Metadata == nil || wf.SealedKey == "" {
		return nil, tesserr.WithDetails(tesserr.ErrInvalidFormat, map[string]string{
			"wallet": name,
			"reason": "incomplete wallet file",
		})
	}
	return &wf, nil
}

func (s *FileStorage) write(wf *walletFile) error {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling wallet: %w", err)
	}
	if err := fileutil.WriteAtomic(s.walletPath(wf.Metadata.Name), data, walletFilePermissions); err != nil {
		return fmt.Errorf("writing wallet file: %w", err)
	}
	return nil
}

// walletPath returns the full path for a wallet file. Names are validated
// to [a-zA-Z0-9_-]{1,64} before they get here.
func (s *FileStorage) walletPath(name string) string {
	return filepath.Join(s.basePath, filepath.Base(name)+walletFileExtension)
}
