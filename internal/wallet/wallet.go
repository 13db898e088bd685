// Package wallet owns a wallet's root key and derives account keys and
// addresses along m/44'/1815'/account'/chain/index.
package wallet

import (
	"sync"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/mnemonic"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

const (
	// MaxAddressDerivation caps a single GenerateAddresses call.
	MaxAddressDerivation = 100000
)

var (
	// ErrInvalidEntropySize indicates entropy of an unsupported length.
	ErrInvalidEntropySize = tesserr.ErrInvalidEntropySize

	// ErrWalletDestroyed indicates the wallet's keys have been wiped.
	ErrWalletDestroyed = tesserr.ErrWalletDestroyed

	// ErrInvalidAddressIndex indicates an index outside the soft range.
	ErrInvalidAddressIndex = tesserr.ErrInvalidAddressIndex

	// ErrInvalidAddressCount indicates the address count is invalid.
	ErrInvalidAddressCount = tesserr.ErrInvalidAddressCount

	// ErrInvalidChain indicates a chain other than external or internal.
	ErrInvalidChain = tesserr.ErrInvalidChain
)

// Wallet holds the root extended key. Destroy wipes it; accounts created
// from the wallet keep working for public derivation afterwards.
type Wallet struct {
	mu       sync.RWMutex
	root     *hdwallet.XPrv
	magic    address.NetworkMagic
	accounts []*Account
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithNetworkMagic selects the network addresses are generated for.
func WithNetworkMagic(m address.NetworkMagic) Option {
	return func(w *Wallet) {
		w.magic = m
	}
}

// New creates a wallet from 16, 20, 24, 28 or 32 bytes of entropy. The
// password may be empty; different passwords give unrelated wallets.
func New(entropy, password []byte, opts ...Option) (*Wallet, error) {
	if !mnemonic.ValidEntropySize(len(entropy)) {
		return nil, tesserr.WithDetails(ErrInvalidEntropySize, map[string]string{
			"bytes": itoa(len(entropy)),
		})
	}

	seed := hdwallet.NewSeed(entropy, password)
	defer seed.Destroy()

	return FromRootKey(hdwallet.NewRootKey(seed), opts...), nil
}

// NewFromMnemonic creates a wallet from a mnemonic phrase.
func NewFromMnemonic(phrase string, password []byte, opts ...Option) (*Wallet, error) {
	entropy, err := mnemonic.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	defer entropy.Destroy()
	return New(entropy, password, opts...)
}

// FromRootKey wraps an existing root key. The wallet takes ownership of root.
func FromRootKey(root *hdwallet.XPrv, opts ...Option) *Wallet {
	w := &Wallet{root: root}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NetworkMagic returns the network addresses are generated for.
func (w *Wallet) NetworkMagic() address.NetworkMagic {
	return w.magic
}

// RootKey returns a copy of the root key; the caller must Destroy it.
func (w *Wallet) RootKey() (*hdwallet.XPrv, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.root == nil {
		return nil, ErrWalletDestroyed
	}
	b := w.root.Bytes()
	return hdwallet.XPrvFromBytes(b[:])
}

// Destroy wipes the root key. Safe to call more than once.
func (w *Wallet) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.root != nil {
		w.root.Destroy()
		w.root = nil
	}
}

// CreateAccount derives the account at index (always hardened) and
// registers it under alias. Neither alias nor index is checked for
// uniqueness.
func (w *Wallet) CreateAccount(alias string, index uint32) (*Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.root == nil {
		return nil, ErrWalletDestroyed
	}

	index &^= hdwallet.Hardened
	key := w.root.DerivePath(hdwallet.AccountPath(index))
	defer key.Destroy()

	a := &Account{
		wallet: w,
		alias:  alias,
		index:  index,
		xpub:   key.Public(),
		magic:  w.magic,
	}
	w.accounts = append(w.accounts, a)
	return a, nil
}

// Account returns the first account registered under alias.
func (w *Wallet) Account(alias string) (*Account, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, a := range w.accounts {
		if a.alias == alias {
			return a, true
		}
	}
	return nil, false
}

// Accounts returns the registered accounts in creation order.
func (w *Wallet) Accounts() []*Account {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Account{}, w.accounts...)
}

func (w *Wallet) derive(path hdwallet.Path) (*hdwallet.XPrv, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.root == nil {
		return nil, ErrWalletDestroyed
	}
	return w.root.DerivePath(path), nil
}
