package wallet

import (
	"regexp"
	"time"

	"github.com/mrz1836/go-sanitize"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/hdwallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// MetadataVersion is the current on-disk metadata layout.
const MetadataVersion = 1

var (
	// ErrInvalidWalletName indicates the wallet name is invalid.
	ErrInvalidWalletName = tesserr.ErrInvalidWalletName

	walletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// ValidateWalletName checks if a wallet name is valid.
func ValidateWalletName(name string) error {
	if !walletNameRegex.MatchString(name) {
		return ErrInvalidWalletName
	}
	return nil
}

// SuggestWalletName provides a sanitized version of an invalid wallet name,
// truncated to 64 characters. Returns empty string if nothing usable is left.
func SuggestWalletName(name string) string {
	suggested := sanitize.PathName(name)
	if len(suggested) > 64 {
		suggested = suggested[:64]
	}
	return suggested
}

// Metadata is the public part of a stored wallet. It never holds key
// material beyond account public keys.
type Metadata struct {
	Name          string          `json:"name"`
	CreatedAt     time.Time       `json:"created_at"`
	Network       string          `json:"network"`
	ProtocolMagic uint32          `json:"protocol_magic"`
	AddressMagic  *uint32         `json:"address_magic,omitempty"`
	Accounts      []AccountRecord `json:"accounts"`
	Version       int             `json:"version"`
}

// AccountRecord persists one account so it can be recreated on load.
type AccountRecord struct {
	Alias string `json:"alias"`
	Index uint32 `json:"index"`
	XPub  string `json:"xpub"`
}

// NewMetadata captures the current state of w under name.
func NewMetadata(name, network string, protocolMagic uint32, w *Wallet) (*Metadata, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, err
	}
	m := &Metadata{
		Name:          name,
		CreatedAt:     time.Now().UTC(),
		Network:       network,
		ProtocolMagic: protocolMagic,
		Version:       MetadataVersion,
	}
	if v, ok := w.NetworkMagic().Value(); ok {
		m.AddressMagic = &v
	}
	m.SyncAccounts(w)
	return m, nil
}

// SyncAccounts replaces the stored account list with the wallet's.
func (m *Metadata) SyncAccounts(w *Wallet) {
	accounts := w.Accounts()
	m.Accounts = make([]AccountRecord, 0, len(accounts))
	for _, a := range accounts {
		m.Accounts = append(m.Accounts, AccountRecord{
			Alias: a.Alias(),
			Index: a.Index(),
			XPub:  a.XPub().String(),
		})
	}
}

// NetworkMagic returns the magic embedded in this wallet's addresses.
func (m *Metadata) NetworkMagic() address.NetworkMagic {
	if m.AddressMagic == nil {
		return address.NoMagic
	}
	return address.Magic(*m.AddressMagic)
}

// Account finds a stored account by alias.
func (m *Metadata) Account(alias string) (AccountRecord, bool) {
	for _, a := range m.Accounts {
		if a.Alias == alias {
			return a, true
		}
	}
	return AccountRecord{}, false
}

// WatchAccount rebuilds a watch-only account from a stored record. The
// result can generate addresses but PrivateKey always fails.
func (m *Metadata) WatchAccount(rec AccountRecord) (*Account, error) {
	xpub, err := hdwallet.XPubFromHex(rec.XPub)
	if err != nil {
		return nil, err
	}
	return &Account{
		wallet: &Wallet{magic: m.NetworkMagic()},
		alias:  rec.Alias,
		index:  rec.Index,
		xpub:   xpub,
		magic:  m.NetworkMagic(),
	}, nil
}
