package wallet

import (
	"strconv"

	"github.com/mrz1836/tessera/internal/address"
	"github.com/mrz1836/tessera/internal/hdwallet"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// Account is a BIP44 account. It keeps only the account public key and
// asks the wallet for private keys when signing.
type Account struct {
	wallet *Wallet
	alias  string
	index  uint32
	xpub   *hdwallet.XPub
	magic  address.NetworkMagic
}

// Alias is the lookup name given at creation.
func (a *Account) Alias() string {
	return a.alias
}

// Index is the account number, without the hardened bit.
func (a *Account) Index() uint32 {
	return a.index
}

// XPub returns the account-level extended public key.
func (a *Account) XPub() *hdwallet.XPub {
	return a.xpub
}

// Path returns m/44'/1815'/index'.
func (a *Account) Path() hdwallet.Path {
	return hdwallet.AccountPath(a.index)
}

// GenerateAddresses returns count addresses on chain starting at from.
// A zero count yields an empty slice. Every index must stay below the
// hardened range.
func (a *Account) GenerateAddresses(chain hdwallet.Chain, from uint32, count int) ([]address.Address, error) {
	if !chain.Valid() {
		return nil, tesserr.WithDetails(ErrInvalidChain, map[string]string{"chain": itoa(int(chain))})
	}
	if count < 0 || count > MaxAddressDerivation {
		return nil, ErrInvalidAddressCount
	}
	out := make([]address.Address, 0, count)
	if count == 0 {
		return out, nil
	}
	if uint64(from)+uint64(count) > uint64(hdwallet.Hardened) {
		return nil, ErrInvalidAddressIndex
	}

	chainKey, err := a.xpub.Derive(uint32(chain))
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		key, err := chainKey.Derive(from + uint32(i)) //nolint:gosec // bounded by the check above
		if err != nil {
			return nil, err
		}
		out = append(out, address.New(key, a.magic))
	}
	return out, nil
}

// Address returns the single address at chain/index.
func (a *Account) Address(chain hdwallet.Chain, index uint32) (address.Address, error) {
	addrs, err := a.GenerateAddresses(chain, index, 1)
	if err != nil {
		return address.Address{}, err
	}
	return addrs[0], nil
}

// PrivateKey re-derives the signing key for chain/index from the wallet.
// The caller must Destroy it.
func (a *Account) PrivateKey(chain hdwallet.Chain, index uint32) (*hdwallet.XPrv, error) {
	if !chain.Valid() {
		return nil, tesserr.WithDetails(ErrInvalidChain, map[string]string{"chain": itoa(int(chain))})
	}
	if index >= hdwallet.Hardened {
		return nil, ErrInvalidAddressIndex
	}
	return a.wallet.derive(hdwallet.AddressPath(a.index, chain, index))
}

// Addressing locates one address inside a wallet.
type Addressing struct {
	Account uint32         `json:"account"`
	Chain   hdwallet.Chain `json:"chain"`
	Index   uint32         `json:"index"`
}

// Path returns the full derivation path.
func (ad Addressing) Path() hdwallet.Path {
	return hdwallet.AddressPath(ad.Account, ad.Chain, ad.Index)
}

func (ad Addressing) String() string {
	return ad.Path().String()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
