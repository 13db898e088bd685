// Package utxostore keeps a per-wallet ledger of spendable outputs.
//
// Tessera never talks to the network, so entries are recorded by the user
// and marked spent when a transaction signed from them is produced.
package utxostore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mrz1836/tessera/internal/coin"
	"github.com/mrz1836/tessera/internal/fileutil"
	"github.com/mrz1836/tessera/internal/hdwallet"
	"github.com/mrz1836/tessera/internal/tx"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

const (
	// fileSuffix is appended to the wallet name to form the ledger file.
	fileSuffix = ".utxos.json"

	// currentVersion is the current file format version.
	currentVersion = 1

	// filePermissions for ledger files
	filePermissions = 0o600
)

var (
	// ErrUTXOExists indicates the output is already recorded.
	ErrUTXOExists = tesserr.ErrUTXOExists

	// ErrUTXONotFound indicates the output is not in the ledger.
	ErrUTXONotFound = tesserr.ErrUTXONotFound
)

// StoredUTXO is one recorded output and where its key lives.
type StoredUTXO struct {
	TxID    string `json:"txid"`
	Index   uint32 `json:"index"`
	Value   uint64 `json:"value"` // lovelace
	Address string `json:"address"`

	// Key location inside the wallet
	Account      string         `json:"account"`
	Chain        hdwallet.Chain `json:"chain"`
	AddressIndex uint32         `json:"address_index"`

	// Storage-specific fields
	Spent       bool      `json:"spent"`
	SpentTxID   string    `json:"spent_txid,omitempty"` // txid that spent this output
	FirstSeen   time.Time `json:"first_seen"`
	LastUpdated time.Time `json:"last_updated"`
}

// Key returns the unique identifier for this output (txid:index).
func (u *StoredUTXO) Key() string {
	return u.TxID + ":" + strconv.FormatUint(uint64(u.Index), 10)
}

// Pointer returns the transaction input referencing this output.
func (u *StoredUTXO) Pointer() (tx.TxoPointer, error) {
	id, err := tx.ParseTxID(u.TxID)
	if err != nil {
		return tx.TxoPointer{}, err
	}
	return tx.TxoPointer{ID: id, Index: u.Index}, nil
}

// UTXOFile represents the JSON file structure (versioned).
type UTXOFile struct {
	Version   int                    `json:"version"`
	UpdatedAt time.Time              `json:"updated_at"`
	UTXOs     map[string]*StoredUTXO `json:"utxos"` // key: txid:index
}

// Store manages the ledger of a single wallet.
type Store struct {
	path string
	mu   sync.RWMutex
	data *UTXOFile
}

// New creates a store for walletName under dir. Nothing is read until Load.
func New(dir, walletName string) *Store {
	return &Store{
		path: filepath.Join(dir, filepath.Base(walletName)+fileSuffix),
		data: emptyFile(),
	}
}

func emptyFile() *UTXOFile {
	return &UTXOFile{
		Version:   currentVersion,
		UpdatedAt: time.Now(),
		UTXOs:     make(map[string]*StoredUTXO),
	}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the ledger. A missing file is an empty ledger.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// #nosec G304 -- path is built from a validated wallet name
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.data = emptyFile()
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading utxo file: %w", err)
	}

	var f UTXOFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: parsing %s: %w", tesserr.ErrInvalidFormat, filepath.Base(s.path), err)
	}
	if f.Version != currentVersion {
		return tesserr.WithDetails(tesserr.ErrInvalidFormat, map[string]string{
			"version": strconv.Itoa(f.Version),
		})
	}
	if f.UTXOs == nil {
		f.UTXOs = make(map[string]*StoredUTXO)
	}
	s.data = &f
	return nil
}

// Save writes the ledger atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling utxos: %w", err)
	}
	return fileutil.WriteAtomic(s.path, data, filePermissions)
}

// Add records an unspent output. The txid and value are validated.
func (s *Store) Add(u *StoredUTXO) error {
	if _, err := tx.ParseTxID(u.TxID); err != nil {
		return err
	}
	if _, err := coin.New(u.Value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := u.Key()
	if _, exists := s.data.UTXOs[key]; exists {
		return tesserr.WithDetails(ErrUTXOExists, map[string]string{"utxo": key})
	}

	now := time.Now()
	stored := *u
	stored.Spent = false
	stored.SpentTxID = ""
	stored.FirstSeen = now
	stored.LastUpdated = now
	s.data.UTXOs[key] = &stored
	return nil
}

// Remove deletes an output from the ledger.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.UTXOs[key]; !exists {
		return tesserr.WithDetails(ErrUTXONotFound, map[string]string{"utxo": key})
	}
	delete(s.data.UTXOs, key)
	return nil
}

// Get returns a copy of the output stored under key.
func (s *Store) Get(key string) (StoredUTXO, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.data.UTXOs[key]
	if !ok {
		return StoredUTXO{}, false
	}
	return *u, true
}

// MarkSpent flags every listed output as spent by spender. It returns how
// many outputs changed.
func (s *Store) MarkSpent(inputs []tx.TxoPointer, spender tx.TxID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	marked := 0
	for _, in := range inputs {
		u, ok := s.data.UTXOs[in.String()]
		if !ok || u.Spent {
			continue
		}
		u.Spent = true
		u.SpentTxID = spender.String()
		u.LastUpdated = now
		marked++
	}
	return marked
}

// All returns copies of every output, spent or not, ordered by key.
func (s *Store) All() []StoredUTXO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredUTXO, 0, len(s.data.UTXOs))
	for _, u := range s.data.UTXOs {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Unspent returns the unspent outputs of account, largest value first. An
// empty account matches every account.
func (s *Store) Unspent(account string) []StoredUTXO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StoredUTXO
	for _, u := range s.data.UTXOs {
		if u.Spent || (account != "" && u.Account != account) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// Balance sums the unspent outputs of account.
func (s *Store) Balance(account string) (coin.Coin, error) {
	unspent := s.Unspent(account)
	values := make([]coin.Coin, len(unspent))
	for i, u := range unspent {
		values[i] = coin.Coin(u.Value)
	}
	return coin.Sum(values...)
}

// IsEmpty reports whether no outputs are recorded.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.UTXOs) == 0
}
