package utxostore

import (
	"strconv"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// ErrNotEnoughFunds indicates the recorded outputs cannot cover a payment.
var ErrNotEnoughFunds = tesserr.ErrNotEnoughInput

// Enough reports whether the candidate inputs can fund the transaction.
type Enough func(selected []StoredUTXO) (bool, error)

// Select picks unspent outputs of account largest first and stops at the
// shortest prefix that satisfies enough.
func (s *Store) Select(account string, enough Enough) ([]StoredUTXO, error) {
	unspent := s.Unspent(account)
	for n := 1; n <= len(unspent); n++ {
		ok, err := enough(unspent[:n])
		if err != nil {
			return nil, err
		}
		if ok {
			return unspent[:n], nil
		}
	}

	available, err := s.Balance(account)
	if err != nil {
		return nil, err
	}
	return nil, tesserr.WithDetails(ErrNotEnoughFunds, map[string]string{
		"available": available.String(),
		"recorded":  strconv.Itoa(len(unspent)),
	})
}
