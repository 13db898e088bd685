// Package coin provides bounded lovelace amounts and signed balances.
package coin

import (
	"math/big"
	"math/bits"
	"strconv"

	"github.com/shopspring/decimal"

	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// ErrCoinOutOfBounds is returned when a value or a sum exceeds MaxValue.
var ErrCoinOutOfBounds = tesserr.ErrCoinOutOfBounds

// MaxValue is the total supply in lovelace; no amount may exceed it.
const MaxValue uint64 = 45_000_000_000_000_000

// Decimals is the number of lovelace decimal places in one ADA.
const Decimals = 6

// Coin is an amount of lovelace in [0, MaxValue].
type Coin uint64

// Zero is the empty amount.
const Zero Coin = 0

// Max is the largest valid amount.
const Max = Coin(MaxValue)

// New validates v.
func New(v uint64) (Coin, error) {
	if v > MaxValue {
		return 0, tesserr.WithDetails(ErrCoinOutOfBounds, map[string]string{
			"value": strconv.FormatUint(v, 10),
		})
	}
	return Coin(v), nil
}

// Uint64 returns the raw lovelace value.
func (c Coin) Uint64() uint64 {
	return uint64(c)
}

// Add returns c + o, failing if the result would exceed MaxValue.
func (c Coin) Add(o Coin) (Coin, error) {
	sum, carry := bits.Add64(uint64(c), uint64(o), 0)
	if carry != 0 {
		return 0, ErrCoinOutOfBounds
	}
	return New(sum)
}

// Sub returns c - o, or false when o is larger.
func (c Coin) Sub(o Coin) (Coin, bool) {
	if o > c {
		return 0, false
	}
	return c - o, true
}

// Sum adds values left to right, checking every partial sum.
func Sum(values ...Coin) (Coin, error) {
	total := Zero
	for _, v := range values {
		if _, err := New(uint64(v)); err != nil {
			return 0, err
		}
		var err error
		if total, err = total.Add(v); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (c Coin) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// ADA returns the amount in whole ADA.
func (c Coin) ADA() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(c)), -Decimals)
}

// FormatADA renders the amount with six decimals, e.g. "1.500000".
func (c Coin) FormatADA() string {
	return c.ADA().StringFixed(Decimals)
}

// Parse reads a lovelace integer.
func Parse(s string) (Coin, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, tesserr.WithDetails(tesserr.ErrInvalidAmount, map[string]string{"amount": s})
	}
	return New(v)
}

// ParseADA reads a decimal ADA amount with at most six decimals.
func ParseADA(s string) (Coin, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(Decimals)) {
		return 0, tesserr.WithDetails(tesserr.ErrInvalidAmount, map[string]string{"amount": s})
	}
	lovelace := d.Shift(Decimals)
	if !lovelace.BigInt().IsUint64() {
		return 0, tesserr.WithDetails(ErrCoinOutOfBounds, map[string]string{"amount": s})
	}
	return New(lovelace.BigInt().Uint64())
}
