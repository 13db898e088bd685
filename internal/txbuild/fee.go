package txbuild

import (
	"math/big"
	"math/bits"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mrz1836/tessera/internal/coin"
	tesserr "github.com/mrz1836/tessera/pkg/errors"
)

// Milli is a fixed-point number with three decimals.
type Milli uint64

// NewMilli returns integral + thousandths/1000.
func NewMilli(integral, thousandths uint64) Milli {
	return Milli(integral*1000 + thousandths)
}

// ParseMilli reads a decimal such as "43.946".
func ParseMilli(s string) (Milli, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"value": s})
	}
	shifted := d.Shift(3)
	if !shifted.Equal(shifted.Truncate(0)) || !shifted.BigInt().IsUint64() {
		return 0, tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"value": s})
	}
	return Milli(shifted.BigInt().Uint64()), nil
}

func (m Milli) String() string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(m)), -3).String()
}

// Ceil rounds up to a whole number.
func (m Milli) Ceil() uint64 {
	whole, frac := uint64(m)/1000, uint64(m)%1000
	if frac != 0 {
		whole++
	}
	return whole
}

// FeeAlgorithm prices a transaction by its encoded size.
type FeeAlgorithm interface {
	Estimate(size int) (coin.Coin, error)
}

// LinearFee charges Constant + Coefficient * size, rounded up.
type LinearFee struct {
	Constant    Milli
	Coefficient Milli
}

// DefaultLinearFee is the mainnet fee policy: 155381 + 43.946 per byte.
func DefaultLinearFee() LinearFee {
	return LinearFee{
		Constant:    NewMilli(155381, 0),
		Coefficient: NewMilli(43, 946),
	}
}

// Estimate implements FeeAlgorithm.
func (f LinearFee) Estimate(size int) (coin.Coin, error) {
	if size < 0 {
		return 0, tesserr.WithDetails(tesserr.ErrInvalidInput, map[string]string{"size": strconv.Itoa(size)})
	}
	hi, lo := bits.Mul64(uint64(f.Coefficient), uint64(size))
	if hi != 0 {
		return 0, coin.ErrCoinOutOfBounds
	}
	total, carry := bits.Add64(lo, uint64(f.Constant), 0)
	if carry != 0 {
		return 0, coin.ErrCoinOutOfBounds
	}
	return coin.New(Milli(total).Ceil())
}
