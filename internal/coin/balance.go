package coin

// Sign classifies a balance.
type Sign int

// Balance signs.
const (
	SignNegative Sign = -1
	SignZero     Sign = 0
	SignPositive Sign = 1
)

func (s Sign) String() string {
	switch s {
	case SignNegative:
		return "negative"
	case SignPositive:
		return "positive"
	default:
		return "zero"
	}
}

// Balance is a signed difference between two amounts.
type Balance struct {
	Sign  Sign
	Value Coin
}

// Difference returns inputs - outputs as a Balance.
func Difference(inputs, outputs Coin) Balance {
	switch {
	case inputs > outputs:
		return Balance{Sign: SignPositive, Value: inputs - outputs}
	case inputs < outputs:
		return Balance{Sign: SignNegative, Value: outputs - inputs}
	default:
		return Balance{}
	}
}

// IsZero reports whether the balance is exactly zero.
func (b Balance) IsZero() bool {
	return b.Sign == SignZero
}

func (b Balance) String() string {
	switch b.Sign {
	case SignNegative:
		return "-" + b.Value.String()
	case SignPositive:
		return "+" + b.Value.String()
	default:
		return "0"
	}
}
