package journal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a signed decimal quantity of a single commodity. Amounts are
// value-semantic; arithmetic returns new amounts and never mutates the
// receiver. A nil commodity denotes a bare number.
type Amount struct {
	Number    decimal.Decimal
	Commodity *Commodity
}

// NewAmount creates an amount of the given commodity.
func NewAmount(number decimal.Decimal, commodity *Commodity) Amount {
	return Amount{Number: number, Commodity: commodity}
}

// MismatchError reports arithmetic over two different commodities without a
// conversion.
type MismatchError struct {
	Left, Right *Commodity
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot combine amounts in %q and %q without a price", e.Left.String(), e.Right.String())
}

// Add returns a + b. Both amounts must share a commodity; adding a zero
// amount with no commodity is always allowed.
func (a Amount) Add(b Amount) (Amount, error) {
	switch {
	case b.Commodity == nil && b.Number.IsZero():
		return a, nil
	case a.Commodity == nil && a.Number.IsZero():
		return b, nil
	case a.Commodity != b.Commodity:
		return Amount{}, &MismatchError{Left: a.Commodity, Right: b.Commodity}
	}
	return Amount{Number: a.Number.Add(b.Number), Commodity: a.Commodity}, nil
}

// Sub returns a - b under the same commodity rules as Add.
func (a Amount) Sub(b Amount) (Amount, error) {
	return a.Add(b.Negated())
}

// Negated returns the amount with its sign flipped.
func (a Amount) Negated() Amount {
	return Amount{Number: a.Number.Neg(), Commodity: a.Commodity}
}

// Abs returns the absolute amount.
func (a Amount) Abs() Amount {
	return Amount{Number: a.Number.Abs(), Commodity: a.Commodity}
}

// Mul returns the amount scaled by a bare factor. The commodity is preserved.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return Amount{Number: a.Number.Mul(factor), Commodity: a.Commodity}
}

// IsZero reports whether the quantity is zero.
func (a Amount) IsZero() bool {
	return a.Number.IsZero()
}

// Sign returns -1, 0 or 1.
func (a Amount) Sign() int {
	return a.Number.Sign()
}

// Cmp compares two amounts of the same commodity.
func (a Amount) Cmp(b Amount) (int, error) {
	if a.Commodity != b.Commodity && a.Commodity != nil && b.Commodity != nil {
		return 0, &MismatchError{Left: a.Commodity, Right: b.Commodity}
	}
	return a.Number.Cmp(b.Number), nil
}

// ParseAmount parses "NUMBER", "NUMBER SYMBOL" or "SYMBOL NUMBER" into an
// amount, interning the commodity in the pool and widening its display
// precision to cover the parsed number.
func ParseAmount(pool *Pool, s string) (Amount, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		number, err := decimal.NewFromString(fields[0])
		if err != nil {
			return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		return Amount{Number: number}, nil
	case 2:
		number, err := decimal.NewFromString(fields[0])
		symbol := fields[1]
		if err != nil {
			symbol = fields[0]
			number, err = decimal.NewFromString(fields[1])
			if err != nil {
				return Amount{}, fmt.Errorf("invalid amount %q", s)
			}
		}
		commodity := pool.FindOrCreate(symbol)
		pool.Observe(symbol, number)
		return Amount{Number: number, Commodity: commodity}, nil
	default:
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
}

// String renders the amount at its commodity's display precision, e.g.
// "10.00 USD". Bare numbers render without a symbol.
func (a Amount) String() string {
	if a.Commodity == nil {
		return a.Number.String()
	}
	return a.Number.StringFixed(a.Commodity.Precision) + " " + a.Commodity.Symbol
}
