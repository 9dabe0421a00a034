package journal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the variants a Value can hold.
type ValueKind int

const (
	ValueVoid ValueKind = iota
	ValueBool
	ValueInt
	ValueAmount
	ValueBalance
	ValueString
	ValueDate
	ValueDateTime
	ValueSequence
)

func (k ValueKind) String() string {
	switch k {
	case ValueVoid:
		return "void"
	case ValueBool:
		return "bool"
	case ValueInt:
		return "int"
	case ValueAmount:
		return "amount"
	case ValueBalance:
		return "balance"
	case ValueString:
		return "string"
	case ValueDate:
		return "date"
	case ValueDateTime:
		return "datetime"
	case ValueSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Value is the tagged variant consumed and produced by value expressions and
// pipeline stages. Values are immutable; operations return new values.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	amt  Amount
	bal  *Balance
	s    string
	t    time.Time
	seq  []Value
}

// Constructors.

func VoidValue() Value                { return Value{kind: ValueVoid} }
func BoolValue(b bool) Value          { return Value{kind: ValueBool, b: b} }
func IntValue(i int64) Value          { return Value{kind: ValueInt, i: i} }
func AmountValue(a Amount) Value      { return Value{kind: ValueAmount, amt: a} }
func BalanceValue(b *Balance) Value   { return Value{kind: ValueBalance, bal: b} }
func StringValue(s string) Value      { return Value{kind: ValueString, s: s} }
func DateValue(t time.Time) Value     { return Value{kind: ValueDate, t: t} }
func DateTimeValue(t time.Time) Value { return Value{kind: ValueDateTime, t: t} }
func SequenceValue(vs []Value) Value  { return Value{kind: ValueSequence, seq: vs} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// TypeError reports an operation applied to an unsupported variant.
type TypeError struct {
	Op   string
	Kind ValueKind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("cannot apply %s to a %s value", e.Op, e.Kind)
}

// Accessors. Each returns the variant's payload; the boolean reports whether
// the value holds that variant.

func (v Value) AsBool() (bool, bool)        { return v.b, v.kind == ValueBool }
func (v Value) AsInt() (int64, bool)        { return v.i, v.kind == ValueInt }
func (v Value) AsAmount() (Amount, bool)    { return v.amt, v.kind == ValueAmount }
func (v Value) AsBalance() (*Balance, bool) { return v.bal, v.kind == ValueBalance }
func (v Value) AsString() (string, bool)    { return v.s, v.kind == ValueString }
func (v Value) AsSequence() ([]Value, bool) { return v.seq, v.kind == ValueSequence }

// AsDate returns the time payload for date and datetime values.
func (v Value) AsDate() (time.Time, bool) {
	return v.t, v.kind == ValueDate || v.kind == ValueDateTime
}

// Truth reports the truthiness used by predicates: false/zero/empty values
// are false, everything else true.
func (v Value) Truth() bool {
	switch v.kind {
	case ValueVoid:
		return false
	case ValueBool:
		return v.b
	case ValueInt:
		return v.i != 0
	case ValueAmount:
		return !v.amt.IsZero()
	case ValueBalance:
		return !v.bal.IsZero()
	case ValueString:
		return v.s != ""
	case ValueDate, ValueDateTime:
		return !v.t.IsZero()
	case ValueSequence:
		return len(v.seq) > 0
	}
	return false
}

// IsZero reports whether a numeric value is zero. Non-numeric values are
// never zero.
func (v Value) IsZero() bool {
	switch v.kind {
	case ValueVoid:
		return true
	case ValueInt:
		return v.i == 0
	case ValueAmount:
		return v.amt.IsZero()
	case ValueBalance:
		return v.bal.IsZero()
	}
	return false
}

// Add combines two numeric values. Amounts of different commodities promote
// the result to a balance; balances absorb amounts and other balances.
func (v Value) Add(other Value) (Value, error) {
	switch v.kind {
	case ValueVoid:
		return other, nil
	case ValueInt:
		if o, ok := other.AsInt(); ok {
			return IntValue(v.i + o), nil
		}
	case ValueAmount:
		switch other.kind {
		case ValueVoid:
			return v, nil
		case ValueAmount:
			if sum, err := v.amt.Add(other.amt); err == nil {
				return AmountValue(sum), nil
			}
			bal := NewBalance()
			bal.Add(v.amt)
			bal.Add(other.amt)
			return BalanceValue(bal), nil
		case ValueBalance:
			bal := other.bal.Copy()
			bal.Add(v.amt)
			return BalanceValue(bal), nil
		}
	case ValueBalance:
		switch other.kind {
		case ValueVoid:
			return v, nil
		case ValueAmount:
			bal := v.bal.Copy()
			bal.Add(other.amt)
			return BalanceValue(bal), nil
		case ValueBalance:
			bal := v.bal.Copy()
			bal.Merge(other.bal)
			return BalanceValue(bal), nil
		}
	}
	return Value{}, &TypeError{Op: "+", Kind: v.kind}
}

// Sub subtracts a numeric value under the same promotion rules as Add.
func (v Value) Sub(other Value) (Value, error) {
	return v.Add(other.Negated())
}

// Negated flips the sign of a numeric value; other kinds pass through
// unchanged.
func (v Value) Negated() Value {
	switch v.kind {
	case ValueInt:
		return IntValue(-v.i)
	case ValueAmount:
		return AmountValue(v.amt.Negated())
	case ValueBalance:
		return BalanceValue(v.bal.Negated())
	}
	return v
}

// Compare orders two values of compatible kinds. Returns <0, 0, >0.
func (v Value) Compare(other Value) (int, error) {
	switch v.kind {
	case ValueInt:
		switch other.kind {
		case ValueInt:
			switch {
			case v.i < other.i:
				return -1, nil
			case v.i > other.i:
				return 1, nil
			}
			return 0, nil
		case ValueAmount:
			return decimal.NewFromInt(v.i).Cmp(other.amt.Number), nil
		}
	case ValueAmount:
		switch other.kind {
		case ValueAmount:
			return v.amt.Cmp(other.amt)
		case ValueInt:
			return v.amt.Number.Cmp(decimal.NewFromInt(other.i)), nil
		}
	case ValueString:
		if o, ok := other.AsString(); ok {
			switch {
			case v.s < o:
				return -1, nil
			case v.s > o:
				return 1, nil
			}
			return 0, nil
		}
	case ValueDate, ValueDateTime:
		if o, ok := other.AsDate(); ok {
			switch {
			case v.t.Before(o):
				return -1, nil
			case v.t.After(o):
				return 1, nil
			}
			return 0, nil
		}
	}
	return 0, &TypeError{Op: "compare", Kind: v.kind}
}

// ToBalance widens the value to a balance. Void becomes an empty balance.
func (v Value) ToBalance() (*Balance, error) {
	switch v.kind {
	case ValueVoid:
		return NewBalance(), nil
	case ValueAmount:
		bal := NewBalance()
		bal.Add(v.amt)
		return bal, nil
	case ValueBalance:
		return v.bal, nil
	}
	return nil, &TypeError{Op: "balance conversion", Kind: v.kind}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case ValueVoid:
		return ""
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueAmount:
		return v.amt.String()
	case ValueBalance:
		return v.bal.String()
	case ValueString:
		return v.s
	case ValueDate:
		return v.t.Format("2006/01/02")
	case ValueDateTime:
		return v.t.Format("2006/01/02 15:04:05")
	case ValueSequence:
		out := ""
		for i, e := range v.seq {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out
	}
	return ""
}
