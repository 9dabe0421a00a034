package journal

import (
	"sort"
	"strings"
)

// Balance is a mapping of commodity to amount. It stores amounts in a slice
// sorted by commodity symbol for deterministic iteration and display.
type Balance struct {
	entries []Amount
}

// NewBalance creates an empty balance.
func NewBalance() *Balance {
	return &Balance{}
}

// Get returns the amount held in the given commodity, zero if absent.
func (b *Balance) Get(c *Commodity) Amount {
	for _, e := range b.entries {
		if e.Commodity == c {
			return e
		}
	}
	return Amount{Commodity: c}
}

// Add accumulates an amount into the balance.
func (b *Balance) Add(a Amount) {
	if a.Commodity == nil && a.Number.IsZero() {
		return
	}
	for i, e := range b.entries {
		if e.Commodity == a.Commodity {
			b.entries[i].Number = e.Number.Add(a.Number)
			return
		}
	}
	b.entries = append(b.entries, a)
	sort.Slice(b.entries, func(i, j int) bool {
		return b.entries[i].Commodity.String() < b.entries[j].Commodity.String()
	})
}

// Merge accumulates every amount of other into b.
func (b *Balance) Merge(other *Balance) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		b.Add(e)
	}
}

// Negated returns a new balance with every amount negated.
func (b *Balance) Negated() *Balance {
	out := NewBalance()
	for _, e := range b.entries {
		out.Add(e.Negated())
	}
	return out
}

// IsZero reports whether all amounts are zero (or the balance is empty).
func (b *Balance) IsZero() bool {
	for _, e := range b.entries {
		if !e.Number.IsZero() {
			return false
		}
	}
	return true
}

// Amounts returns the amounts sorted by commodity symbol. Zero amounts are
// retained so callers can distinguish "held then spent" from "never held".
func (b *Balance) Amounts() []Amount {
	return b.entries
}

// Copy returns a deep copy of the balance.
func (b *Balance) Copy() *Balance {
	if b == nil {
		return NewBalance()
	}
	out := &Balance{entries: make([]Amount, len(b.entries))}
	copy(out.entries, b.entries)
	return out
}

// String joins the amounts with ", ", or "0" for an empty balance.
func (b *Balance) String() string {
	if len(b.entries) == 0 {
		return "0"
	}
	parts := make([]string, len(b.entries))
	for i, e := range b.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
