// Package journal provides the data model for the reporting engine: commodities,
// amounts, multi-commodity values, the hierarchical account tree, entries and
// their postings, and the journal that owns them.
//
// All monetary arithmetic uses decimal numbers to avoid floating point
// precision issues. Per-report scratch state (running totals, display amounts,
// component links) hangs off postings and accounts as xdata and is cleared
// between reports.
package journal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Commodity is a unit of measure (currency, share, weight) carried by amounts.
// Commodities are created lazily by a Pool on first reference and are unique
// per symbol within that pool.
type Commodity struct {
	Symbol string

	// Precision is the display precision, widened as amounts with more
	// decimal places are observed.
	Precision int32

	// Annotation carries optional lot details attached to the commodity.
	Annotation *Annotation
}

// Annotation holds optional lot details for an annotated commodity.
type Annotation struct {
	Price *Amount
	Date  *time.Time
	Tag   string
}

// String returns the commodity symbol.
func (c *Commodity) String() string {
	if c == nil {
		return ""
	}
	return c.Symbol
}

// ObservePrecision widens the display precision to at least p.
func (c *Commodity) ObservePrecision(p int32) {
	if c != nil && p > c.Precision {
		c.Precision = p
	}
}

// Pool is a registry of commodities. A journal owns exactly one pool; lookups
// create commodities on demand. The pool is append-only during a report.
type Pool struct {
	commodities map[string]*Commodity
}

// NewPool creates an empty commodity pool.
func NewPool() *Pool {
	return &Pool{commodities: make(map[string]*Commodity)}
}

// Find returns the commodity for symbol, or nil if it has never been seen.
func (p *Pool) Find(symbol string) *Commodity {
	return p.commodities[symbol]
}

// FindOrCreate returns the commodity for symbol, creating it on first
// reference.
func (p *Pool) FindOrCreate(symbol string) *Commodity {
	if c, ok := p.commodities[symbol]; ok {
		return c
	}
	c := &Commodity{Symbol: symbol}
	p.commodities[symbol] = c
	return c
}

// Commodities returns all commodities sorted by symbol.
func (p *Pool) Commodities() []*Commodity {
	out := make([]*Commodity, 0, len(p.commodities))
	for _, c := range p.commodities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Observe records an amount's precision against its commodity so later
// formatting uses at least that many decimal places.
func (p *Pool) Observe(symbol string, number decimal.Decimal) *Commodity {
	c := p.FindOrCreate(symbol)
	if exp := number.Exponent(); exp < 0 {
		c.ObservePrecision(-exp)
	}
	return c
}
