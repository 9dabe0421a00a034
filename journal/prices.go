package journal

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceDB maintains a temporal index of commodity exchange rates with
// forward-fill lookups (most recent price on or before a given date).
//
// Prices are stored bidirectionally: recording USD→EUR also records the
// inverse EUR→USD edge. Same-commodity conversions always return 1.
type PriceDB struct {
	// rates maps date key to from-symbol to to-symbol to rate.
	rates map[string]map[string]map[string]decimal.Decimal

	// sortedDates keeps the recorded dates in chronological order for
	// forward-fill lookups.
	sortedDates []time.Time
}

// NewPriceDB creates an empty price database.
func NewPriceDB() *PriceDB {
	return &PriceDB{rates: make(map[string]map[string]map[string]decimal.Decimal)}
}

func priceDateKey(t time.Time) string { return t.Format("2006-01-02") }

// AddPrice records that one unit of from was worth rate units of to on the
// given date. Zero rates are rejected.
func (db *PriceDB) AddPrice(date time.Time, from, to string, rate decimal.Decimal) error {
	if rate.IsZero() {
		return fmt.Errorf("price rate must be non-zero: %s %s on %s", from, to, priceDateKey(date))
	}

	key := priceDateKey(date)
	if _, ok := db.rates[key]; !ok {
		db.rates[key] = make(map[string]map[string]decimal.Decimal)
		db.sortedDates = append(db.sortedDates, date)
		sort.Slice(db.sortedDates, func(i, j int) bool {
			return db.sortedDates[i].Before(db.sortedDates[j])
		})
	}
	if db.rates[key][from] == nil {
		db.rates[key][from] = make(map[string]decimal.Decimal)
	}
	if db.rates[key][to] == nil {
		db.rates[key][to] = make(map[string]decimal.Decimal)
	}

	db.rates[key][from][to] = rate
	db.rates[key][to][from] = decimal.NewFromInt(1).Div(rate)
	return nil
}

// LookupPrice returns the rate converting from into to at the given date,
// using the most recent price on or before the date. The boolean reports
// whether such a price exists.
func (db *PriceDB) LookupPrice(date time.Time, from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	for i := len(db.sortedDates) - 1; i >= 0; i-- {
		d := db.sortedDates[i]
		if d.After(date) {
			continue
		}
		if rates, ok := db.rates[priceDateKey(d)][from]; ok {
			if rate, found := rates[to]; found {
				return rate, true
			}
		}
	}
	return decimal.Zero, false
}

// MarketValue converts an amount to its market value at the given date. When
// target names a commodity, conversion is into that commodity; otherwise the
// latest recorded price for the amount's commodity decides the target. The
// amount passes through unchanged when no price is known.
func (db *PriceDB) MarketValue(pool *Pool, a Amount, date time.Time, target string) Amount {
	if a.Commodity == nil {
		return a
	}
	if target != "" {
		if rate, ok := db.LookupPrice(date, a.Commodity.Symbol, target); ok {
			return Amount{Number: a.Number.Mul(rate), Commodity: pool.FindOrCreate(target)}
		}
		return a
	}
	// No explicit target: use the most recent price edge for the commodity.
	for i := len(db.sortedDates) - 1; i >= 0; i-- {
		d := db.sortedDates[i]
		if d.After(date) {
			continue
		}
		if rates, ok := db.rates[priceDateKey(d)][a.Commodity.Symbol]; ok && len(rates) > 0 {
			targets := make([]string, 0, len(rates))
			for to := range rates {
				targets = append(targets, to)
			}
			sort.Strings(targets)
			to := targets[0]
			return Amount{Number: a.Number.Mul(rates[to]), Commodity: pool.FindOrCreate(to)}
		}
	}
	return a
}

// MarketValueOf converts every amount of a value to market prices at the
// given date, summing converted amounts into a single value.
func (db *PriceDB) MarketValueOf(pool *Pool, v Value, date time.Time, target string) (Value, error) {
	switch v.Kind() {
	case ValueAmount:
		a, _ := v.AsAmount()
		return AmountValue(db.MarketValue(pool, a, date, target)), nil
	case ValueBalance:
		bal, _ := v.AsBalance()
		out := VoidValue()
		for _, a := range bal.Amounts() {
			next, err := out.Add(AmountValue(db.MarketValue(pool, a, date, target)))
			if err != nil {
				return Value{}, err
			}
			out = next
		}
		return out, nil
	}
	return v, nil
}
