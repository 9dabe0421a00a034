package journal

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestLookupPriceForwardFill(t *testing.T) {
	db := NewPriceDB()
	assert.NoError(t, db.AddPrice(date(2009, time.January, 1), "AAPL", "USD", decimal.NewFromInt(90)))
	assert.NoError(t, db.AddPrice(date(2009, time.February, 1), "AAPL", "USD", decimal.NewFromInt(100)))

	// Before any price.
	_, ok := db.LookupPrice(date(2008, time.December, 31), "AAPL", "USD")
	assert.False(t, ok)

	// Exactly on the first price.
	rate, ok := db.LookupPrice(date(2009, time.January, 1), "AAPL", "USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(90)))

	// Between prices: the earlier one carries forward.
	rate, ok = db.LookupPrice(date(2009, time.January, 20), "AAPL", "USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(90)))

	// After the last price.
	rate, ok = db.LookupPrice(date(2009, time.June, 1), "AAPL", "USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(100)))
}

func TestLookupPriceInverse(t *testing.T) {
	db := NewPriceDB()
	assert.NoError(t, db.AddPrice(date(2009, time.January, 1), "USD", "EUR", decimal.RequireFromString("0.8")))

	rate, ok := db.LookupPrice(date(2009, time.January, 1), "EUR", "USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.25")))
}

func TestLookupPriceSameCommodity(t *testing.T) {
	db := NewPriceDB()
	rate, ok := db.LookupPrice(date(2009, time.January, 1), "USD", "USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestAddPriceRejectsZeroRate(t *testing.T) {
	db := NewPriceDB()
	assert.Error(t, db.AddPrice(date(2009, time.January, 1), "USD", "EUR", decimal.Zero))
}

func TestMarketValueWithTarget(t *testing.T) {
	pool := NewPool()
	db := NewPriceDB()
	assert.NoError(t, db.AddPrice(date(2009, time.January, 1), "AAPL", "USD", decimal.NewFromInt(90)))

	aapl := pool.FindOrCreate("AAPL")
	got := db.MarketValue(pool, NewAmount(decimal.NewFromInt(2), aapl), date(2009, time.March, 1), "USD")
	assert.Equal(t, got.Commodity.Symbol, "USD")
	assert.True(t, got.Number.Equal(decimal.NewFromInt(180)))

	// No price for the requested target: the amount passes through.
	got = db.MarketValue(pool, NewAmount(decimal.NewFromInt(2), aapl), date(2009, time.March, 1), "GBP")
	assert.Equal(t, got.Commodity, aapl)
}

func TestMarketValueDefaultTarget(t *testing.T) {
	pool := NewPool()
	db := NewPriceDB()
	assert.NoError(t, db.AddPrice(date(2009, time.January, 1), "AAPL", "USD", decimal.NewFromInt(90)))
	assert.NoError(t, db.AddPrice(date(2009, time.January, 1), "AAPL", "EUR", decimal.NewFromInt(70)))

	// Ambiguous targets resolve deterministically (lexicographic).
	aapl := pool.FindOrCreate("AAPL")
	got := db.MarketValue(pool, NewAmount(decimal.NewFromInt(1), aapl), date(2009, time.March, 1), "")
	assert.Equal(t, got.Commodity.Symbol, "EUR")
	assert.True(t, got.Number.Equal(decimal.NewFromInt(70)))
}

func TestMarketValueOfBalance(t *testing.T) {
	pool := NewPool()
	db := NewPriceDB()
	assert.NoError(t, db.AddPrice(date(2009, time.January, 1), "AAPL", "USD", decimal.NewFromInt(90)))
	assert.NoError(t, db.AddPrice(date(2009, time.January, 1), "EUR", "USD", decimal.RequireFromString("1.25")))

	bal := NewBalance()
	bal.Add(NewAmount(decimal.NewFromInt(2), pool.FindOrCreate("AAPL")))
	bal.Add(NewAmount(decimal.NewFromInt(8), pool.FindOrCreate("EUR")))

	// Both legs convert into USD and collapse into a single amount.
	v, err := db.MarketValueOf(pool, BalanceValue(bal), date(2009, time.March, 1), "USD")
	assert.NoError(t, err)
	assert.Equal(t, v.Kind(), ValueAmount)

	a, ok := v.AsAmount()
	assert.True(t, ok)
	assert.True(t, a.Number.Equal(decimal.NewFromInt(190)))
}
