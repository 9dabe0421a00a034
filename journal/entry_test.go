package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFinalizeInfersElidedAmount(t *testing.T) {
	j := New()
	usd := j.Pool.FindOrCreate("USD")

	e := NewEntry(date(2009, time.January, 1), "Store")
	e.AddPosting(&Posting{
		Account: j.FindAccount("Expenses:Food", true),
		Amount:  NewAmount(decimal.RequireFromString("10.00"), usd),
	})
	e.AddPosting(&Posting{Account: j.FindAccount("Assets:Cash", true)})

	assert.NoError(t, j.AddEntry(e))

	cash := e.Postings[1]
	assert.True(t, cash.Amount.Number.Equal(decimal.RequireFromString("-10.00")))
	assert.Equal(t, cash.Amount.Commodity, usd)
	assert.NotZero(t, cash.Flags&PostingCalculated)
}

func TestFinalizeMultiCommodityElision(t *testing.T) {
	j := New()
	usd := j.Pool.FindOrCreate("USD")
	eur := j.Pool.FindOrCreate("EUR")

	e := NewEntry(date(2009, time.January, 1), "Exchange")
	e.AddPosting(&Posting{
		Account: j.FindAccount("Expenses:A", true),
		Amount:  NewAmount(decimal.NewFromInt(10), usd),
	})
	e.AddPosting(&Posting{
		Account: j.FindAccount("Expenses:B", true),
		Amount:  NewAmount(decimal.NewFromInt(5), eur),
	})
	e.AddPosting(&Posting{Account: j.FindAccount("Assets:Cash", true)})

	assert.NoError(t, j.AddEntry(e))

	// One inferred posting per commodity.
	assert.Equal(t, len(e.Postings), 4)
	remainder := NewBalance()
	for _, p := range e.Postings {
		remainder.Add(p.CostAmount())
	}
	assert.True(t, remainder.IsZero())
}

func TestFinalizeRejectsTwoElided(t *testing.T) {
	j := New()
	usd := j.Pool.FindOrCreate("USD")

	e := NewEntry(date(2009, time.January, 1), "Broken")
	e.AddPosting(&Posting{
		Account: j.FindAccount("Expenses:Food", true),
		Amount:  NewAmount(decimal.NewFromInt(10), usd),
	})
	e.AddPosting(&Posting{Account: j.FindAccount("Assets:Cash", true)})
	e.AddPosting(&Posting{Account: j.FindAccount("Assets:Other", true)})

	assert.Error(t, j.AddEntry(e))
}

func TestVerifyUnbalanced(t *testing.T) {
	j := New()
	usd := j.Pool.FindOrCreate("USD")

	e := NewEntry(date(2009, time.January, 1), "Off by one")
	e.AddPosting(&Posting{
		Account: j.FindAccount("Expenses:Food", true),
		Amount:  NewAmount(decimal.NewFromInt(10), usd),
	})
	e.AddPosting(&Posting{
		Account: j.FindAccount("Assets:Cash", true),
		Amount:  NewAmount(decimal.NewFromInt(-9), usd),
	})

	err := e.Verify()
	assert.Error(t, err)
	var uerr *UnbalancedError
	assert.True(t, errors.As(err, &uerr))
	assert.False(t, uerr.Remainder.IsZero())
}

func TestVerifyVirtualExemption(t *testing.T) {
	j := New()
	usd := j.Pool.FindOrCreate("USD")

	e := NewEntry(date(2009, time.January, 1), "Budget")
	e.AddPosting(&Posting{
		Account: j.FindAccount("Expenses:Food", true),
		Amount:  NewAmount(decimal.NewFromInt(10), usd),
	})
	e.AddPosting(&Posting{
		Account: j.FindAccount("Assets:Cash", true),
		Amount:  NewAmount(decimal.NewFromInt(-10), usd),
	})
	e.AddPosting(&Posting{
		Account: j.FindAccount("Budget:Food", true),
		Amount:  NewAmount(decimal.NewFromInt(99), usd),
		Flags:   PostingVirtual,
	})

	assert.NoError(t, e.Verify())

	// Bracketed virtual postings still participate.
	e.Postings[2].Flags |= PostingMustBalance
	assert.Error(t, e.Verify())
}

func TestVerifyCostConversion(t *testing.T) {
	j := New()
	aapl := j.Pool.FindOrCreate("AAPL")
	usd := j.Pool.FindOrCreate("USD")

	cost := NewAmount(decimal.NewFromInt(500), usd)
	e := NewEntry(date(2009, time.January, 1), "Broker")
	e.AddPosting(&Posting{
		Account: j.FindAccount("Assets:Broker", true),
		Amount:  NewAmount(decimal.NewFromInt(10), aapl),
		Cost:    &cost,
	})
	e.AddPosting(&Posting{
		Account: j.FindAccount("Assets:Cash", true),
		Amount:  NewAmount(decimal.NewFromInt(-500), usd),
	})

	assert.NoError(t, e.Verify())
}

func TestPostingDatePrecedence(t *testing.T) {
	e := NewEntry(date(2009, time.January, 1), "Store")
	effective := date(2009, time.January, 15)
	e.EffectiveDate = &effective

	p := &Posting{}
	e.AddPosting(p)
	assert.Equal(t, p.Date(), effective)

	own := date(2009, time.January, 20)
	p.EffectiveDate = &own
	assert.Equal(t, p.Date(), own)
}

func TestClearedPrecedence(t *testing.T) {
	e := NewEntry(date(2009, time.January, 1), "Store")
	p := &Posting{}
	e.AddPosting(p)
	assert.False(t, p.Cleared())

	e.State = Cleared
	assert.True(t, p.Cleared())

	e.State = Uncleared
	p.Flags |= PostingCleared
	assert.True(t, p.Cleared())
}
