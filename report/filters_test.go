package report

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestCollapseEntries(t *testing.T) {
	j := loadJournal(t, `
2009/01/01 Grocery Store
    Expenses:Food  10.00 USD
    Assets:Cash

2009/03/01 Supermarket
    Expenses:Food  30.00 USD
    Expenses:Household  5.00 USD
    Assets:Cash
`)
	r := NewReport(j)
	r.Predicate = `account =~ /Expenses/`
	r.ShowCollapsed = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 2)

	// Single postings pass through; multi-posting entries collapse into one
	// synthetic posting carrying the entry's subtotal.
	assert.Equal(t, capture.rows[0].account, "Expenses:Food")
	assert.Equal(t, capture.rows[0].amount, "10.00 USD")
	assert.Equal(t, capture.rows[1].account, "<Total>")
	assert.Equal(t, capture.rows[1].amount, "35.00 USD")
	assert.Equal(t, capture.rows[1].total, "45.00 USD")
}

func TestRelatedPostings(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.Predicate = `account =~ /Food/`
	r.ShowRelated = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 2)

	// Each matching posting is replaced by the other legs of its entry.
	assert.Equal(t, capture.rows[0].account, "Assets:Cash")
	assert.Equal(t, capture.rows[0].amount, "-10.00 USD")
	assert.Equal(t, capture.rows[1].account, "Assets:Cash")
	assert.Equal(t, capture.rows[1].amount, "-20.00 USD")
}

func TestRelatedAllIncludesSelf(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.Predicate = `account =~ /Auto/`
	r.ShowRelated = true
	r.ShowAllRelated = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 2)
	assert.Equal(t, capture.rows[0].account, "Expenses:Auto")
	assert.Equal(t, capture.rows[1].account, "Assets:Cash")
}

func TestSubtotalPostings(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.ShowSubtotal = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 3)

	// One posting per account, in name order, against a single synthetic
	// entry spanning the stream.
	assert.Equal(t, capture.rows[0].account, "Assets:Cash")
	assert.Equal(t, capture.rows[0].amount, "-45.00 USD")
	assert.Equal(t, capture.rows[1].account, "Expenses:Auto")
	assert.Equal(t, capture.rows[2].account, "Expenses:Food")
	assert.Equal(t, capture.rows[2].amount, "30.00 USD")
	assert.Equal(t, capture.rows[0].payee, "- 2009/02/15")
	assert.Equal(t, capture.rows[0].date, "2009/01/01")
}

func TestDowPostings(t *testing.T) {
	// 2009/01/01 was a Thursday, 2009/02/01 and 2009/02/15 Sundays.
	r := NewReport(loadJournal(t, sampleJournal))
	r.DaysOfTheWeek = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))

	payees := map[string]bool{}
	for _, row := range capture.rows {
		payees[row.payee] = true
	}
	assert.Equal(t, payees, map[string]bool{"Sunday": true, "Thursday": true})

	// Sunday (weekday 0) is emitted before Thursday.
	assert.Equal(t, capture.rows[0].payee, "Sunday")
	assert.Equal(t, capture.rows[0].account, "Assets:Cash")
	assert.Equal(t, capture.rows[0].amount, "-35.00 USD")
}

func TestByPayeePostings(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.ByPayee = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))

	// Payees in lexical order, each a subtotal bucket.
	assert.Equal(t, capture.rows[0].payee, "Gas Station")
	assert.Equal(t, capture.rows[0].account, "Assets:Cash")
	assert.Equal(t, capture.rows[0].amount, "-15.00 USD")

	var payees []string
	for _, row := range capture.rows {
		if len(payees) == 0 || payees[len(payees)-1] != row.payee {
			payees = append(payees, row.payee)
		}
	}
	assert.Equal(t, payees, []string{"Gas Station", "Grocery Store", "Restaurant"})
}

func TestSortPostings(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.SortString = "a"
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))

	amounts := make([]string, len(capture.rows))
	for i, row := range capture.rows {
		amounts[i] = row.amount
	}
	assert.Equal(t, amounts, []string{
		"-20.00 USD", "-15.00 USD", "-10.00 USD",
		"10.00 USD", "15.00 USD", "20.00 USD",
	})
}

func TestSortEntriesKeepsGroups(t *testing.T) {
	j := loadJournal(t, `
2009/03/01 Gas Station
    Expenses:Auto  15.00 USD
    Assets:Cash

2009/01/01 Grocery Store
    Expenses:Food  10.00 USD
    Assets:Cash
`)
	r := NewReport(j)
	r.SortString = "d"
	r.EntrySort = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 4)

	// Entries are reordered as units; legs stay adjacent.
	assert.Equal(t, capture.rows[0].payee, "Grocery Store")
	assert.Equal(t, capture.rows[1].payee, "Grocery Store")
	assert.Equal(t, capture.rows[2].payee, "Gas Station")
	assert.Equal(t, capture.rows[3].payee, "Gas Station")
}

func TestInvertPostings(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.Predicate = `account =~ /Food/`
	r.ShowInverted = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 2)
	assert.Equal(t, capture.rows[0].amount, "-10.00 USD")
	assert.Equal(t, capture.rows[1].amount, "-20.00 USD")
	assert.Equal(t, capture.rows[1].total, "-30.00 USD")
}

func TestAnonymizePostings(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.Anonymize = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 6)

	hexName := regexp.MustCompile(`^[0-9a-f]{16}$`)
	for _, row := range capture.rows {
		assert.True(t, hexName.MatchString(row.payee))
	}

	// The mapping is stable: the same account always maps to the same
	// pseudonym, and distinct accounts stay distinct.
	assert.Equal(t, capture.rows[1].account, capture.rows[3].account)
	assert.NotEqual(t, capture.rows[0].account, capture.rows[1].account)
	assert.NotEqual(t, capture.rows[0].account, "Expenses:Food")

	// Amounts pass through untouched.
	assert.Equal(t, capture.rows[0].amount, "10.00 USD")
}

func TestCommodityAsPayee(t *testing.T) {
	j := loadJournal(t, `
2009/01/01 Exchange
    Assets:USD  10.00 USD
    Assets:EUR  -8.00 EUR
    Equity:Conversion  -10.00 USD
    Equity:Conversion  8.00 EUR
`)
	r := NewReport(j)
	r.CommAsPayee = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 4)
	assert.Equal(t, capture.rows[0].payee, "USD")
	assert.Equal(t, capture.rows[1].payee, "EUR")
}

func TestCodeAsPayee(t *testing.T) {
	j := loadJournal(t, `
2009/01/01 (100) Grocery Store
    Expenses:Food  10.00 USD
    Assets:Cash
`)
	r := NewReport(j)
	r.CodeAsPayee = true
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 2)
	assert.Equal(t, capture.rows[0].payee, "100")
}

func TestComponentDrilldown(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.ShowSubtotal = true
	r.DescendExpr = `account =~ /Food/`
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))

	// The subtotal for Expenses:Food is expanded back into the postings
	// that produced it; the other buckets are dropped by the predicate.
	assert.Equal(t, len(capture.rows), 2)
	assert.Equal(t, capture.rows[0].account, "Expenses:Food")
	assert.Equal(t, capture.rows[0].amount, "10.00 USD")
	assert.Equal(t, capture.rows[1].amount, "20.00 USD")
}

const brokerJournal = `
P 2008/12/31 AAPL 50.00 USD

2009/01/01 Buy Shares
    Assets:Broker  10 AAPL @ 50.00 USD
    Assets:Cash

P 2009/01/15 AAPL 100.00 USD

2009/02/01 Buy More
    Assets:Broker  10 AAPL @ 100.00 USD
    Assets:Cash
`

func TestRevaluedPostings(t *testing.T) {
	r := NewReport(loadJournal(t, brokerJournal))
	r.Predicate = `account =~ /Broker/`
	r.ShowRevalued = true
	r.Clock = func() time.Time { return date(2009, time.March, 1) }
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 3)

	// The price doubling between the two buys shows up as a synthetic
	// posting carrying the held total's change in market value.
	assert.Equal(t, capture.rows[0].amount, "10 AAPL")
	assert.Equal(t, capture.rows[1].payee, "Commodities revalued")
	assert.Equal(t, capture.rows[1].account, "<Revalued>")
	assert.Equal(t, capture.rows[1].date, "2009/02/01")
	assert.Equal(t, capture.rows[1].amount, "500.00 USD")
	assert.Equal(t, capture.rows[2].amount, "10 AAPL")
}

func TestRevaluedOnlyPostings(t *testing.T) {
	r := NewReport(loadJournal(t, brokerJournal))
	r.Predicate = `account =~ /Broker/`
	r.ShowRevalued = true
	r.ShowRevaluedOnly = true
	r.Clock = func() time.Time { return date(2009, time.March, 1) }
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))

	// Only the synthetic revaluation postings come through, and the
	// running total is theirs alone.
	assert.Equal(t, len(capture.rows), 1)
	assert.Equal(t, capture.rows[0].payee, "Commodities revalued")
	assert.Equal(t, capture.rows[0].amount, "500.00 USD")
	assert.Equal(t, capture.rows[0].total, "500.00 USD")
}

func TestDisplayPredicateAfterTotals(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.DisplayPredicate = `account =~ /Expenses/`
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 3)

	// Unlike the primary predicate, the display predicate filters after
	// calculation, so the running totals still cover the cash legs.
	totals := make([]string, len(capture.rows))
	for i, row := range capture.rows {
		totals[i] = row.total
	}
	assert.Equal(t, totals, []string{"10.00 USD", "20.00 USD", "15.00 USD"})
}

func TestConflictingGroupingsRejected(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.ShowSubtotal = true
	r.ByPayee = true

	err := r.PostingsReport(context.Background(), &captureRows{})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "mutually exclusive"))
}
