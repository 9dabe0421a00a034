package report

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/parse"
)

const sampleJournal = `
2009/01/01 Grocery Store
    Expenses:Food  10.00 USD
    Assets:Cash

2009/02/01 Restaurant
    Expenses:Food  20.00 USD
    Assets:Cash

2009/02/15 Gas Station
    Expenses:Auto  15.00 USD
    Assets:Cash
`

func loadJournal(t *testing.T, source string) *journal.Journal {
	t.Helper()
	j := journal.New()
	assert.NoError(t, parse.NewParser(j).Parse("test.ledger", []byte(source)))
	return j
}

// row snapshots a posting at acceptance time; xdata is cleared once the
// report finishes, so nothing may be read from postings afterwards.
type row struct {
	date    string
	payee   string
	account string
	amount  string
	total   string
}

type captureRows struct {
	rows    []row
	flushed bool
}

func (c *captureRows) Accept(p *journal.Posting) error {
	r := row{
		date:    p.Date().Format("2006/01/02"),
		account: p.ReportedAccount().FullName(),
		amount:  p.DisplayAmount().String(),
	}
	if p.Entry != nil {
		r.payee = p.Entry.Payee
	}
	if p.HasXdata() {
		r.total = p.Xdata().Total.String()
	}
	c.rows = append(c.rows, r)
	return nil
}

func (c *captureRows) Flush() error {
	c.flushed = true
	return nil
}

func TestRegisterRunningTotal(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.True(t, capture.flushed)
	assert.Equal(t, len(capture.rows), 6)

	totals := make([]string, len(capture.rows))
	for i, row := range capture.rows {
		totals[i] = row.total
	}
	assert.Equal(t, totals, []string{
		"10.00 USD", "0.00 USD",
		"20.00 USD", "0.00 USD",
		"15.00 USD", "0.00 USD",
	})
}

func TestLimitPredicate(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.Predicate = `account =~ /Food/`
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 2)

	// Filtered postings never reach the calculator, so the running total
	// covers only what matched.
	assert.Equal(t, capture.rows[0].total, "10.00 USD")
	assert.Equal(t, capture.rows[1].total, "30.00 USD")
}

func TestMonthlyBuckets(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.ReportPeriod = "monthly"
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 5)

	// One synthetic posting per bucket per account, accounts in name order
	// within each bucket.
	assert.Equal(t, capture.rows[0], row{
		date: "2009/01/01", payee: "- 2009/01/01",
		account: "Assets:Cash", amount: "-10.00 USD", total: "-10.00 USD",
	})
	assert.Equal(t, capture.rows[1].account, "Expenses:Food")
	assert.Equal(t, capture.rows[1].amount, "10.00 USD")

	assert.Equal(t, capture.rows[2].payee, "- 2009/02/01")
	assert.Equal(t, capture.rows[2].account, "Assets:Cash")
	assert.Equal(t, capture.rows[2].amount, "-35.00 USD")
	assert.Equal(t, capture.rows[3].account, "Expenses:Auto")
	assert.Equal(t, capture.rows[4].account, "Expenses:Food")

	assert.Equal(t, capture.rows[4].total, "0.00 USD")
}

func TestHeadTailTruncation(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.TailEntries = 1
	capture := &captureRows{}

	assert.NoError(t, r.PostingsReport(context.Background(), capture))
	assert.Equal(t, len(capture.rows), 2)

	// Truncation caps what reaches the formatter; the running total still
	// covers the whole stream.
	assert.Equal(t, capture.rows[0].account, "Expenses:Auto")
	assert.Equal(t, capture.rows[0].total, "15.00 USD")
	assert.Equal(t, capture.rows[1].total, "0.00 USD")
}

type captureAccounts struct {
	names   []string
	totals  []string
	flushed bool
}

func (c *captureAccounts) Accept(a *journal.Account) error {
	c.names = append(c.names, a.FullName())
	c.totals = append(c.totals, a.Xdata().Total.String())
	return nil
}

func (c *captureAccounts) Flush() error {
	c.flushed = true
	return nil
}

func TestAccountsReport(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	capture := &captureAccounts{}

	assert.NoError(t, r.AccountsReport(context.Background(), capture))
	assert.True(t, capture.flushed)

	assert.Equal(t, capture.names, []string{
		"Assets", "Assets:Cash",
		"Expenses", "Expenses:Auto", "Expenses:Food",
	})
	assert.Equal(t, capture.totals[0], "-45.00 USD")
	assert.Equal(t, capture.totals[2], "45.00 USD")
	assert.Equal(t, capture.totals[4], "30.00 USD")
}

func TestAccountsReportSorted(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.SortString = "-T"
	capture := &captureAccounts{}

	assert.NoError(t, r.AccountsReport(context.Background(), capture))

	// Largest totals first, per level.
	assert.Equal(t, capture.names, []string{
		"Expenses", "Expenses:Food", "Expenses:Auto",
		"Assets", "Assets:Cash",
	})
}

func TestAccountsReportDisplayPredicate(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	r.DisplayPredicate = `account =~ /Expenses/`
	capture := &captureAccounts{}

	assert.NoError(t, r.AccountsReport(context.Background(), capture))
	assert.Equal(t, capture.names, []string{"Expenses", "Expenses:Auto", "Expenses:Food"})
}

func TestAppendPredicateParenthesises(t *testing.T) {
	r := NewReport(journal.New())
	r.AppendPredicate("d>=[2009/01/01]")
	assert.Equal(t, r.Predicate, "d>=[2009/01/01]")

	r.AppendPredicate("X")
	assert.Equal(t, r.Predicate, "(d>=[2009/01/01])&(X)")
}

func TestReportClock(t *testing.T) {
	r := NewReport(journal.New())
	fixed := time.Date(2009, time.June, 1, 0, 0, 0, 0, time.UTC)
	r.Clock = func() time.Time { return fixed }
	assert.Equal(t, r.Now(), fixed)
}

func TestCommoditiesReport(t *testing.T) {
	r := NewReport(loadJournal(t, sampleJournal))
	assert.Equal(t, r.CommoditiesReport(), []string{"USD"})
}
