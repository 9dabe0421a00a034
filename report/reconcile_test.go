package report

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/shopspring/decimal"
)

// reconcilePosting builds a standalone dated posting without going through
// entry finalization, so test streams need not balance.
func reconcilePosting(j *journal.Journal, date time.Time, amount string) *journal.Posting {
	e := journal.NewEntry(date, "Test")
	p := &journal.Posting{
		Account: j.FindAccount("Assets:Checking", true),
		Amount:  journal.NewAmount(decimal.RequireFromString(amount), j.Pool.FindOrCreate("USD")),
	}
	e.AddPosting(p)
	return p
}

func target(n string) journal.Value {
	return journal.AmountValue(journal.Amount{Number: decimal.RequireFromString(n)})
}

func TestReconcileToTarget(t *testing.T) {
	j := journal.New()
	r := NewReport(j)
	capture := &captureRows{}
	rec := NewReconcilePostings(capture, r, target("0"), date(2009, time.December, 31))

	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.January, 1), "100")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.February, 1), "-30")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.March, 1), "-70")))
	assert.NoError(t, rec.Flush())

	// The cumulative sum reaches zero only after all three postings.
	assert.Equal(t, len(capture.rows), 3)
	assert.True(t, capture.flushed)
}

func TestReconcilePartialPrefix(t *testing.T) {
	j := journal.New()
	r := NewReport(j)
	capture := &captureRows{}
	rec := NewReconcilePostings(capture, r, target("70"), date(2009, time.December, 31))

	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.January, 1), "100")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.February, 1), "-30")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.March, 1), "-70")))
	assert.NoError(t, rec.Flush())

	assert.Equal(t, len(capture.rows), 2)
	assert.Equal(t, capture.rows[1].amount, "-30 USD")
}

func TestReconcileNoSubset(t *testing.T) {
	j := journal.New()
	r := NewReport(j)
	rec := NewReconcilePostings(&captureRows{}, r, target("55"), date(2009, time.December, 31))

	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.January, 1), "100")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.February, 1), "-30")))

	err := rec.Flush()
	var rerr *ReconcileError
	assert.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Reason, "no subset")
}

func TestReconcileAmbiguous(t *testing.T) {
	j := journal.New()
	r := NewReport(j)
	rec := NewReconcilePostings(&captureRows{}, r, target("100"), date(2009, time.December, 31))

	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.January, 1), "50")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.February, 1), "50")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.March, 1), "-100")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.April, 1), "100")))

	err := rec.Flush()
	var rerr *ReconcileError
	assert.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Reason, "more than one")
}

func TestReconcileCutoffDropsLaterPostings(t *testing.T) {
	j := journal.New()
	r := NewReport(j)
	capture := &captureRows{}
	rec := NewReconcilePostings(capture, r, target("70"), date(2009, time.February, 28))

	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.January, 1), "100")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.February, 1), "-30")))
	assert.NoError(t, rec.Accept(reconcilePosting(j, date(2009, time.June, 1), "-70")))
	assert.NoError(t, rec.Flush())

	assert.Equal(t, len(capture.rows), 2)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
