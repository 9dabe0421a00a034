package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/report"
)

func TestLoadBytes(t *testing.T) {
	j, err := LoadBytes("test.ledger", []byte(`
2009/01/01 Grocery Store
    Expenses:Food  10.00 USD
    Assets:Cash
`))
	assert.NoError(t, err)
	assert.Equal(t, len(j.Entries), 1)

	r := NewReport(j)
	var names []string
	err = r.AccountsReport(context.Background(), report.AccountHandlerFunc(func(a *journal.Account) error {
		names = append(names, a.FullName())
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, names, []string{"Assets", "Assets:Cash", "Expenses", "Expenses:Food"})
}

func TestLoadBytesError(t *testing.T) {
	_, err := LoadBytes("bad.ledger", []byte("nonsense directive\n"))
	assert.Error(t, err)
}
