package cli

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/report"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"empty", nil, ""},
		{"one account", []string{"food"}, "(account=~/food/)"},
		{"two accounts or", []string{"food", "auto"}, "(account=~/food/|account=~/auto/)"},
		{"negated account", []string{"-dining"}, "account!~/dining/"},
		{"mixed", []string{"food", "-dining"}, "(account=~/food/)&account!~/dining/"},
		{"payees", []string{"--", "joe"}, "(payee=~/joe/)"},
		{"accounts and payees", []string{"food", "--", "joe"},
			"(account=~/food/)&(payee=~/joe/)"},
		{"negated payee", []string{"--", "-amazon"}, "payee!~/amazon/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQuery(tt.args)
			assert.Equal(t, got, tt.expected)

			if got != "" {
				_, err := expr.Parse(got)
				assert.NoError(t, err)
			}
		})
	}
}

func TestReportOptionsApply(t *testing.T) {
	options := &ReportOptions{
		Begin:    "2009/01/01",
		End:      "2010/01/01",
		Cleared:  true,
		Monthly:  true,
		Collapse: true,
		Sort:     "d",
		Head:     5,
		Format:   "%D\n",
	}

	r := report.NewReport(journal.New())
	assert.NoError(t, options.apply(r))

	assert.Equal(t, r.Predicate, "((d>=[2009/01/01])&(d<[2010/01/01]))&(X)")
	assert.Equal(t, r.ReportPeriod, "monthly")
	assert.True(t, r.ShowCollapsed)
	assert.Equal(t, r.SortString, "d")
	assert.Equal(t, r.HeadEntries, 5)
	assert.Equal(t, r.FormatString, "%D\n")
}

func TestReportOptionsApplyBases(t *testing.T) {
	r := report.NewReport(journal.New())
	assert.NoError(t, (&ReportOptions{Cost: true}).apply(r))
	assert.Equal(t, r.AmountExpr.Text, "b")

	r = report.NewReport(journal.New())
	assert.NoError(t, (&ReportOptions{Market: true}).apply(r))
	assert.Equal(t, r.AmountExpr.Text, "v")
	assert.True(t, r.MarketValues)
}

func TestReportOptionsApplyInvalid(t *testing.T) {
	r := report.NewReport(journal.New())
	assert.Error(t, (&ReportOptions{Amount: "1 +"}).apply(r))
}
