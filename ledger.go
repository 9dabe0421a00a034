// Package ledger is the convenience facade over the journal model, the
// text parser and the reporting pipeline.
package ledger

import (
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/parse"
	"github.com/robinvdvleuten/ledger/report"
)

// Load reads a journal file, following include directives.
func Load(path string) (*journal.Journal, error) {
	j := journal.New()
	if err := parse.NewParser(j).ParseFile(path); err != nil {
		return nil, err
	}
	return j, nil
}

// LoadBytes parses journal text from a byte buffer.
func LoadBytes(filename string, src []byte) (*journal.Journal, error) {
	j := journal.New()
	if err := parse.NewParser(j).Parse(filename, src); err != nil {
		return nil, err
	}
	return j, nil
}

// NewReport creates a report over a loaded journal with default
// expressions.
func NewReport(j *journal.Journal) *report.Report {
	return report.NewReport(j)
}
