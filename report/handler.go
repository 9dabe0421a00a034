// Package report implements the reporting core: a configurable pipeline of
// posting filter/aggregator stages, the drivers that stream a journal
// through it, and the evaluation scope that value expressions and output
// formats resolve names against.
//
// Stages compose by constructor injection; each owns its downstream
// successor. The chain is wrapped head-to-tail: the last handler wrapped is
// the one the driver feeds first, so relative order in the assembler is
// semantically load-bearing (see Chain).
package report

import "github.com/robinvdvleuten/ledger/journal"

// PostingHandler is the uniform stage contract. Accept receives one posting
// in stream order and may buffer or forward zero or more postings
// downstream; it must not mutate the posting's account or entry. Flush
// signals end-of-stream: the stage drains buffered state downstream, then
// flushes its successor. Errors are fatal to the report and propagate
// upward, abandoning buffered state.
type PostingHandler interface {
	Accept(p *journal.Posting) error
	Flush() error
}

// AccountHandler is the uniform contract for account-tree walks.
type AccountHandler interface {
	Accept(a *journal.Account) error
	Flush() error
}

// PostingHandlerFunc adapts a function to a PostingHandler with a no-op
// Flush.
type PostingHandlerFunc func(p *journal.Posting) error

func (f PostingHandlerFunc) Accept(p *journal.Posting) error { return f(p) }
func (f PostingHandlerFunc) Flush() error                    { return nil }

// AccountHandlerFunc adapts a function to an AccountHandler with a no-op
// Flush.
type AccountHandlerFunc func(a *journal.Account) error

func (f AccountHandlerFunc) Accept(a *journal.Account) error { return f(a) }
func (f AccountHandlerFunc) Flush() error                    { return nil }
