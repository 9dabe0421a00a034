package report

import (
	"fmt"
	"time"

	"github.com/robinvdvleuten/ledger/journal"
)

// ReconcileError reports a failure to reconcile the received postings to the
// target balance at the cutoff date.
type ReconcileError struct {
	Target journal.Value
	Cutoff time.Time
	Reason string
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("could not reconcile to %s as of %s: %s",
		e.Target, e.Cutoff.Format("2006/01/02"), e.Reason)
}

// ReconcilePostings buffers the stream and, on flush, emits the subset of
// postings (in input order) whose cumulative sum, truncated at the cutoff
// date, equals the target balance. It fails when no such subset exists or
// when more than one prefix reaches the target.
type ReconcilePostings struct {
	handler  PostingHandler
	report   *Report
	target   journal.Value
	cutoff   time.Time
	postings []*journal.Posting
}

// NewReconcilePostings creates the reconciler in front of handler.
func NewReconcilePostings(handler PostingHandler, report *Report, target journal.Value, cutoff time.Time) *ReconcilePostings {
	return &ReconcilePostings{handler: handler, report: report, target: target, cutoff: cutoff}
}

func (r *ReconcilePostings) Accept(p *journal.Posting) error {
	if p.Date().After(r.cutoff) {
		return nil
	}
	r.postings = append(r.postings, p)
	return nil
}

func (r *ReconcilePostings) Flush() error {
	target := r.target
	sum := journal.VoidValue()
	match := -1
	for i, p := range r.postings {
		display, err := r.report.displayAmount(p)
		if err != nil {
			return err
		}

		// A bare-number target adopts the stream's commodity, so the
		// subtraction below stays within one commodity instead of
		// promoting to a two-entry balance that is never zero.
		if tamt, ok := target.AsAmount(); ok && tamt.Commodity == nil {
			if damt, dok := display.AsAmount(); dok && damt.Commodity != nil {
				tamt.Commodity = damt.Commodity
				target = journal.AmountValue(tamt)
			}
		}

		next, err := sum.Add(display)
		if err != nil {
			return err
		}
		sum = next

		diff, err := sum.Sub(target)
		if err != nil {
			return err
		}
		if diff.IsZero() {
			if match >= 0 {
				return &ReconcileError{Target: r.target, Cutoff: r.cutoff,
					Reason: "more than one subset reaches the target balance"}
			}
			match = i
		}
	}
	if match < 0 {
		return &ReconcileError{Target: r.target, Cutoff: r.cutoff,
			Reason: "no subset of postings sums to the target balance"}
	}

	for _, p := range r.postings[:match+1] {
		p.Xdata().Matches = true
		if err := r.handler.Accept(p); err != nil {
			return err
		}
	}
	return r.handler.Flush()
}
