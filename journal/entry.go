package journal

import (
	"fmt"
	"time"
)

// EntryState is the clearing state of an entry.
type EntryState int

const (
	Uncleared EntryState = iota
	Pending
	Cleared
)

func (s EntryState) String() string {
	switch s {
	case Pending:
		return "!"
	case Cleared:
		return "*"
	default:
		return ""
	}
}

// Entry is a dated journal record grouping postings that together balance to
// zero per commodity, possibly after cost conversion.
type Entry struct {
	Date          time.Time
	EffectiveDate *time.Time
	Code          string
	Payee         string
	State         EntryState
	Postings      []*Posting
}

// NewEntry creates an entry with no postings.
func NewEntry(date time.Time, payee string) *Entry {
	return &Entry{Date: date, Payee: payee}
}

// ActualDate returns the effective date if set, else the entry date.
func (e *Entry) ActualDate() time.Time {
	if e.EffectiveDate != nil {
		return *e.EffectiveDate
	}
	return e.Date
}

// AddPosting appends a posting and claims ownership of it.
func (e *Entry) AddPosting(p *Posting) {
	p.Entry = e
	e.Postings = append(e.Postings, p)
}

// UnbalancedError reports an entry whose postings do not sum to zero.
type UnbalancedError struct {
	Entry     *Entry
	Remainder *Balance
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("entry %q on %s does not balance (off by %s)",
		e.Entry.Payee, e.Entry.Date.Format("2006/01/02"), e.Remainder)
}

// Verify checks that the entry's balancing postings sum to zero per
// commodity, applying cost conversion where a posting carries a cost.
// Virtual postings are exempt unless flagged must-balance.
func (e *Entry) Verify() error {
	remainder := NewBalance()
	for _, p := range e.Postings {
		if p.Flags&PostingVirtual != 0 && p.Flags&PostingMustBalance == 0 {
			continue
		}
		remainder.Add(p.CostAmount())
	}
	if !remainder.IsZero() {
		return &UnbalancedError{Entry: e, Remainder: remainder}
	}
	return nil
}

// Finalize infers at most one elided posting amount from the others and then
// verifies the entry balances. Exactly one balancing posting may omit its
// amount; it receives the negated remainder, one posting per commodity.
func (e *Entry) Finalize() error {
	var elided *Posting
	remainder := NewBalance()
	for _, p := range e.Postings {
		if p.Flags&PostingVirtual != 0 && p.Flags&PostingMustBalance == 0 {
			continue
		}
		if p.Amount.Commodity == nil && p.Amount.IsZero() {
			if elided != nil {
				return fmt.Errorf("entry %q on %s has more than one posting with no amount",
					e.Payee, e.Date.Format("2006/01/02"))
			}
			elided = p
			continue
		}
		remainder.Add(p.CostAmount())
	}

	if elided != nil {
		amounts := remainder.Amounts()
		switch len(amounts) {
		case 0:
			// Nothing to balance against; leave the zero amount.
		case 1:
			elided.Amount = amounts[0].Negated()
			elided.Flags |= PostingCalculated
		default:
			// One inferred posting per commodity: the elided posting
			// takes the first, clones cover the rest.
			elided.Amount = amounts[0].Negated()
			elided.Flags |= PostingCalculated
			for _, a := range amounts[1:] {
				clone := &Posting{
					Account: elided.Account,
					Amount:  a.Negated(),
					Flags:   elided.Flags | PostingCalculated,
				}
				e.AddPosting(clone)
			}
		}
		return nil
	}

	return e.Verify()
}
