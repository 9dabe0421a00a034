package journal

import "time"

// PostingFlags is a bit set of posting attributes.
type PostingFlags uint8

const (
	// PostingVirtual marks a posting against a virtual (parenthesised)
	// account, excluded from balancing.
	PostingVirtual PostingFlags = 1 << iota

	// PostingMustBalance marks a virtual (bracketed) posting that still
	// participates in balancing.
	PostingMustBalance

	// PostingCalculated marks an amount that was inferred rather than
	// written in the journal.
	PostingCalculated

	// PostingCleared marks a posting individually cleared, independent of
	// its entry's state.
	PostingCleared
)

// Posting is one leg of an entry: an account, an amount, and an optional
// cost. A posting belongs to exactly one account and exactly one entry.
type Posting struct {
	Entry   *Entry
	Account *Account
	Amount  Amount

	// Cost is the total price paid for the amount, in another commodity,
	// when the posting carries an "@"/"@@" annotation.
	Cost *Amount

	Flags PostingFlags

	// EffectiveDate overrides the entry's effective date for this posting.
	EffectiveDate *time.Time

	Note string

	xdata *PostingXdata
}

// PostingXdata is per-report scratch state attached to a posting. During a
// report each posting has at most one xdata record; stages read and write it
// only through the owning posting.
type PostingXdata struct {
	// Value is the computed display amount when it differs from the
	// posting's own amount (set by revaluation, collapse and grouping
	// stages). Valid when Compound is set.
	Value Value

	// Total is the running total assigned by the calculation stage.
	Total Value

	// Count is the 1-based position among postings seen by the calculator.
	Count int

	// DateOverride replaces the posting's date for display and sorting
	// (set by the interval stage).
	DateOverride *time.Time

	// AccountOverride replaces the reported account (set by grouping
	// stages which synthesise postings against totals accounts).
	AccountOverride *Account

	// SortValue caches the computed sort key during a sorted walk.
	SortValue Value

	// Components lists the postings that contributed to a synthesised
	// posting's value, for drill-down reports.
	Components []*Posting

	Received  bool
	Handled   bool
	ToDisplay bool
	Displayed bool
	Compound  bool
	SortCalc  bool
	Matches   bool
}

// Cleared reports whether the posting counts as cleared, either itself or
// via its entry.
func (p *Posting) Cleared() bool {
	if p.Flags&PostingCleared != 0 {
		return true
	}
	return p.Entry != nil && p.Entry.State == Cleared
}

// Date returns the posting's effective date: its own override, else the
// entry's effective date, else the entry date.
func (p *Posting) Date() time.Time {
	if p.EffectiveDate != nil {
		return *p.EffectiveDate
	}
	if x := p.xdata; x != nil && x.DateOverride != nil {
		return *x.DateOverride
	}
	if p.Entry != nil {
		return p.Entry.ActualDate()
	}
	return time.Time{}
}

// ReportedAccount returns the account the posting should be reported
// against, honouring any xdata override.
func (p *Posting) ReportedAccount() *Account {
	if x := p.xdata; x != nil && x.AccountOverride != nil {
		return x.AccountOverride
	}
	return p.Account
}

// DisplayAmount returns the value a report should show for this posting:
// the compound xdata value when a stage has substituted one, otherwise the
// posting's own amount.
func (p *Posting) DisplayAmount() Value {
	if x := p.xdata; x != nil && x.Compound {
		return x.Value
	}
	return AmountValue(p.Amount)
}

// CostAmount returns the posting's value after cost conversion: the cost if
// present, else the amount itself.
func (p *Posting) CostAmount() Amount {
	if p.Cost != nil {
		return *p.Cost
	}
	return p.Amount
}

// HasXdata reports whether report scratch state has been attached.
func (p *Posting) HasXdata() bool { return p.xdata != nil }

// Xdata returns the posting's report scratch state, creating it on demand.
func (p *Posting) Xdata() *PostingXdata {
	if p.xdata == nil {
		p.xdata = &PostingXdata{}
	}
	return p.xdata
}

// ClearXdata drops the scratch state.
func (p *Posting) ClearXdata() { p.xdata = nil }
