package report

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// FilterPostings forwards only postings matching a predicate. The same stage
// serves the primary, secondary and display predicates; what changes is
// where the assembler places it in the chain.
type FilterPostings struct {
	handler PostingHandler
	report  *Report
	pred    *expr.Expr
}

// NewFilterPostings creates a predicate filter in front of handler.
func NewFilterPostings(handler PostingHandler, report *Report, pred *expr.Expr) *FilterPostings {
	return &FilterPostings{handler: handler, report: report, pred: pred}
}

func (f *FilterPostings) Accept(p *journal.Posting) error {
	ok, err := f.pred.Predicate(f.report.PostingScope(p))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	p.Xdata().Matches = true
	return f.handler.Accept(p)
}

func (f *FilterPostings) Flush() error { return f.handler.Flush() }

// CalcPostings computes the running total: each posting's xdata receives
// total = previous total + the posting's display amount. Where this stage
// sits in the chain decides whether filtered postings count toward the
// total.
type CalcPostings struct {
	handler PostingHandler
	report  *Report
	total   journal.Value
	count   int
}

// NewCalcPostings creates the running-total calculator in front of handler.
func NewCalcPostings(handler PostingHandler, report *Report) *CalcPostings {
	return &CalcPostings{handler: handler, report: report, total: journal.VoidValue()}
}

func (c *CalcPostings) Accept(p *journal.Posting) error {
	display, err := c.report.displayAmount(p)
	if err != nil {
		return err
	}

	x := p.Xdata()
	if amt, ok := display.AsAmount(); !ok ||
		amt.Commodity != p.Amount.Commodity || !amt.Number.Equal(p.Amount.Number) {
		x.Value = display
		x.Compound = true
	}

	next, err := c.total.Add(display)
	if err != nil {
		return err
	}
	c.total = next
	c.count++
	x.Total = c.total
	x.Count = c.count

	return c.handler.Accept(p)
}

func (c *CalcPostings) Flush() error { return c.handler.Flush() }

// TruncateEntries caps the number of entries reaching the formatter at head
// and/or tail entries. It buffers everything and decides on flush, so it
// never affects calculation.
type TruncateEntries struct {
	handler    PostingHandler
	head, tail int
	postings   []*journal.Posting
}

// NewTruncateEntries creates the entry-count cap in front of handler.
func NewTruncateEntries(handler PostingHandler, head, tail int) *TruncateEntries {
	return &TruncateEntries{handler: handler, head: head, tail: tail}
}

func (t *TruncateEntries) Accept(p *journal.Posting) error {
	t.postings = append(t.postings, p)
	return nil
}

func (t *TruncateEntries) Flush() error {
	// Count entry runs; postings of one entry arrive consecutively.
	var entries []*journal.Entry
	for _, p := range t.postings {
		if len(entries) == 0 || entries[len(entries)-1] != p.Entry {
			entries = append(entries, p.Entry)
		}
	}

	keep := make(map[*journal.Entry]bool, len(entries))
	switch {
	case t.head > 0 && t.tail > 0:
		for i, e := range entries {
			if i < t.head || i >= len(entries)-t.tail {
				keep[e] = true
			}
		}
	case t.head > 0:
		for i, e := range entries {
			if i < t.head {
				keep[e] = true
			}
		}
	case t.tail > 0:
		for i, e := range entries {
			if i >= len(entries)-t.tail {
				keep[e] = true
			}
		}
	default:
		for _, e := range entries {
			keep[e] = true
		}
	}

	for _, p := range t.postings {
		if keep[p.Entry] {
			if err := t.handler.Accept(p); err != nil {
				return err
			}
		}
	}
	return t.handler.Flush()
}

// ComponentPostings replaces each matching posting with the stream of
// postings that contributed to its total, enabling drill-down reports.
// Postings that fail the predicate are dropped.
type ComponentPostings struct {
	handler PostingHandler
	report  *Report
	pred    *expr.Expr
}

// NewComponentPostings creates a component expander in front of handler.
func NewComponentPostings(handler PostingHandler, report *Report, pred *expr.Expr) *ComponentPostings {
	return &ComponentPostings{handler: handler, report: report, pred: pred}
}

func (c *ComponentPostings) Accept(p *journal.Posting) error {
	ok, err := c.pred.Predicate(c.report.PostingScope(p))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if x := p.Xdata(); len(x.Components) > 0 {
		for _, comp := range x.Components {
			if err := c.handler.Accept(comp); err != nil {
				return err
			}
		}
		return nil
	}
	return c.handler.Accept(p)
}

func (c *ComponentPostings) Flush() error { return c.handler.Flush() }

// RelatedPostings replaces each posting with the other postings of its
// entry; with showAll set, the posting itself is included too. Duplicates
// across overlapping entries are suppressed.
type RelatedPostings struct {
	handler  PostingHandler
	showAll  bool
	postings []*journal.Posting
}

// NewRelatedPostings creates the related-posting expander in front of
// handler.
func NewRelatedPostings(handler PostingHandler, showAll bool) *RelatedPostings {
	return &RelatedPostings{handler: handler, showAll: showAll}
}

func (r *RelatedPostings) Accept(p *journal.Posting) error {
	r.postings = append(r.postings, p)
	return nil
}

func (r *RelatedPostings) Flush() error {
	for _, p := range r.postings {
		if p.Entry == nil {
			continue
		}
		for _, other := range p.Entry.Postings {
			x := other.Xdata()
			if x.Handled {
				continue
			}
			if !r.showAll && other == p {
				continue
			}
			x.Handled = true
			if err := r.handler.Accept(other); err != nil {
				return err
			}
		}
	}
	return r.handler.Flush()
}

// CollapsePostings combines all postings of one entry into one synthetic
// posting per commodity, preserving component links for drill-down.
// Single-posting entries pass through untouched.
type CollapsePostings struct {
	handler PostingHandler
	report  *Report
	last    *journal.Entry
	pending []*journal.Posting
	temps   tempFactory
}

// NewCollapsePostings creates the entry collapser in front of handler.
func NewCollapsePostings(handler PostingHandler, report *Report) *CollapsePostings {
	return &CollapsePostings{handler: handler, report: report}
}

func (c *CollapsePostings) Accept(p *journal.Posting) error {
	if c.last != nil && p.Entry != c.last {
		if err := c.emit(); err != nil {
			return err
		}
	}
	c.last = p.Entry
	c.pending = append(c.pending, p)
	return nil
}

func (c *CollapsePostings) emit() error {
	defer func() { c.pending = c.pending[:0] }()

	if len(c.pending) == 1 {
		return c.handler.Accept(c.pending[0])
	}

	subtotal := journal.NewBalance()
	for _, p := range c.pending {
		display, err := c.report.displayAmount(p)
		if err != nil {
			return err
		}
		bal, err := display.ToBalance()
		if err != nil {
			return err
		}
		subtotal.Merge(bal)
	}

	entry := c.temps.entry(c.last.Date, c.last.Payee)
	entry.Code = c.last.Code
	entry.State = c.last.State
	account := c.temps.account("<Total>")
	components := append([]*journal.Posting(nil), c.pending...)

	for _, amt := range subtotal.Amounts() {
		posting := c.temps.posting(entry, account, amt)
		posting.Xdata().Components = components
		if err := c.handler.Accept(posting); err != nil {
			return err
		}
	}
	return nil
}

func (c *CollapsePostings) Flush() error {
	if len(c.pending) > 0 {
		if err := c.emit(); err != nil {
			return err
		}
	}
	return c.handler.Flush()
}

// subtotalBucket accumulates display amounts per account for the grouping
// stages (subtotal, days-of-the-week, by-payee, interval).
type subtotalBucket struct {
	report   *Report
	remember bool

	begin, end time.Time
	values     map[*journal.Account]*journal.Balance
	components map[*journal.Account][]*journal.Posting
	accounts   []*journal.Account
}

func newSubtotalBucket(report *Report, remember bool) *subtotalBucket {
	return &subtotalBucket{
		report:     report,
		remember:   remember,
		values:     make(map[*journal.Account]*journal.Balance),
		components: make(map[*journal.Account][]*journal.Posting),
	}
}

func (b *subtotalBucket) add(p *journal.Posting) error {
	date := p.Date()
	if b.begin.IsZero() || date.Before(b.begin) {
		b.begin = date
	}
	if date.After(b.end) {
		b.end = date
	}

	display, err := b.report.displayAmount(p)
	if err != nil {
		return err
	}
	bal, err := display.ToBalance()
	if err != nil {
		return err
	}

	account := p.ReportedAccount()
	if _, ok := b.values[account]; !ok {
		b.values[account] = journal.NewBalance()
		b.accounts = append(b.accounts, account)
	}
	b.values[account].Merge(bal)
	if b.remember {
		b.components[account] = append(b.components[account], p)
	}
	return nil
}

func (b *subtotalBucket) empty() bool { return len(b.accounts) == 0 }

// emit synthesises one posting per account per commodity against a shared
// entry and forwards them in account-name order.
func (b *subtotalBucket) emit(handler PostingHandler, temps *tempFactory, date time.Time, payee string) error {
	if b.empty() {
		return nil
	}
	if date.IsZero() {
		date = b.begin
	}
	if payee == "" {
		payee = "- " + b.end.Format("2006/01/02")
	}

	entry := temps.entry(date, payee)
	sort.Slice(b.accounts, func(i, j int) bool {
		return b.accounts[i].FullName() < b.accounts[j].FullName()
	})

	for _, account := range b.accounts {
		for _, amt := range b.values[account].Amounts() {
			posting := temps.posting(entry, account, amt)
			if b.remember {
				posting.Xdata().Components = b.components[account]
			}
			if err := handler.Accept(posting); err != nil {
				return err
			}
		}
	}
	return nil
}

// SubtotalPostings combines every posting it receives into one synthetic
// entry with one posting per commodity in each account.
type SubtotalPostings struct {
	handler PostingHandler
	bucket  *subtotalBucket
	temps   tempFactory
}

// NewSubtotalPostings creates the subtotaller in front of handler.
func NewSubtotalPostings(handler PostingHandler, report *Report, remember bool) *SubtotalPostings {
	return &SubtotalPostings{handler: handler, bucket: newSubtotalBucket(report, remember)}
}

func (s *SubtotalPostings) Accept(p *journal.Posting) error {
	return s.bucket.add(p)
}

func (s *SubtotalPostings) Flush() error {
	if err := s.bucket.emit(s.handler, &s.temps, time.Time{}, ""); err != nil {
		return err
	}
	return s.handler.Flush()
}

// DowPostings subtotals postings into seven buckets keyed by the weekday
// they fall on.
type DowPostings struct {
	handler  PostingHandler
	report   *Report
	remember bool
	days     [7][]*journal.Posting
	temps    tempFactory
}

// NewDowPostings creates the days-of-the-week aggregator in front of
// handler.
func NewDowPostings(handler PostingHandler, report *Report, remember bool) *DowPostings {
	return &DowPostings{handler: handler, report: report, remember: remember}
}

func (d *DowPostings) Accept(p *journal.Posting) error {
	wd := p.Date().Weekday()
	d.days[wd] = append(d.days[wd], p)
	return nil
}

func (d *DowPostings) Flush() error {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		postings := d.days[wd]
		if len(postings) == 0 {
			continue
		}
		bucket := newSubtotalBucket(d.report, d.remember)
		for _, p := range postings {
			if err := bucket.add(p); err != nil {
				return err
			}
		}
		last := postings[len(postings)-1].Date()
		if err := bucket.emit(d.handler, &d.temps, last, wd.String()); err != nil {
			return err
		}
	}
	return d.handler.Flush()
}

// ByPayeePostings subtotals postings into one bucket per payee string.
type ByPayeePostings struct {
	handler  PostingHandler
	report   *Report
	remember bool
	payees   []string
	buckets  map[string]*subtotalBucket
	temps    tempFactory
}

// NewByPayeePostings creates the by-payee aggregator in front of handler.
func NewByPayeePostings(handler PostingHandler, report *Report, remember bool) *ByPayeePostings {
	return &ByPayeePostings{
		handler:  handler,
		report:   report,
		remember: remember,
		buckets:  make(map[string]*subtotalBucket),
	}
}

func (b *ByPayeePostings) Accept(p *journal.Posting) error {
	payee := ""
	if p.Entry != nil {
		payee = p.Entry.Payee
	}
	bucket, ok := b.buckets[payee]
	if !ok {
		bucket = newSubtotalBucket(b.report, b.remember)
		b.buckets[payee] = bucket
		b.payees = append(b.payees, payee)
	}
	return bucket.add(p)
}

func (b *ByPayeePostings) Flush() error {
	sort.Strings(b.payees)
	for _, payee := range b.payees {
		bucket := b.buckets[payee]
		if err := bucket.emit(b.handler, &b.temps, bucket.end, payee); err != nil {
			return err
		}
	}
	return b.handler.Flush()
}

// IntervalPostings buckets postings by reporting period and emits one
// synthetic posting per bucket per account per commodity, in chronological
// bucket order.
type IntervalPostings struct {
	handler  PostingHandler
	report   *Report
	interval journal.Interval
	remember bool

	starts  []time.Time
	buckets map[time.Time]*subtotalBucket
	temps   tempFactory
}

// NewIntervalPostings creates the period aggregator in front of handler.
func NewIntervalPostings(handler PostingHandler, report *Report, interval journal.Interval, remember bool) *IntervalPostings {
	return &IntervalPostings{
		handler:  handler,
		report:   report,
		interval: interval,
		remember: remember,
		buckets:  make(map[time.Time]*subtotalBucket),
	}
}

func (iv *IntervalPostings) Accept(p *journal.Posting) error {
	date := p.Date()
	if !iv.interval.Begin.IsZero() && date.Before(iv.interval.Begin) {
		return nil
	}
	if !iv.interval.End.IsZero() && !date.Before(iv.interval.End) {
		return nil
	}

	start := date
	if iv.interval.HasPeriod() {
		start = iv.interval.Start(date)
	} else if !iv.interval.Begin.IsZero() {
		start = iv.interval.Begin
	}

	bucket, ok := iv.buckets[start]
	if !ok {
		bucket = newSubtotalBucket(iv.report, iv.remember)
		iv.buckets[start] = bucket
		iv.starts = append(iv.starts, start)
	}
	return bucket.add(p)
}

func (iv *IntervalPostings) Flush() error {
	sort.Slice(iv.starts, func(i, j int) bool { return iv.starts[i].Before(iv.starts[j]) })
	for _, start := range iv.starts {
		payee := "- " + start.Format("2006/01/02")
		if err := iv.buckets[start].emit(iv.handler, &iv.temps, start, payee); err != nil {
			return err
		}
	}
	return iv.handler.Flush()
}

// SortPostings buffers the whole stream and forwards it sorted by a value
// expression, stable on ties.
type SortPostings struct {
	handler  PostingHandler
	report   *Report
	sortExpr *expr.Expr
	postings []*journal.Posting
}

// NewSortPostings creates the sorter in front of handler.
func NewSortPostings(handler PostingHandler, report *Report, sortExpr *expr.Expr) *SortPostings {
	return &SortPostings{handler: handler, report: report, sortExpr: sortExpr}
}

func (s *SortPostings) Accept(p *journal.Posting) error {
	s.postings = append(s.postings, p)
	return nil
}

func (s *SortPostings) Flush() error {
	var calcErr error
	sortValue := func(p *journal.Posting) journal.Value {
		x := p.Xdata()
		if !x.SortCalc {
			v, err := s.sortExpr.Calc(s.report.PostingScope(p))
			if err != nil && calcErr == nil {
				calcErr = err
			}
			x.SortValue = v
			x.SortCalc = true
		}
		return x.SortValue
	}

	sort.SliceStable(s.postings, func(i, j int) bool {
		cmp, err := sortValue(s.postings[i]).Compare(sortValue(s.postings[j]))
		if err != nil {
			if calcErr == nil {
				calcErr = err
			}
			return false
		}
		return cmp < 0
	})
	if calcErr != nil {
		return calcErr
	}

	for _, p := range s.postings {
		if err := s.handler.Accept(p); err != nil {
			return err
		}
	}
	return s.handler.Flush()
}

// SortEntries sorts groups of same-entry postings as a unit, keyed by the
// sort value of the group's first posting.
type SortEntries struct {
	handler  PostingHandler
	report   *Report
	sortExpr *expr.Expr
	groups   [][]*journal.Posting
}

// NewSortEntries creates the entry-group sorter in front of handler.
func NewSortEntries(handler PostingHandler, report *Report, sortExpr *expr.Expr) *SortEntries {
	return &SortEntries{handler: handler, report: report, sortExpr: sortExpr}
}

func (s *SortEntries) Accept(p *journal.Posting) error {
	if n := len(s.groups); n > 0 && s.groups[n-1][0].Entry == p.Entry {
		s.groups[n-1] = append(s.groups[n-1], p)
	} else {
		s.groups = append(s.groups, []*journal.Posting{p})
	}
	return nil
}

func (s *SortEntries) Flush() error {
	var calcErr error
	keys := make(map[*journal.Posting]journal.Value, len(s.groups))
	keyOf := func(group []*journal.Posting) journal.Value {
		first := group[0]
		if v, ok := keys[first]; ok {
			return v
		}
		v, err := s.sortExpr.Calc(s.report.PostingScope(first))
		if err != nil && calcErr == nil {
			calcErr = err
		}
		keys[first] = v
		return v
	}

	sort.SliceStable(s.groups, func(i, j int) bool {
		cmp, err := keyOf(s.groups[i]).Compare(keyOf(s.groups[j]))
		if err != nil {
			if calcErr == nil {
				calcErr = err
			}
			return false
		}
		return cmp < 0
	})
	if calcErr != nil {
		return calcErr
	}

	for _, group := range s.groups {
		for _, p := range group {
			if err := s.handler.Accept(p); err != nil {
				return err
			}
		}
	}
	return s.handler.Flush()
}

// ChangedValuePostings injects a synthetic "Commodities revalued" posting
// between consecutive postings whose running total's market value changed,
// so market movements do not perturb the running total unpredictably. With
// revaluedOnly set, only the synthetic postings are forwarded. The stage
// accumulates the display amounts itself; the downstream calculator only
// ever sees what is forwarded, which in revalued-only mode is nothing but
// the synthetic postings.
type ChangedValuePostings struct {
	handler      PostingHandler
	report       *Report
	revaluedOnly bool

	total       journal.Value
	lastBalance journal.Value
	haveLast    bool
	temps       tempFactory
}

// NewChangedValuePostings creates the revaluation stage in front of
// handler.
func NewChangedValuePostings(handler PostingHandler, report *Report, revaluedOnly bool) *ChangedValuePostings {
	return &ChangedValuePostings{
		handler:      handler,
		report:       report,
		revaluedOnly: revaluedOnly,
		total:        journal.VoidValue(),
	}
}

func (c *ChangedValuePostings) Accept(p *journal.Posting) error {
	if err := c.revalue(p.Date()); err != nil {
		return err
	}

	if !c.revaluedOnly {
		if err := c.handler.Accept(p); err != nil {
			return err
		}
	}

	display, err := c.report.displayAmount(p)
	if err != nil {
		return err
	}
	next, err := c.total.Add(display)
	if err != nil {
		return err
	}
	c.total = next

	repriced, err := c.report.marketValue(c.total, p.Date())
	if err != nil {
		return err
	}
	c.lastBalance = repriced
	c.haveLast = true
	return nil
}

// revalue emits the delta between the held total's market value at the last
// observation and its value now, dated at the moment of observation.
func (c *ChangedValuePostings) revalue(date time.Time) error {
	if !c.haveLast {
		return nil
	}
	repriced, err := c.report.marketValue(c.total, date)
	if err != nil {
		return err
	}
	diff, err := repriced.Sub(c.lastBalance)
	if err != nil {
		return err
	}
	if diff.IsZero() {
		return nil
	}

	entry := c.temps.entry(date, "Commodities revalued")
	account := c.temps.account("<Revalued>")
	posting := c.temps.posting(entry, account, journal.Amount{})
	x := posting.Xdata()
	x.Value = diff
	x.Compound = true
	x.Total = repriced
	return c.handler.Accept(posting)
}

func (c *ChangedValuePostings) Flush() error {
	if err := c.revalue(c.report.Now()); err != nil {
		return err
	}
	return c.handler.Flush()
}

// InvertPostings negates each forwarded display amount.
type InvertPostings struct {
	handler PostingHandler
}

// NewInvertPostings creates the inverter in front of handler.
func NewInvertPostings(handler PostingHandler) *InvertPostings {
	return &InvertPostings{handler: handler}
}

func (i *InvertPostings) Accept(p *journal.Posting) error {
	x := p.Xdata()
	x.Value = p.DisplayAmount().Negated()
	x.Compound = true
	return i.handler.Accept(p)
}

func (i *InvertPostings) Flush() error { return i.handler.Flush() }

// AnonymizePostings replaces payees and account names with stable hash-based
// pseudonyms. The mapping is local to this stage (and thus to one report
// run); no two distinct names map to the same pseudonym.
type AnonymizePostings struct {
	handler  PostingHandler
	names    map[string]string
	accounts map[*journal.Account]*journal.Account
	temps    tempFactory
}

// NewAnonymizePostings creates the anonymiser in front of handler.
func NewAnonymizePostings(handler PostingHandler) *AnonymizePostings {
	return &AnonymizePostings{
		handler:  handler,
		names:    make(map[string]string),
		accounts: make(map[*journal.Account]*journal.Account),
	}
}

func (a *AnonymizePostings) pseudonym(name string) string {
	if p, ok := a.names[name]; ok {
		return p
	}
	sum := sha1.Sum([]byte(name))
	p := hex.EncodeToString(sum[:8])
	a.names[name] = p
	return p
}

func (a *AnonymizePostings) anonAccount(account *journal.Account) *journal.Account {
	if account == nil {
		return nil
	}
	if anon, ok := a.accounts[account]; ok {
		return anon
	}

	segments := strings.Split(account.FullName(), ":")
	for i, s := range segments {
		segments[i] = a.pseudonym(s)
	}
	anon := a.temps.account(strings.Join(segments, ":"))
	a.accounts[account] = anon
	return anon
}

func (a *AnonymizePostings) Accept(p *journal.Posting) error {
	payee := ""
	if p.Entry != nil {
		payee = p.Entry.Payee
	}

	entry := a.temps.entry(p.Date(), a.pseudonym(payee))
	if p.Entry != nil {
		entry.State = p.Entry.State
	}
	clone := a.temps.clone(entry, p)
	clone.Account = a.anonAccount(p.ReportedAccount())
	clone.Xdata().AccountOverride = nil
	return a.handler.Accept(clone)
}

func (a *AnonymizePostings) Flush() error { return a.handler.Flush() }

// CommodityPayeePostings rewrites each posting's effective payee to its
// amount's commodity symbol.
type CommodityPayeePostings struct {
	handler PostingHandler
	temps   tempFactory
}

// NewCommodityPayeePostings creates the payee rewriter in front of handler.
func NewCommodityPayeePostings(handler PostingHandler) *CommodityPayeePostings {
	return &CommodityPayeePostings{handler: handler}
}

func (c *CommodityPayeePostings) Accept(p *journal.Posting) error {
	entry := c.temps.entry(p.Date(), p.Amount.Commodity.String())
	if p.Entry != nil {
		entry.Code = p.Entry.Code
		entry.State = p.Entry.State
	}
	return c.handler.Accept(c.temps.clone(entry, p))
}

func (c *CommodityPayeePostings) Flush() error { return c.handler.Flush() }

// CodePayeePostings rewrites each posting's effective payee to its entry's
// code.
type CodePayeePostings struct {
	handler PostingHandler
	temps   tempFactory
}

// NewCodePayeePostings creates the payee rewriter in front of handler.
func NewCodePayeePostings(handler PostingHandler) *CodePayeePostings {
	return &CodePayeePostings{handler: handler}
}

func (c *CodePayeePostings) Accept(p *journal.Posting) error {
	code := ""
	if p.Entry != nil {
		code = p.Entry.Code
	}
	entry := c.temps.entry(p.Date(), code)
	if p.Entry != nil {
		entry.State = p.Entry.State
	}
	return c.handler.Accept(c.temps.clone(entry, p))
}

func (c *CodePayeePostings) Flush() error { return c.handler.Flush() }

// SetAccountValue is the trivial terminal handler of the account path: it
// writes each posting's display amount into its account's xdata value and
// accumulates.
type SetAccountValue struct {
	report *Report
}

// NewSetAccountValue creates the account accumulator.
func NewSetAccountValue(report *Report) *SetAccountValue {
	return &SetAccountValue{report: report}
}

func (s *SetAccountValue) Accept(p *journal.Posting) error {
	display, err := s.report.displayAmount(p)
	if err != nil {
		return err
	}
	x := p.ReportedAccount().Xdata()
	next, err := x.Value.Add(display)
	if err != nil {
		return err
	}
	x.Value = next
	x.Count++
	x.Visited = true
	return nil
}

func (s *SetAccountValue) Flush() error { return nil }

// tempFactory owns the synthetic entries, postings and detached accounts a
// stage creates, keeping them alive for the duration of the report.
type tempFactory struct {
	entries  []*journal.Entry
	postings []*journal.Posting
	accts    map[string]*journal.Account
}

func (t *tempFactory) entry(date time.Time, payee string) *journal.Entry {
	e := journal.NewEntry(date, payee)
	t.entries = append(t.entries, e)
	return e
}

// account returns a detached account for synthetic postings; the journal's
// own tree is never touched.
func (t *tempFactory) account(name string) *journal.Account {
	if t.accts == nil {
		t.accts = make(map[string]*journal.Account)
	}
	if a, ok := t.accts[name]; ok {
		return a
	}
	account := journal.NewAccount("", nil)
	for _, segment := range strings.Split(name, ":") {
		account = account.FindChild(segment, true)
	}
	t.accts[name] = account
	return account
}

// posting synthesises a posting against entry with a compound display value.
func (t *tempFactory) posting(entry *journal.Entry, account *journal.Account, amount journal.Amount) *journal.Posting {
	p := &journal.Posting{Account: account, Amount: amount}
	entry.AddPosting(p)
	x := p.Xdata()
	x.Value = journal.AmountValue(amount)
	x.Compound = true
	t.postings = append(t.postings, p)
	return p
}

// clone copies a posting under a new synthetic entry, carrying the display
// value and total across.
func (t *tempFactory) clone(entry *journal.Entry, p *journal.Posting) *journal.Posting {
	c := &journal.Posting{
		Account:       p.Account,
		Amount:        p.Amount,
		Cost:          p.Cost,
		Flags:         p.Flags,
		EffectiveDate: p.EffectiveDate,
		Note:          p.Note,
	}
	entry.AddPosting(c)
	if p.HasXdata() {
		x := p.Xdata()
		cx := c.Xdata()
		cx.Value = x.Value
		cx.Compound = x.Compound
		cx.Total = x.Total
		cx.Count = x.Count
		cx.Components = x.Components
		cx.AccountOverride = x.AccountOverride
	}
	t.postings = append(t.postings, c)
	return c
}
