package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/telemetry"
)

// Report holds one report's configuration and drives the pipeline over a
// journal. Reports are single-threaded and synchronous: two concurrent
// reports over the same journal would race on xdata and are disallowed by
// contract.
type Report struct {
	Journal *journal.Journal

	// Session is the fallback scope for names this report does not
	// define (user-defined names and journal identifiers).
	Session expr.Scope

	// Clock supplies "today" for reconciliation cutoffs and revaluation;
	// defaults to time.Now.
	Clock func() time.Time

	// Value expressions.
	AmountExpr   *expr.Expr
	TotalExpr    *expr.Expr
	DisplayTotal *expr.Expr

	// Predicates, as expression source text; assembled into filter
	// stages by Chain.
	Predicate          string
	DisplayPredicate   string
	SecondaryPredicate string
	DescendExpr        string

	ReconcileBalance string
	ReconcileDate    string

	SortString string
	EntrySort  bool

	ReportPeriod string

	ShowCollapsed    bool
	ShowSubtotal     bool
	DaysOfTheWeek    bool
	ByPayee          bool
	ShowRelated      bool
	ShowAllRelated   bool
	ShowInverted     bool
	ShowRevalued     bool
	ShowRevaluedOnly bool
	Anonymize        bool
	CommAsPayee      bool
	CodeAsPayee      bool

	ShowEmpty   bool
	HeadEntries int
	TailEntries int

	// MarketValues reprices display amounts at each posting's date.
	MarketValues bool

	// ShowBase renders amounts at full precision instead of the
	// commodity's display precision.
	ShowBase bool

	// InputDateFormat overrides date parsing in period and reconcile
	// arguments, in strftime notation.
	InputDateFormat string

	FormatString     string
	OutputDateFormat string
	PriceDBPath      string
	Pager            string

	// AmountData and TotalData select the plot-friendly two-column
	// output (-j / -J).
	AmountData bool
	TotalData  bool

	Ansi       bool
	AnsiInvert bool

	// ShowTotals is accepted for compatibility with the original
	// engine's XML output and has no effect on the text formatters.
	ShowTotals bool
}

// NewReport creates a report over a journal with default expressions.
func NewReport(j *journal.Journal) *Report {
	return &Report{
		Journal:          j,
		Clock:            time.Now,
		AmountExpr:       expr.MustParse("a"),
		TotalExpr:        expr.MustParse("O"),
		DisplayTotal:     expr.MustParse("T"),
		OutputDateFormat: "2006/01/02",
	}
}

// Now returns the report's notion of the current moment.
func (r *Report) Now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

// AppendPredicate narrows the primary predicate with another term; both
// sides are parenthesised so operator precedence cannot leak across.
func (r *Report) AppendPredicate(term string) {
	if r.Predicate == "" {
		r.Predicate = term
		return
	}
	r.Predicate = "(" + r.Predicate + ")&(" + term + ")"
}

// appendDisplayPredicate narrows the display predicate.
func (r *Report) appendDisplayPredicate(term string) {
	if r.DisplayPredicate == "" {
		r.DisplayPredicate = term
		return
	}
	r.DisplayPredicate = "(" + r.DisplayPredicate + ")&(" + term + ")"
}

// displayAmount computes the value a report shows for a posting: the amount
// expression evaluated in the posting's scope.
func (r *Report) displayAmount(p *journal.Posting) (journal.Value, error) {
	if r.AmountExpr != nil {
		return r.AmountExpr.Calc(r.PostingScope(p))
	}
	return p.DisplayAmount(), nil
}

// marketValue reprices a value at the given date using the journal's price
// database.
func (r *Report) marketValue(v journal.Value, date time.Time) (journal.Value, error) {
	return r.Journal.Prices.MarketValueOf(r.Journal.Pool, v, date, "")
}

// PostingScope binds a posting's attributes into the evaluation scope
// chain; unresolved names fall back to the report scope.
func (r *Report) PostingScope(p *journal.Posting) expr.Scope {
	return &postingScope{report: r, posting: p}
}

type postingScope struct {
	report  *Report
	posting *journal.Posting
}

func (s *postingScope) Lookup(name string) (expr.Resolver, bool) {
	p := s.posting
	r := s.report

	value := func(v journal.Value) (expr.Resolver, bool) {
		return expr.ConstantResolver(v), true
	}

	switch name {
	case "a", "amount":
		return value(p.DisplayAmount())
	case "b", "cost":
		return value(journal.AmountValue(p.CostAmount()))
	case "i", "price":
		if p.Cost != nil && !p.Amount.IsZero() {
			unit := journal.Amount{
				Number:    p.Cost.Number.Div(p.Amount.Number),
				Commodity: p.Cost.Commodity,
			}
			return value(journal.AmountValue(unit))
		}
		return value(p.DisplayAmount())
	case "v", "market":
		return func([]journal.Value) (journal.Value, error) {
			return r.marketValue(p.DisplayAmount(), p.Date())
		}, true
	case "O", "total":
		if p.HasXdata() {
			return value(p.Xdata().Total)
		}
		return value(journal.VoidValue())
	case "t":
		return func([]journal.Value) (journal.Value, error) {
			return r.displayAmount(p)
		}, true
	case "T":
		return func([]journal.Value) (journal.Value, error) {
			if r.TotalExpr == nil {
				if p.HasXdata() {
					return p.Xdata().Total, nil
				}
				return journal.VoidValue(), nil
			}
			return r.TotalExpr.Calc(s)
		}, true
	case "d", "date":
		return value(journal.DateValue(p.Date()))
	case "account":
		return value(journal.StringValue(p.ReportedAccount().FullName()))
	case "payee":
		if p.Entry != nil {
			return value(journal.StringValue(p.Entry.Payee))
		}
		return value(journal.StringValue(""))
	case "code":
		if p.Entry != nil {
			return value(journal.StringValue(p.Entry.Code))
		}
		return value(journal.StringValue(""))
	case "commodity":
		return value(journal.StringValue(p.Amount.Commodity.String()))
	case "X", "cleared":
		return value(journal.BoolValue(p.Cleared()))
	case "Y", "pending":
		return value(journal.BoolValue(p.Entry != nil && p.Entry.State == journal.Pending))
	case "R", "real":
		return value(journal.BoolValue(p.Flags&journal.PostingVirtual == 0))
	case "L", "actual":
		return value(journal.BoolValue(p.Flags&journal.PostingCalculated == 0))
	case "n":
		if p.HasXdata() {
			return value(journal.IntValue(int64(p.Xdata().Count)))
		}
		return value(journal.IntValue(0))
	case "l", "depth":
		return value(journal.IntValue(int64(p.ReportedAccount().Depth())))
	}

	return r.Lookup(name)
}

// AccountScope binds an account's aggregates into the evaluation scope
// chain.
func (r *Report) AccountScope(a *journal.Account) expr.Scope {
	return &accountScope{report: r, account: a}
}

type accountScope struct {
	report  *Report
	account *journal.Account
}

func (s *accountScope) Lookup(name string) (expr.Resolver, bool) {
	a := s.account

	value := func(v journal.Value) (expr.Resolver, bool) {
		return expr.ConstantResolver(v), true
	}

	switch name {
	case "T", "O", "total":
		if a.HasXdata() {
			return value(a.Xdata().Total)
		}
		return value(journal.VoidValue())
	case "a", "t", "amount":
		if a.HasXdata() {
			return value(a.Xdata().Value)
		}
		return value(journal.VoidValue())
	case "account":
		return value(journal.StringValue(a.FullName()))
	case "account_base":
		return value(journal.StringValue(a.Name))
	case "n":
		if a.HasXdata() {
			return value(journal.IntValue(int64(a.Xdata().Count)))
		}
		return value(journal.IntValue(0))
	case "l", "depth":
		return value(journal.IntValue(int64(a.Depth())))
	}

	return s.report.Lookup(name)
}

// PostingsReport streams every posting of the journal through the assembled
// chain, then clears posting xdata.
func (r *Report) PostingsReport(ctx context.Context, handler PostingHandler) error {
	chain, err := Chain(r, handler, true)
	if err != nil {
		return err
	}
	defer r.Journal.CleanPostings()

	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("Report postings (%d entries)", len(r.Journal.Entries)))
	defer timer.End()

	for _, entry := range r.Journal.Entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for _, p := range entry.Postings {
			if err := chain.Accept(p); err != nil {
				return err
			}
		}
	}
	return chain.Flush()
}

// EntryReport streams a single entry's postings through the chain.
func (r *Report) EntryReport(ctx context.Context, handler PostingHandler, entry *journal.Entry) error {
	chain, err := Chain(r, handler, true)
	if err != nil {
		return err
	}
	defer r.Journal.CleanEntryPostings(entry)

	for _, p := range entry.Postings {
		if err := chain.Accept(p); err != nil {
			return err
		}
	}
	return chain.Flush()
}

// sumAllAccounts runs the accumulator pipeline, writing posting amounts
// into account xdata, then computes subtree totals bottom-up.
func (r *Report) sumAllAccounts(ctx context.Context) error {
	chain, err := Chain(r, NewSetAccountValue(r), false)
	if err != nil {
		return err
	}

	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("Sum accounts (%d entries)", len(r.Journal.Entries)))
	defer timer.End()

	for _, entry := range r.Journal.Entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for _, p := range entry.Postings {
			if err := chain.Accept(p); err != nil {
				return err
			}
		}
	}
	if err := chain.Flush(); err != nil {
		return err
	}

	return r.calculateTotals(r.Journal.Master)
}

// calculateTotals establishes subtree_total(a) = a.value + sum of the
// subtree totals of a's children, for every account.
func (r *Report) calculateTotals(a *journal.Account) error {
	x := a.Xdata()
	total := x.Value
	for _, child := range a.Children() {
		if err := r.calculateTotals(child); err != nil {
			return err
		}
		next, err := total.Add(child.Xdata().Total)
		if err != nil {
			return err
		}
		total = next
	}
	if r.MarketValues {
		repriced, err := r.marketValue(total, r.Now())
		if err != nil {
			return err
		}
		total = repriced
	}
	x.Total = total
	return nil
}

// AccountsReport sums postings into the account tree and walks it, feeding
// each displayable account to the handler. The walk is in declaration order
// unless a sort expression is set. Accounts with a zero total are skipped
// unless ShowEmpty is set; xdata is cleared afterwards.
func (r *Report) AccountsReport(ctx context.Context, handler AccountHandler) error {
	if err := r.sumAllAccounts(ctx); err != nil {
		return err
	}
	defer func() {
		r.Journal.CleanPostings()
		r.Journal.CleanAccounts()
	}()

	var displayPred *expr.Expr
	if r.DisplayPredicate != "" {
		parsed, err := expr.Parse(r.DisplayPredicate)
		if err != nil {
			return err
		}
		displayPred = parsed
	}

	walk := r.basicAccountWalk
	if r.SortString != "" {
		sortExpr, err := expr.Parse(r.SortString)
		if err != nil {
			return err
		}
		walk = func(a *journal.Account, visit func(*journal.Account) error) error {
			return r.sortedAccountWalk(a, sortExpr, visit)
		}
	}

	err := walk(r.Journal.Master, func(a *journal.Account) error {
		if a.Parent == nil {
			return nil // the unnamed root is the formatter's footer, not a row
		}
		if !r.ShowEmpty && (!a.HasXdata() || a.Xdata().Total.IsZero()) {
			return nil
		}
		if displayPred != nil {
			ok, err := displayPred.Predicate(r.AccountScope(a))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		a.Xdata().ToDisplay = true
		return handler.Accept(a)
	})
	if err != nil {
		return err
	}
	return handler.Flush()
}

// basicAccountWalk visits accounts depth-first in declaration order.
func (r *Report) basicAccountWalk(a *journal.Account, visit func(*journal.Account) error) error {
	if err := visit(a); err != nil {
		return err
	}
	for _, child := range a.Children() {
		if err := r.basicAccountWalk(child, visit); err != nil {
			return err
		}
	}
	return nil
}

// sortedAccountWalk visits accounts depth-first with each level ordered by
// the sort expression, stable on ties.
func (r *Report) sortedAccountWalk(a *journal.Account, sortExpr *expr.Expr, visit func(*journal.Account) error) error {
	if err := visit(a); err != nil {
		return err
	}

	children := a.Children()
	var calcErr error
	keyOf := func(c *journal.Account) journal.Value {
		x := c.Xdata()
		if !x.SortCalc {
			v, err := sortExpr.Calc(r.AccountScope(c))
			if err != nil && calcErr == nil {
				calcErr = err
			}
			x.SortValue = v
			x.SortCalc = true
		}
		return x.SortValue
	}
	sort.SliceStable(children, func(i, j int) bool {
		cmp, err := keyOf(children[i]).Compare(keyOf(children[j]))
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

	for _, child := range children {
		if err := r.sortedAccountWalk(child, sortExpr, visit); err != nil {
			return err
		}
	}
	return nil
}

// CommoditiesReport lists the distinct commodities observed in the journal.
func (r *Report) CommoditiesReport() []string {
	commodities := r.Journal.Pool.Commodities()
	out := make([]string, len(commodities))
	for i, c := range commodities {
		out[i] = c.Symbol
	}
	return out
}

// ParseReconcileTarget interprets the --reconcile argument as an amount,
// e.g. "0" or "-100.00 USD".
func (r *Report) ParseReconcileTarget() (journal.Value, error) {
	amt, err := journal.ParseAmount(r.Journal.Pool, r.ReconcileBalance)
	if err != nil {
		return journal.Value{}, fmt.Errorf("invalid reconcile balance %q: %w", r.ReconcileBalance, err)
	}
	return journal.AmountValue(amt), nil
}

// SetExprOption installs one of the single-letter display bases: quantity,
// cost basis, market value, or price.
func (r *Report) SetExprOption(amount string) {
	r.AmountExpr = expr.MustParse(amount)
}
