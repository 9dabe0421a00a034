package report

import (
	"errors"
	"strings"

	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// Chain assembles the posting pipeline in front of base according to the
// report's configuration. Stages are wrapped head-to-tail, so the last one
// wrapped here executes first. When handleIndividual is false only the tail
// stages (invert, related, anonymize, the primary filter and the payee
// rewrites) apply; that variant feeds the account accumulator, which
// aggregates on its own terms.
func Chain(r *Report, base PostingHandler, handleIndividual bool) (PostingHandler, error) {
	handler := base

	grouping := 0
	for _, set := range []bool{r.ShowSubtotal, r.DaysOfTheWeek, r.ByPayee} {
		if set {
			grouping++
		}
	}
	if grouping > 1 {
		return nil, errors.New("the subtotal, dow and by-payee groupings are mutually exclusive")
	}

	var err error
	var displayPred, secondaryPred, primaryPred, sortExpr *expr.Expr
	parse := func(src string) *expr.Expr {
		if err != nil || src == "" {
			return nil
		}
		var parsed *expr.Expr
		parsed, err = expr.Parse(src)
		return parsed
	}
	displayPred = parse(r.DisplayPredicate)
	secondaryPred = parse(r.SecondaryPredicate)
	primaryPred = parse(r.Predicate)
	sortExpr = parse(r.SortString)
	if err != nil {
		return nil, err
	}

	if handleIndividual {
		if r.HeadEntries > 0 || r.TailEntries > 0 {
			handler = NewTruncateEntries(handler, r.HeadEntries, r.TailEntries)
		}
		if displayPred != nil {
			handler = NewFilterPostings(handler, r, displayPred)
		}

		// Every posting's display value is computed exactly once, and
		// running totals accumulate here; everything upstream sees
		// calculated xdata.
		handler = NewCalcPostings(handler, r)

		// Component expansion terms apply outermost-first, so wrap in
		// reverse.
		if r.DescendExpr != "" {
			terms := strings.Split(r.DescendExpr, ";")
			for i := len(terms) - 1; i >= 0; i-- {
				term := strings.TrimSpace(terms[i])
				if term == "" {
					continue
				}
				pred, perr := expr.Parse(term)
				if perr != nil {
					return nil, perr
				}
				handler = NewComponentPostings(handler, r, pred)
			}
		}

		if r.ReconcileBalance != "" {
			target, terr := r.ParseReconcileTarget()
			if terr != nil {
				return nil, terr
			}
			cutoff := r.Now()
			if r.ReconcileDate != "" {
				cutoff, terr = journal.ParseDate(r.ReconcileDate)
				if terr != nil {
					return nil, terr
				}
			}
			handler = NewReconcilePostings(handler, r, target, cutoff)
		}

		if secondaryPred != nil {
			handler = NewFilterPostings(handler, r, secondaryPred)
		}

		if sortExpr != nil {
			if r.EntrySort {
				handler = NewSortEntries(handler, r, sortExpr)
			} else {
				handler = NewSortPostings(handler, r, sortExpr)
			}
		}

		if r.ShowRevalued {
			handler = NewChangedValuePostings(handler, r, r.ShowRevaluedOnly)
		}

		if r.ShowCollapsed {
			handler = NewCollapsePostings(handler, r)
		}

		remember := r.DescendExpr != ""
		switch {
		case r.ShowSubtotal:
			handler = NewSubtotalPostings(handler, r, remember)
		case r.DaysOfTheWeek:
			handler = NewDowPostings(handler, r, remember)
		case r.ByPayee:
			handler = NewByPayeePostings(handler, r, remember)
		}

		if r.ReportPeriod != "" {
			interval, ierr := journal.ParseInterval(r.ReportPeriod)
			if ierr != nil {
				return nil, ierr
			}
			handler = NewIntervalPostings(handler, r, interval, remember)
			// Periods bucket by date, so force chronological order into
			// the interval stage regardless of journal order.
			handler = NewSortPostings(handler, r, expr.MustParse("d"))
		}
	}

	if r.ShowInverted {
		handler = NewInvertPostings(handler)
	}

	if r.ShowRelated {
		handler = NewRelatedPostings(handler, r.ShowAllRelated)
	}

	if r.Anonymize {
		handler = NewAnonymizePostings(handler)
	}

	if primaryPred != nil {
		handler = NewFilterPostings(handler, r, primaryPred)
	}

	switch {
	case r.CommAsPayee:
		handler = NewCommodityPayeePostings(handler)
	case r.CodeAsPayee:
		handler = NewCodePayeePostings(handler)
	}

	return handler, nil
}
