package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
)

// UnknownOptionError reports an option name no setter claims.
type UnknownOptionError struct {
	Name string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option %q", e.Name)
}

// canonicalCommands maps command dispatch names to their canonical form.
var canonicalCommands = map[string]string{
	"bal":      "balance",
	"balance":  "balance",
	"reg":      "register",
	"register": "register",
	"print":    "print",
	"equity":   "equity",
}

// precommands are resolved before a journal is loaded.
var precommands = map[string]string{
	"args":   "args",
	"parse":  "parse",
	"period": "period",
	"eval":   "eval",
	"format": "format",
}

// Lookup resolves report-level names for the expression evaluator: value
// accessors, formatter helpers, command dispatch entries and option
// setters. Misses delegate to the session scope.
func (r *Report) Lookup(name string) (expr.Resolver, bool) {
	constant := func(v journal.Value) (expr.Resolver, bool) {
		return expr.ConstantResolver(v), true
	}

	switch name {
	case "amount_expr":
		return constant(journal.StringValue(r.AmountExpr.Text))
	case "total_expr":
		return constant(journal.StringValue(r.TotalExpr.Text))
	case "display_total":
		return constant(journal.StringValue(r.DisplayTotal.Text))
	case "display_date":
		return func(args []journal.Value) (journal.Value, error) {
			if len(args) != 1 {
				return journal.Value{}, fmt.Errorf("display_date expects one argument")
			}
			date, ok := args[0].AsDate()
			if !ok {
				return journal.Value{}, &journal.TypeError{Op: "display_date", Kind: args[0].Kind()}
			}
			return journal.StringValue(date.Format(r.OutputDateFormat)), nil
		}, true
	case "market_value":
		return func(args []journal.Value) (journal.Value, error) {
			if len(args) == 0 {
				return journal.Value{}, fmt.Errorf("market_value expects a value argument")
			}
			date := r.Now()
			if len(args) > 1 {
				parsed, ok := args[1].AsDate()
				if !ok {
					return journal.Value{}, &journal.TypeError{Op: "market_value", Kind: args[1].Kind()}
				}
				date = parsed
			}
			return r.marketValue(args[0], date)
		}, true
	case "print_balance":
		return func(args []journal.Value) (journal.Value, error) {
			if len(args) == 0 {
				return journal.Value{}, fmt.Errorf("print_balance expects a value argument")
			}
			bal, err := args[0].ToBalance()
			if err != nil {
				return journal.Value{}, err
			}
			lines := make([]string, 0, 1)
			for _, amt := range bal.Amounts() {
				lines = append(lines, amt.String())
			}
			if len(lines) == 0 {
				lines = append(lines, "0")
			}
			return journal.StringValue(strings.Join(lines, "\n")), nil
		}, true
	case "strip":
		return func(args []journal.Value) (journal.Value, error) {
			if len(args) != 1 {
				return journal.Value{}, fmt.Errorf("strip expects one argument")
			}
			return stripAnnotations(r.Journal.Pool, args[0]), nil
		}, true
	case "truncate":
		return func(args []journal.Value) (journal.Value, error) {
			if len(args) < 2 {
				return journal.Value{}, fmt.Errorf("truncate expects a string and a width")
			}
			s, ok := args[0].AsString()
			if !ok {
				return journal.Value{}, &journal.TypeError{Op: "truncate", Kind: args[0].Kind()}
			}
			width, ok := args[1].AsInt()
			if !ok {
				// Number literals evaluate to amounts.
				amt, aok := args[1].AsAmount()
				if !aok {
					return journal.Value{}, &journal.TypeError{Op: "truncate", Kind: args[1].Kind()}
				}
				width = amt.Number.IntPart()
			}
			return journal.StringValue(runewidth.Truncate(s, int(width), "..")), nil
		}, true
	case "now", "m":
		return constant(journal.DateTimeValue(r.Now()))
	case "today":
		now := r.Now()
		return constant(journal.DateValue(now))
	}

	if cmd, ok := strings.CutPrefix(name, "ledger_cmd_"); ok {
		if canonical, ok := canonicalCommands[cmd]; ok {
			return constant(journal.StringValue(canonical))
		}
		return nil, false
	}
	if cmd, ok := strings.CutPrefix(name, "ledger_precmd_"); ok {
		if canonical, ok := precommands[cmd]; ok {
			return constant(journal.StringValue(canonical))
		}
		return nil, false
	}
	if opt, ok := strings.CutPrefix(name, "opt_"); ok {
		return func(args []journal.Value) (journal.Value, error) {
			arg := ""
			if len(args) > 0 {
				s, ok := args[0].AsString()
				if !ok {
					arg = args[0].String()
				} else {
					arg = s
				}
			}
			if err := r.SetOption(opt, arg); err != nil {
				return journal.Value{}, err
			}
			return journal.VoidValue(), nil
		}, true
	}

	if r.Session != nil {
		return r.Session.Lookup(name)
	}
	return nil, false
}

// stripAnnotations replaces annotated commodities in a value with their
// bare symbol.
func stripAnnotations(pool *journal.Pool, v journal.Value) journal.Value {
	strip := func(a journal.Amount) journal.Amount {
		if a.Commodity == nil || a.Commodity.Annotation == nil {
			return a
		}
		return journal.Amount{Number: a.Number, Commodity: pool.FindOrCreate(a.Commodity.Symbol)}
	}
	switch v.Kind() {
	case journal.ValueAmount:
		amt, _ := v.AsAmount()
		return journal.AmountValue(strip(amt))
	case journal.ValueBalance:
		bal, _ := v.AsBalance()
		out := journal.NewBalance()
		for _, amt := range bal.Amounts() {
			out.Add(strip(amt))
		}
		return journal.BalanceValue(out)
	default:
		return v
	}
}

// SetOption applies one named option, mirroring the long, trailing
// underscore and single-letter spellings. Hyphens and underscores are
// interchangeable; a trailing underscore (argument-taking form) is
// normalised away.
func (r *Report) SetOption(name, arg string) error {
	name = strings.TrimSuffix(strings.ReplaceAll(name, "-", "_"), "_")

	parseExpr := func(src string) (*expr.Expr, error) {
		parsed, err := expr.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", name, err)
		}
		return parsed, nil
	}
	atoi := func() (int, error) {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, fmt.Errorf("option %q: %w", name, err)
		}
		return n, nil
	}

	switch name {
	case "amount", "t":
		parsed, err := parseExpr(arg)
		if err != nil {
			return err
		}
		r.AmountExpr = parsed
	case "ansi":
		r.Ansi = true
	case "ansi_invert":
		r.Ansi = true
		r.AnsiInvert = true
	case "anon":
		r.Anonymize = true
	case "base":
		r.ShowBase = true
	case "begin", "b":
		r.AppendPredicate("d>=[" + arg + "]")
	case "by_payee", "P":
		r.ByPayee = true
	case "cleared", "C":
		r.AppendPredicate("X")
	case "code_as_payee":
		r.CodeAsPayee = true
	case "collapse", "n":
		r.ShowCollapsed = true
	case "comm_as_payee", "x":
		r.CommAsPayee = true
	case "cost", "basis", "B":
		r.AmountExpr = expr.MustParse("b")
	case "current", "c":
		r.AppendPredicate("d<=[" + r.Now().Format("2006/01/02") + "]")
	case "daily":
		r.joinPeriod("daily")
	case "date_format", "y":
		r.OutputDateFormat = journal.DateLayout(arg)
	case "dow":
		r.DaysOfTheWeek = true
	case "empty", "E":
		r.ShowEmpty = true
	case "end", "e":
		r.AppendPredicate("d<[" + arg + "]")
	case "format", "F":
		r.FormatString = arg
	case "head":
		n, err := atoi()
		if err != nil {
			return err
		}
		r.HeadEntries = n
	case "input_date_format":
		r.InputDateFormat = journal.DateLayout(arg)
	case "j":
		r.AmountData = true
	case "J":
		r.TotalData = true
	case "invert":
		r.ShowInverted = true
	case "limit", "l":
		r.AppendPredicate("(" + arg + ")")
	case "market", "V":
		r.MarketValues = true
		r.AmountExpr = expr.MustParse("v")
	case "monthly", "M":
		r.joinPeriod("monthly")
	case "pager":
		r.Pager = arg
	case "period", "p":
		r.joinPeriod(arg)
	case "period_sort":
		r.SortString = arg
	case "price", "I":
		r.AmountExpr = expr.MustParse("i")
	case "price_db":
		r.PriceDBPath = arg
	case "quantity", "O":
		r.MarketValues = false
		r.AmountExpr = expr.MustParse("a")
	case "quarterly":
		r.joinPeriod("quarterly")
	case "reconcile":
		r.ReconcileBalance = arg
	case "reconcile_date":
		r.ReconcileDate = arg
	case "related", "r":
		r.ShowRelated = true
	case "related_all":
		r.ShowRelated = true
		r.ShowAllRelated = true
	case "revalued":
		r.ShowRevalued = true
	case "revalued_only":
		r.ShowRevalued = true
		r.ShowRevaluedOnly = true
	case "sort", "S":
		r.SortString = arg
		r.EntrySort = false
	case "sort_all":
		r.SortString = arg
		r.EntrySort = false
	case "sort_entries":
		r.SortString = arg
		r.EntrySort = true
	case "subtotal", "s":
		r.ShowSubtotal = true
	case "tail":
		n, err := atoi()
		if err != nil {
			return err
		}
		r.TailEntries = n
	case "total", "T":
		parsed, err := parseExpr(arg)
		if err != nil {
			return err
		}
		r.TotalExpr = parsed
	case "totals":
		r.ShowTotals = true
	case "uncleared", "U":
		r.AppendPredicate("!X")
	case "weekly", "W":
		r.joinPeriod("weekly")
	case "yearly", "Y":
		r.joinPeriod("yearly")
	case "display", "d":
		r.appendDisplayPredicate("(" + arg + ")")
	case "verbose", "verify", "debug", "trace":
		// Accepted for compatibility; diagnostics run elsewhere.
	default:
		return &UnknownOptionError{Name: name}
	}
	return nil
}

// joinPeriod prepends a period term to the report period, so "--monthly
// --period 'in 2024'" reads as "monthly in 2024".
func (r *Report) joinPeriod(term string) {
	if r.ReportPeriod == "" {
		r.ReportPeriod = term
		return
	}
	r.ReportPeriod = term + " " + r.ReportPeriod
}
