package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/output"
	"github.com/robinvdvleuten/ledger/parse"
	"github.com/robinvdvleuten/ledger/report"
	"github.com/robinvdvleuten/ledger/telemetry"
)

// ReportOptions carries the flags shared by every report command. Each flag
// funnels through the report's option table so long names, argument forms
// and single-letter aliases stay in one place.
type ReportOptions struct {
	Begin   string `help:"Only include postings on or after this date." short:"b" placeholder:"DATE"`
	End     string `help:"Only include postings before this date." short:"e" placeholder:"DATE"`
	Current bool   `help:"Exclude postings after today." short:"c"`

	Cleared   bool   `help:"Only include cleared postings." short:"C"`
	Uncleared bool   `help:"Only include uncleared postings." short:"U"`
	Limit     string `help:"Only include postings matching this predicate." short:"l" placeholder:"EXPR"`
	Display   string `help:"Only display postings matching this predicate." short:"d" placeholder:"EXPR"`

	Amount string `help:"Value expression for the displayed amount." short:"t" placeholder:"EXPR"`
	Total  string `help:"Value expression for the running total." short:"T" placeholder:"EXPR"`

	Cost     bool `help:"Report amounts at their cost basis." short:"B"`
	Market   bool `help:"Report amounts at current market value." short:"V"`
	Price    bool `help:"Report the price of each commodity." short:"I"`
	Quantity bool `help:"Report raw commodity quantities." short:"O"`
	Base     bool `help:"Render amounts at full precision."`

	Sort        string `help:"Sort postings by this value expression." short:"S" placeholder:"EXPR"`
	SortAll     string `help:"Sort the final stream, ignoring entry grouping." placeholder:"EXPR"`
	SortEntries string `help:"Sort whole entries by this value expression." placeholder:"EXPR"`

	Period     string `help:"Group postings into reporting periods." short:"p" placeholder:"PERIOD"`
	PeriodSort string `help:"Sort postings within each period." placeholder:"EXPR"`
	Daily      bool   `help:"Group postings by day."`
	Weekly     bool   `help:"Group postings by week." short:"W"`
	Monthly    bool   `help:"Group postings by month." short:"M"`
	Quarterly  bool   `help:"Group postings by quarter."`
	Yearly     bool   `help:"Group postings by year." short:"Y"`

	Subtotal    bool `help:"Fold all postings per account." short:"s"`
	Collapse    bool `help:"Collapse multi-posting entries to one line." short:"n"`
	Dow         bool `help:"Group postings by day of the week."`
	ByPayee     bool `help:"Group postings by payee." short:"P"`
	CommAsPayee bool `help:"Use the commodity as the payee." short:"x"`
	CodeAsPayee bool `help:"Use the entry code as the payee."`

	Related    bool `help:"Show the other side of matching postings." short:"r"`
	RelatedAll bool `help:"Show all postings of matching entries."`
	Invert     bool `help:"Negate displayed amounts."`
	Anon       bool `help:"Anonymize payees and account names."`

	Revalued     bool `help:"Insert revaluation postings for price changes."`
	RevaluedOnly bool `help:"Show only the revaluation postings."`

	Empty bool `help:"Include accounts and postings with zero totals." short:"E"`
	Head  int  `help:"Show only the first N entries." placeholder:"N"`
	Tail  int  `help:"Show only the last N entries." placeholder:"N"`

	Reconcile     string `help:"Keep the subset of postings reconciling to this balance." placeholder:"AMOUNT"`
	ReconcileDate string `help:"Cutoff date for reconciliation." placeholder:"DATE"`

	Format          string `help:"Output format string." short:"F"`
	DateFormat      string `help:"Output date format (strftime)." short:"y" placeholder:"FMT"`
	InputDateFormat string `help:"Input date format (strftime)." placeholder:"FMT"`

	AmountData bool `help:"Plot-friendly output: date and amount only." short:"j"`
	TotalData  bool `help:"Plot-friendly output: date and total only." short:"J"`

	Ansi       bool   `help:"Color negative amounts."`
	AnsiInvert bool   `help:"Color by the sign of the running total."`
	Pager      string `help:"Pipe output through this pager command." env:"LEDGER_PAGER"`
	PriceDB    string `help:"File of historical commodity prices." env:"LEDGER_PRICE_DB"`

	Totals  bool   `help:"Accepted for compatibility; no effect." hidden:""`
	Verbose bool   `help:"Accepted for compatibility; no effect." hidden:""`
	Verify  bool   `help:"Accepted for compatibility; no effect." hidden:""`
	Debug   string `help:"Accepted for compatibility; no effect." hidden:""`
	Trace   string `help:"Accepted for compatibility; no effect." hidden:""`
}

// apply pushes every set flag through the report's option table.
func (o *ReportOptions) apply(r *report.Report) error {
	type opt struct {
		name string
		arg  string
		set  bool
	}
	options := []opt{
		{"begin", o.Begin, o.Begin != ""},
		{"end", o.End, o.End != ""},
		{"current", "", o.Current},
		{"cleared", "", o.Cleared},
		{"uncleared", "", o.Uncleared},
		{"limit", o.Limit, o.Limit != ""},
		{"display", o.Display, o.Display != ""},
		{"amount", o.Amount, o.Amount != ""},
		{"total", o.Total, o.Total != ""},
		{"cost", "", o.Cost},
		{"market", "", o.Market},
		{"price", "", o.Price},
		{"quantity", "", o.Quantity},
		{"base", "", o.Base},
		{"sort", o.Sort, o.Sort != ""},
		{"sort-all", o.SortAll, o.SortAll != ""},
		{"sort-entries", o.SortEntries, o.SortEntries != ""},
		{"period", o.Period, o.Period != ""},
		{"period-sort", o.PeriodSort, o.PeriodSort != ""},
		{"daily", "", o.Daily},
		{"weekly", "", o.Weekly},
		{"monthly", "", o.Monthly},
		{"quarterly", "", o.Quarterly},
		{"yearly", "", o.Yearly},
		{"subtotal", "", o.Subtotal},
		{"collapse", "", o.Collapse},
		{"dow", "", o.Dow},
		{"by-payee", "", o.ByPayee},
		{"comm-as-payee", "", o.CommAsPayee},
		{"code-as-payee", "", o.CodeAsPayee},
		{"related", "", o.Related},
		{"related-all", "", o.RelatedAll},
		{"invert", "", o.Invert},
		{"anon", "", o.Anon},
		{"revalued", "", o.Revalued},
		{"revalued-only", "", o.RevaluedOnly},
		{"empty", "", o.Empty},
		{"head", strconv.Itoa(o.Head), o.Head > 0},
		{"tail", strconv.Itoa(o.Tail), o.Tail > 0},
		{"reconcile", o.Reconcile, o.Reconcile != ""},
		{"reconcile-date", o.ReconcileDate, o.ReconcileDate != ""},
		{"format", o.Format, o.Format != ""},
		{"date-format", o.DateFormat, o.DateFormat != ""},
		{"input-date-format", o.InputDateFormat, o.InputDateFormat != ""},
		{"j", "", o.AmountData},
		{"J", "", o.TotalData},
		{"ansi", "", o.Ansi},
		{"ansi-invert", "", o.AnsiInvert},
		{"pager", o.Pager, o.Pager != ""},
		{"price-db", o.PriceDB, o.PriceDB != ""},
		{"totals", "", o.Totals},
		{"verbose", "", o.Verbose},
		{"verify", "", o.Verify},
		{"debug", o.Debug, o.Debug != ""},
		{"trace", o.Trace, o.Trace != ""},
	}
	for _, option := range options {
		if !option.set {
			continue
		}
		if err := r.SetOption(option.name, option.arg); err != nil {
			return err
		}
	}
	return nil
}

// BuildQuery translates report arguments into a predicate: plain terms
// match accounts, terms after "--" match payees, and a "-" prefix negates
// a term. Matching is by case-insensitive regular expression.
func BuildQuery(args []string) string {
	var accounts, payees []string
	target := &accounts
	for _, arg := range args {
		if arg == "--" {
			target = &payees
			continue
		}
		*target = append(*target, arg)
	}

	group := func(ident string, terms []string) string {
		var include, exclude []string
		for _, term := range terms {
			if negated, ok := strings.CutPrefix(term, "-"); ok {
				exclude = append(exclude, fmt.Sprintf("%s!~/%s/", ident, negated))
			} else {
				include = append(include, fmt.Sprintf("%s=~/%s/", ident, term))
			}
		}
		var parts []string
		if len(include) > 0 {
			parts = append(parts, "("+strings.Join(include, "|")+")")
		}
		parts = append(parts, exclude...)
		return strings.Join(parts, "&")
	}

	var parts []string
	if p := group("account", accounts); p != "" {
		parts = append(parts, p)
	}
	if p := group("payee", payees); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, "&")
}

// setupReport loads the journal, builds a report from the options and
// query arguments, and loads the price database when one is named.
func setupReport(globals *Globals, options *ReportOptions, args []string) (*report.Report, error) {
	if globals.File.Filename == "" {
		return nil, fmt.Errorf("no journal file specified (use -f or LEDGER_FILE)")
	}

	layout := ""
	if options.InputDateFormat != "" {
		layout = journal.DateLayout(options.InputDateFormat)
	}
	j, err := globals.File.LoadJournal(layout)
	if err != nil {
		return nil, err
	}

	r := report.NewReport(j)
	if err := options.apply(r); err != nil {
		return nil, err
	}
	if query := BuildQuery(args); query != "" {
		r.AppendPredicate(query)
	}
	if r.PriceDBPath != "" {
		if err := loadPriceDB(j, r.PriceDBPath); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// loadPriceDB reads a file of P directives into the journal's price
// database.
func loadPriceDB(j *journal.Journal, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parse.NewParser(j).Parse(path, src)
}

// runReport executes run once, or in a watch loop when --watch is set.
// Telemetry, when enabled, is reported to stderr after each run.
func runReport(globals *Globals, options *ReportOptions, run func(ctx context.Context, w io.Writer) error) error {
	execute := func() error {
		ctx := context.Background()
		var collector *telemetry.TimingCollector
		if globals.Telemetry {
			collector = telemetry.NewTimingCollector()
			ctx = telemetry.WithCollector(ctx, collector)
		}

		var w io.Writer = os.Stdout
		var pager *output.Pager
		if options.Pager != "" && isTerminal() {
			p, err := output.StartPager(options.Pager)
			if err != nil {
				return err
			}
			pager = p
			w = p
		}

		err := run(ctx, w)
		if pager != nil {
			if cerr := pager.Close(); err == nil {
				err = cerr
			}
		}
		if collector != nil {
			collector.Report(os.Stderr, output.NewStyles(os.Stderr))
		}
		return err
	}

	if !globals.Watch || globals.File.Filename == "<stdin>" {
		return execute()
	}

	// In the watch loop errors are reported and watching continues; parse
	// errors come with their source context.
	reportError := func(err error) {
		source, _ := globals.File.GetSourceContent()
		fmt.Fprintln(os.Stderr, NewErrorRenderer(source).Render(err))
	}

	if err := execute(); err != nil {
		reportError(err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(globals.File.GetAbsoluteFilename()); err != nil {
		return err
	}
	styles := output.NewStyles(os.Stderr)
	printInfof(os.Stderr, "watching %s", styles.FilePath(globals.File.Filename))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := execute(); err != nil {
				reportError(err)
			} else {
				printSuccess(os.Stderr, "report updated")
			}
			// Editors often replace the file; re-add the path so renames
			// keep being watched.
			_ = watcher.Add(globals.File.GetAbsoluteFilename())
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(os.Stderr, werr.Error())
		}
	}
}
