package cli

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	"github.com/robinvdvleuten/ledger/expr"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/output"
	"github.com/robinvdvleuten/ledger/report"
)

// ArgsCmd shows how report arguments translate into a predicate.
type ArgsCmd struct {
	Query []string `arg:"" optional:"" help:"Arguments as given to a report command."`
}

func (cmd *ArgsCmd) Run(kctx *kong.Context) error {
	query := BuildQuery(cmd.Query)
	if query == "" {
		fmt.Println("no predicate (all postings match)")
		return nil
	}
	fmt.Printf("predicate: %s\n", query)

	parsed, err := expr.Parse(query)
	if err != nil {
		return err
	}
	repr.Println(parsed)
	return nil
}

// ParseExprCmd shows how a value expression parses.
type ParseExprCmd struct {
	Expr string `arg:"" help:"Value expression to parse."`
}

func (cmd *ParseExprCmd) Run(kctx *kong.Context) error {
	parsed, err := expr.Parse(cmd.Expr)
	if err != nil {
		return err
	}
	repr.Println(parsed)
	return nil
}

// PeriodCmd shows how a period expression parses.
type PeriodCmd struct {
	Period string `arg:"" help:"Period expression, e.g. 'monthly from 2024'."`
}

func (cmd *PeriodCmd) Run(kctx *kong.Context) error {
	interval, err := journal.ParseInterval(cmd.Period)
	if err != nil {
		return err
	}
	repr.Println(interval)
	return nil
}

// EvalCmd evaluates a value expression against the report scope and prints
// the result.
type EvalCmd struct {
	Expr string `arg:"" help:"Value expression to evaluate."`
}

func (cmd *EvalCmd) Run(kctx *kong.Context, globals *Globals) error {
	parsed, err := expr.Parse(cmd.Expr)
	if err != nil {
		return err
	}

	j := journal.New()
	if globals.File.Filename != "" {
		loaded, err := globals.File.LoadJournal("")
		if err != nil {
			return err
		}
		j = loaded
	}

	value, err := parsed.Calc(report.NewReport(j))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, value)
	return nil
}

// FormatStrCmd shows how a format string parses.
type FormatStrCmd struct {
	Format string `arg:"" help:"Format string to parse."`
}

func (cmd *FormatStrCmd) Run(kctx *kong.Context) error {
	parsed, err := output.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}
	repr.Println(parsed)
	return nil
}
