package cli

import (
	"context"
	"io"

	"github.com/alecthomas/kong"
	"github.com/robinvdvleuten/ledger/output"
)

// BalanceCmd shows account balances as an indented tree with a grand total
// footer.
type BalanceCmd struct {
	ReportOptions
	Query []string `arg:"" optional:"" help:"Account regexps; terms after -- match payees."`
}

func (cmd *BalanceCmd) Run(kctx *kong.Context, globals *Globals) error {
	return runReport(globals, &cmd.ReportOptions, func(ctx context.Context, w io.Writer) error {
		r, err := setupReport(globals, &cmd.ReportOptions, cmd.Query)
		if err != nil {
			return err
		}
		handler, err := output.NewBalanceWriter(w, r)
		if err != nil {
			return err
		}
		return r.AccountsReport(ctx, handler)
	})
}

// RegisterCmd shows matching postings with a running total.
type RegisterCmd struct {
	ReportOptions
	Query []string `arg:"" optional:"" help:"Account regexps; terms after -- match payees."`
}

func (cmd *RegisterCmd) Run(kctx *kong.Context, globals *Globals) error {
	return runReport(globals, &cmd.ReportOptions, func(ctx context.Context, w io.Writer) error {
		r, err := setupReport(globals, &cmd.ReportOptions, cmd.Query)
		if err != nil {
			return err
		}
		handler, err := output.NewRegister(w, r)
		if err != nil {
			return err
		}
		return r.PostingsReport(ctx, handler)
	})
}

// PrintCmd reprints matching entries as journal text.
type PrintCmd struct {
	ReportOptions
	Query []string `arg:"" optional:"" help:"Account regexps; terms after -- match payees."`
}

func (cmd *PrintCmd) Run(kctx *kong.Context, globals *Globals) error {
	return runReport(globals, &cmd.ReportOptions, func(ctx context.Context, w io.Writer) error {
		r, err := setupReport(globals, &cmd.ReportOptions, cmd.Query)
		if err != nil {
			return err
		}
		return r.PostingsReport(ctx, output.NewPrintWriter(w, r))
	})
}

// EquityCmd emits a single entry that reproduces the current account
// balances, for starting a fresh journal file.
type EquityCmd struct {
	ReportOptions
	Query []string `arg:"" optional:"" help:"Account regexps; terms after -- match payees."`
}

func (cmd *EquityCmd) Run(kctx *kong.Context, globals *Globals) error {
	return runReport(globals, &cmd.ReportOptions, func(ctx context.Context, w io.Writer) error {
		r, err := setupReport(globals, &cmd.ReportOptions, cmd.Query)
		if err != nil {
			return err
		}
		return r.AccountsReport(ctx, output.NewEquityWriter(w, r))
	})
}
