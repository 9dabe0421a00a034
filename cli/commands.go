package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	File      FileOrStdin `help:"Journal file to read, or - for stdin." short:"f" env:"LEDGER_FILE"`
	Telemetry bool        `help:"Show timing telemetry for operations."`
	Watch     bool        `help:"Rerun the report whenever the journal file changes."`
}

type Commands struct {
	Globals

	Balance  BalanceCmd  `cmd:"" aliases:"bal" help:"Show account balances as a tree."`
	Register RegisterCmd `cmd:"" aliases:"reg" help:"Show postings with a running total."`
	Print    PrintCmd    `cmd:"" help:"Reprint matching entries as journal text."`
	Equity   EquityCmd   `cmd:"" help:"Emit an entry that reproduces the account balances."`

	Args      ArgsCmd      `cmd:"" help:"Show how report arguments translate into a predicate."`
	ParseExpr ParseExprCmd `cmd:"" name:"parse" help:"Show how a value expression parses."`
	Period    PeriodCmd    `cmd:"" help:"Show how a period expression parses."`
	Eval      EvalCmd      `cmd:"" help:"Evaluate a value expression and print the result."`
	FormatStr FormatStrCmd `cmd:"" name:"format" help:"Show how a format string parses."`
}
