package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/report"
)

// BalanceWriter renders the account stream as a balance sheet: one line per
// account, indented by depth, with the subtree total leading, and a footer
// with the grand total.
type BalanceWriter struct {
	w      io.Writer
	report *report.Report
	format *Format
	styles *Styles
	rows   int
}

// NewBalanceWriter creates a balance formatter writing to w.
func NewBalanceWriter(w io.Writer, r *report.Report) (*BalanceWriter, error) {
	src := r.FormatString
	if src == "" {
		src = BalanceFormat
	}
	format, err := ParseFormat(src)
	if err != nil {
		return nil, err
	}
	bw := &BalanceWriter{w: w, report: r, format: format}
	if r.Ansi {
		bw.styles = NewStyles(w)
	}
	return bw, nil
}

func (bw *BalanceWriter) Accept(a *journal.Account) error {
	scope := bw.report.AccountScope(a)

	var b strings.Builder
	if err := bw.format.Render(&b, scope, bw.fieldFunc(a)); err != nil {
		return err
	}
	bw.rows++

	line := b.String()
	if bw.styles != nil && a.HasXdata() && signOf(a.Xdata().Total) < 0 {
		line = bw.styles.Negative(strings.TrimSuffix(line, "\n")) + "\n"
	}
	if a.HasXdata() {
		a.Xdata().Displayed = true
	}
	_, err := io.WriteString(bw.w, line)
	return err
}

// Flush writes the grand total footer, one line per commodity.
func (bw *BalanceWriter) Flush() error {
	if bw.rows == 0 {
		return nil
	}
	if _, err := io.WriteString(bw.w, strings.Repeat("-", 20)+"\n"); err != nil {
		return err
	}

	master := bw.report.Journal.Master
	total := journal.VoidValue()
	if master.HasXdata() {
		total = master.Xdata().Total
	}
	bal, err := total.ToBalance()
	if err != nil {
		return err
	}
	if bal.IsZero() && len(bal.Amounts()) == 0 {
		_, err := fmt.Fprintf(bw.w, "%20s\n", "0")
		return err
	}
	for _, amt := range bal.Amounts() {
		text := amt.String()
		if bw.styles != nil && amt.Sign() < 0 {
			text = bw.styles.Negative(fmt.Sprintf("%20s", text))
			if _, err := fmt.Fprintln(bw.w, text); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(bw.w, "%20s\n", text); err != nil {
			return err
		}
	}
	return nil
}

func (bw *BalanceWriter) fieldFunc(a *journal.Account) FieldFunc {
	return func(spec byte) (string, error) {
		switch spec {
		case 'A':
			return a.FullName(), nil
		case 'a':
			return a.Name, nil
		case '_':
			depth := a.Depth()
			if depth < 1 {
				depth = 1
			}
			return strings.Repeat("  ", depth-1), nil
		case 'T', 't':
			total, err := bw.report.DisplayTotal.Calc(bw.report.AccountScope(a))
			if err != nil {
				return "", err
			}
			return amountText(bw.report, total), nil
		case 'n':
			if a.HasXdata() {
				return fmt.Sprintf("%d", a.Xdata().Count), nil
			}
			return "0", nil
		}
		return "", fmt.Errorf("unknown format specifier %%%c", spec)
	}
}

// EquityWriter renders the account stream as a single entry that would
// reproduce each account's own balance, closed by an elided posting to the
// equity account.
type EquityWriter struct {
	w      io.Writer
	report *report.Report
	lines  []string
}

// EquityAccount closes the generated opening entry.
const EquityAccount = "Equity:Opening Balances"

// NewEquityWriter creates an equity formatter writing to w.
func NewEquityWriter(w io.Writer, r *report.Report) *EquityWriter {
	return &EquityWriter{w: w, report: r}
}

func (ew *EquityWriter) Accept(a *journal.Account) error {
	if !a.HasXdata() {
		return nil
	}
	own := a.Xdata().Value
	if own.IsZero() {
		return nil
	}
	bal, err := own.ToBalance()
	if err != nil {
		return err
	}
	for _, amt := range bal.Amounts() {
		if amt.IsZero() {
			continue
		}
		ew.lines = append(ew.lines, fmt.Sprintf("    %-34s  %12s", a.FullName(), amt.String()))
	}
	return nil
}

func (ew *EquityWriter) Flush() error {
	if len(ew.lines) == 0 {
		return nil
	}
	date := ew.report.Now().Format(ew.report.OutputDateFormat)
	if _, err := fmt.Fprintf(ew.w, "%s Opening Balances\n", date); err != nil {
		return err
	}
	for _, line := range ew.lines {
		if _, err := fmt.Fprintln(ew.w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(ew.w, "    %s\n", EquityAccount)
	return err
}
