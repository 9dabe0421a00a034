package output

import (
	"fmt"
	"io"

	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/report"
)

// PrintWriter renders the posting stream back as journal text, grouping
// consecutive postings of the same entry under one header. Amounts that
// were inferred during balancing are elided so the output round-trips.
type PrintWriter struct {
	w       io.Writer
	report  *report.Report
	entry   *journal.Entry
	pending []*journal.Posting
}

// NewPrintWriter creates a print formatter writing to w.
func NewPrintWriter(w io.Writer, r *report.Report) *PrintWriter {
	return &PrintWriter{w: w, report: r}
}

func (pw *PrintWriter) Accept(p *journal.Posting) error {
	if p.Entry != pw.entry && pw.entry != nil {
		if err := pw.writeEntry(); err != nil {
			return err
		}
	}
	pw.entry = p.Entry
	pw.pending = append(pw.pending, p)
	return nil
}

func (pw *PrintWriter) Flush() error {
	if pw.entry == nil {
		return nil
	}
	return pw.writeEntry()
}

func (pw *PrintWriter) writeEntry() error {
	entry := pw.entry
	postings := pw.pending
	pw.entry = nil
	pw.pending = nil

	date := entry.ActualDate().Format(pw.report.OutputDateFormat)
	if entry.EffectiveDate != nil {
		date = entry.Date.Format(pw.report.OutputDateFormat) +
			"=" + entry.EffectiveDate.Format(pw.report.OutputDateFormat)
	}
	header := date
	if s := entry.State.String(); s != "" {
		header += " " + s
	}
	if entry.Code != "" {
		header += " (" + entry.Code + ")"
	}
	header += " " + entry.Payee
	if _, err := fmt.Fprintln(pw.w, header); err != nil {
		return err
	}

	for _, p := range postings {
		account := accountText(p.ReportedAccount().FullName(), p.Flags)
		line := "    " + account
		if p.Flags&journal.PostingCalculated == 0 {
			line = fmt.Sprintf("    %-34s  %12s", account, p.Amount.String())
			if p.Cost != nil {
				line += " @@ " + p.Cost.Abs().String()
			}
		}
		if p.Note != "" {
			line += "  ; " + p.Note
		}
		if _, err := fmt.Fprintln(pw.w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(pw.w)
	return err
}
