package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/report"
)

// Register renders the posting stream as a register: one line per posting
// with date, payee, account, amount and running total. Postings of the same
// entry after the first use the continuation format.
type Register struct {
	w      io.Writer
	report *report.Report
	format *Format
	styles *Styles
	last   *journal.Entry
}

// NewRegister creates a register formatter writing to w.
func NewRegister(w io.Writer, r *report.Report) (*Register, error) {
	src := r.FormatString
	switch {
	case r.AmountData:
		src = PlotFormat
	case r.TotalData:
		src = PlotTotalFmt
	case src == "":
		src = RegisterFormat
	}
	format, err := ParseFormat(src)
	if err != nil {
		return nil, err
	}
	reg := &Register{w: w, report: r, format: format}
	if r.Ansi {
		reg.styles = NewStyles(w)
	}
	return reg, nil
}

func (reg *Register) Accept(p *journal.Posting) error {
	scope := reg.report.PostingScope(p)
	field := reg.fieldFunc(p)

	var b strings.Builder
	var err error
	if p.Entry != nil && p.Entry == reg.last {
		err = reg.format.RenderNext(&b, scope, field)
	} else {
		err = reg.format.Render(&b, scope, field)
	}
	if err != nil {
		return err
	}
	reg.last = p.Entry

	line := b.String()
	if reg.styles != nil && reg.highlight(p) {
		line = reg.styles.Negative(strings.TrimSuffix(line, "\n")) + "\n"
	}
	if p.HasXdata() {
		p.Xdata().Displayed = true
	}
	_, err = io.WriteString(reg.w, line)
	return err
}

func (reg *Register) Flush() error { return nil }

// highlight reports whether the line should be colored: a negative display
// amount, or with AnsiInvert a negative running total.
func (reg *Register) highlight(p *journal.Posting) bool {
	if reg.report.AnsiInvert {
		if p.HasXdata() {
			return signOf(p.Xdata().Total) < 0
		}
		return false
	}
	return signOf(p.DisplayAmount()) < 0
}

func signOf(v journal.Value) int {
	switch v.Kind() {
	case journal.ValueInt:
		i, _ := v.AsInt()
		switch {
		case i < 0:
			return -1
		case i > 0:
			return 1
		}
		return 0
	case journal.ValueAmount:
		amt, _ := v.AsAmount()
		return amt.Sign()
	case journal.ValueBalance:
		bal, _ := v.AsBalance()
		for _, amt := range bal.Amounts() {
			if amt.Sign() < 0 {
				return -1
			}
		}
		return 1
	}
	return 0
}

func (reg *Register) fieldFunc(p *journal.Posting) FieldFunc {
	return func(spec byte) (string, error) {
		switch spec {
		case 'D':
			return p.Date().Format(reg.report.OutputDateFormat), nil
		case 'P':
			if p.Entry != nil {
				return p.Entry.Payee, nil
			}
			return "", nil
		case 'A', 'a':
			name := p.ReportedAccount().FullName()
			if spec == 'a' {
				name = p.ReportedAccount().Name
			}
			return accountText(name, p.Flags), nil
		case 't':
			return amountText(reg.report, p.DisplayAmount()), nil
		case 'T':
			total, err := reg.report.DisplayTotal.Calc(reg.report.PostingScope(p))
			if err != nil {
				return "", err
			}
			return amountText(reg.report, total), nil
		case 'C':
			if p.Entry != nil && p.Entry.Code != "" {
				return "(" + p.Entry.Code + ")", nil
			}
			return "", nil
		case 'S':
			if p.Entry != nil {
				return p.Entry.State.String(), nil
			}
			return "", nil
		case 'N':
			return p.Note, nil
		}
		return "", fmt.Errorf("unknown format specifier %%%c", spec)
	}
}

// accountText renders an account name with the virtual posting brackets.
func accountText(name string, flags journal.PostingFlags) string {
	if flags&journal.PostingVirtual == 0 {
		return name
	}
	if flags&journal.PostingMustBalance != 0 {
		return "[" + name + "]"
	}
	return "(" + name + ")"
}

// amountText renders a value, at full precision when --base is set.
func amountText(r *report.Report, v journal.Value) string {
	if r.ShowBase {
		if amt, ok := v.AsAmount(); ok {
			return amt.Number.String() + " " + amt.Commodity.String()
		}
	}
	return v.String()
}
