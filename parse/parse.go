// Package parse reads journal text into the data model: dated entries with
// indented postings, price directives, and file inclusion. The format is
// line oriented; indentation decides whether a line opens an entry or adds
// a posting to the current one.
package parse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robinvdvleuten/ledger/journal"
	"github.com/shopspring/decimal"
)

// ParseError reports a syntax error with its source position.
type ParseError struct {
	Filename string
	Line     int
	Message  string
}

func (e *ParseError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
}

// Parser reads journal text into a journal.
type Parser struct {
	journal  *journal.Journal
	filename string
	line     int

	// DefaultYear completes partial dates like "3/15", set by the Y
	// directive.
	DefaultYear int

	// DateLayout overrides the accepted input date formats when set.
	DateLayout string
}

// NewParser creates a parser that appends to j.
func NewParser(j *journal.Journal) *Parser {
	return &Parser{journal: j}
}

// ParseFile reads and parses one journal file, following include
// directives relative to its directory.
func (p *Parser) ParseFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return p.parseNamed(path, src)
}

// Parse parses journal text from a byte buffer.
func (p *Parser) Parse(filename string, src []byte) error {
	return p.parseNamed(filename, src)
}

func (p *Parser) parseNamed(filename string, src []byte) error {
	prevName, prevLine := p.filename, p.line
	p.filename, p.line = filename, 0
	defer func() { p.filename, p.line = prevName, prevLine }()

	lines := strings.Split(string(src), "\n")
	var entry *journal.Entry

	finish := func() error {
		if entry == nil {
			return nil
		}
		if err := p.journal.AddEntry(entry); err != nil {
			return p.errorf("%s", err)
		}
		entry = nil
		return nil
	}

	for i, raw := range lines {
		p.line = i + 1
		line := strings.TrimRight(raw, " \t\r")
		if line == "" {
			if err := finish(); err != nil {
				return err
			}
			continue
		}

		switch c := line[0]; {
		case c == ';' || c == '#' || c == '%' || c == '|' || c == '*':
			continue
		case c == ' ' || c == '\t':
			if entry == nil {
				return p.errorf("posting outside of an entry")
			}
			posting, err := p.parsePosting(strings.TrimLeft(line, " \t"))
			if err != nil {
				return err
			}
			entry.AddPosting(posting)
		default:
			if err := finish(); err != nil {
				return err
			}
			var err error
			entry, err = p.parseDirective(line)
			if err != nil {
				return err
			}
		}
	}
	return finish()
}

// parseDirective handles a non-indented line: an entry header or one of
// the single-letter directives. A non-nil entry is returned only for entry
// headers.
func (p *Parser) parseDirective(line string) (*journal.Entry, error) {
	switch line[0] {
	case 'P':
		return nil, p.parsePriceDirective(line)
	case 'Y':
		arg := strings.TrimSpace(line[1:])
		year, err := time.Parse("2006", arg)
		if err != nil {
			return nil, p.errorf("invalid year directive %q", arg)
		}
		p.DefaultYear = year.Year()
		return nil, nil
	}

	if line[0] >= '0' && line[0] <= '9' {
		return p.parseEntryHeader(line)
	}

	if rest, ok := strings.CutPrefix(line, "include "); ok {
		path := strings.TrimSpace(rest)
		if !filepath.IsAbs(path) && p.filename != "" {
			path = filepath.Join(filepath.Dir(p.filename), path)
		}
		return nil, p.ParseFile(path)
	}

	return nil, p.errorf("unexpected directive %q", line)
}

// parseEntryHeader parses "DATE[=EDATE] [*|!] [(CODE)] PAYEE".
func (p *Parser) parseEntryHeader(line string) (*journal.Entry, error) {
	word, rest := splitWord(line)

	dateText, effectiveText, hasEffective := strings.Cut(word, "=")
	date, err := p.parseDate(dateText)
	if err != nil {
		return nil, p.errorf("invalid date %q", dateText)
	}
	entry := journal.NewEntry(date, "")
	if hasEffective {
		effective, err := p.parseDate(effectiveText)
		if err != nil {
			return nil, p.errorf("invalid effective date %q", effectiveText)
		}
		entry.EffectiveDate = &effective
	}

	if rest != "" {
		switch rest[0] {
		case '*':
			entry.State = journal.Cleared
			rest = strings.TrimLeft(rest[1:], " \t")
		case '!':
			entry.State = journal.Pending
			rest = strings.TrimLeft(rest[1:], " \t")
		}
	}
	if rest != "" && rest[0] == '(' {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, p.errorf("unterminated code in %q", line)
		}
		entry.Code = rest[1:end]
		rest = strings.TrimLeft(rest[end+1:], " \t")
	}

	if note := strings.IndexByte(rest, ';'); note >= 0 {
		rest = strings.TrimRight(rest[:note], " \t")
	}
	entry.Payee = rest
	return entry, nil
}

// parsePosting parses "ACCOUNT [ AMOUNT [@ PRICE | @@ COST]] [; NOTE]".
// Account and amount are separated by two or more spaces or a tab.
func (p *Parser) parsePosting(line string) (*journal.Posting, error) {
	posting := &journal.Posting{}

	if note := strings.Index(line, " ;"); note >= 0 {
		posting.Note = strings.TrimSpace(line[note+2:])
		line = strings.TrimRight(line[:note], " \t")
	} else if line[0] == ';' {
		return nil, p.errorf("comment where a posting was expected")
	}

	accountText := line
	amountText := ""
	if sep := postingSeparator(line); sep >= 0 {
		accountText = strings.TrimRight(line[:sep], " \t")
		amountText = strings.TrimLeft(line[sep:], " \t")
	}

	name := accountText
	switch {
	case strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")"):
		posting.Flags |= journal.PostingVirtual
		name = name[1 : len(name)-1]
	case strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]"):
		posting.Flags |= journal.PostingVirtual | journal.PostingMustBalance
		name = name[1 : len(name)-1]
	}
	if name == "" {
		return nil, p.errorf("posting has no account")
	}
	posting.Account = p.journal.FindAccount(name, true)

	if amountText == "" {
		return posting, nil
	}

	amountPart := amountText
	var costPart string
	var perUnit bool
	if at := strings.Index(amountText, "@@"); at >= 0 {
		amountPart = strings.TrimRight(amountText[:at], " \t")
		costPart = strings.TrimLeft(amountText[at+2:], " \t")
	} else if at := strings.IndexByte(amountText, '@'); at >= 0 {
		amountPart = strings.TrimRight(amountText[:at], " \t")
		costPart = strings.TrimLeft(amountText[at+1:], " \t")
		perUnit = true
	}

	amount, err := p.parseAmount(amountPart)
	if err != nil {
		return nil, err
	}
	posting.Amount = amount

	if costPart != "" {
		cost, err := p.parseAmount(costPart)
		if err != nil {
			return nil, err
		}
		if perUnit {
			cost.Number = cost.Number.Mul(amount.Number.Abs())
		}
		// The cost carries the posting's sign so entries balance after
		// conversion.
		if amount.Sign() < 0 {
			cost = cost.Abs().Negated()
		} else {
			cost = cost.Abs()
		}
		posting.Cost = &cost
	}
	return posting, nil
}

// parsePriceDirective parses "P DATE [TIME] SYMBOL AMOUNT".
func (p *Parser) parsePriceDirective(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return p.errorf("malformed price directive %q", line)
	}
	fields = fields[1:]

	date, err := p.parseDate(fields[0])
	if err != nil {
		return p.errorf("invalid price date %q", fields[0])
	}
	fields = fields[1:]
	if clock, cerr := time.Parse("15:04:05", fields[0]); cerr == nil && len(fields) > 2 {
		date = date.Add(time.Duration(clock.Hour())*time.Hour +
			time.Duration(clock.Minute())*time.Minute +
			time.Duration(clock.Second())*time.Second)
		fields = fields[1:]
	}
	if len(fields) < 2 {
		return p.errorf("malformed price directive %q", line)
	}

	symbol := fields[0]
	price, err := p.parseAmount(strings.Join(fields[1:], " "))
	if err != nil {
		return err
	}
	if price.Commodity == nil {
		return p.errorf("price for %s has no commodity", symbol)
	}
	p.journal.Pool.FindOrCreate(symbol)
	if err := p.journal.Prices.AddPrice(date, symbol, price.Commodity.Symbol, price.Number); err != nil {
		return p.errorf("%s", err)
	}
	return nil
}

// parseAmount reads "10.00 USD", "USD 10.00" or "$10.00" forms, interning
// the commodity and widening its display precision.
func (p *Parser) parseAmount(s string) (journal.Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return journal.Amount{}, p.errorf("empty amount")
	}

	// Prefixed symbol, e.g. "$10.00" or "-$10.00".
	neg := false
	body := s
	if body[0] == '-' {
		neg = true
		body = body[1:]
	}
	if len(body) > 0 && !isAmountDigit(body[0]) {
		end := 0
		for end < len(body) && !isAmountDigit(body[end]) && body[end] != '-' && body[end] != ' ' {
			end++
		}
		symbol := body[0:end]
		numberText := strings.TrimSpace(body[end:])
		number, err := decimal.NewFromString(strings.ReplaceAll(numberText, ",", ""))
		if err != nil {
			return journal.Amount{}, p.errorf("invalid amount %q", s)
		}
		if neg {
			number = number.Neg()
		}
		return journal.NewAmount(number, p.journal.Pool.Observe(symbol, number)), nil
	}

	amount, err := journal.ParseAmount(p.journal.Pool, strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return journal.Amount{}, p.errorf("%s", err)
	}
	return amount, nil
}

// parseDate accepts the configured layout or the common slashed, dashed
// and dotted forms; month/day forms take the default year.
func (p *Parser) parseDate(s string) (time.Time, error) {
	if p.DateLayout != "" {
		if t, err := time.Parse(p.DateLayout, s); err == nil {
			return t, nil
		}
	}
	if t, err := journal.ParseDate(s); err == nil {
		return t, nil
	}
	if p.DefaultYear > 0 {
		// Non-padded layouts accept both "3/15" and "03/15".
		for _, layout := range []string{"1/2", "1-2", "1.2"} {
			if t, err := time.Parse(layout, s); err == nil {
				return time.Date(p.DefaultYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Filename: p.filename, Line: p.line, Message: fmt.Sprintf(format, args...)}
}

// splitWord splits the first whitespace-delimited word off a line and
// returns it with the remainder trimmed of leading whitespace.
func splitWord(line string) (string, string) {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], strings.TrimLeft(line[i+1:], " \t")
	}
	return line, ""
}

// postingSeparator finds the hard separator between account and amount: a
// tab or a run of two spaces.
func postingSeparator(line string) int {
	if tab := strings.IndexByte(line, '\t'); tab >= 0 {
		return tab
	}
	return strings.Index(line, "  ")
}

func isAmountDigit(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.'
}
