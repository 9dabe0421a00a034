package output

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/robinvdvleuten/ledger/expr"
)

// Default format strings for the report commands. A format consists of
// literal text, column specifiers `%[-][width][.max]X`, and expression
// placeholders `%(expr)`; `%/` separates the first-line format from the
// continuation format used for subsequent postings of the same entry.
const (
	RegisterFormat = "%D %-20.20P %-22.22A %12t %12T\n%/" +
		"                                 %-22.22A %12t %12T\n"
	BalanceFormat = "%20T  %_%-a\n"
	PlotFormat    = "%D %t\n"
	PlotTotalFmt  = "%D %T\n"
)

type elementKind int

const (
	elemLiteral elementKind = iota
	elemColumn
	elemExpr
)

type element struct {
	kind      elementKind
	literal   string
	spec      byte
	expr      *expr.Expr
	leftAlign bool
	width     int
	maxWidth  int
}

// Format is a compiled format string, split into first-line and
// continuation variants.
type Format struct {
	Source string
	first  []element
	next   []element
}

// FieldFunc resolves a column specifier to its text for the current row.
type FieldFunc func(spec byte) (string, error)

// ParseFormat compiles a format string.
func ParseFormat(src string) (*Format, error) {
	f := &Format{Source: src}

	parts := strings.SplitN(src, "%/", 2)
	first, err := parseElements(parts[0])
	if err != nil {
		return nil, err
	}
	f.first = first
	if len(parts) == 2 {
		next, err := parseElements(parts[1])
		if err != nil {
			return nil, err
		}
		f.next = next
	}
	return f, nil
}

// MustParseFormat compiles a format string known to be valid.
func MustParseFormat(src string) *Format {
	f, err := ParseFormat(src)
	if err != nil {
		panic(err)
	}
	return f
}

func parseElements(src string) ([]element, error) {
	var elements []element
	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			elements = append(elements, element{kind: elemLiteral, literal: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '\\':
			if i+1 == len(src) {
				return nil, fmt.Errorf("format %q: trailing backslash", src)
			}
			i++
			switch src[i] {
			case 'n':
				literal.WriteByte('\n')
			case 't':
				literal.WriteByte('\t')
			default:
				literal.WriteByte(src[i])
			}
		case '%':
			if i+1 == len(src) {
				return nil, fmt.Errorf("format %q: trailing %%", src)
			}
			if src[i+1] == '%' {
				literal.WriteByte('%')
				i++
				continue
			}
			flushLiteral()

			el := element{kind: elemColumn}
			i++
			if src[i] == '-' {
				el.leftAlign = true
				i++
			}
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				el.width = el.width*10 + int(src[i]-'0')
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && src[i] >= '0' && src[i] <= '9' {
					el.maxWidth = el.maxWidth*10 + int(src[i]-'0')
					i++
				}
			}
			if i == len(src) {
				return nil, fmt.Errorf("format %q: incomplete specifier", src)
			}
			if src[i] == '(' {
				depth := 1
				j := i + 1
				for ; j < len(src) && depth > 0; j++ {
					switch src[j] {
					case '(':
						depth++
					case ')':
						depth--
					}
				}
				if depth != 0 {
					return nil, fmt.Errorf("format %q: unbalanced parentheses", src)
				}
				parsed, err := expr.Parse(src[i+1 : j-1])
				if err != nil {
					return nil, fmt.Errorf("format %q: %w", src, err)
				}
				el.kind = elemExpr
				el.expr = parsed
				i = j - 1
			} else {
				el.spec = src[i]
			}
			elements = append(elements, el)
		default:
			literal.WriteByte(c)
		}
	}
	flushLiteral()
	return elements, nil
}

// Render writes the first-line format resolved against the scope and field
// function.
func (f *Format) Render(b *strings.Builder, scope expr.Scope, field FieldFunc) error {
	return renderElements(b, f.first, scope, field)
}

// RenderNext writes the continuation format, falling back to the first-line
// format when none was given.
func (f *Format) RenderNext(b *strings.Builder, scope expr.Scope, field FieldFunc) error {
	elements := f.next
	if elements == nil {
		elements = f.first
	}
	return renderElements(b, elements, scope, field)
}

func renderElements(b *strings.Builder, elements []element, scope expr.Scope, field FieldFunc) error {
	for _, el := range elements {
		switch el.kind {
		case elemLiteral:
			b.WriteString(el.literal)
		case elemColumn:
			text, err := field(el.spec)
			if err != nil {
				return err
			}
			b.WriteString(el.pad(text))
		case elemExpr:
			v, err := el.expr.Calc(scope)
			if err != nil {
				return err
			}
			b.WriteString(el.pad(v.String()))
		}
	}
	return nil
}

func (el element) pad(s string) string {
	if el.maxWidth > 0 && runewidth.StringWidth(s) > el.maxWidth {
		s = runewidth.Truncate(s, el.maxWidth, "..")
	}
	if el.width > 0 {
		if el.leftAlign {
			s = runewidth.FillRight(s, el.width)
		} else {
			s = runewidth.FillLeft(s, el.width)
		}
	}
	return s
}
