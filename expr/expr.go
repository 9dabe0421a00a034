package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robinvdvleuten/ledger/journal"
	"github.com/shopspring/decimal"
)

// Expr is a parsed value expression. Parsing happens once; Calc may be
// called any number of times against different scopes.
type Expr struct {
	Text string
	root node
}

// Parse compiles a value expression.
func Parse(text string) (*Expr, error) {
	lex := &lexer{input: text}
	root, err := lex.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if !lex.atEnd() {
		return nil, fmt.Errorf("unexpected %q at position %d in expression %q", lex.rest(), lex.pos, text)
	}
	return &Expr{Text: text, root: root}, nil
}

// MustParse compiles a value expression and panics on error. Use for
// built-in expressions known to be valid.
func MustParse(text string) *Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// Calc evaluates the expression against a scope.
func (e *Expr) Calc(scope Scope) (journal.Value, error) {
	return e.root.calc(scope)
}

// Predicate evaluates the expression and reduces the result to a truth
// value. A nil expression is vacuously true.
func (e *Expr) Predicate(scope Scope) (bool, error) {
	if e == nil {
		return true, nil
	}
	v, err := e.root.calc(scope)
	if err != nil {
		return false, err
	}
	return v.Truth(), nil
}

// AST nodes.

type node interface {
	calc(scope Scope) (journal.Value, error)
}

type literalNode struct {
	value journal.Value
}

func (n *literalNode) calc(Scope) (journal.Value, error) { return n.value, nil }

type regexNode struct {
	re *regexp.Regexp
}

func (n *regexNode) calc(Scope) (journal.Value, error) {
	// A bare regex matches the payee, per the query language shorthand.
	return journal.Value{}, fmt.Errorf("regex /%s/ must be the right side of =~ or !~", n.re.String())
}

type identNode struct {
	name string
}

func (n *identNode) calc(scope Scope) (journal.Value, error) {
	r, ok := scope.Lookup(n.name)
	if !ok {
		return journal.Value{}, &UnknownNameError{Name: n.name}
	}
	return r(nil)
}

type callNode struct {
	name string
	args []node
}

func (n *callNode) calc(scope Scope) (journal.Value, error) {
	r, ok := scope.Lookup(n.name)
	if !ok {
		return journal.Value{}, &UnknownNameError{Name: n.name}
	}
	args := make([]journal.Value, len(n.args))
	for i, a := range n.args {
		v, err := a.calc(scope)
		if err != nil {
			return journal.Value{}, err
		}
		args[i] = v
	}
	return r(args)
}

type notNode struct {
	operand node
}

func (n *notNode) calc(scope Scope) (journal.Value, error) {
	v, err := n.operand.calc(scope)
	if err != nil {
		return journal.Value{}, err
	}
	return journal.BoolValue(!v.Truth()), nil
}

type negNode struct {
	operand node
}

func (n *negNode) calc(scope Scope) (journal.Value, error) {
	v, err := n.operand.calc(scope)
	if err != nil {
		return journal.Value{}, err
	}
	return v.Negated(), nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) calc(scope Scope) (journal.Value, error) {
	// Logical operators short-circuit.
	switch n.op {
	case "&":
		left, err := n.left.calc(scope)
		if err != nil {
			return journal.Value{}, err
		}
		if !left.Truth() {
			return journal.BoolValue(false), nil
		}
		right, err := n.right.calc(scope)
		if err != nil {
			return journal.Value{}, err
		}
		return journal.BoolValue(right.Truth()), nil
	case "|":
		left, err := n.left.calc(scope)
		if err != nil {
			return journal.Value{}, err
		}
		if left.Truth() {
			return journal.BoolValue(true), nil
		}
		right, err := n.right.calc(scope)
		if err != nil {
			return journal.Value{}, err
		}
		return journal.BoolValue(right.Truth()), nil
	}

	// Regex matching evaluates only the left side; the right side must be
	// a regex (or string) literal.
	if n.op == "=~" || n.op == "!~" {
		left, err := n.left.calc(scope)
		if err != nil {
			return journal.Value{}, err
		}
		re, err := regexOperand(n.right, scope)
		if err != nil {
			return journal.Value{}, err
		}
		matched := re.MatchString(left.String())
		if n.op == "!~" {
			matched = !matched
		}
		return journal.BoolValue(matched), nil
	}

	left, err := n.left.calc(scope)
	if err != nil {
		return journal.Value{}, err
	}
	right, err := n.right.calc(scope)
	if err != nil {
		return journal.Value{}, err
	}

	switch n.op {
	case "+":
		return left.Add(right)
	case "-":
		return left.Sub(right)
	case "*", "/":
		return multiply(n.op, left, right)
	case "==", "!=", "<", "<=", ">", ">=":
		cmp, err := left.Compare(right)
		if err != nil {
			return journal.Value{}, err
		}
		switch n.op {
		case "==":
			return journal.BoolValue(cmp == 0), nil
		case "!=":
			return journal.BoolValue(cmp != 0), nil
		case "<":
			return journal.BoolValue(cmp < 0), nil
		case "<=":
			return journal.BoolValue(cmp <= 0), nil
		case ">":
			return journal.BoolValue(cmp > 0), nil
		default:
			return journal.BoolValue(cmp >= 0), nil
		}
	}
	return journal.Value{}, fmt.Errorf("unknown operator %q", n.op)
}

func regexOperand(n node, scope Scope) (*regexp.Regexp, error) {
	if rn, ok := n.(*regexNode); ok {
		return rn.re, nil
	}
	v, err := n.calc(scope)
	if err != nil {
		return nil, err
	}
	s, ok := v.AsString()
	if !ok {
		return nil, fmt.Errorf("right side of a match must be a regex, got %s", v.Kind())
	}
	return regexp.Compile("(?i)" + s)
}

func multiply(op string, left, right journal.Value) (journal.Value, error) {
	lnum, lok := numberOf(left)
	rnum, rok := numberOf(right)
	if !lok || !rok {
		return journal.Value{}, fmt.Errorf("cannot apply %s to %s and %s", op, left.Kind(), right.Kind())
	}
	if op == "/" && rnum.IsZero() {
		return journal.Value{}, fmt.Errorf("division by zero")
	}

	// Commodity, if any, comes from the left operand.
	if a, ok := left.AsAmount(); ok {
		if op == "*" {
			return journal.AmountValue(a.Mul(rnum)), nil
		}
		return journal.AmountValue(journal.Amount{Number: a.Number.Div(rnum), Commodity: a.Commodity}), nil
	}
	if op == "*" {
		return journal.AmountValue(journal.Amount{Number: lnum.Mul(rnum)}), nil
	}
	return journal.AmountValue(journal.Amount{Number: lnum.Div(rnum)}), nil
}

func numberOf(v journal.Value) (decimal.Decimal, bool) {
	switch v.Kind() {
	case journal.ValueInt:
		i, _ := v.AsInt()
		return decimal.NewFromInt(i), true
	case journal.ValueAmount:
		a, _ := v.AsAmount()
		return a.Number, true
	}
	return decimal.Decimal{}, false
}

// Lexer and Pratt parser. Precedence climbs from logical or upward; * and /
// bind tighter than + and -, comparisons sit between arithmetic and logic.

type lexer struct {
	input string
	pos   int
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lexer) atEnd() bool {
	l.skipSpace()
	return l.pos >= len(l.input)
}

func (l *lexer) rest() string {
	return l.input[l.pos:]
}

func (l *lexer) peek() byte {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// peekOp returns the longest operator at the cursor, or "".
func (l *lexer) peekOp() string {
	l.skipSpace()
	rest := l.input[l.pos:]
	for _, op := range []string{"=~", "!~", "==", "!=", "<=", ">=", "<", ">", "+", "-", "*", "/", "&", "|", "="} {
		if strings.HasPrefix(rest, op) {
			if op == "/" && l.looksLikeRegex() {
				return ""
			}
			if op == "=" {
				return "=="
			}
			return op
		}
	}
	// Word operators.
	for word, op := range map[string]string{"and": "&", "or": "|"} {
		if strings.HasPrefix(rest, word) {
			after := rest[len(word):]
			if after == "" || after[0] == ' ' || after[0] == '\t' || after[0] == '(' {
				return op
			}
		}
	}
	return ""
}

// looksLikeRegex is consulted when a '/' could open a regex literal rather
// than act as division. It only matters directly after an operator or at the
// start of the input, which is where parsePrimary calls it from.
func (l *lexer) looksLikeRegex() bool {
	return false
}

func (l *lexer) consumeOp(op string) {
	l.skipSpace()
	switch op {
	case "&", "|":
		if strings.HasPrefix(l.input[l.pos:], "and") {
			l.pos += 3
			return
		}
		if strings.HasPrefix(l.input[l.pos:], "or") {
			l.pos += 2
			return
		}
	case "==":
		if strings.HasPrefix(l.input[l.pos:], "==") {
			l.pos += 2
		} else {
			l.pos++ // bare "="
		}
		return
	}
	l.pos += len(op)
}

func precedenceOf(op string) int {
	switch op {
	case "|":
		return 1
	case "&":
		return 2
	case "==", "!=", "<", "<=", ">", ">=", "=~", "!~":
		return 3
	case "+", "-":
		return 4
	case "*", "/":
		return 5
	}
	return 0
}

func (l *lexer) parseExpr(minPrec int) (node, error) {
	left, err := l.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		op := l.peekOp()
		if op == "" {
			break
		}
		prec := precedenceOf(op)
		if prec < minPrec {
			break
		}
		l.consumeOp(op)

		right, err := l.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}

	return left, nil
}

func (l *lexer) parsePrimary() (node, error) {
	ch := l.peek()
	switch {
	case ch == 0:
		return nil, fmt.Errorf("unexpected end of expression %q", l.input)

	case ch == '(':
		l.pos++
		inner, err := l.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if l.peek() != ')' {
			return nil, fmt.Errorf("expected ')' at position %d in %q", l.pos, l.input)
		}
		l.pos++
		return inner, nil

	case ch == '!':
		// Distinguish "!" (not) from "!=" / "!~", which peekOp handles.
		if l.pos+1 < len(l.input) && (l.input[l.pos+1] == '=' || l.input[l.pos+1] == '~') {
			return nil, fmt.Errorf("unexpected %q at position %d in %q", l.input[l.pos:l.pos+2], l.pos, l.input)
		}
		l.pos++
		operand, err := l.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil

	case ch == '-':
		l.pos++
		operand, err := l.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &negNode{operand: operand}, nil

	case ch == '/':
		return l.parseRegex()

	case ch == '"':
		return l.parseString()

	case ch == '[':
		return l.parseDate()

	case ch >= '0' && ch <= '9' || ch == '.':
		return l.parseNumber()

	case isIdentStart(ch):
		return l.parseIdent()
	}

	return nil, fmt.Errorf("unexpected %q at position %d in %q", string(ch), l.pos, l.input)
}

func (l *lexer) parseRegex() (node, error) {
	l.pos++ // consume '/'
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '/' {
		if l.input[l.pos] == '\\' {
			l.pos++
		}
		l.pos++
	}
	if l.pos >= len(l.input) {
		return nil, fmt.Errorf("unterminated regex in %q", l.input)
	}
	pattern := l.input[start:l.pos]
	l.pos++ // consume closing '/'

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex /%s/: %w", pattern, err)
	}
	return &regexNode{re: re}, nil
}

func (l *lexer) parseString() (node, error) {
	l.pos++ // consume '"'
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return nil, fmt.Errorf("unterminated string in %q", l.input)
	}
	s := l.input[start:l.pos]
	l.pos++
	return &literalNode{value: journal.StringValue(s)}, nil
}

func (l *lexer) parseDate() (node, error) {
	l.pos++ // consume '['
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != ']' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return nil, fmt.Errorf("unterminated date in %q", l.input)
	}
	s := l.input[start:l.pos]
	l.pos++
	t, err := journal.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &literalNode{value: journal.DateValue(t)}, nil
}

func (l *lexer) parseNumber() (node, error) {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if (ch >= '0' && ch <= '9') || ch == '.' {
			l.pos++
		} else {
			break
		}
	}
	num, err := decimal.NewFromString(l.input[start:l.pos])
	if err != nil {
		return nil, fmt.Errorf("invalid number %q in %q", l.input[start:l.pos], l.input)
	}
	return &literalNode{value: journal.AmountValue(journal.Amount{Number: num})}, nil
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func (l *lexer) parseIdent() (node, error) {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	name := l.input[start:l.pos]

	// Word operators are not identifiers.
	if name == "and" || name == "or" {
		return nil, fmt.Errorf("unexpected operator %q at position %d in %q", name, start, l.input)
	}
	if name == "not" {
		operand, err := l.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil
	}

	if l.peekByte() == '(' {
		l.pos++
		var args []node
		if l.peek() != ')' {
			for {
				arg, err := l.parseExpr(0)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if l.peek() != ',' {
					break
				}
				l.pos++
			}
		}
		if l.peek() != ')' {
			return nil, fmt.Errorf("expected ')' after arguments of %q in %q", name, l.input)
		}
		l.pos++
		return &callNode{name: name, args: args}, nil
	}

	return &identNode{name: name}, nil
}

// peekByte returns the byte at the cursor without skipping whitespace, so a
// call's opening paren must abut the identifier.
func (l *lexer) peekByte() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}
