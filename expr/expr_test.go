package expr

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/ledger/journal"
	"github.com/shopspring/decimal"
)

func calc(t *testing.T, text string, scope Scope) journal.Value {
	t.Helper()
	e, err := Parse(text)
	assert.NoError(t, err)
	v, err := e.Calc(scope)
	assert.NoError(t, err)
	return v
}

func number(t *testing.T, v journal.Value) decimal.Decimal {
	t.Helper()
	a, ok := v.AsAmount()
	assert.True(t, ok)
	return a.Number
}

func TestArithmetic(t *testing.T) {
	scope := NewSymbolScope(nil)

	tests := []struct {
		text     string
		expected string
	}{
		{"1 + 2", "3"},
		{"10 - 3", "7"},
		{"2 * 3", "6"},
		{"7 / 2", "3.5"},
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"-5 + 3", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := number(t, calc(t, tt.text, scope))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)))
		})
	}
}

func TestComparisons(t *testing.T) {
	scope := NewSymbolScope(nil)

	tests := []struct {
		text     string
		expected bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 2", true},
		{"2 >= 3", false},
		{"2 == 2", true},
		{"2 = 2", true},
		{"2 != 2", false},
		{"1 < 2 & 2 < 3", true},
		{"1 > 2 | 2 < 3", true},
		{"1 > 2 or 2 < 3", true},
		{"1 < 2 and 2 > 3", false},
		{"!(1 < 2)", false},
		{"not (1 < 2)", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := calc(t, tt.text, scope).AsBool()
			assert.True(t, ok)
			assert.Equal(t, got, tt.expected)
		})
	}
}

func TestRegexMatch(t *testing.T) {
	scope := NewSymbolScope(nil)
	scope.DefineValue("account", journal.StringValue("Expenses:Food:Groceries"))
	scope.DefineValue("payee", journal.StringValue("Trader Joe's"))

	tests := []struct {
		text     string
		expected bool
	}{
		{"account =~ /Food/", true},
		{"account =~ /food/", true}, // case-insensitive
		{"account =~ /^Expenses/", true},
		{"account !~ /Income/", true},
		{"payee =~ /joe/", true},
		{"account =~ /Auto/", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := calc(t, tt.text, scope).AsBool()
			assert.True(t, ok)
			assert.Equal(t, got, tt.expected)
		})
	}
}

func TestDateLiterals(t *testing.T) {
	scope := NewSymbolScope(nil)
	scope.DefineValue("d", journal.DateValue(time.Date(2009, time.February, 15, 0, 0, 0, 0, time.UTC)))

	got, ok := calc(t, "d >= [2009/01/01]", scope).AsBool()
	assert.True(t, ok)
	assert.True(t, got)

	got, ok = calc(t, "d < [2009/02/01]", scope).AsBool()
	assert.True(t, ok)
	assert.False(t, got)
}

func TestStringLiterals(t *testing.T) {
	scope := NewSymbolScope(nil)
	scope.DefineValue("code", journal.StringValue("100"))

	got, ok := calc(t, `code == "100"`, scope).AsBool()
	assert.True(t, ok)
	assert.True(t, got)
}

func TestUnknownName(t *testing.T) {
	e, err := Parse("bogus + 1")
	assert.NoError(t, err)

	_, err = e.Calc(NewSymbolScope(nil))
	var uerr *UnknownNameError
	assert.True(t, errors.As(err, &uerr))
	assert.Equal(t, uerr.Name, "bogus")
}

func TestScopeChaining(t *testing.T) {
	parent := NewSymbolScope(nil)
	parent.DefineValue("a", journal.IntValue(1))
	parent.DefineValue("b", journal.IntValue(2))

	child := NewSymbolScope(parent)
	child.DefineValue("a", journal.IntValue(10))

	// The child shadows "a" and inherits "b".
	got, ok := calc(t, "a + b", child).AsInt()
	assert.True(t, ok)
	assert.Equal(t, got, int64(12))
}

func TestCallSyntax(t *testing.T) {
	scope := NewSymbolScope(nil)
	scope.Define("twice", func(args []journal.Value) (journal.Value, error) {
		a, _ := args[0].AsAmount()
		return journal.AmountValue(a.Mul(decimal.NewFromInt(2))), nil
	})

	got := number(t, calc(t, "twice(21)", scope))
	assert.True(t, got.Equal(decimal.NewFromInt(42)))
}

func TestPredicate(t *testing.T) {
	scope := NewSymbolScope(nil)

	e, err := Parse("1 < 2")
	assert.NoError(t, err)
	ok, err := e.Predicate(scope)
	assert.NoError(t, err)
	assert.True(t, ok)

	// A nil expression is vacuously true.
	var nilExpr *Expr
	ok, err = nilExpr.Predicate(scope)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"1 +",
		"(1 + 2",
		"/unterminated",
		`"unterminated`,
		"[not a date]",
		"1 ~ 2",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			assert.Error(t, err)
		})
	}
}
