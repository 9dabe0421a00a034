// Package expr implements the value-expression language evaluated by report
// stages and format strings: a small arithmetic/predicate language over
// postings, accounts, amounts and dates.
//
// Expressions are parsed once into an AST and evaluated against a Scope,
// which resolves identifiers to functions or values. Scopes chain upward:
// a posting-bound scope falls back to the report scope, which falls back to
// the session. Child scopes hold their parent by non-owning reference and
// must not outlive it.
package expr

import (
	"fmt"

	"github.com/robinvdvleuten/ledger/journal"
)

// Resolver is a name binding: a function from evaluated arguments to a
// value. Plain values are nullary resolvers.
type Resolver func(args []journal.Value) (journal.Value, error)

// ConstantResolver binds a fixed value to a name.
func ConstantResolver(v journal.Value) Resolver {
	return func([]journal.Value) (journal.Value, error) { return v, nil }
}

// Scope resolves identifiers used by value expressions and output formats.
type Scope interface {
	Lookup(name string) (Resolver, bool)
}

// UnknownNameError reports an identifier no scope in the chain could
// resolve.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown expression name %q", e.Name)
}

// SymbolScope is a map-backed scope with an optional parent fallback.
type SymbolScope struct {
	parent  Scope
	symbols map[string]Resolver
}

// NewSymbolScope creates an empty scope chained to parent (which may be
// nil).
func NewSymbolScope(parent Scope) *SymbolScope {
	return &SymbolScope{parent: parent, symbols: make(map[string]Resolver)}
}

// Define binds name to a resolver in this scope.
func (s *SymbolScope) Define(name string, r Resolver) {
	s.symbols[name] = r
}

// DefineValue binds name to a constant value.
func (s *SymbolScope) DefineValue(name string, v journal.Value) {
	s.symbols[name] = ConstantResolver(v)
}

// Lookup resolves name in this scope, then in the parent chain.
func (s *SymbolScope) Lookup(name string) (Resolver, bool) {
	if r, ok := s.symbols[name]; ok {
		return r, true
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return nil, false
}
