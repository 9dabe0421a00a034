package journal

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Account is a node in the hierarchical account tree. The root ("master")
// account has an empty name and is owned by the journal; every other account
// is owned by its parent. An account's full name is the ":"-joined path from
// the root.
type Account struct {
	Name     string
	Parent   *Account
	children map[string]*Account

	fullname string // cached, built on first use

	xdata *AccountXdata
}

// AccountXdata is per-report scratch state attached to an account. It is
// created on demand during a report and cleared by Journal.CleanAccounts.
type AccountXdata struct {
	// Value is the sum of the amounts of postings assigned directly to the
	// account during the current report.
	Value Value

	// Total is Value plus the totals of all children, computed by
	// CalculateTotals.
	Total Value

	// Count is the number of postings assigned directly to the account.
	Count int

	// SortValue caches the sort key during a sorted account walk.
	SortValue Value

	Visited    bool
	Matching   bool
	SortCalc   bool
	ToDisplay  bool
	Displayed  bool
}

// NewAccount creates a detached account. Use Journal.FindAccount to create
// accounts inside a tree.
func NewAccount(name string, parent *Account) *Account {
	return &Account{Name: name, Parent: parent, children: make(map[string]*Account)}
}

// FullName returns the ":"-joined path from the root, excluding the unnamed
// root itself.
func (a *Account) FullName() string {
	if a.fullname != "" || a.Parent == nil {
		return a.fullname
	}
	segments := []string{}
	for n := a; n != nil && n.Parent != nil; n = n.Parent {
		segments = append(segments, n.Name)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	a.fullname = strings.Join(segments, ":")
	return a.fullname
}

func (a *Account) String() string { return a.FullName() }

// Depth returns the number of ancestors between the account and the root.
func (a *Account) Depth() int {
	depth := 0
	for n := a; n.Parent != nil; n = n.Parent {
		depth++
	}
	return depth
}

// FindChild returns the named direct child, creating it when create is true.
func (a *Account) FindChild(name string, create bool) *Account {
	if child, ok := a.children[name]; ok {
		return child
	}
	if !create {
		return nil
	}
	child := NewAccount(name, a)
	a.children[name] = child
	return child
}

// Children returns the direct children sorted by name.
func (a *Account) Children() []*Account {
	out := make([]*Account, 0, len(a.children))
	for _, c := range a.children {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Account) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// HasXdata reports whether report scratch state has been attached.
func (a *Account) HasXdata() bool { return a.xdata != nil }

// Xdata returns the account's report scratch state, creating it on demand.
func (a *Account) Xdata() *AccountXdata {
	if a.xdata == nil {
		a.xdata = &AccountXdata{}
	}
	return a.xdata
}

// ClearXdata drops the scratch state of the account and all descendants.
func (a *Account) ClearXdata() {
	a.xdata = nil
	for _, c := range a.children {
		c.ClearXdata()
	}
}
