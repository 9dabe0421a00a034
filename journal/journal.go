package journal

import "strings"

// Journal owns the account tree, the entries, and the commodity pool. It is
// read-only during a report; per-report scratch state lives in posting and
// account xdata and is cleared by CleanPostings/CleanAccounts when a report
// completes.
type Journal struct {
	Master  *Account
	Entries []*Entry
	Pool    *Pool
	Prices  *PriceDB

	// Basket receives inferred postings when an entry cannot otherwise
	// balance; unset by default.
	Basket *Account
}

// New creates an empty journal with a fresh commodity pool and price
// database.
func New() *Journal {
	return &Journal{
		Master: NewAccount("", nil),
		Pool:   NewPool(),
		Prices: NewPriceDB(),
	}
}

// FindAccount resolves a ":"-separated full name against the tree, creating
// intermediate accounts when create is true. Returns nil when not found and
// create is false.
func (j *Journal) FindAccount(fullname string, create bool) *Account {
	account := j.Master
	for len(fullname) > 0 {
		segment := fullname
		if i := strings.IndexByte(fullname, ':'); i >= 0 {
			segment, fullname = fullname[:i], fullname[i+1:]
		} else {
			fullname = ""
		}
		account = account.FindChild(segment, create)
		if account == nil {
			return nil
		}
	}
	return account
}

// AddEntry finalizes the entry (inferring an elided amount and verifying
// balance) and appends it to the journal.
func (j *Journal) AddEntry(e *Entry) error {
	if err := e.Finalize(); err != nil {
		return err
	}
	j.Entries = append(j.Entries, e)
	return nil
}

// CleanPostings clears the xdata of every posting in the journal.
func (j *Journal) CleanPostings() {
	for _, e := range j.Entries {
		for _, p := range e.Postings {
			p.ClearXdata()
		}
	}
}

// CleanEntryPostings clears the xdata of one entry's postings.
func (j *Journal) CleanEntryPostings(e *Entry) {
	for _, p := range e.Postings {
		p.ClearXdata()
	}
}

// CleanAccounts clears the xdata of every account in the tree.
func (j *Journal) CleanAccounts() {
	j.Master.ClearXdata()
}
