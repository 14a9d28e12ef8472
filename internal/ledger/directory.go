package ledger

import (
	"fmt"
	"strings"
)

// EthSymbol is the ledger currency for the chain's native asset.
const EthSymbol = "ETH"

// Direction says which side of a transfer an address sits on.
type Direction int

const (
	Source Direction = iota
	Destination
)

func (d Direction) String() string {
	switch d {
	case Source:
		return "source"
	case Destination:
		return "destination"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Account maps one chain address to a ledger account name. Owned
// accounts are the ones whose activity drives the ledger.
type Account struct {
	Name    string
	Address string
	Owned   bool
}

// Directory resolves chain addresses to ledger accounts, with
// income/expense fallbacks for addresses it has never seen.
type Directory struct {
	Accounts       []Account
	DefaultIncome  string
	DefaultExpense string
	FeeAccount     string
	PnLAccount     string
	BaseCurrency   string
}

// Find returns the account registered for an address. Address
// comparison is case-insensitive.
func (d *Directory) Find(address string) (Account, bool) {
	for _, account := range d.Accounts {
		if SameAddress(account.Address, address) {
			return account, true
		}
	}
	return Account{}, false
}

// AccountName resolves an address to a ledger account name. An unknown
// address falls back to the default income account when it is the
// source of the transfer, and the default expense account when it is
// the destination. Panics on an unrecognized direction: that is a
// programming error, not bad input.
func (d *Directory) AccountName(address string, dir Direction) string {
	if account, ok := d.Find(address); ok {
		return account.Name
	}
	switch dir {
	case Source:
		return d.DefaultIncome
	case Destination:
		return d.DefaultExpense
	}
	panic(fmt.Sprintf("unknown transfer direction %d", int(dir)))
}

// Owned reports whether an address belongs to the ledger's owner.
func (d *Directory) Owned(address string) bool {
	account, ok := d.Find(address)
	return ok && account.Owned
}

// OwnedAccounts returns the accounts whose on-chain activity should be
// fetched.
func (d *Directory) OwnedAccounts() []Account {
	var owned []Account
	for _, account := range d.Accounts {
		if account.Owned {
			owned = append(owned, account)
		}
	}
	return owned
}

// IsAsset reports whether an account name lives under the asset root.
func IsAsset(accountName string) bool {
	return strings.HasPrefix(accountName, "Assets")
}

// SameAddress compares two chain addresses ignoring case.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
