package beancount

import (
	"fmt"
	"strings"
	"time"
)

// Flag marks a transaction as completed ("*") or incomplete ("!").
type Flag string

const (
	FlagCompleted  Flag = "*"
	FlagIncomplete Flag = "!"
)

// TxMeta is the metadata attached to every exported transaction. The
// key set is relied upon by downstream tooling and must not change.
type TxMeta struct {
	Hash        string
	BlockNumber string
}

// Transaction is a dated double-entry ledger transaction. It stays
// mutable while the middleware chain runs and must not be modified
// after the transformer finalizes it.
type Transaction struct {
	Date      time.Time
	Flag      Flag
	Payee     string
	Narration string
	Meta      TxMeta
	Postings  []*Posting
}

// NewTransaction creates an empty completed transaction.
func NewTransaction(date time.Time, meta TxMeta) *Transaction {
	return &Transaction{
		Date: date,
		Flag: FlagCompleted,
		Meta: meta,
	}
}

func (t *Transaction) String() string {
	lines := []string{}

	major := fmt.Sprintf("%s %s", formatDate(t.Date), t.Flag)
	if t.Payee != "" {
		major += fmt.Sprintf(" %q", t.Payee)
	}
	if t.Narration != "" {
		major += fmt.Sprintf(" %q", t.Narration)
	}
	lines = append(lines, major)

	if t.Meta.Hash != "" {
		lines = append(lines, fmt.Sprintf("  hash: %q", t.Meta.Hash))
	}
	if t.Meta.BlockNumber != "" {
		lines = append(lines, fmt.Sprintf("  block-number: %q", t.Meta.BlockNumber))
	}

	for _, posting := range t.Postings {
		lines = append(lines, posting.String())
	}

	return strings.Join(lines, "\n")
}
