package beancount

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceType distinguishes a per-unit trade price ("@") from a total
// trade price ("@@").
type PriceType string

const (
	PriceUnit  PriceType = "unit"
	PriceTotal PriceType = "total"
)

// Cost is an asserted acquisition cost attached to a posting. When
// Ambiguous is set the cost basis must be resolved from the holding's
// own acquisition lots and the asserted amount is not rendered.
type Cost struct {
	Amount    decimal.Decimal
	Symbol    TokenSymbol
	Ambiguous bool
}

// Price is an explicit trade price attached to a posting.
type Price struct {
	Type   PriceType
	Amount decimal.Decimal
	Symbol TokenSymbol
}

// Posting is one leg of a double-entry transaction. A posting with a
// zero amount renders as an elided leg whose amount the ledger tool
// infers to balance the transaction.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Symbol   TokenSymbol
	Cost     *Cost
	Price    *Price
	Metadata map[string]string
}

func (p *Posting) String() string {
	lines := []string{}

	major := "  " + p.Account
	if !p.Amount.IsZero() {
		major += fmt.Sprintf(" %s %s", p.Amount, p.Symbol)

		if p.Cost != nil {
			if p.Cost.Ambiguous || p.Cost.Amount.IsZero() {
				major += " {}"
			} else {
				major += fmt.Sprintf(" {%s %s}", p.Cost.Amount, p.Cost.Symbol)
			}
		}

		if p.Price != nil {
			operator := "@"
			if p.Price.Type == PriceTotal {
				operator = "@@"
			}
			major += fmt.Sprintf(" %s %s %s", operator, p.Price.Amount, p.Price.Symbol)
		}
	}
	lines = append(lines, major)

	for _, key := range sortedKeys(p.Metadata) {
		lines = append(lines, fmt.Sprintf("    %s: %q", key, p.Metadata[key]))
	}

	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
