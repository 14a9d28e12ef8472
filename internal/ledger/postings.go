package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/yurenju/paisu/internal/beancount"
)

// TransferPostings builds the balanced pair of postings for moving
// amount of symbol from one account to another. The source leg is
// negated so the pair always sums to zero. When the source is an asset
// account its cost is marked ambiguous: the outflow must be priced
// from the asset's own acquisition lots, not the asserted price.
func TransferPostings(fromAccount, toAccount string, amount decimal.Decimal, symbol beancount.TokenSymbol, cost beancount.Cost) []*beancount.Posting {
	fromCost := cost
	if IsAsset(fromAccount) {
		fromCost.Ambiguous = true
	}

	return []*beancount.Posting{
		{
			Account: fromAccount,
			Amount:  amount.Neg(),
			Symbol:  symbol,
			Cost:    &fromCost,
		},
		{
			Account: toAccount,
			Amount:  amount,
			Symbol:  symbol,
			Cost:    &cost,
		},
	}
}

// IsExchange reports whether a merged transaction moves value between
// two asset accounts. Such transactions must not keep default
// income/expense legs, or trade-internal flows would pollute the
// categorization accounts.
func IsExchange(combined *CombinedTx, directory *Directory) bool {
	var assetSource, assetDestination bool

	check := func(from, to string) {
		if IsAsset(directory.AccountName(from, Source)) {
			assetSource = true
		}
		if IsAsset(directory.AccountName(to, Destination)) {
			assetDestination = true
		}
	}

	if combined.Normal != nil {
		check(combined.Normal.From, combined.Normal.To)
	}
	for _, tx := range combined.Internal {
		check(tx.From, tx.To)
	}
	for _, transfer := range combined.Erc20 {
		check(transfer.From, transfer.To)
	}

	return assetSource && assetDestination
}
