package middleware

import (
	"context"
	"time"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/pkg/money"
)

const wethContractAddress = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"

// Wrap books the wrapped-asset side of wrap/unwrap calls. The native
// side is already covered by the internal-transfer records, so each
// call adds exactly one posting: positive wrapped units on a wrap,
// negative on an unwrap. Unwrap legs carry an ambiguous cost because
// the wrapped asset's basis is not separately tracked.
type Wrap struct {
	prices    PriceService
	directory *ledger.Directory
}

func NewWrap(prices PriceService, directory *ledger.Directory) *Wrap {
	return &Wrap{prices: prices, directory: directory}
}

func (w *Wrap) Name() string { return "wrap" }

func (w *Wrap) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	if combined.Normal == nil || !ledger.SameAddress(combined.Normal.To, wethContractAddress) {
		return nil
	}

	cost, err := ethCost(ctx, w.prices, combined.Time(), w.directory.BaseCurrency)
	if err != nil {
		return err
	}
	wethSymbol := beancount.TokenSymbol("WETH")

	for _, internalTx := range combined.Internal {
		amount, err := money.FromWei(internalTx.Value)
		if err != nil {
			continue
		}

		if account, ok := w.directory.Find(internalTx.To); ok {
			tx.Postings = append(tx.Postings, &beancount.Posting{
				Account: account.Name,
				Amount:  amount.Neg(),
				Symbol:  wethSymbol,
				Cost:    &beancount.Cost{Ambiguous: true},
			})
			continue
		}
		if account, ok := w.directory.Find(internalTx.From); ok {
			wrapCost := cost
			tx.Postings = append(tx.Postings, &beancount.Posting{
				Account: account.Name,
				Amount:  amount,
				Symbol:  wethSymbol,
				Cost:    &wrapCost,
			})
		}
	}
	return nil
}

func (w *Wrap) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	return nil
}
