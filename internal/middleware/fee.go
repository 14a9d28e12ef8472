package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/pkg/money"
)

// Fee books gas spent on transactions the owner signed against the
// configured fee account.
type Fee struct {
	prices    PriceService
	directory *ledger.Directory
}

func NewFee(prices PriceService, directory *ledger.Directory) *Fee {
	return &Fee{prices: prices, directory: directory}
}

func (f *Fee) Name() string { return "fee" }

func (f *Fee) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	if combined.Normal == nil {
		return nil
	}
	if _, ok := f.directory.Find(combined.Normal.From); !ok {
		return nil
	}

	cost, err := ethCost(ctx, f.prices, combined.Time(), f.directory.BaseCurrency)
	if err != nil {
		return err
	}

	fee, err := money.GasFee(combined.Normal.GasPrice, combined.Normal.GasUsed)
	if err != nil {
		return fmt.Errorf("failed to compute gas fee for %s: %w", combined.Hash, err)
	}

	from := f.directory.AccountName(combined.Normal.From, ledger.Source)
	tx.Postings = append(tx.Postings, ledger.TransferPostings(from, f.directory.FeeAccount, fee, ledger.EthSymbol, cost)...)
	return nil
}

func (f *Fee) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	result.Opens = append(result.Opens, &beancount.Open{
		Date:    openDate(runTime, combined),
		Account: f.directory.FeeAccount,
	})
	return nil
}

// openDate anchors account-open directives at the earliest activity so
// every transaction falls after its accounts open.
func openDate(runTime time.Time, combined []*ledger.CombinedTx) time.Time {
	if len(combined) == 0 {
		return runTime
	}
	return combined[0].Time()
}
