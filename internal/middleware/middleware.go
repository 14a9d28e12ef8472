// Package middleware holds the protocol interpreter chain. Each
// interpreter inspects a merged transaction and may rewrite narration,
// inject postings, or mutate transfer records in place so later chain
// members see the correction. After all transactions are processed,
// each interpreter gets one Finalize call to emit auxiliary directives.
package middleware

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/coingecko"
	"github.com/yurenju/paisu/internal/ledger"
)

// Middleware is one interpreter in the chain. ProcessTransaction runs
// once per merged transaction in chain order; Finalize runs once per
// run, after every transaction has been processed.
type Middleware interface {
	Name() string
	ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error
	Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error
}

// PriceService is the slice of the price API the interpreters consume.
type PriceService interface {
	GetHistoryPriceByCurrency(ctx context.Context, coinID string, date time.Time, currency string) (decimal.Decimal, error)
	GetHistoryPriceByContract(ctx context.Context, contractAddress string, date time.Time, currency string) (decimal.Decimal, error)
	GetMarketChart(ctx context.Context, coinID, currency string) (*coingecko.MarketChart, error)
	GetMarketChartByContract(ctx context.Context, contractAddress, currency string) (*coingecko.MarketChart, error)
}

// BalanceService is the slice of the chain API used for balance
// snapshots.
type BalanceService interface {
	GetEthBalance(ctx context.Context, address string) (string, error)
	GetErc20Balance(ctx context.Context, address, contractAddress string) (string, error)
}

// Result collects every directive produced by one run.
type Result struct {
	Options      []beancount.Option
	Opens        []*beancount.Open
	Transactions []*beancount.Transaction
	Balances     []*beancount.Balance
	Prices       []*beancount.PriceDirective
}

// Render writes the collected directives as a ledger file: options,
// account opens, transactions, balance assertions, then price history.
func (r *Result) Render(w io.Writer) error {
	for _, option := range r.Options {
		if _, err := fmt.Fprintln(w, option.String()); err != nil {
			return err
		}
	}
	for _, open := range r.Opens {
		if _, err := fmt.Fprintln(w, open.String()); err != nil {
			return err
		}
	}
	for _, tx := range r.Transactions {
		if _, err := fmt.Fprintf(w, "\n%s\n", tx.String()); err != nil {
			return err
		}
	}
	if len(r.Balances) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, balance := range r.Balances {
		if _, err := fmt.Fprintln(w, balance.String()); err != nil {
			return err
		}
	}
	if len(r.Prices) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, price := range r.Prices {
		if _, err := fmt.Fprintln(w, price.String()); err != nil {
			return err
		}
	}
	return nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ethCost prices the native asset at the transaction's date, in the
// ledger's base currency. A date with no data yields a zero cost.
func ethCost(ctx context.Context, prices PriceService, at time.Time, baseCurrency string) (beancount.Cost, error) {
	price, err := prices.GetHistoryPriceByCurrency(ctx, coingecko.EthereumCoinID, at, baseCurrency)
	if err != nil {
		return beancount.Cost{}, fmt.Errorf("failed to price %s at %s: %w", ledger.EthSymbol, at.Format(beancount.DateLayout), err)
	}
	return beancount.Cost{Amount: price, Symbol: beancount.NewSymbol(baseCurrency)}, nil
}
