package middleware

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/coingecko"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/pkg/logger"
	"github.com/yurenju/paisu/pkg/money"
)

// Regular fills in default transfer postings for everything the
// specialized interpreters left untouched. It must run last in the
// chain: earlier interpreters mutate transfer records (relabeling,
// splicing) and book specialized postings that would otherwise be
// duplicated here. Finalize emits the run's auxiliary directives:
// operating currency, account opens, balance assertions, and price
// history.
type Regular struct {
	prices    PriceService
	balances  BalanceService
	directory *ledger.Directory
	logger    *logger.Logger
}

func NewRegular(prices PriceService, balances BalanceService, directory *ledger.Directory, log *logger.Logger) *Regular {
	return &Regular{
		prices:    prices,
		balances:  balances,
		directory: directory,
		logger:    log.WithField("component", "regular"),
	}
}

func (r *Regular) Name() string { return "regular" }

func (r *Regular) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	cost, err := ethCost(ctx, r.prices, combined.Time(), r.directory.BaseCurrency)
	if err != nil {
		return err
	}

	if combined.Normal != nil {
		value, err := money.FromWei(combined.Normal.Value)
		if err == nil && value.IsPositive() {
			tx.Postings = append(tx.Postings, r.etherPostings(&combined.Normal.BaseTx, cost)...)

			if len(combined.Erc20) == 0 && tx.Narration == "" {
				tx.Narration = ledger.TransferNarration(r.directory, combined.Normal.From, value, ledger.EthSymbol)
			}
		}
	}

	for i := range combined.Internal {
		internalTx := combined.Internal[i]
		value, err := money.FromWei(internalTx.Value)
		if err != nil || !value.IsPositive() {
			continue
		}
		tx.Postings = append(tx.Postings, r.etherPostings(&internalTx.BaseTx, cost)...)
	}

	if tx.Narration == "" && len(combined.Erc20) == 1 &&
		(combined.Normal == nil || combined.Normal.Value == "0") {
		transfer := combined.Erc20[0]
		amount, err := money.FromBaseUnits(transfer.Value, atoiOrZero(transfer.TokenDecimal))
		if err == nil {
			tx.Narration = ledger.TransferNarration(r.directory, transfer.From, amount, beancount.NewSymbol(transfer.TokenSymbol))
		}
	}

	tokenPostings, err := r.tokenPostings(ctx, combined)
	if err != nil {
		return err
	}
	tx.Postings = append(tx.Postings, tokenPostings...)
	return nil
}

func (r *Regular) etherPostings(tx *etherscan.BaseTx, cost beancount.Cost) []*beancount.Posting {
	amount, err := money.FromWei(tx.Value)
	if err != nil {
		return nil
	}
	from := r.directory.AccountName(tx.From, ledger.Source)
	to := r.directory.AccountName(tx.To, ledger.Destination)
	return ledger.TransferPostings(from, to, amount, ledger.EthSymbol, cost)
}

// tokenPostings prices and books every token transfer. Lookups run
// concurrently since each is an independent network call, but results
// are collected back into record order so posting order stays
// deterministic.
func (r *Regular) tokenPostings(ctx context.Context, combined *ledger.CombinedTx) ([]*beancount.Posting, error) {
	results := make([][]*beancount.Posting, len(combined.Erc20))

	group, groupCtx := errgroup.WithContext(ctx)
	for i := range combined.Erc20 {
		i := i
		transfer := combined.Erc20[i]
		group.Go(func() error {
			postings, err := r.singleTokenPostings(groupCtx, &transfer, combined.Time())
			if err != nil {
				return err
			}
			results[i] = postings
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var postings []*beancount.Posting
	for _, result := range results {
		postings = append(postings, result...)
	}
	return postings, nil
}

func (r *Regular) singleTokenPostings(ctx context.Context, transfer *etherscan.Erc20Transfer, at time.Time) ([]*beancount.Posting, error) {
	amount, err := money.FromBaseUnits(transfer.Value, atoiOrZero(transfer.TokenDecimal))
	if err != nil || !amount.IsPositive() {
		return nil, nil
	}

	// tokens the price service does not know get a zero cost instead
	// of failing the transaction
	costPrice, err := r.prices.GetHistoryPriceByContract(ctx, transfer.ContractAddress, at, r.directory.BaseCurrency)
	if err != nil {
		r.logger.Warn("no price for token, using zero cost",
			"contract", transfer.ContractAddress, "symbol", transfer.TokenSymbol)
		costPrice = decimal.Zero
	}

	from := r.directory.AccountName(transfer.From, ledger.Source)
	to := r.directory.AccountName(transfer.To, ledger.Destination)
	cost := beancount.Cost{Amount: costPrice, Symbol: beancount.NewSymbol(r.directory.BaseCurrency)}
	return ledger.TransferPostings(from, to, amount, beancount.NewSymbol(transfer.TokenSymbol), cost), nil
}

func (r *Regular) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	date := openDate(runTime, combined)

	result.Options = append(result.Options, beancount.NewOperatingCurrency(r.directory.BaseCurrency))
	for _, account := range r.directory.Accounts {
		result.Opens = append(result.Opens, &beancount.Open{
			Date:    date,
			Account: account.Name,
			Booking: beancount.BookingFIFO,
		})
	}
	result.Opens = append(result.Opens,
		&beancount.Open{Date: date, Account: r.directory.DefaultExpense},
		&beancount.Open{Date: date, Account: r.directory.DefaultIncome},
		&beancount.Open{Date: date, Account: r.directory.PnLAccount},
	)

	tokenInfos := ledger.TokenInfos(streams.Erc20)

	if err := r.collectBalances(ctx, runTime, tokenInfos, result); err != nil {
		return err
	}
	return r.collectPrices(ctx, tokenInfos, result)
}

// collectBalances asserts each account's current holdings. Assertions
// are dated tomorrow so they land after today's transactions.
func (r *Regular) collectBalances(ctx context.Context, runTime time.Time, tokenInfos []ledger.TokenInfo, result *Result) error {
	date := runTime.AddDate(0, 0, 1)

	for _, account := range r.directory.Accounts {
		raw, err := r.balances.GetEthBalance(ctx, account.Address)
		if err != nil {
			return err
		}
		amount, err := money.FromWei(raw)
		if err != nil {
			return err
		}
		result.Balances = append(result.Balances, &beancount.Balance{
			Date:    date,
			Account: account.Name,
			Amount:  amount,
			Symbol:  ledger.EthSymbol,
		})

		for _, tokenInfo := range tokenInfos {
			r.logger.Info("getting balance", "symbol", tokenInfo.Symbol, "contract", tokenInfo.Address)
			raw, err := r.balances.GetErc20Balance(ctx, account.Address, tokenInfo.Address)
			if err != nil {
				return err
			}
			amount, err := money.FromBaseUnits(raw, tokenInfo.Decimal)
			if err != nil {
				return err
			}
			result.Balances = append(result.Balances, &beancount.Balance{
				Date:    date,
				Account: account.Name,
				Amount:  amount,
				Symbol:  tokenInfo.Symbol,
			})
		}
	}
	return nil
}

// collectPrices emits the full price history of the native asset and
// every token seen in the run. Tokens the price service does not track
// are skipped.
func (r *Regular) collectPrices(ctx context.Context, tokenInfos []ledger.TokenInfo, result *Result) error {
	chart, err := r.prices.GetMarketChart(ctx, coingecko.EthereumCoinID, r.directory.BaseCurrency)
	if err != nil {
		return err
	}
	r.appendChart(result, ledger.EthSymbol, chart)

	for _, tokenInfo := range tokenInfos {
		r.logger.Info("getting price history", "symbol", tokenInfo.Symbol, "contract", tokenInfo.Address)
		chart, err := r.prices.GetMarketChartByContract(ctx, tokenInfo.Address, r.directory.BaseCurrency)
		if err != nil {
			r.logger.Warn("no price history for token, skipping",
				"contract", tokenInfo.Address, "symbol", tokenInfo.Symbol)
			continue
		}
		r.appendChart(result, tokenInfo.Symbol, chart)
	}
	return nil
}

func (r *Regular) appendChart(result *Result, holding beancount.TokenSymbol, chart *coingecko.MarketChart) {
	baseSymbol := beancount.NewSymbol(r.directory.BaseCurrency)
	for _, point := range chart.Prices {
		millis := point[0].IntPart()
		result.Prices = append(result.Prices, &beancount.PriceDirective{
			Date:    time.UnixMilli(millis).UTC(),
			Holding: holding,
			Amount:  point[1],
			Symbol:  baseSymbol,
		})
	}
}
