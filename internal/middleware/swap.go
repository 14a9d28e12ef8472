package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/coingecko"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/pkg/money"
)

const (
	uniswapRouter2Address = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"

	swapExactTokensForTokensSelector = "38ed1739"
	swapExactTokensForETHSelector    = "18cbafe5"
	swapExactETHForTokensSelector    = "7ff36ab5"
	addLiquidityETHSelector          = "f305d719"
	removeLiquidityETHSelector       = "02751cec"

	poolShareSymbol = "UNI-V2"
)

// Uniswap narrates router swaps and handles liquidity positions: the
// generic pool-share token is relabeled per pair, and freshly minted
// shares get a cost posting derived from the native value both sides
// of the pair were worth at entry.
type Uniswap struct {
	prices    PriceService
	directory *ledger.Directory

	// poolShares maps relabeled pool-share contracts so transfers in
	// later transactions pick up the pair-specific symbol.
	poolShares map[string]beancount.TokenSymbol
}

func NewUniswap(prices PriceService, directory *ledger.Directory) *Uniswap {
	return &Uniswap{
		prices:     prices,
		directory:  directory,
		poolShares: make(map[string]beancount.TokenSymbol),
	}
}

func (u *Uniswap) Name() string { return "uniswap" }

func (u *Uniswap) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	if combined.Normal != nil && ledger.SameAddress(combined.Normal.To, uniswapRouter2Address) {
		if err := u.processRouterCall(ctx, combined, tx); err != nil {
			return err
		}
	}

	// relabel pool-share transfers so later chain members and the
	// generic interpreter see the pair-specific symbol
	for i := range combined.Erc20 {
		if symbol, ok := u.poolShares[strings.ToLower(combined.Erc20[i].ContractAddress)]; ok {
			combined.Erc20[i].TokenSymbol = string(symbol)
		}
	}
	return nil
}

func (u *Uniswap) processRouterCall(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	input := combined.Normal.Input

	switch {
	case hasSelector(input, swapExactTokensForTokensSelector):
		if combined.Normal.IsError == "1" {
			tx.Narration = "Swap failed on Uniswap"
			return nil
		}
		path, err := addressArrayArg(input, 2)
		if err != nil || len(path) == 0 {
			return nil
		}
		fromToken := findTransferByContract(combined.Erc20, path[0])
		toToken := findTransferByContract(combined.Erc20, path[len(path)-1])
		if fromToken == nil || toToken == nil {
			return nil
		}
		fromAmount, err := money.FromBaseUnits(fromToken.Value, atoiOrZero(fromToken.TokenDecimal))
		if err != nil {
			return fmt.Errorf("invalid swap input amount in %s: %w", combined.Hash, err)
		}
		toAmount, err := money.FromBaseUnits(toToken.Value, atoiOrZero(toToken.TokenDecimal))
		if err != nil {
			return fmt.Errorf("invalid swap output amount in %s: %w", combined.Hash, err)
		}
		tx.Narration = fmt.Sprintf("Swap %s %s -> %s %s on Uniswap",
			fromAmount, beancount.NewSymbol(fromToken.TokenSymbol),
			toAmount, beancount.NewSymbol(toToken.TokenSymbol))

	case hasSelector(input, swapExactTokensForETHSelector):
		path, err := addressArrayArg(input, 2)
		if err != nil || len(path) == 0 {
			return nil
		}
		if fromToken := findTransferByContract(combined.Erc20, path[0]); fromToken != nil {
			tx.Narration = fmt.Sprintf("Swap %s -> %s on Uniswap", beancount.NewSymbol(fromToken.TokenSymbol), ledger.EthSymbol)
		}

	case hasSelector(input, swapExactETHForTokensSelector):
		path, err := addressArrayArg(input, 1)
		if err != nil || len(path) == 0 {
			return nil
		}
		if toToken := findTransferByContract(combined.Erc20, path[len(path)-1]); toToken != nil {
			tx.Narration = fmt.Sprintf("Swap %s -> %s on Uniswap", ledger.EthSymbol, beancount.NewSymbol(toToken.TokenSymbol))
		}

	case hasSelector(input, addLiquidityETHSelector):
		token, err := addressArg(input, 0)
		if err != nil {
			return nil
		}
		return u.addLiquidity(ctx, combined, tx, token)

	case hasSelector(input, removeLiquidityETHSelector):
		token, err := addressArg(input, 0)
		if err != nil {
			return nil
		}
		if transfer := findTransferByContract(combined.Erc20, token); transfer != nil {
			u.relabelPoolShare(combined, transfer)
			tx.Narration = fmt.Sprintf("Remove %s liquidity from Uniswap", beancount.NewSymbol(transfer.TokenSymbol))
		}
	}
	return nil
}

// addLiquidity relabels the minted pool share and books it with a cost
// of twice the native value supplied, spread over the share amount:
// both sides of the pair are worth the same at entry.
func (u *Uniswap) addLiquidity(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction, tokenAddress string) error {
	token := findTransferByContract(combined.Erc20, tokenAddress)
	if token == nil {
		return nil
	}
	shareIndex := u.relabelPoolShare(combined, token)
	if shareIndex < 0 {
		return nil
	}

	tx.Narration = fmt.Sprintf("Add %s liquidity to Uniswap", beancount.NewSymbol(token.TokenSymbol))

	share := combined.Erc20[shareIndex]
	shareAmount, err := money.FromBaseUnits(share.Value, atoiOrZero(share.TokenDecimal))
	if err != nil {
		return fmt.Errorf("invalid pool-share amount in %s: %w", combined.Hash, err)
	}
	if shareAmount.IsZero() {
		return nil
	}

	ethValue, err := money.FromWei(combined.Normal.Value)
	if err != nil {
		return fmt.Errorf("invalid native value in %s: %w", combined.Hash, err)
	}
	ethPrice, err := u.prices.GetHistoryPriceByCurrency(ctx, coingecko.EthereumCoinID, combined.Time(), u.directory.BaseCurrency)
	if err != nil {
		return err
	}

	shareCost := beancount.Cost{
		Amount: ethPrice.Mul(ethValue).Mul(decimal.NewFromInt(2)).Div(shareAmount),
		Symbol: beancount.NewSymbol(u.directory.BaseCurrency),
	}
	tx.Postings = append(tx.Postings, &beancount.Posting{
		Account: u.directory.AccountName(combined.Normal.From, ledger.Destination),
		Amount:  shareAmount,
		Symbol:  beancount.NewSymbol(share.TokenSymbol),
		Cost:    &shareCost,
	})

	// drop the share transfer so the generic interpreter does not book
	// it a second time
	combined.Erc20 = append(combined.Erc20[:shareIndex], combined.Erc20[shareIndex+1:]...)
	return nil
}

// relabelPoolShare renames the generic pool-share transfer after its
// pair token and remembers the contract for later transactions.
// Returns the share transfer's index, or -1 when none is present.
func (u *Uniswap) relabelPoolShare(combined *ledger.CombinedTx, pairToken *etherscan.Erc20Transfer) int {
	for i := range combined.Erc20 {
		if combined.Erc20[i].TokenSymbol != poolShareSymbol {
			continue
		}
		relabeled := fmt.Sprintf("UNI-LP-%s", pairToken.TokenSymbol)
		combined.Erc20[i].TokenSymbol = relabeled
		u.poolShares[strings.ToLower(combined.Erc20[i].ContractAddress)] = beancount.TokenSymbol(relabeled)
		return i
	}
	return -1
}

func (u *Uniswap) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	return nil
}

func findTransferByContract(transfers []etherscan.Erc20Transfer, contractAddress string) *etherscan.Erc20Transfer {
	for i := range transfers {
		if ledger.SameAddress(transfers[i].ContractAddress, contractAddress) {
			return &transfers[i]
		}
	}
	return nil
}
