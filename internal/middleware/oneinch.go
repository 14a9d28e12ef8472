package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/pkg/money"
)

const (
	oneInchExchangeV2Address = "0x111111125434b319222cdbf8c261674adb56f3ae"

	// swap(IOneInchCaller,SwapDescription,CallDescription[]); the
	// source and destination tokens are the first two fields of the
	// description tuple.
	oneInchSwapSelector = "7c025200"

	// stake(uint256) and getReward() on the farming pools.
	stakeSelector     = "a694fc3a"
	getRewardSelector = "3d18b912"
)

// OneInch narrates aggregator swaps and farming-pool activity. Farming
// pool addresses come from configuration; a transaction to an unlisted
// pool falls through to the generic interpreter.
type OneInch struct {
	directory        *ledger.Directory
	farmingAddresses []string
}

func NewOneInch(directory *ledger.Directory, farmingAddresses []string) *OneInch {
	return &OneInch{directory: directory, farmingAddresses: farmingAddresses}
}

func (o *OneInch) Name() string { return "oneinch" }

func (o *OneInch) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	if combined.Normal == nil {
		return nil
	}

	normal := combined.Normal
	switch {
	case ledger.SameAddress(normal.To, oneInchExchangeV2Address):
		return o.processSwap(combined, tx)
	case o.isFarmingPool(normal.To):
		return o.processFarming(combined, tx)
	}
	return nil
}

func (o *OneInch) processSwap(combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	input := combined.Normal.Input
	if !hasSelector(input, oneInchSwapSelector) {
		return nil
	}

	srcToken, err := tupleAddressArg(input, 1, 0)
	if err != nil {
		return nil
	}
	dstToken, err := tupleAddressArg(input, 1, 1)
	if err != nil {
		return nil
	}

	fromTransfer := findTransferByContract(combined.Erc20, srcToken)
	toTransfer := findTransferByContract(combined.Erc20, dstToken)
	if fromTransfer == nil || toTransfer == nil {
		return nil
	}

	if combined.Normal.IsError == "1" {
		tx.Narration = "Swap failed on 1inch"
		return nil
	}

	fromAmount, err := money.FromBaseUnits(fromTransfer.Value, atoiOrZero(fromTransfer.TokenDecimal))
	if err != nil {
		return fmt.Errorf("invalid swap input amount in %s: %w", combined.Hash, err)
	}
	toAmount, err := money.FromBaseUnits(toTransfer.Value, atoiOrZero(toTransfer.TokenDecimal))
	if err != nil {
		return fmt.Errorf("invalid swap output amount in %s: %w", combined.Hash, err)
	}

	tx.Narration = fmt.Sprintf("Swap %s %s -> %s %s on 1inch",
		fromAmount, beancount.NewSymbol(fromTransfer.TokenSymbol),
		toAmount, beancount.NewSymbol(toTransfer.TokenSymbol))
	return nil
}

func (o *OneInch) processFarming(combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	input := combined.Normal.Input

	switch {
	case hasSelector(input, stakeSelector):
		staked := findTransferTo(combined.Erc20, combined.Normal.To)
		if staked == nil {
			return nil
		}
		amount, err := money.FromBaseUnits(staked.Value, atoiOrZero(staked.TokenDecimal))
		if err != nil {
			return fmt.Errorf("invalid stake amount in %s: %w", combined.Hash, err)
		}
		tx.Narration = fmt.Sprintf("Stake %s %s on 1inch", amount, beancount.NewSymbol(staked.TokenSymbol))
	case hasSelector(input, getRewardSelector):
		if len(combined.Erc20) == 0 {
			return nil
		}
		transfer := combined.Erc20[0]
		amount, err := money.FromBaseUnits(transfer.Value, atoiOrZero(transfer.TokenDecimal))
		if err != nil {
			return fmt.Errorf("invalid reward amount in %s: %w", combined.Hash, err)
		}
		tx.Narration = fmt.Sprintf("get reward %s %s on 1inch", amount, beancount.NewSymbol(transfer.TokenSymbol))
	}
	return nil
}

func findTransferTo(transfers []etherscan.Erc20Transfer, to string) *etherscan.Erc20Transfer {
	for i := range transfers {
		if ledger.SameAddress(transfers[i].To, to) {
			return &transfers[i]
		}
	}
	return nil
}

func (o *OneInch) isFarmingPool(address string) bool {
	for _, pool := range o.farmingAddresses {
		if ledger.SameAddress(pool, address) {
			return true
		}
	}
	return false
}

func (o *OneInch) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	return nil
}
