package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/internal/middleware"
)

const (
	routerAddr   = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
	usdcContract = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	lpContract   = "0xae461ca67b15dc8dc81ce7615e0320da1a9ab8d5"
)

func swapTokensForTokensInput(path ...string) string {
	words := []string{
		uintWord(1000),              // amountIn
		uintWord(900),               // amountOutMin
		uintWord(5 * 32),            // offset of path
		addrWord("0xdeadbeef00000000000000000000000000000000"), // to
		uintWord(1650000000), // deadline
		uintWord(uint64(len(path))),
	}
	for _, p := range path {
		words = append(words, addrWord(p))
	}
	return calldata("38ed1739", words...)
}

func TestUniswap_SwapTokensForTokensNarration(t *testing.T) {
	directory := testDirectory()
	uniswap := middleware.NewUniswap(&fakePrices{ethPrice: dec(t, "92000")}, directory)
	owner := directory.Accounts[0].Address

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", owner, routerAddr, "0")}
	normal.Input = swapTokensForTokensInput(daiContract, usdcContract)
	combined := &ledger.CombinedTx{
		Hash:      "0x1",
		Timestamp: 1642204800,
		Normal:    normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer(owner, "0xpool", daiContract, "DAI", "50000000000000000000", "18"),
			tokenTransfer("0xpool", owner, usdcContract, "USDC", "49500000", "6"),
		},
	}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, uniswap.ProcessTransaction(context.Background(), combined, tx))
	assert.Equal(t, "Swap 50 DAI -> 49.5 USDC on Uniswap", tx.Narration)
}

func TestUniswap_FailedSwapNarration(t *testing.T) {
	directory := testDirectory()
	uniswap := middleware.NewUniswap(&fakePrices{}, directory)

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", directory.Accounts[0].Address, routerAddr, "0")}
	normal.Input = swapTokensForTokensInput(daiContract, usdcContract)
	normal.IsError = "1"
	combined := &ledger.CombinedTx{Hash: "0x1", Normal: normal}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, uniswap.ProcessTransaction(context.Background(), combined, tx))
	assert.Equal(t, "Swap failed on Uniswap", tx.Narration)
}

func TestUniswap_SwapTokensForETHNarration(t *testing.T) {
	directory := testDirectory()
	uniswap := middleware.NewUniswap(&fakePrices{}, directory)
	owner := directory.Accounts[0].Address

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", owner, routerAddr, "0")}
	normal.Input = calldata("18cbafe5",
		uintWord(1000), uintWord(900), uintWord(5*32),
		addrWord(owner), uintWord(1650000000),
		uintWord(2), addrWord(daiContract), addrWord("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"))
	combined := &ledger.CombinedTx{
		Hash:   "0x1",
		Normal: normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer(owner, "0xpool", daiContract, "DAI", "50000000000000000000", "18"),
		},
	}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, uniswap.ProcessTransaction(context.Background(), combined, tx))
	assert.Equal(t, "Swap DAI -> ETH on Uniswap", tx.Narration)
}

func TestUniswap_AddLiquidityBooksPoolShare(t *testing.T) {
	directory := testDirectory()
	uniswap := middleware.NewUniswap(&fakePrices{ethPrice: dec(t, "1000")}, directory)
	owner := directory.Accounts[0].Address

	// 2 ETH supplied alongside DAI; 4 pool-share units minted
	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", owner, routerAddr, "2000000000000000000")}
	normal.Input = calldata("f305d719",
		addrWord(daiContract), uintWord(1000), uintWord(900), uintWord(800),
		addrWord(owner), uintWord(1650000000))
	combined := &ledger.CombinedTx{
		Hash:      "0x1",
		Timestamp: 1642204800,
		Normal:    normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer(owner, lpContract, daiContract, "DAI", "2000000000000000000000", "18"),
			tokenTransfer("0x0000000000000000000000000000000000000000", owner, lpContract, "UNI-V2", "4000000000000000000", "18"),
		},
	}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, uniswap.ProcessTransaction(context.Background(), combined, tx))

	assert.Equal(t, "Add DAI liquidity to Uniswap", tx.Narration)

	// share posting: cost = 1000 * 2 * 2 / 4 = 1000 per share
	require.Len(t, tx.Postings, 1)
	assert.Equal(t, "Assets:Bank", tx.Postings[0].Account)
	assert.Equal(t, "4", tx.Postings[0].Amount.String())
	assert.Equal(t, beancount.TokenSymbol("UNI-LP-DAI"), tx.Postings[0].Symbol)
	assert.Equal(t, "1000", tx.Postings[0].Cost.Amount.String())

	// the share transfer is spliced out so it is not booked twice
	require.Len(t, combined.Erc20, 1)
	assert.Equal(t, "DAI", combined.Erc20[0].TokenSymbol)
}

func TestUniswap_RelabelsLaterPoolShareTransfers(t *testing.T) {
	directory := testDirectory()
	uniswap := middleware.NewUniswap(&fakePrices{ethPrice: dec(t, "1000")}, directory)
	owner := directory.Accounts[0].Address
	ctx := context.Background()

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", owner, routerAddr, "2000000000000000000")}
	normal.Input = calldata("f305d719",
		addrWord(daiContract), uintWord(1000), uintWord(900), uintWord(800),
		addrWord(owner), uintWord(1650000000))
	first := &ledger.CombinedTx{
		Hash:      "0x1",
		Timestamp: 1642204800,
		Normal:    normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer(owner, lpContract, daiContract, "DAI", "2000000000000000000000", "18"),
			tokenTransfer("0x0000000000000000000000000000000000000000", owner, lpContract, "UNI-V2", "4000000000000000000", "18"),
		},
	}
	require.NoError(t, uniswap.ProcessTransaction(ctx, first, beancount.NewTransaction(first.Time(), beancount.TxMeta{})))

	// a later plain transfer of the same share contract picks up the label
	later := &ledger.CombinedTx{
		Hash:  "0x2",
		Erc20: []etherscan.Erc20Transfer{tokenTransfer(owner, "0xelsewhere", lpContract, "UNI-V2", "1000000000000000000", "18")},
	}
	require.NoError(t, uniswap.ProcessTransaction(ctx, later, beancount.NewTransaction(later.Time(), beancount.TxMeta{})))

	assert.Equal(t, "UNI-LP-DAI", later.Erc20[0].TokenSymbol)
}

func TestUniswap_RemoveLiquidityNarration(t *testing.T) {
	directory := testDirectory()
	uniswap := middleware.NewUniswap(&fakePrices{}, directory)
	owner := directory.Accounts[0].Address

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", owner, routerAddr, "0")}
	normal.Input = calldata("02751cec",
		addrWord(daiContract), uintWord(100), uintWord(90), uintWord(80),
		addrWord(owner), uintWord(1650000000))
	combined := &ledger.CombinedTx{
		Hash:   "0x1",
		Normal: normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer("0xpool", owner, daiContract, "DAI", "2000000000000000000000", "18"),
			tokenTransfer(owner, lpContract, lpContract, "UNI-V2", "4000000000000000000", "18"),
		},
	}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, uniswap.ProcessTransaction(context.Background(), combined, tx))
	assert.Equal(t, "Remove DAI liquidity from Uniswap", tx.Narration)
	assert.Equal(t, "UNI-LP-DAI", combined.Erc20[1].TokenSymbol)
}
