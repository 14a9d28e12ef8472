package middleware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/internal/middleware"
)

const cDaiContract = "0x5d3a536e4d6dbd6114cc1ead35777bab948e3643"

func TestLending_DepositNarration(t *testing.T) {
	directory := testDirectory()
	lending := middleware.NewLendingWithMarkets(directory, []middleware.Market{
		{TokenAddress: cDaiContract, Symbol: "cDAI"},
	})

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", directory.Accounts[0].Address, cDaiContract, "0")}
	normal.Input = calldata("a0712d68", uintWord(100))
	combined := &ledger.CombinedTx{
		Hash:   "0x1",
		Normal: normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer(directory.Accounts[0].Address, cDaiContract, daiContract, "DAI", "50000000000000000000", "18"),
		},
	}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, lending.ProcessTransaction(context.Background(), combined, tx))
	assert.Equal(t, "Deposit 50 DAI to compound", tx.Narration)
}

func TestLending_RedeemNarration(t *testing.T) {
	directory := testDirectory()
	lending := middleware.NewLendingWithMarkets(directory, []middleware.Market{
		{TokenAddress: cDaiContract, Symbol: "cDAI"},
	})

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", directory.Accounts[0].Address, cDaiContract, "0")}
	normal.Input = calldata("db006a75", uintWord(100))
	combined := &ledger.CombinedTx{
		Hash:   "0x1",
		Normal: normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer(cDaiContract, directory.Accounts[0].Address, daiContract, "DAI", "51000000000000000000", "18"),
		},
	}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, lending.ProcessTransaction(context.Background(), combined, tx))
	assert.Equal(t, "Redeem 51 DAI from compound", tx.Narration)
}

func TestLending_UnknownMarketIsIgnored(t *testing.T) {
	directory := testDirectory()
	lending := middleware.NewLendingWithMarkets(directory, []middleware.Market{})

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", directory.Accounts[0].Address, "0xelsewhere", "0")}
	normal.Input = calldata("a0712d68", uintWord(100))
	combined := &ledger.CombinedTx{Hash: "0x1", Normal: normal}
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})

	require.NoError(t, lending.ProcessTransaction(context.Background(), combined, tx))
	assert.Empty(t, tx.Narration)
}

func TestLending_FetchesMarketsLazily(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/ctoken", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"cToken": [{"token_address": "`+cDaiContract+`", "symbol": "cDAI"}]}`)
	}))
	defer server.Close()

	directory := testDirectory()
	lending := middleware.NewLending(directory)
	lending.SetBaseURL(server.URL)

	normal := &etherscan.NormalTx{BaseTx: baseTx("0x1", directory.Accounts[0].Address, cDaiContract, "0")}
	normal.Input = calldata("a0712d68", uintWord(100))
	combined := &ledger.CombinedTx{
		Hash:   "0x1",
		Normal: normal,
		Erc20: []etherscan.Erc20Transfer{
			tokenTransfer(directory.Accounts[0].Address, cDaiContract, daiContract, "DAI", "50000000000000000000", "18"),
		},
	}
	ctx := context.Background()

	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{})
	require.NoError(t, lending.ProcessTransaction(ctx, combined, tx))
	require.NoError(t, lending.ProcessTransaction(ctx, combined, beancount.NewTransaction(combined.Time(), beancount.TxMeta{})))

	assert.Equal(t, "Deposit 50 DAI to compound", tx.Narration)
	assert.Equal(t, 1, requests)
}
