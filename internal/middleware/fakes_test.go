package middleware_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurenju/paisu/internal/infra/gateway/coingecko"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/pkg/logger"
)

type fakePrices struct {
	ethPrice       decimal.Decimal
	contractPrices map[string]decimal.Decimal
	charts         map[string]*coingecko.MarketChart
	contractCharts map[string]*coingecko.MarketChart
}

func (f *fakePrices) GetHistoryPriceByCurrency(ctx context.Context, coinID string, date time.Time, currency string) (decimal.Decimal, error) {
	return f.ethPrice, nil
}

func (f *fakePrices) GetHistoryPriceByContract(ctx context.Context, contractAddress string, date time.Time, currency string) (decimal.Decimal, error) {
	price, ok := f.contractPrices[strings.ToLower(contractAddress)]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown contract %s", contractAddress)
	}
	return price, nil
}

func (f *fakePrices) GetMarketChart(ctx context.Context, coinID, currency string) (*coingecko.MarketChart, error) {
	chart, ok := f.charts[coinID]
	if !ok {
		return nil, fmt.Errorf("unknown coin %s", coinID)
	}
	return chart, nil
}

func (f *fakePrices) GetMarketChartByContract(ctx context.Context, contractAddress, currency string) (*coingecko.MarketChart, error) {
	chart, ok := f.contractCharts[strings.ToLower(contractAddress)]
	if !ok {
		return nil, fmt.Errorf("unknown contract %s", contractAddress)
	}
	return chart, nil
}

type fakeBalances struct {
	eth    map[string]string
	tokens map[string]string
}

func (f *fakeBalances) GetEthBalance(ctx context.Context, address string) (string, error) {
	balance, ok := f.eth[strings.ToLower(address)]
	if !ok {
		return "0", nil
	}
	return balance, nil
}

func (f *fakeBalances) GetErc20Balance(ctx context.Context, address, contractAddress string) (string, error) {
	balance, ok := f.tokens[strings.ToLower(address)+"/"+strings.ToLower(contractAddress)]
	if !ok {
		return "0", nil
	}
	return balance, nil
}

func testDirectory() *ledger.Directory {
	return &ledger.Directory{
		Accounts: []ledger.Account{
			{Name: "Assets:Bank", Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Owned: true},
			{Name: "Assets:Exchange", Address: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Owned: true},
		},
		DefaultIncome:  "Income:Unknown",
		DefaultExpense: "Expenses:Unknown",
		FeeAccount:     "Expenses:Fee",
		PnLAccount:     "Income:PnL",
		BaseCurrency:   "TWD",
	}
}

func testLogger() *logger.Logger {
	return logger.New("development", io.Discard)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

// calldata assembles a method call from its selector and 32-byte
// argument words.
func calldata(selector string, words ...string) string {
	var b strings.Builder
	b.WriteString("0x")
	b.WriteString(selector)
	for _, w := range words {
		b.WriteString(w)
	}
	return b.String()
}

// uintWord encodes n as a 32-byte word.
func uintWord(n uint64) string {
	return fmt.Sprintf("%064x", n)
}

// addrWord left-pads an address to a 32-byte word.
func addrWord(address string) string {
	hex := strings.TrimPrefix(strings.ToLower(address), "0x")
	return strings.Repeat("0", 64-len(hex)) + hex
}

func baseTx(hash, from, to, value string) etherscan.BaseTx {
	return etherscan.BaseTx{
		Hash:      hash,
		From:      from,
		To:        to,
		Value:     value,
		TimeStamp: "1642204800",
	}
}

func tokenTransfer(from, to, contract, symbol, value, decimals string) etherscan.Erc20Transfer {
	transfer := etherscan.Erc20Transfer{
		BaseTx:       baseTx("0xhash", from, to, value),
		TokenSymbol:  symbol,
		TokenDecimal: decimals,
	}
	transfer.ContractAddress = contract
	return transfer
}
