package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/pkg/money"
)

const (
	compoundBaseURL = "https://api.compound.finance/api/v2"

	// mint(uint256) and redeem(uint256) on Compound cToken contracts.
	mintSelector   = "a0712d68"
	redeemSelector = "db006a75"
)

// Market is one lending-protocol token contract.
type Market struct {
	TokenAddress string `json:"token_address"`
	Symbol       string `json:"symbol"`
}

type marketResponse struct {
	CToken []Market `json:"cToken"`
}

// Lending narrates deposits to and redemptions from the lending
// protocol. The market list is fetched lazily on first use and held
// for the rest of the run.
type Lending struct {
	directory  *ledger.Directory
	httpClient *http.Client
	baseURL    string
	markets    []Market
}

func NewLending(directory *ledger.Directory) *Lending {
	return &Lending{
		directory:  directory,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    compoundBaseURL,
	}
}

// NewLendingWithMarkets skips the market-list fetch (used in tests).
func NewLendingWithMarkets(directory *ledger.Directory, markets []Market) *Lending {
	lending := NewLending(directory)
	lending.markets = markets
	return lending
}

func (l *Lending) Name() string { return "lending" }

// SetBaseURL overrides the market-list endpoint (used in tests).
func (l *Lending) SetBaseURL(baseURL string) {
	l.baseURL = baseURL
}

func (l *Lending) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	if combined.Normal == nil {
		return nil
	}
	if err := l.loadMarkets(ctx); err != nil {
		return err
	}

	market := l.findMarket(combined.Normal.To)
	if market == nil {
		return nil
	}

	switch {
	case hasSelector(combined.Normal.Input, mintSelector):
		// the deposited token leaves one of the owner's addresses
		var deposit *etherscan.Erc20Transfer
		for i := range combined.Erc20 {
			if l.directoryHas(combined.Erc20[i].From) {
				deposit = &combined.Erc20[i]
			}
		}
		if deposit == nil {
			return nil
		}
		amount, err := money.FromBaseUnits(deposit.Value, atoiOrZero(deposit.TokenDecimal))
		if err != nil {
			return fmt.Errorf("invalid deposit amount in %s: %w", combined.Hash, err)
		}
		tx.Narration = fmt.Sprintf("Deposit %s %s to compound", amount, beancount.NewSymbol(deposit.TokenSymbol))

	case hasSelector(combined.Normal.Input, redeemSelector):
		var redeemed *etherscan.Erc20Transfer
		for i := range combined.Erc20 {
			if l.directoryHas(combined.Erc20[i].To) {
				redeemed = &combined.Erc20[i]
			}
		}
		if redeemed == nil {
			return nil
		}
		amount, err := money.FromBaseUnits(redeemed.Value, atoiOrZero(redeemed.TokenDecimal))
		if err != nil {
			return fmt.Errorf("invalid redeem amount in %s: %w", combined.Hash, err)
		}
		tx.Narration = fmt.Sprintf("Redeem %s %s from compound", amount, beancount.NewSymbol(redeemed.TokenSymbol))
	}
	return nil
}

func (l *Lending) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	return nil
}

func (l *Lending) loadMarkets(ctx context.Context) error {
	if l.markets != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/ctoken", nil)
	if err != nil {
		return fmt.Errorf("failed to create market-list request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch lending markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d fetching lending markets", resp.StatusCode)
	}

	var payload marketResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode lending markets: %w", err)
	}
	l.markets = payload.CToken
	return nil
}

func (l *Lending) findMarket(address string) *Market {
	for i := range l.markets {
		if ledger.SameAddress(l.markets[i].TokenAddress, address) {
			return &l.markets[i]
		}
	}
	return nil
}

func (l *Lending) directoryHas(address string) bool {
	_, ok := l.directory.Find(address)
	return ok
}
