package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/ledger"
)

// approveSelector is the ERC-20 approve(address,uint256) method.
const approveSelector = "095ea7b3"

// Approval narrates token-allowance grants. Approvals move no value,
// so it never adds postings.
type Approval struct {
	// tokens maps lowercase contract addresses to their symbols,
	// learned from transfer records as they stream past.
	tokens map[string]beancount.TokenSymbol
}

func NewApproval() *Approval {
	return &Approval{tokens: make(map[string]beancount.TokenSymbol)}
}

func (a *Approval) Name() string { return "approval" }

func (a *Approval) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	for _, transfer := range combined.Erc20 {
		a.tokens[strings.ToLower(transfer.ContractAddress)] = beancount.NewSymbol(transfer.TokenSymbol)
	}

	if combined.Normal == nil || !hasSelector(combined.Normal.Input, approveSelector) {
		return nil
	}

	spender, err := addressArg(combined.Normal.Input, 0)
	if err != nil {
		// undecodable calldata falls through to the generic interpreter
		return nil
	}

	symbol, ok := a.tokens[strings.ToLower(combined.Normal.To)]
	if !ok {
		symbol = beancount.TokenSymbol(shortAddress(combined.Normal.To))
	}
	tx.Narration = fmt.Sprintf("approve %s for %s", symbol, shortAddress(spender))
	return nil
}

func (a *Approval) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	return nil
}
