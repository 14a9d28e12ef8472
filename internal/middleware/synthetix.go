package middleware

import (
	"context"
	"time"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/ledger"
)

// snxLegacyContract is the pre-migration token contract. Its transfer
// events duplicate the migrated token's history, so they are dropped
// before balance and price snapshots are computed.
const snxLegacyContract = "0xC011A72400E58ecD99Ee497CF89E3775d4bd732F"

// Synthetix removes legacy-contract transfer events from the token
// stream during finalization.
type Synthetix struct{}

func NewSynthetix() *Synthetix { return &Synthetix{} }

func (s *Synthetix) Name() string { return "synthetix" }

func (s *Synthetix) ProcessTransaction(ctx context.Context, combined *ledger.CombinedTx, tx *beancount.Transaction) error {
	return nil
}

func (s *Synthetix) Finalize(ctx context.Context, runTime time.Time, combined []*ledger.CombinedTx, streams *ledger.Streams, result *Result) error {
	filtered := streams.Erc20[:0]
	for _, transfer := range streams.Erc20 {
		if ledger.SameAddress(transfer.ContractAddress, snxLegacyContract) {
			continue
		}
		filtered = append(filtered, transfer)
	}
	streams.Erc20 = filtered
	return nil
}
