// Package transformer drives one run end to end: fetch the owner's
// activity streams, merge them into per-transaction units, run each
// unit through the interpreter chain, and collect the finished
// directives.
package transformer

import (
	"context"
	"fmt"
	"time"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/internal/middleware"
	"github.com/yurenju/paisu/pkg/logger"
)

// BlockSource is the slice of the chain API the transformer consumes.
type BlockSource interface {
	GetNormalTransactions(ctx context.Context, address string, startBlock int64) ([]etherscan.NormalTx, error)
	GetInternalTransactions(ctx context.Context, address string, startBlock int64) ([]etherscan.InternalTx, error)
	GetErc20Transfers(ctx context.Context, address string, startBlock int64) ([]etherscan.Erc20Transfer, error)
}

// Transformer converts raw chain activity into a full directive set.
type Transformer struct {
	source     BlockSource
	directory  *ledger.Directory
	chain      []middleware.Middleware
	startBlock int64
	logger     *logger.Logger

	now func() time.Time
}

func New(source BlockSource, directory *ledger.Directory, chain []middleware.Middleware, startBlock int64, log *logger.Logger) *Transformer {
	return &Transformer{
		source:     source,
		directory:  directory,
		chain:      chain,
		startBlock: startBlock,
		logger:     log.WithField("component", "transformer"),
		now:        time.Now,
	}
}

// Run fetches, merges, and interprets every transaction, then runs the
// chain's finalize hooks. Transactions are processed strictly one at a
// time in timestamp order: interpreters mutate shared transfer records
// and later transactions may depend on state built by earlier ones.
func (t *Transformer) Run(ctx context.Context) (*middleware.Result, error) {
	streams, err := t.fetchStreams(ctx)
	if err != nil {
		return nil, err
	}

	combined := ledger.Combine(*streams)
	t.logger.Info("combined transactions", "count", len(combined))

	result := &middleware.Result{}
	for _, combinedTx := range combined {
		tx, err := t.processOne(ctx, combinedTx)
		if err != nil {
			return nil, fmt.Errorf("failed to process transaction %s: %w", combinedTx.Hash, err)
		}
		result.Transactions = append(result.Transactions, tx)
	}

	runTime := t.now()
	for _, m := range t.chain {
		if err := m.Finalize(ctx, runTime, combined, streams, result); err != nil {
			return nil, fmt.Errorf("finalize failed in %s: %w", m.Name(), err)
		}
	}
	return result, nil
}

func (t *Transformer) processOne(ctx context.Context, combined *ledger.CombinedTx) (*beancount.Transaction, error) {
	tx := beancount.NewTransaction(combined.Time(), beancount.TxMeta{
		Hash:        combined.Hash,
		BlockNumber: combined.BlockNumber(),
	})

	for _, m := range t.chain {
		if err := m.ProcessTransaction(ctx, combined, tx); err != nil {
			return nil, fmt.Errorf("%s interpreter: %w", m.Name(), err)
		}
	}

	// balancing leg: amount elided, the ledger tool computes it
	tx.Postings = append(tx.Postings, &beancount.Posting{Account: t.directory.PnLAccount})

	// exchanges keep only specialized and asset legs so trade-internal
	// flows stay out of the categorization accounts
	if ledger.IsExchange(combined, t.directory) {
		filtered := tx.Postings[:0]
		for _, posting := range tx.Postings {
			if posting.Account == t.directory.DefaultIncome || posting.Account == t.directory.DefaultExpense {
				continue
			}
			filtered = append(filtered, posting)
		}
		tx.Postings = filtered
	}
	return tx, nil
}

// fetchStreams lists all three record kinds for every owned address.
func (t *Transformer) fetchStreams(ctx context.Context) (*ledger.Streams, error) {
	streams := &ledger.Streams{}

	for _, account := range t.directory.OwnedAccounts() {
		t.logger.Info("fetching activity", "account", account.Name, "address", account.Address)

		normal, err := t.source.GetNormalTransactions(ctx, account.Address, t.startBlock)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch normal transactions for %s: %w", account.Name, err)
		}
		streams.Normal = append(streams.Normal, normal...)

		internal, err := t.source.GetInternalTransactions(ctx, account.Address, t.startBlock)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch internal transactions for %s: %w", account.Name, err)
		}
		streams.Internal = append(streams.Internal, internal...)

		erc20, err := t.source.GetErc20Transfers(ctx, account.Address, t.startBlock)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch token transfers for %s: %w", account.Name, err)
		}
		streams.Erc20 = append(streams.Erc20, erc20...)
	}
	return streams, nil
}
