// Package ledger holds the domain model that turns raw chain activity
// into double-entry bookkeeping: the merged transaction view, the
// account directory, and the posting/narration builders.
package ledger

import (
	"sort"
	"strconv"
	"time"

	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
)

// Streams groups the three record listings fetched for one run.
type Streams struct {
	Normal   []etherscan.NormalTx
	Internal []etherscan.InternalTx
	Erc20    []etherscan.Erc20Transfer
}

// CombinedTx is every record sharing one transaction hash, merged into
// a single unit of bookkeeping work.
type CombinedTx struct {
	Hash      string
	Timestamp int64
	Normal    *etherscan.NormalTx
	Internal  []etherscan.InternalTx
	Erc20     []etherscan.Erc20Transfer
}

// BlockNumber returns the block the transaction landed in, taken from
// whichever record variant is present.
func (c *CombinedTx) BlockNumber() string {
	switch {
	case c.Normal != nil:
		return c.Normal.BlockNumber
	case len(c.Internal) > 0:
		return c.Internal[0].BlockNumber
	case len(c.Erc20) > 0:
		return c.Erc20[0].BlockNumber
	}
	return ""
}

// Time converts the merged timestamp to a wall-clock time in UTC.
func (c *CombinedTx) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// Combine merges the three listings by transaction hash and returns
// the result ordered by timestamp. Records appearing in multiple
// listings collapse into one entry; ordering among equal timestamps
// follows first appearance across normal, then internal, then token
// records.
func Combine(streams Streams) []*CombinedTx {
	byHash := make(map[string]*CombinedTx)
	var order []*CombinedTx

	lookup := func(hash, timestamp string) *CombinedTx {
		combined, ok := byHash[hash]
		if !ok {
			combined = &CombinedTx{Hash: hash}
			byHash[hash] = combined
			order = append(order, combined)
		}
		if ts, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
			combined.Timestamp = ts
		}
		return combined
	}

	for i := range streams.Normal {
		tx := streams.Normal[i]
		combined := lookup(tx.Hash, tx.TimeStamp)
		combined.Normal = &tx
	}
	for _, tx := range streams.Internal {
		combined := lookup(tx.Hash, tx.TimeStamp)
		combined.Internal = append(combined.Internal, tx)
	}
	for _, transfer := range streams.Erc20 {
		combined := lookup(transfer.Hash, transfer.TimeStamp)
		combined.Erc20 = append(combined.Erc20, transfer)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Timestamp < order[j].Timestamp
	})
	return order
}
