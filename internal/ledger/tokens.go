package ledger

import (
	"strconv"

	"github.com/yurenju/paisu/internal/beancount"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
)

// TokenInfo identifies one token contract seen in a transfer listing.
type TokenInfo struct {
	Address string
	Symbol  beancount.TokenSymbol
	Decimal int
}

// TokenInfos deduplicates transfers into one entry per token contract.
// Order follows first appearance; the last transfer for a contract
// wins, so relabeled symbols carry through.
func TokenInfos(transfers []etherscan.Erc20Transfer) []TokenInfo {
	byContract := make(map[string]int)
	var infos []TokenInfo

	for _, transfer := range transfers {
		decimals, _ := strconv.Atoi(transfer.TokenDecimal)
		info := TokenInfo{
			Address: transfer.ContractAddress,
			Symbol:  beancount.NewSymbol(transfer.TokenSymbol),
			Decimal: decimals,
		}
		if i, ok := byContract[transfer.ContractAddress]; ok {
			infos[i] = info
			continue
		}
		byContract[transfer.ContractAddress] = len(infos)
		infos = append(infos, info)
	}
	return infos
}
