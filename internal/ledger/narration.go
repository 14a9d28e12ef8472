package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yurenju/paisu/internal/beancount"
)

// TransferNarration describes a plain transfer from the owner's point
// of view: outgoing when the sender is an owned account, incoming
// otherwise. Unknown senders show up under the default income account.
func TransferNarration(directory *Directory, fromAddress string, amount decimal.Decimal, symbol beancount.TokenSymbol) string {
	fromName := directory.AccountName(fromAddress, Source)
	if directory.Owned(fromAddress) {
		return fmt.Sprintf("sent %s %s from %s", amount, symbol, fromName)
	}
	return fmt.Sprintf("received %s %s from %s", amount, symbol, fromName)
}
