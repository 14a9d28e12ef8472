package beancount

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Balance asserts an account's holding of one commodity at a date.
type Balance struct {
	Date    time.Time
	Account string
	Amount  decimal.Decimal
	Symbol  TokenSymbol
}

func (b Balance) String() string {
	return fmt.Sprintf("%s balance %s %s %s", formatDate(b.Date), b.Account, b.Amount, b.Symbol)
}
