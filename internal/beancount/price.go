package beancount

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceDirective records the market price of a holding at a date.
type PriceDirective struct {
	Date    time.Time
	Holding TokenSymbol
	Amount  decimal.Decimal
	Symbol  TokenSymbol
}

func (p PriceDirective) String() string {
	return fmt.Sprintf("%s price %s %s %s", formatDate(p.Date), p.Holding, p.Amount, p.Symbol)
}
