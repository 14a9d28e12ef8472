package beancount

import "fmt"

// Option is a ledger-wide option statement.
type Option struct {
	Key   string
	Value string
}

// NewOperatingCurrency builds the operating_currency option for the
// base reporting currency.
func NewOperatingCurrency(currency string) Option {
	return Option{Key: "operating_currency", Value: currency}
}

func (o Option) String() string {
	return fmt.Sprintf("option %q %q", o.Key, o.Value)
}
