// Package money converts blockchain base-unit amounts into exact decimals.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EthDecimals is the decimal-place count of the native asset.
const EthDecimals = 18

// FromBaseUnits converts a base-unit amount string to a decimal value.
// E.g. "30000000000000000000" with 18 decimals -> 30
func FromBaseUnits(raw string, decimals int) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	return d.Shift(int32(-decimals)), nil
}

// FromWei converts a wei amount string to ether.
func FromWei(raw string) (decimal.Decimal, error) {
	return FromBaseUnits(raw, EthDecimals)
}

// GasFee computes the fee of a transaction in ether from its gas price
// (in wei) and the amount of gas used.
func GasFee(gasPrice, gasUsed string) (decimal.Decimal, error) {
	price, err := FromWei(gasPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid gas price: %w", err)
	}

	used, err := decimal.NewFromString(gasUsed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid gas used %q: %w", gasUsed, err)
	}

	return price.Mul(used), nil
}
