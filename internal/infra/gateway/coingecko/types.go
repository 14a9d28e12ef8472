package coingecko

import "github.com/shopspring/decimal"

// CoinInfo describes one asset known to the price service, including
// its current price per reporting currency.
type CoinInfo struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	MarketData MarketData `json:"market_data"`
}

// MarketData holds per-currency prices, keyed by lowercase currency
// code.
type MarketData struct {
	CurrentPrice map[string]decimal.Decimal `json:"current_price"`
}

// CurrentPrice returns the asset's price in the given currency, or
// zero when the service has no data for it.
func (c *CoinInfo) CurrentPrice(currency string) decimal.Decimal {
	if c.MarketData.CurrentPrice == nil {
		return decimal.Zero
	}
	return c.MarketData.CurrentPrice[normalizeCurrency(currency)]
}

// MarketChart is a historical price series in one currency.
type MarketChart struct {
	// Prices is a list of [unix-milliseconds, price] pairs.
	Prices [][2]decimal.Decimal `json:"prices"`
}
