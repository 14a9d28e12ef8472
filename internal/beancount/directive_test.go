package beancount_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yurenju/paisu/internal/beancount"
)

func TestOpen(t *testing.T) {
	o := beancount.Open{Date: date(2019, time.December, 31), Account: "Assets:Bank"}
	assert.Equal(t, "2019-12-31 open Assets:Bank", o.String())
}

func TestOpen_WithBooking(t *testing.T) {
	o := beancount.Open{
		Date:    date(2019, time.December, 31),
		Account: "Assets:Bank",
		Booking: beancount.BookingFIFO,
	}
	assert.Equal(t, `2019-12-31 open Assets:Bank "FIFO"`, o.String())
}

func TestBalance(t *testing.T) {
	b := beancount.Balance{
		Date:    date(2020, time.June, 1),
		Account: "Assets:Bank",
		Amount:  dec("1.5"),
		Symbol:  "ETH",
	}
	assert.Equal(t, "2020-06-01 balance Assets:Bank 1.5 ETH", b.String())
}

func TestPriceDirective(t *testing.T) {
	p := beancount.PriceDirective{
		Date:    date(2020, time.June, 1),
		Holding: "ETH",
		Amount:  dec("230.25"),
		Symbol:  "USD",
	}
	assert.Equal(t, "2020-06-01 price ETH 230.25 USD", p.String())
}

func TestOption(t *testing.T) {
	o := beancount.NewOperatingCurrency("USD")
	assert.Equal(t, `option "operating_currency" "USD"`, o.String())
}

func TestNewSymbol(t *testing.T) {
	tests := []struct {
		raw      string
		expected beancount.TokenSymbol
	}{
		{"twd", "TWD"},
		{"WETH", "WETH"},
		{"$BASED", "BASED"},
		{"1INCH", "INCH"},
		{"c+charge", "CCHARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, beancount.NewSymbol(tt.raw))
		})
	}
}
