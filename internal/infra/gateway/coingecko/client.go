// Package coingecko implements the price service client: point-in-time
// unit prices, asset info by token contract, and historical series.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/yurenju/paisu/internal/infra/cache"
	"github.com/yurenju/paisu/pkg/logger"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	requestTimeout = 30 * time.Second

	// minRequestInterval respects the public API's free-tier limit.
	minRequestInterval = time.Second

	// historyDateLayout is the DD-MM-YYYY format the history endpoint
	// expects.
	historyDateLayout = "02-01-2006"
)

// EthereumCoinID is the price service's identifier for the native
// asset.
const EthereumCoinID = "ethereum"

// Client is a CoinGecko-compatible API client. Responses are cached by
// request, so repeated lookups for the same asset and date within or
// across runs hit the network once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Store
	logger     *logger.Logger
}

// NewClient creates a new CoinGecko API client.
func NewClient(store cache.Store, log *logger.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(minRequestInterval), 1),
		cache:   store,
		logger:  log.WithField("component", "coingecko"),
	}
}

// SetBaseURL overrides the API endpoint (used in tests).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetCoinInfoByContract looks up an asset by its token contract
// address.
func (c *Client) GetCoinInfoByContract(ctx context.Context, contractAddress string) (*CoinInfo, error) {
	cacheKey := fmt.Sprintf("getCoinInfo(%s)", strings.ToLower(contractAddress))
	path := fmt.Sprintf("/coins/ethereum/contract/%s", strings.ToLower(contractAddress))

	var info CoinInfo
	if err := c.fetch(ctx, cacheKey, path, &info); err != nil {
		return nil, fmt.Errorf("failed to get coin info for %s: %w", contractAddress, err)
	}
	return &info, nil
}

// GetHistoryPrice returns the asset snapshot for one calendar date.
func (c *Client) GetHistoryPrice(ctx context.Context, coinID string, date time.Time) (*CoinInfo, error) {
	formatted := date.Format(historyDateLayout)
	cacheKey := fmt.Sprintf("getHistoryPrice(%s,%s)", coinID, formatted)
	path := fmt.Sprintf("/coins/%s/history?date=%s", coinID, formatted)

	var info CoinInfo
	if err := c.fetch(ctx, cacheKey, path, &info); err != nil {
		return nil, fmt.Errorf("failed to get history price for %s: %w", coinID, err)
	}
	return &info, nil
}

// GetHistoryPriceByCurrency returns the asset's unit price in the
// given currency on one calendar date. A date the service has no data
// for yields zero, not an error.
func (c *Client) GetHistoryPriceByCurrency(ctx context.Context, coinID string, date time.Time, currency string) (decimal.Decimal, error) {
	info, err := c.GetHistoryPrice(ctx, coinID, date)
	if err != nil {
		return decimal.Zero, err
	}
	return info.CurrentPrice(currency), nil
}

// GetHistoryPriceByContract resolves a token contract to its asset ID
// and returns its unit price in the given currency on one calendar
// date.
func (c *Client) GetHistoryPriceByContract(ctx context.Context, contractAddress string, date time.Time, currency string) (decimal.Decimal, error) {
	info, err := c.GetCoinInfoByContract(ctx, contractAddress)
	if err != nil {
		return decimal.Zero, err
	}
	return c.GetHistoryPriceByCurrency(ctx, info.ID, date, currency)
}

// GetMarketChart returns the full historical price series of an asset
// in the given currency.
func (c *Client) GetMarketChart(ctx context.Context, coinID, currency string) (*MarketChart, error) {
	cur := normalizeCurrency(currency)
	cacheKey := fmt.Sprintf("getMarketChart(%s,%s)", coinID, cur)
	path := fmt.Sprintf("/coins/%s/market_chart?vs_currency=%s&days=max", coinID, cur)

	var chart MarketChart
	if err := c.fetch(ctx, cacheKey, path, &chart); err != nil {
		return nil, fmt.Errorf("failed to get market chart for %s: %w", coinID, err)
	}
	return &chart, nil
}

// GetMarketChartByContract returns the historical price series of a
// token looked up by contract address.
func (c *Client) GetMarketChartByContract(ctx context.Context, contractAddress, currency string) (*MarketChart, error) {
	cur := normalizeCurrency(currency)
	addr := strings.ToLower(contractAddress)
	cacheKey := fmt.Sprintf("getMarketChartByContract(%s,%s)", addr, cur)
	path := fmt.Sprintf("/coins/ethereum/contract/%s/market_chart?vs_currency=%s&days=max", addr, cur)

	var chart MarketChart
	if err := c.fetch(ctx, cacheKey, path, &chart); err != nil {
		return nil, fmt.Errorf("failed to get market chart for contract %s: %w", contractAddress, err)
	}
	return &chart, nil
}

// fetch resolves a request through the cache, hitting the network only
// on a miss.
func (c *Client) fetch(ctx context.Context, cacheKey, path string, out interface{}) error {
	cached, found, err := c.cache.Get(ctx, cacheKey)
	if err != nil {
		return fmt.Errorf("cache lookup failed: %w", err)
	}
	if found {
		return json.Unmarshal([]byte(cached), out)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			RetryAfter: time.Minute,
			Message:    "price service rate limit exceeded",
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if err := c.cache.Put(ctx, cacheKey, string(body)); err != nil {
		c.logger.Warn("failed to cache response", "error", err)
	}

	return nil
}

func normalizeCurrency(currency string) string {
	return strings.ToLower(currency)
}

// RateLimitError reports that the price service rejected the request
// for exceeding its rate limit.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
}
